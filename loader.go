package imagecache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/linhx1999/ImageCache-Go/references"
	"github.com/linhx1999/ImageCache-Go/singleflight"
)

// Decoder 解码器接口，用于在缓存未命中时生成图片
type Decoder[K comparable] interface {
	Decode(ctx context.Context, key K) (CloseableImage, error)
}

// DecoderFunc 函数类型实现 Decoder 接口
type DecoderFunc[K comparable] func(ctx context.Context, key K) (CloseableImage, error)

// Decode 实现 Decoder 接口
func (f DecoderFunc[K]) Decode(ctx context.Context, key K) (CloseableImage, error) {
	return f(ctx, key)
}

// Loader 是缓存前的解码层
//
// 加载流程：
//
//	Load(key) → 缓存命中 → 返回一份新的所有权
//	          ↓ 未命中
//	     使用 singleflight 合并相同 key 的并发请求
//	          ↓
//	     再次检查缓存，仍未命中则调用 Decoder 解码
//	          ↓
//	     存入缓存并为每个调用方返回独立的所有权
type Loader[K comparable] struct {
	cache           *Cache[K]
	decoder         Decoder[K]
	flights         singleflight.Group[CloseableImage] // 防止同一张图片被并发重复解码
	prefetchWorkers int
	logger          logrus.FieldLogger
	lifecycle       sync.RWMutex // 解码结果入缓存时持有读锁，Close 持有写锁
	closed          atomic.Int32 // 0=运行中，1=已关闭
	stats           loaderStats
}

// loaderStats 保存加载器的统计信息
type loaderStats struct {
	loads          atomic.Int64 // 经过 singleflight 的加载次数
	hits           atomic.Int64 // 缓存命中次数
	misses         atomic.Int64 // 缓存未命中次数
	decodes        atomic.Int64 // 解码成功次数
	decodeErrors   atomic.Int64 // 解码失败次数
	decodeDuration atomic.Int64 // 解码总耗时（纳秒）
}

// NewLoader 创建一个加载器，cache 和 decoder 不能为 nil
func NewLoader[K comparable](cache *Cache[K], decoder Decoder[K], opts ...LoaderOption) *Loader[K] {
	if cache == nil {
		panic("imagecache: nil Cache")
	}
	if decoder == nil {
		panic("imagecache: nil Decoder")
	}

	o := loaderOptions{logger: cache.logger}
	for _, opt := range opts {
		opt(&o)
	}

	return &Loader[K]{
		cache:           cache,
		decoder:         decoder,
		prefetchWorkers: o.prefetchWorkers,
		logger:          o.logger,
	}
}

// Load 返回 key 对应图片的一份所有权，调用方负责关闭
func (l *Loader[K]) Load(ctx context.Context, key K) (*references.Ref[CloseableImage], error) {
	if l.closed.Load() == 1 {
		return nil, ErrLoaderClosed
	}

	if share, ok := l.cache.GetShare(key); ok {
		l.stats.hits.Add(1)
		return share, nil
	}
	l.stats.misses.Add(1)

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return l.loadOnce(ctx, key)
}

// loadOnce 使用 singleflight 加载数据，相同 key 的并发请求只解码一次
//
// 解码由多个调用方共享，因此不继承发起者的取消信号：发起者被取消不会让其他等待者失败。
func (l *Loader[K]) loadOnce(ctx context.Context, key K) (*references.Ref[CloseableImage], error) {
	l.stats.loads.Add(1)
	decodeCtx := context.WithoutCancel(ctx)

	return l.flights.Do(flightKey(key), func() (*references.Ref[CloseableImage], error) {
		// 等待期间其他请求可能已经存入缓存
		if share, ok := l.cache.GetShare(key); ok {
			return share, nil
		}
		return l.decode(decodeCtx, key)
	})
}

// decode 调用解码器并把结果存入缓存，返回的引用持有一份所有权
func (l *Loader[K]) decode(ctx context.Context, key K) (*references.Ref[CloseableImage], error) {
	start := time.Now()
	img, err := l.decoder.Decode(ctx, key)
	l.stats.decodeDuration.Add(time.Since(start).Nanoseconds())

	if err == nil && img == nil {
		err = ErrNilImage
	}
	if err != nil {
		// 取消和超时不是解码失败
		if !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
			l.stats.decodeErrors.Add(1)
			l.logger.WithField("key", key).Warnf("[Loader] failed to decode: %v", err)
		}
		return nil, fmt.Errorf("decode %v: %w", key, err)
	}
	l.stats.decodes.Add(1)

	ref := references.Of(img)

	l.lifecycle.RLock()
	defer l.lifecycle.RUnlock()
	// 解码期间加载器可能已经关闭，此时不能再把结果放回已清空的缓存
	if l.closed.Load() == 1 {
		_ = ref.Close()
		return nil, ErrLoaderClosed
	}
	l.cache.Put(key, EntryOf(ref))
	return ref, nil
}

// Prefetch 并发加载 keys 并存入缓存，返回第一个错误
func (l *Loader[K]) Prefetch(ctx context.Context, keys ...K) error {
	eg, ctx := errgroup.WithContext(ctx)
	if l.prefetchWorkers > 0 {
		eg.SetLimit(l.prefetchWorkers)
	}

	for _, key := range keys {
		key := key
		eg.Go(func() error {
			share, err := l.Load(ctx, key)
			if err != nil {
				return err
			}
			return share.Close()
		})
	}
	return eg.Wait()
}

// Close 关闭加载器并清空缓存，释放缓存持有的所有份额
func (l *Loader[K]) Close() error {
	l.lifecycle.Lock()
	defer l.lifecycle.Unlock()

	// 如果已经关闭，直接返回
	if !l.closed.CompareAndSwap(0, 1) {
		return nil
	}

	n := l.cache.Clear()
	l.logger.WithField("released", n).Info("[Loader] closed")
	return nil
}

// Stats 返回加载器统计信息
func (l *Loader[K]) Stats() map[string]interface{} {
	stats := map[string]interface{}{
		"closed":        l.closed.Load() == 1,
		"loads":         l.stats.loads.Load(),
		"hits":          l.stats.hits.Load(),
		"misses":        l.stats.misses.Load(),
		"decodes":       l.stats.decodes.Load(),
		"decode_errors": l.stats.decodeErrors.Load(),
	}

	// 计算命中率
	totalGets := stats["hits"].(int64) + stats["misses"].(int64)
	if totalGets > 0 {
		stats["hit_rate"] = float64(stats["hits"].(int64)) / float64(totalGets)
	}

	totalDecodes := stats["decodes"].(int64) + stats["decode_errors"].(int64)
	if totalDecodes > 0 {
		stats["avg_decode_time_ms"] = float64(l.stats.decodeDuration.Load()) / float64(totalDecodes) / float64(time.Millisecond)
	}

	// 添加缓存统计
	cs := l.cache.Stats()
	stats["cache_count"] = cs.Count
	stats["cache_size"] = cs.Size
	stats["cache_max_size"] = cs.MaxSize
	stats["cache_evictions"] = cs.Evictions

	return stats
}

// flightKey 把任意可比较的键转换为 singleflight 使用的字符串，包含类型信息以区分不同类型的键
func flightKey[K comparable](key K) string {
	return fmt.Sprintf("%T:%#v", key, key)
}
