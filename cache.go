package imagecache

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/linhx1999/ImageCache-Go/references"
	"github.com/linhx1999/ImageCache-Go/store"
)

// Cache 是按字节权重限制的解码图片 LRU 缓存
//
// 缓存为每个驻留条目持有一份图片所有权：Put 时克隆调用方的引用，条目因淘汰、覆盖、
// 删除、RemoveAll 匹配或 Clear 离开缓存时释放这份所有权。缓存不发出任何淘汰通知。
type Cache[K comparable] struct {
	store  store.Store[K, SizedEntry] // 底层 LRU 存储，持有唯一的互斥锁
	logger logrus.FieldLogger
}

// Stats 缓存计数器快照
type Stats struct {
	Count     int    // 驻留条目数
	Size      int    // 当前总字节数
	MaxSize   int    // 字节上限
	Puts      uint64 // Put 次数
	Evictions uint64 // 因容量压力淘汰的次数
	Removals  uint64 // 覆盖、删除、RemoveAll 和 Clear 移除的次数
}

// NewCache 创建一个字节上限为 maxSize 的缓存，maxSize 必须为正数
func NewCache[K comparable](maxSize int, opts ...Option) *Cache[K] {
	if maxSize <= 0 {
		panic(fmt.Sprintf("imagecache: maxSize must be positive, got %d", maxSize))
	}

	o := DefaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	c := &Cache[K]{logger: o.Logger}
	storeOpts := store.NewOptions[K, SizedEntry]()
	storeOpts.MaxWeight = int64(maxSize)
	storeOpts.SizeOf = sizeOf[K]
	storeOpts.OnRemoved = c.release
	c.store = store.NewStore(storeOpts)

	c.logger.WithField("max_size", maxSize).Debug("[ImageCache] created")
	return c
}

// Put 缓存 entry，返回被替换的旧条目
//
// 缓存会克隆 entry.Ref 获取自己的一份所有权，调用方仍需关闭自己持有的引用。
// 返回的旧条目所持有的份额已经被释放，只能用于读取 Size。
// entry.Size 超过上限时条目仍会被缓存，并淘汰其他所有条目。
func (c *Cache[K]) Put(key K, entry SizedEntry) (SizedEntry, bool) {
	entry.validate()
	share, err := entry.Ref.Clone()
	if err != nil {
		panic(fmt.Sprintf("imagecache: Put %v: %v", key, err))
	}

	maxSize := c.store.MaxWeight()
	if int64(entry.Size) > maxSize {
		c.logger.WithFields(logrus.Fields{
			"key":      key,
			"size":     entry.Size,
			"max_size": maxSize,
		}).Warn("[ImageCache] entry exceeds max size, evicting all other entries")
	}

	return c.store.Put(key, SizedEntry{Ref: share, Size: entry.Size})
}

// Get 返回 key 对应的条目并将其移动到最近使用的位置
//
// 返回的条目是借用，不转移所有权；需要独立所有权时使用 GetShare。
func (c *Cache[K]) Get(key K) (SizedEntry, bool) {
	return c.store.Get(key)
}

// GetShare 与 Get 相同，但在锁内克隆出一份新的所有权，调用方负责关闭
func (c *Cache[K]) GetShare(key K) (*references.Ref[CloseableImage], bool) {
	var share *references.Ref[CloseableImage]
	c.store.GetFunc(key, func(e SizedEntry) {
		share = e.Ref.CloneOrNil()
	})
	return share, share != nil
}

// Remove 删除 key 对应的条目并释放缓存持有的份额，不计入淘汰次数
func (c *Cache[K]) Remove(key K) (SizedEntry, bool) {
	return c.store.Remove(key)
}

// Size 返回当前总字节数
func (c *Cache[K]) Size() int {
	return int(c.store.Weight())
}

// MaxSize 返回字节上限
func (c *Cache[K]) MaxSize() int {
	return int(c.store.MaxWeight())
}

// Count 返回当前驻留的条目数
func (c *Cache[K]) Count() int {
	return c.store.Len()
}

// RemoveAll 删除所有使 pred 返回 true 的键，返回删除的数量
//
// pred 在锁内执行，不能回调本缓存。删除不计入淘汰次数。
func (c *Cache[K]) RemoveAll(pred func(key K) bool) int {
	return c.store.RemoveFunc(func(key K, _ SizedEntry) bool {
		return pred(key)
	})
}

// Contains 判断是否存在使 pred 返回 true 的键，遇到第一个匹配即返回
func (c *Cache[K]) Contains(pred func(key K) bool) bool {
	return c.store.Any(func(key K, _ SizedEntry) bool {
		return pred(key)
	})
}

// ContainsKey 判断 key 是否驻留，不改变 LRU 顺序
func (c *Cache[K]) ContainsKey(key K) bool {
	return c.store.Contains(key)
}

// Peek 返回 key 对应的图片，不改变 LRU 顺序，也不转移所有权
//
// 返回的图片只在条目仍然驻留时有效。
func (c *Cache[K]) Peek(key K) (CloseableImage, bool) {
	var img CloseableImage
	ok := c.store.PeekFunc(key, func(e SizedEntry) {
		img = e.Ref.Get()
	})
	return img, ok
}

// Keys 返回从最久未使用到最近使用排列的键快照
func (c *Cache[K]) Keys() []K {
	return c.store.Keys()
}

// Clear 清空缓存并释放所有份额，返回清除的数量
func (c *Cache[K]) Clear() int {
	n := c.store.Clear()
	c.logger.WithField("cleared", n).Info("[ImageCache] cleared")
	return n
}

// Resize 修改字节上限并按 LRU 顺序淘汰到上限以内，返回淘汰的数量
func (c *Cache[K]) Resize(maxSize int) int {
	if maxSize <= 0 {
		panic(fmt.Sprintf("imagecache: maxSize must be positive, got %d", maxSize))
	}
	n := c.store.Resize(int64(maxSize))
	c.logger.WithFields(logrus.Fields{
		"max_size": maxSize,
		"evicted":  n,
	}).Info("[ImageCache] resized")
	return n
}

// Stats 返回计数器快照
func (c *Cache[K]) Stats() Stats {
	s := c.store.Stats()
	return Stats{
		Count:     s.Len,
		Size:      int(s.Weight),
		MaxSize:   int(s.MaxWeight),
		Puts:      s.Puts,
		Evictions: s.Evictions,
		Removals:  s.Removals,
	}
}

// release 释放离开缓存的条目持有的份额，在存储的锁内调用
func (c *Cache[K]) release(key K, e SizedEntry, reason store.RemovalReason) {
	if err := e.Ref.Close(); err != nil {
		c.logger.WithFields(logrus.Fields{
			"key":    key,
			"reason": reason,
		}).Errorf("[ImageCache] failed to release entry: %v", err)
	}
}
