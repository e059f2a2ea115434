package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"strings"

	"github.com/sirupsen/logrus"

	imageCache "github.com/linhx1999/ImageCache-Go"
)

const (
	cacheMaxBytes = 64 << 10 // 64KB
	prefetchLimit = 4
)

func main() {
	// 定义命令行参数
	var maxBytes int
	var count int
	var side int
	var verbose bool

	// 解析命令行参数
	flag.IntVar(&maxBytes, "max-bytes", cacheMaxBytes, "缓存字节上限")
	flag.IntVar(&count, "count", 8, "生成的图片数量")
	flag.IntVar(&side, "side", 48, "图片边长（像素）")
	flag.BoolVar(&verbose, "v", false, "输出调试日志")
	flag.Parse()

	logger := logrus.New()
	if verbose {
		logger.SetLevel(logrus.DebugLevel)
	}

	if err := run(logger, maxBytes, count, side); err != nil {
		logger.Fatalf("[示例] %v", err)
	}
}

// run 执行示例流程，返回前关闭加载器并释放缓存持有的所有份额
func run(logger *logrus.Logger, maxBytes, count, side int) error {
	sources, err := encodeSources(count, side)
	if err != nil {
		return fmt.Errorf("编码失败: %w", err)
	}
	cache := imageCache.NewCache[string](maxBytes, imageCache.WithLogger(logger))
	loader := imageCache.NewLoader[string](cache, pngDecoder(sources),
		imageCache.WithLoaderLogger(logger),
		imageCache.WithPrefetchConcurrency(prefetchLimit),
	)
	defer loader.Close()

	ctx := context.Background()
	keys := make([]string, 0, len(sources))
	for i := 0; i < count; i++ {
		keys = append(keys, fmt.Sprintf("img/%02d", i))
	}

	// 预取所有图片，超过上限的部分会被淘汰
	if err := loader.Prefetch(ctx, keys...); err != nil {
		return fmt.Errorf("预取失败: %w", err)
	}
	printResident(cache)

	// 读取最早的图片：已被淘汰的会重新解码
	share, err := loader.Load(ctx, keys[0])
	if err != nil {
		return fmt.Errorf("加载失败: %w", err)
	}
	img := share.Get()
	fmt.Printf("加载 %s: %dx%d, %d 字节\n", keys[0], img.Width(), img.Height(), img.SizeInBytes())
	_ = share.Close()

	// 删除所有奇数编号的图片
	removed := cache.RemoveAll(func(key string) bool {
		return strings.HasSuffix(key, "1") || strings.HasSuffix(key, "3") ||
			strings.HasSuffix(key, "5") || strings.HasSuffix(key, "7") || strings.HasSuffix(key, "9")
	})
	fmt.Printf("删除了 %d 张奇数编号的图片\n", removed)
	printResident(cache)

	for k, v := range loader.Stats() {
		logger.WithField(k, v).Info("[示例] 统计")
	}
	return nil
}

// encodeSources 在内存中生成 PNG 数据，模拟原始图片来源
func encodeSources(count, side int) (map[string][]byte, error) {
	sources := make(map[string][]byte, count)
	for i := 0; i < count; i++ {
		img := image.NewRGBA(image.Rect(0, 0, side, side))
		c := color.RGBA{R: uint8(i * 30), G: uint8(255 - i*30), B: 128, A: 255}
		for y := 0; y < side; y++ {
			for x := 0; x < side; x++ {
				img.Set(x, y, c)
			}
		}

		var buf bytes.Buffer
		if err := png.Encode(&buf, img); err != nil {
			return nil, err
		}
		sources[fmt.Sprintf("img/%02d", i)] = buf.Bytes()
	}
	return sources, nil
}

// pngDecoder 从内存中的 PNG 数据解码图片
func pngDecoder(sources map[string][]byte) imageCache.DecoderFunc[string] {
	return func(ctx context.Context, key string) (imageCache.CloseableImage, error) {
		data, ok := sources[key]
		if !ok {
			return nil, fmt.Errorf("image %s not found", key)
		}
		img, err := png.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		return imageCache.NewDecodedImage(img), nil
	}
}

// printResident 打印当前驻留的图片
func printResident(cache *imageCache.Cache[string]) {
	stats := cache.Stats()
	fmt.Printf("驻留 %d 张图片，%d/%d 字节，淘汰 %d 次: %v\n",
		stats.Count, stats.Size, stats.MaxSize, stats.Evictions, cache.Keys())
}
