package imagecache

import (
	"fmt"

	"github.com/linhx1999/ImageCache-Go/references"
)

// SizedEntry 是缓存中的值：一份图片所有权和它的字节权重
//
// 驻留在缓存中的 SizedEntry 持有且只持有一份所有权，条目离开缓存时这份所有权被释放。
type SizedEntry struct {
	Ref  *references.Ref[CloseableImage]
	Size int
}

// NewSizedEntry 创建一个条目，ref 为 nil 或 size 为负数时 panic
func NewSizedEntry(ref *references.Ref[CloseableImage], size int) SizedEntry {
	e := SizedEntry{Ref: ref, Size: size}
	e.validate()
	return e
}

// EntryOf 使用图片自身报告的字节数创建条目
func EntryOf(ref *references.Ref[CloseableImage]) SizedEntry {
	if ref == nil {
		panic("imagecache: nil image reference")
	}
	return NewSizedEntry(ref, ref.Get().SizeInBytes())
}

// Image 返回条目持有的图片，不转移所有权
func (e SizedEntry) Image() CloseableImage {
	return e.Ref.Get()
}

func (e SizedEntry) validate() {
	if e.Ref == nil {
		panic("imagecache: nil image reference")
	}
	if e.Size < 0 {
		panic(fmt.Sprintf("imagecache: negative entry size %d", e.Size))
	}
}

// sizeOf 是缓存的权重函数
func sizeOf[K comparable](_ K, e SizedEntry) int64 {
	return int64(e.Size)
}
