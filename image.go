package imagecache

import (
	"image"
	"io"
	"sync"
)

// bytesPerPixel 解码后每个像素占用的字节数（RGBA）
const bytesPerPixel = 4

// CloseableImage 是可以被释放的解码图片
type CloseableImage interface {
	io.Closer
	// SizeInBytes 返回图片占用的字节数
	SizeInBytes() int
	Width() int
	Height() int
	IsClosed() bool
}

// DecodedImage 是基于标准库 image.Image 的 CloseableImage 实现
type DecodedImage struct {
	mu     sync.RWMutex
	img    image.Image
	bounds image.Rectangle
	closed bool
}

var _ CloseableImage = (*DecodedImage)(nil)

// NewDecodedImage 包装一张已解码的图片
func NewDecodedImage(img image.Image) *DecodedImage {
	return &DecodedImage{img: img, bounds: img.Bounds()}
}

// Image 返回底层图片，关闭后返回 nil
func (d *DecodedImage) Image() image.Image {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.img
}

func (d *DecodedImage) Width() int  { return d.bounds.Dx() }
func (d *DecodedImage) Height() int { return d.bounds.Dy() }

// SizeInBytes 按 RGBA 估算像素数据占用的字节数，关闭后大小不变
func (d *DecodedImage) SizeInBytes() int {
	return d.bounds.Dx() * d.bounds.Dy() * bytesPerPixel
}

// Close 释放像素数据，重复调用不做任何事
func (d *DecodedImage) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.img = nil
	d.closed = true
	return nil
}

func (d *DecodedImage) IsClosed() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.closed
}
