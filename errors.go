package imagecache

import (
	"errors"

	"github.com/linhx1999/ImageCache-Go/references"
)

// ErrClosedReference 引用已经关闭
var ErrClosedReference = references.ErrClosed

// ErrNilImage 解码器返回了空图片
var ErrNilImage = errors.New("imagecache: decoder returned nil image")

// ErrLoaderClosed 加载器已关闭
var ErrLoaderClosed = errors.New("imagecache: loader is closed")
