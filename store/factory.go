package store

import "github.com/linhx1999/ImageCache-Go/store/lru"

// DefaultMaxWeight 默认权重上限（8MB）
const DefaultMaxWeight = 8 * 1024 * 1024

// NewOptions 创建带有默认值的存储配置选项
func NewOptions[K comparable, V any]() Options[K, V] {
	return Options[K, V]{
		MaxWeight: DefaultMaxWeight,
	}
}

// NewStore 根据选项创建存储实例
func NewStore[K comparable, V any](opts Options[K, V]) Store[K, V] {
	return lru.New(opts.MaxWeight, opts.SizeOf, opts.OnRemoved)
}
