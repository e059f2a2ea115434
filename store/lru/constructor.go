package lru

import (
	"container/list"
	"fmt"
)

// New 创建一个新的 LRU 缓存实例
//
// maxWeight 必须为正数；sizeOf 为 nil 时每个条目权重为 1，即按条目数限制；
// onRemoved 可以为 nil。
func New[K comparable, V any](maxWeight int64, sizeOf func(K, V) int64, onRemoved func(K, V, RemovalReason)) *Cache[K, V] {
	if maxWeight <= 0 {
		panic(fmt.Sprintf("lru: maxWeight must be positive, got %d", maxWeight))
	}
	if sizeOf == nil {
		sizeOf = countOne[K, V]
	}
	if onRemoved == nil {
		onRemoved = noopOnRemoved[K, V]
	}

	return &Cache[K, V]{
		lruList:   list.New(),
		entries:   make(map[K]*list.Element),
		maxWeight: maxWeight,
		sizeOf:    sizeOf,
		onRemoved: onRemoved,
	}
}

func countOne[K comparable, V any](K, V) int64 { return 1 }

// noopOnRemoved 空回调函数，用作默认值以避免 nil 检查
func noopOnRemoved[K comparable, V any](K, V, RemovalReason) {}
