package store

import "github.com/linhx1999/ImageCache-Go/store/lru"

// RemovalReason 条目离开存储的原因，使 Store 的使用方无需导入 lru 包
type RemovalReason = lru.RemovalReason

// Stats 存储计数器快照，由 Store.Stats 返回
type Stats = lru.Stats

// Store 按权重限制的 LRU 存储接口
//
// 实现必须用一把互斥锁串行化所有方法，回调在锁内执行。
type Store[K comparable, V any] interface {
	Put(key K, value V) (V, bool)
	Get(key K) (V, bool)
	GetFunc(key K, fn func(V)) bool
	Peek(key K) (V, bool)
	PeekFunc(key K, fn func(V)) bool
	Contains(key K) bool
	Remove(key K) (V, bool)
	RemoveFunc(pred func(key K, value V) bool) int
	Any(pred func(key K, value V) bool) bool
	Range(fn func(key K, value V) bool)
	Keys() []K
	Clear() int
	Resize(maxWeight int64) int
	Len() int
	Weight() int64
	MaxWeight() int64
	Stats() Stats
}

// Options 存储配置选项
type Options[K comparable, V any] struct {
	MaxWeight int64                                      // 最大总权重
	SizeOf    func(key K, value V) int64                 // 权重函数，nil 表示每项权重为 1
	OnRemoved func(key K, value V, reason RemovalReason) // 条目离开存储时调用
}
