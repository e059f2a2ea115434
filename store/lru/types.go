package lru

import (
	"container/list"
	"sync"
)

// RemovalReason 表示条目离开缓存的原因
type RemovalReason int

const (
	// Evicted 因总权重超过上限而被淘汰
	Evicted RemovalReason = iota
	// Replaced 被相同键的 Put 覆盖
	Replaced
	// Removed 被 Remove 或 RemoveFunc 显式删除
	Removed
	// Cleared 被 Clear 清空
	Cleared
)

// String 返回原因的可读名称
func (r RemovalReason) String() string {
	switch r {
	case Evicted:
		return "evicted"
	case Replaced:
		return "replaced"
	case Removed:
		return "removed"
	case Cleared:
		return "cleared"
	default:
		return "unknown"
	}
}

// Cache 是基于标准库 list 的按权重限制的 LRU 缓存实现
//
// 链表头部是最久未使用的条目，尾部是最近使用的条目。所有公开方法都持有同一把互斥锁，
// sizeOf、onRemoved 以及传入 Range/RemoveFunc/Any 的回调都在锁内执行，
// 因此它们不能再调用同一个 Cache 的方法，否则会死锁。
type Cache[K comparable, V any] struct {
	mu        sync.Mutex
	lruList   *list.List                                 // 双向链表，用于维护 LRU 顺序
	entries   map[K]*list.Element                        // 键到链表节点的映射
	maxWeight int64                                      // 最大允许权重
	weight    int64                                      // 当前总权重
	sizeOf    func(key K, value V) int64                 // 权重函数，条目驻留期间结果不能变化
	onRemoved func(key K, value V, reason RemovalReason) // 条目离开缓存时调用，恰好一次

	puts      uint64 // Put 次数
	evictions uint64 // 因权重压力淘汰的次数
	removals  uint64 // 其他离开缓存的次数（覆盖、删除、清空）
}

// cacheEntry 表示缓存中的一个条目
type cacheEntry[K comparable, V any] struct {
	key    K
	value  V
	weight int64 // 插入时计算的权重，删除时按此值扣减
}

// Stats 是缓存计数器的快照
type Stats struct {
	Len       int
	Weight    int64
	MaxWeight int64
	Puts      uint64
	Evictions uint64
	Removals  uint64
}
