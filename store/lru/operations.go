package lru

import (
	"container/list"
	"fmt"
)

// Remove 从缓存中删除指定键的项，返回被删除的值
func (c *Cache[K, V]) Remove(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.entries[key]
	if !ok {
		var zero V
		return zero, false
	}
	value := elem.Value.(*cacheEntry[K, V]).value
	c.removeElement(elem, Removed)
	return value, true
}

// RemoveFunc 删除所有使 pred 返回 true 的项，返回删除的数量
//
// 遍历从最久未使用的一端开始，整个过程持有锁。删除不计入淘汰次数。
func (c *Cache[K, V]) RemoveFunc(pred func(key K, value V) bool) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for elem := c.lruList.Front(); elem != nil; {
		next := elem.Next()
		entry := elem.Value.(*cacheEntry[K, V])
		if pred(entry.key, entry.value) {
			c.removeElement(elem, Removed)
			removed++
		}
		elem = next
	}
	return removed
}

// Any 判断是否存在使 pred 返回 true 的项，遇到第一个匹配即返回
func (c *Cache[K, V]) Any(pred func(key K, value V) bool) bool {
	found := false
	c.Range(func(key K, value V) bool {
		found = pred(key, value)
		return !found
	})
	return found
}

// Range 按从最久未使用到最近使用的顺序遍历缓存，fn 返回 false 时停止
//
// fn 在持有锁时执行，不会改变 LRU 顺序。
func (c *Cache[K, V]) Range(fn func(key K, value V) bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for elem := c.lruList.Front(); elem != nil; elem = elem.Next() {
		entry := elem.Value.(*cacheEntry[K, V])
		if !fn(entry.key, entry.value) {
			return
		}
	}
}

// Keys 返回按从最久未使用到最近使用排列的键快照
func (c *Cache[K, V]) Keys() []K {
	c.mu.Lock()
	defer c.mu.Unlock()

	keys := make([]K, 0, c.lruList.Len())
	for elem := c.lruList.Front(); elem != nil; elem = elem.Next() {
		keys = append(keys, elem.Value.(*cacheEntry[K, V]).key)
	}
	return keys
}

// Clear 清空缓存，返回清除的数量
func (c *Cache[K, V]) Clear() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	cleared := 0
	for elem := c.lruList.Front(); elem != nil; {
		next := elem.Next()
		c.removeElement(elem, Cleared)
		cleared++
		elem = next
	}
	return cleared
}

// Resize 修改权重上限并按 LRU 顺序淘汰到上限以内，返回淘汰的数量
//
// 与 Put 不同，这里没有对最新条目的豁免。
func (c *Cache[K, V]) Resize(maxWeight int64) int {
	if maxWeight <= 0 {
		panic(fmt.Sprintf("lru: maxWeight must be positive, got %d", maxWeight))
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.maxWeight = maxWeight
	evicted := 0
	for c.weight > c.maxWeight && c.lruList.Len() > 0 {
		c.removeElement(c.lruList.Front(), Evicted)
		evicted++
	}
	return evicted
}

// Len 返回缓存中的项数
func (c *Cache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lruList.Len()
}

// Weight 返回当前总权重
func (c *Cache[K, V]) Weight() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.weight
}

// MaxWeight 返回权重上限
func (c *Cache[K, V]) MaxWeight() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.maxWeight
}

// Stats 返回计数器快照
func (c *Cache[K, V]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{
		Len:       c.lruList.Len(),
		Weight:    c.weight,
		MaxWeight: c.maxWeight,
		Puts:      c.puts,
		Evictions: c.evictions,
		Removals:  c.removals,
	}
}

// removeElement 从缓存中删除元素，调用此方法前必须持有锁
func (c *Cache[K, V]) removeElement(elem *list.Element, reason RemovalReason) {
	entry := elem.Value.(*cacheEntry[K, V])
	c.lruList.Remove(elem)
	delete(c.entries, entry.key)
	c.weight -= entry.weight

	if reason == Evicted {
		c.evictions++
	} else {
		c.removals++
	}
	c.onRemoved(entry.key, entry.value, reason)
}

// evict 根据权重上限淘汰最久未使用的项，newest 不会被淘汰，调用此方法前必须持有锁
func (c *Cache[K, V]) evict(newest *list.Element) {
	for c.weight > c.maxWeight {
		elem := c.lruList.Front() // 获取最久未使用的项（链表头部）
		if elem == nil || elem == newest {
			return
		}
		c.removeElement(elem, Evicted)
	}
}
