package lru

import "fmt"

// Get 获取缓存项，命中时将其移动到最近使用的位置
func (c *Cache[K, V]) Get(key K) (V, bool) {
	var value V
	ok := c.GetFunc(key, func(v V) { value = v })
	return value, ok
}

// GetFunc 与 Get 相同，但在持有锁时把值交给 fn
//
// 调用方需要在条目仍然驻留时完成的动作（例如获取一份所有权）放在 fn 中执行。
func (c *Cache[K, V]) GetFunc(key K, fn func(V)) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.entries[key]
	if !ok {
		return false
	}
	c.lruList.MoveToBack(elem)
	fn(elem.Value.(*cacheEntry[K, V]).value)
	return true
}

// Peek 获取缓存项但不改变 LRU 顺序，也不修改任何计数器
func (c *Cache[K, V]) Peek(key K) (V, bool) {
	var value V
	ok := c.PeekFunc(key, func(v V) { value = v })
	return value, ok
}

// PeekFunc 与 Peek 相同，但在持有锁时把值交给 fn
func (c *Cache[K, V]) PeekFunc(key K, fn func(V)) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.entries[key]
	if !ok {
		return false
	}
	fn(elem.Value.(*cacheEntry[K, V]).value)
	return true
}

// Contains 判断键是否存在，不改变 LRU 顺序
func (c *Cache[K, V]) Contains(key K) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, ok := c.entries[key]
	return ok
}

// Put 添加或替换缓存项，返回被替换的旧值
//
// 旧值在新值安装之后才交给 onRemoved。插入后如果总权重超过上限，
// 从链表头部开始淘汰，但刚插入的条目不会因为自身的插入被淘汰：
// 权重超过上限的条目会清空其余所有条目后独自驻留。
func (c *Cache[K, V]) Put(key K, value V) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	weight := c.sizeOf(key, value)
	if weight < 0 {
		panic(fmt.Sprintf("lru: negative weight %d for key %v", weight, key))
	}
	c.puts++

	// 如果键已存在，原地替换并移动到尾部
	if elem, ok := c.entries[key]; ok {
		entry := elem.Value.(*cacheEntry[K, V])
		prev := entry.value
		c.weight += weight - entry.weight
		entry.value = value
		entry.weight = weight
		c.lruList.MoveToBack(elem)

		c.removals++
		c.onRemoved(key, prev, Replaced)
		c.evict(elem)
		return prev, true
	}

	// 添加新项
	elem := c.lruList.PushBack(&cacheEntry[K, V]{key: key, value: value, weight: weight})
	c.entries[key] = elem
	c.weight += weight

	c.evict(elem)

	var zero V
	return zero, false
}
