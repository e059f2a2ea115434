// Package singleflight 合并同一个 key 的并发加载，并为每个调用方分发独立的所有权份额
package singleflight

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/linhx1999/ImageCache-Go/references"
)

// call 代表一个正在执行或已完成的请求
type call[T any] struct {
	waitGroup sync.WaitGroup     // 用于阻塞等待相同 key 的并发请求
	ref       *references.Ref[T] // 请求返回的结果，持有一份属于本次请求的所有权
	err       error              // 请求执行过程中发生的错误
	callers   atomic.Int32       // 尚未取走结果的调用方数量
}

// Group 用于管理并发请求，确保相同 key 的请求只执行一次
type Group[T any] struct {
	mu    sync.Mutex
	calls map[string]*call[T] // key -> *call，存储正在执行的请求
}

// Do 执行给定函数 fn，并确保对于相同的 key，在任意时刻只有一个 fn 正在执行
//
// fn 返回的引用属于本次请求。每个调用方（包括执行 fn 的那一个）都会拿到自己的一份克隆，
// 最后一个取走结果的调用方负责关闭 fn 返回的那一份，因此调用方必须关闭自己拿到的引用。
func (g *Group[T]) Do(key string, fn func() (*references.Ref[T], error)) (*references.Ref[T], error) {
	g.mu.Lock()
	if g.calls == nil {
		g.calls = make(map[string]*call[T])
	}

	// 检查是否已有正在执行的请求
	if c, ok := g.calls[key]; ok {
		c.callers.Add(1)
		g.mu.Unlock()
		c.waitGroup.Wait() // 等待正在执行的请求完成
		return c.take()
	}

	// 没有正在执行的请求，创建新的请求
	c := &call[T]{}
	c.callers.Store(1)
	c.waitGroup.Add(1)
	g.calls[key] = c // 存储到 map 中，让其他相同 key 的请求能够发现
	g.mu.Unlock()

	g.doCall(key, c, fn)
	return c.take()
}

// doCall 执行 fn 并在完成后唤醒所有等待者，fn panic 时等待者收到错误
func (g *Group[T]) doCall(key string, c *call[T], fn func() (*references.Ref[T], error)) {
	normalReturn := false
	defer func() {
		if !normalReturn {
			if r := recover(); r != nil {
				c.err = fmt.Errorf("singleflight: load panicked: %v", r)
				g.finish(key, c)
				panic(r)
			}
		}
		g.finish(key, c)
	}()

	c.ref, c.err = fn()
	if c.err == nil && !c.ref.IsValid() {
		c.err = references.ErrClosed
	}
	if c.err != nil && c.ref != nil {
		_ = c.ref.Close()
		c.ref = nil
	}
	normalReturn = true
}

// finish 从 map 中移除请求后通知等待者，移除之后不会再有新的调用方加入
func (g *Group[T]) finish(key string, c *call[T]) {
	g.mu.Lock()
	delete(g.calls, key)
	g.mu.Unlock()
	c.waitGroup.Done()
}

// take 为调用方克隆一份结果，最后一个调用方关闭请求自己的那一份
func (c *call[T]) take() (*references.Ref[T], error) {
	if c.err != nil {
		c.callers.Add(-1)
		return nil, c.err
	}

	share, err := c.ref.Clone()
	if c.callers.Add(-1) == 0 {
		_ = c.ref.Close()
	}
	return share, err
}
