// Package references 提供引用计数的所有权份额
//
// 一个值可以被多个 Ref 共享，每个 Ref 代表一份所有权。Clone 获取一份新的所有权，
// Close 释放自己持有的那一份；最后一份被释放时，值的释放函数被调用且只调用一次。
package references

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
)

// ErrClosed 在已关闭的引用上获取新份额时返回
var ErrClosed = errors.New("references: reference is closed")

// shared 保存被共享的值和份额计数
type shared[T any] struct {
	mu       sync.Mutex
	value    T
	count    int         // 仍然存活的份额数量
	release  func(T)     // 最后一份释放时调用
	released atomic.Bool // 值是否已经被释放
}

// Ref 是对共享值的一份所有权
//
// Ref 可以被多个协程并发使用。Close 是幂等的，只有第一次调用会释放份额。
type Ref[T any] struct {
	shared *shared[T]
	closed atomic.Bool
}

// Of 为实现了 io.Closer 的值创建第一份所有权，最后一份释放时调用 Close
func Of[T io.Closer](value T) *Ref[T] {
	return OfWith(value, func(v T) { _ = v.Close() })
}

// OfWith 使用自定义释放函数创建第一份所有权，release 为 nil 时释放不做任何事
func OfWith[T any](value T, release func(T)) *Ref[T] {
	if release == nil {
		release = func(T) {}
	}
	return &Ref[T]{shared: &shared[T]{value: value, count: 1, release: release}}
}

// Get 返回共享值，不转移所有权；在已关闭的引用上调用会 panic
func (r *Ref[T]) Get() T {
	if r.closed.Load() {
		panic("references: Get on closed reference")
	}
	return r.shared.value
}

// IsValid 报告这份所有权是否仍未释放
func (r *Ref[T]) IsValid() bool {
	return r != nil && !r.closed.Load()
}

// Clone 获取一份新的所有权
func (r *Ref[T]) Clone() (*Ref[T], error) {
	if !r.IsValid() {
		return nil, ErrClosed
	}

	s := r.shared
	s.mu.Lock()
	defer s.mu.Unlock()
	// 其他份额可能刚刚把计数降为 0
	if s.count == 0 {
		return nil, ErrClosed
	}
	s.count++
	return &Ref[T]{shared: s}, nil
}

// CloneOrNil 与 Clone 相同，失败时返回 nil
func (r *Ref[T]) CloneOrNil() *Ref[T] {
	c, err := r.Clone()
	if err != nil {
		return nil
	}
	return c
}

// Close 释放这份所有权，重复调用不做任何事
func (r *Ref[T]) Close() error {
	if r == nil || !r.closed.CompareAndSwap(false, true) {
		return nil
	}

	s := r.shared
	s.mu.Lock()
	s.count--
	last := s.count == 0
	s.mu.Unlock()

	if last {
		s.released.Store(true)
		s.release(s.value)
	}
	return nil
}

// ShareCount 返回共享值当前存活的份额数量，nil 引用返回 0
func (r *Ref[T]) ShareCount() int {
	if r == nil {
		return 0
	}
	s := r.shared
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.count
}

// Released 报告共享值是否已经被释放，nil 引用视为已释放
func (r *Ref[T]) Released() bool {
	if r == nil {
		return true
	}
	return r.shared.released.Load()
}

// String 用于调试输出
func (r *Ref[T]) String() string {
	if r == nil {
		return "Ref{nil}"
	}
	return fmt.Sprintf("Ref{valid=%t, shares=%d}", r.IsValid(), r.ShareCount())
}
