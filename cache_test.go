package imagecache

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linhx1999/ImageCache-Go/references"
)

// fakeImage 记录 Close 次数的测试图片
type fakeImage struct {
	name   string
	size   int
	closes atomic.Int32
}

func (f *fakeImage) Close() error     { f.closes.Add(1); return nil }
func (f *fakeImage) SizeInBytes() int { return f.size }
func (f *fakeImage) Width() int       { return f.size }
func (f *fakeImage) Height() int      { return 1 }
func (f *fakeImage) IsClosed() bool   { return f.closes.Load() > 0 }

// newEntry 创建一个条目，返回调用方持有的引用和底层图片
func newEntry(name string, size int) (SizedEntry, *fakeImage) {
	img := &fakeImage{name: name, size: size}
	return NewSizedEntry(references.Of[CloseableImage](img), size), img
}

// putFresh 缓存一个新条目并关闭调用方的份额，使缓存成为唯一持有者
func putFresh(t *testing.T, c *Cache[string], key string, size int) *fakeImage {
	t.Helper()
	entry, img := newEntry(key, size)
	c.Put(key, entry)
	require.NoError(t, entry.Ref.Close())
	return img
}

func newTestCache(t *testing.T, maxSize int) (*Cache[string], *test.Hook) {
	t.Helper()
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	return NewCache[string](maxSize, WithLogger(logger)), hook
}

func TestNewCacheInvalidMaxSize(t *testing.T) {
	t.Parallel()

	assert.Panics(t, func() { NewCache[string](0) })
	assert.Panics(t, func() { NewCache[string](-10) })
}

func TestCacheInvalidEntries(t *testing.T) {
	t.Parallel()

	c, _ := newTestCache(t, 10)
	assert.Panics(t, func() { c.Put("nil", SizedEntry{Size: 1}) })
	assert.Panics(t, func() { newEntry("neg", -1) })

	entry, _ := newEntry("closed", 1)
	require.NoError(t, entry.Ref.Close())
	assert.Panics(t, func() { c.Put("closed", entry) })
	assert.Equal(t, 0, c.Count())
}

func TestCacheBasicLRU(t *testing.T) {
	t.Parallel()

	c, _ := newTestCache(t, 10)
	a := putFresh(t, c, "A", 4)
	putFresh(t, c, "B", 4)
	putFresh(t, c, "C", 4)

	assert.Equal(t, []string{"B", "C"}, c.Keys())
	assert.Equal(t, 8, c.Size())
	assert.Equal(t, uint64(1), c.Stats().Evictions)
	assert.Equal(t, int32(1), a.closes.Load(), "eviction must release the cache's share")

	// Get 提升 B，下一次淘汰 C
	entry, ok := c.Get("B")
	require.True(t, ok)
	assert.Equal(t, 4, entry.Size)
	putFresh(t, c, "D", 4)
	assert.Equal(t, []string{"B", "D"}, c.Keys())
}

func TestCachePeekDoesNotPromote(t *testing.T) {
	t.Parallel()

	c, _ := newTestCache(t, 10)
	a := putFresh(t, c, "A", 4)
	putFresh(t, c, "B", 4)

	before := c.Stats()
	img, ok := c.Peek("A")
	require.True(t, ok)
	assert.Same(t, a, img)
	assert.Equal(t, before, c.Stats())
	assert.Equal(t, []string{"A", "B"}, c.Keys())

	putFresh(t, c, "C", 4)
	assert.Equal(t, []string{"B", "C"}, c.Keys())

	_, ok = c.Peek("A")
	assert.False(t, ok)
}

func TestCacheRemoveAll(t *testing.T) {
	t.Parallel()

	c, _ := newTestCache(t, 10)
	putFresh(t, c, "k1", 2)
	k2 := putFresh(t, c, "k2", 2)
	putFresh(t, c, "k3", 2)
	evictions := c.Stats().Evictions

	n := c.RemoveAll(func(k string) bool { return k == "k2" })
	assert.Equal(t, 1, n)
	assert.Equal(t, []string{"k1", "k3"}, c.Keys())
	assert.Equal(t, 4, c.Size())
	assert.Equal(t, evictions, c.Stats().Evictions)
	assert.Equal(t, int32(1), k2.closes.Load())

	before := c.Stats()
	assert.Equal(t, 0, c.RemoveAll(func(string) bool { return false }))
	assert.Equal(t, before, c.Stats())
}

func TestCacheContainsAgreesWithRemoveAll(t *testing.T) {
	t.Parallel()

	preds := map[string]func(string) bool{
		"none":   func(string) bool { return false },
		"all":    func(string) bool { return true },
		"prefix": func(k string) bool { return k[0] == 'b' },
		"exact":  func(k string) bool { return k == "a2" },
	}
	for name, pred := range preds {
		pred := pred
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			c, _ := newTestCache(t, 100)
			for _, k := range []string{"a1", "a2", "a3", "c1"} {
				putFresh(t, c, k, 1)
			}
			contains := c.Contains(pred)
			assert.Equal(t, contains, c.RemoveAll(pred) > 0)
			assert.False(t, c.Contains(pred), "no matching key may remain")
		})
	}
}

func TestCacheOversizeEntry(t *testing.T) {
	t.Parallel()

	c, hook := newTestCache(t, 5)
	putFresh(t, c, "A", 3)
	putFresh(t, c, "B", 3)
	assert.Equal(t, []string{"B"}, c.Keys())

	putFresh(t, c, "C", 7)
	assert.Equal(t, []string{"C"}, c.Keys())
	assert.Equal(t, 7, c.Size())
	assert.True(t, c.ContainsKey("C"))

	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
	assert.Equal(t, 7, hook.LastEntry().Data["size"])
}

func TestCacheMaxSizeOne(t *testing.T) {
	t.Parallel()

	c, _ := newTestCache(t, 1)
	putFresh(t, c, "a", 1)
	assert.True(t, c.ContainsKey("a"))
	putFresh(t, c, "b", 1)
	assert.False(t, c.ContainsKey("a"))
	assert.True(t, c.ContainsKey("b"))
}

func TestCacheReplace(t *testing.T) {
	t.Parallel()

	c, _ := newTestCache(t, 10)
	old := putFresh(t, c, "a", 2)
	putFresh(t, c, "b", 2)

	entry, img := newEntry("a", 5)
	prev, replaced := c.Put("a", entry)
	require.True(t, replaced)
	assert.Equal(t, 2, prev.Size)
	assert.False(t, prev.Ref.IsValid(), "the replaced share is released")
	assert.Equal(t, int32(1), old.closes.Load())

	assert.Equal(t, 2, c.Count())
	assert.Equal(t, 7, c.Size())
	assert.Equal(t, []string{"b", "a"}, c.Keys())

	require.NoError(t, entry.Ref.Close())
	assert.Equal(t, int32(0), img.closes.Load(), "the cache still holds its own share")
}

func TestCacheOwnershipRelease(t *testing.T) {
	t.Parallel()

	c, _ := newTestCache(t, 10)
	entry, img := newEntry("A", 4)
	c.Put("A", entry)
	assert.Equal(t, 2, entry.Ref.ShareCount())

	_, ok := c.Remove("A")
	require.True(t, ok)
	assert.Equal(t, 1, entry.Ref.ShareCount())
	assert.Equal(t, int32(0), img.closes.Load())

	_, ok = c.Remove("A")
	assert.False(t, ok)
	assert.Equal(t, 1, entry.Ref.ShareCount(), "a second remove releases nothing")

	require.NoError(t, entry.Ref.Close())
	assert.Equal(t, int32(1), img.closes.Load())
}

func TestCachePutRemoveRoundTrip(t *testing.T) {
	t.Parallel()

	c, _ := newTestCache(t, 10)
	putFresh(t, c, "x", 3)
	before := c.Stats()

	putFresh(t, c, "y", 4)
	c.Remove("y")

	after := c.Stats()
	assert.Equal(t, before.Size, after.Size)
	assert.Equal(t, before.Count, after.Count)
	assert.Equal(t, before.Puts+1, after.Puts)
	assert.Equal(t, before.Evictions, after.Evictions)
}

func TestCacheGetShareOutlivesEviction(t *testing.T) {
	t.Parallel()

	c, _ := newTestCache(t, 4)
	img := putFresh(t, c, "a", 4)

	share, ok := c.GetShare("a")
	require.True(t, ok)
	putFresh(t, c, "b", 4)
	assert.False(t, c.ContainsKey("a"))

	assert.Same(t, img, share.Get())
	assert.Equal(t, int32(0), img.closes.Load())
	require.NoError(t, share.Close())
	assert.Equal(t, int32(1), img.closes.Load())

	_, ok = c.GetShare("a")
	assert.False(t, ok)
}

func TestCacheClearAndResize(t *testing.T) {
	t.Parallel()

	c, _ := newTestCache(t, 10)
	imgs := []*fakeImage{
		putFresh(t, c, "a", 3),
		putFresh(t, c, "b", 3),
		putFresh(t, c, "c", 3),
	}

	assert.Equal(t, 2, c.Resize(3))
	assert.Equal(t, []string{"c"}, c.Keys())
	assert.Equal(t, 3, c.MaxSize())
	assert.Panics(t, func() { c.Resize(0) })

	assert.Equal(t, 1, c.Clear())
	assert.Equal(t, 0, c.Count())
	assert.Equal(t, 0, c.Size())
	for _, img := range imgs {
		assert.Equal(t, int32(1), img.closes.Load())
	}
}

func TestCacheCountMatchesCounters(t *testing.T) {
	t.Parallel()

	c, _ := newTestCache(t, 6)
	for i, k := range []string{"a", "b", "c", "a", "d", "e", "b"} {
		putFresh(t, c, k, i%3+1)
	}
	c.Remove("e")
	c.RemoveAll(func(k string) bool { return k == "d" })

	s := c.Stats()
	assert.Equal(t, uint64(s.Count), s.Puts-s.Evictions-s.Removals)
	assert.LessOrEqual(t, s.Size, s.MaxSize)
}

func TestCacheConcurrentAccess(t *testing.T) {
	t.Parallel()

	c, _ := newTestCache(t, 64)
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				key := string(rune('a' + (g+i)%16))
				entry, _ := newEntry(key, i%8)
				c.Put(key, entry)
				_ = entry.Ref.Close()
				if share, ok := c.GetShare(key); ok {
					_ = share.Close()
				}
				c.Peek(key)
				if i%50 == 0 {
					c.RemoveAll(func(k string) bool { return k == key })
				}
			}
		}(g)
	}
	wg.Wait()

	s := c.Stats()
	assert.LessOrEqual(t, s.Size, s.MaxSize)
	assert.Equal(t, uint64(s.Count), s.Puts-s.Evictions-s.Removals)
}
