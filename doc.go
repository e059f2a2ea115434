// Package imagecache 提供按字节权重限制的解码图片 LRU 缓存
//
// 缓存中的每个条目是一个 SizedEntry：一份图片的所有权（references.Ref）加上它的字节权重。
// 总权重超过上限时，从最久未使用的条目开始淘汰，被淘汰的条目释放缓存持有的那一份所有权，
// 缓存之外仍然持有份额的调用方不受影响。
//
// # 访问与检查
//
// Get 和 GetShare 会把条目移动到最近使用的位置；Peek、Contains、ContainsKey 和 RemoveAll
// 的扫描都不会改变 LRU 顺序。Peek 返回的图片只是借用，在下一次修改缓存的调用之后不再保证有效，
// 需要更长生命周期时使用 GetShare 获取独立的所有权。
//
// # 并发
//
// 每个缓存实例使用一把互斥锁串行化所有公开方法。传给 RemoveAll 和 Contains 的谓词在锁内执行，
// 必须快速返回，并且不能回调同一个缓存，否则会死锁。
//
// # 加载
//
// Loader 在缓存未命中时调用 Decoder 解码图片，相同 key 的并发加载只会解码一次。
package imagecache
