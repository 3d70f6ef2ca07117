package utils

import (
	"sync"
	"time"
)

// cacheItem 内部结构，包含值和过期时间
type cacheItem[T any] struct {
	value      T
	expiration time.Time
}

// TTLCache 带过期时间的内存缓存（并发安全）
type TTLCache[T any] struct {
	items sync.Map
	ttl   time.Duration
	now   func() time.Time
}

// NewTTLCache 创建缓存，ttl <= 0 时默认 10 分钟
func NewTTLCache[T any](ttl time.Duration) *TTLCache[T] {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &TTLCache[T]{ttl: ttl, now: time.Now}
}

// Set 设置缓存
func (c *TTLCache[T]) Set(key string, value T) {
	c.items.Store(key, cacheItem[T]{
		value:      value,
		expiration: c.now().Add(c.ttl),
	})
}

// Get 获取缓存并验证是否过期
func (c *TTLCache[T]) Get(key string) (T, bool) {
	var zero T
	val, ok := c.items.Load(key)
	if !ok {
		return zero, false
	}

	item := val.(cacheItem[T])
	if c.now().After(item.expiration) {
		c.items.Delete(key) // 懒删除
		return zero, false
	}

	return item.value, true
}

// Delete 删除缓存
func (c *TTLCache[T]) Delete(key string) {
	c.items.Delete(key)
}
