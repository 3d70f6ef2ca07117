package service

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestPreviewManager_RegisterLookup(t *testing.T) {
	m := NewPreviewManager(nil)

	h1 := m.Register([]byte("one"), "image/jpeg")
	h2 := m.Register([]byte("one"), "image/jpeg")
	assert.NotEqual(t, h1, h2, "相同数据也分配新句柄")
	assert.Equal(t, 2, m.Outstanding())

	blob, contentType, ok := m.Lookup(h1)
	assert.True(t, ok)
	assert.Equal(t, []byte("one"), blob)
	assert.Equal(t, "image/jpeg", contentType)
}

func TestPreviewManager_RevokeIdempotent(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	m := NewPreviewManager(zap.New(core))

	h := m.Register([]byte("x"), "image/jpeg")
	m.Revoke(h)
	assert.Equal(t, 0, m.Outstanding())
	assert.Equal(t, 0, logs.Len())

	// 重复撤销与未知句柄都不报错，只记 Warn
	m.Revoke(h)
	m.Revoke("never-issued")
	assert.Equal(t, 2, logs.Len())

	_, _, ok := m.Lookup(h)
	assert.False(t, ok)
}

func TestPreviewManager_RevokeAll(t *testing.T) {
	m := NewPreviewManager(nil)
	for i := 0; i < 5; i++ {
		m.Register([]byte{byte(i)}, "image/jpeg")
	}

	assert.Equal(t, 5, m.RevokeAll())
	assert.Equal(t, 0, m.Outstanding())
	assert.Equal(t, 0, m.RevokeAll())
}

func TestPreviewManager_ConcurrentLookup(t *testing.T) {
	m := NewPreviewManager(nil)
	h := m.Register([]byte("x"), "image/jpeg")

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.Lookup(h)
			m.Register([]byte("y"), "image/jpeg")
		}()
	}
	wg.Wait()

	assert.Equal(t, 21, m.Outstanding())
}
