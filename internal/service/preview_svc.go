package service

import (
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ==================== 预览句柄管理 ====================

type previewEntry struct {
	blob        []byte
	contentType string
}

// PreviewManager 预览句柄的唯一持有者
// 预览读取来自并发的 HTTP 请求，句柄表需要加锁
type PreviewManager struct {
	mu      sync.RWMutex
	live    map[string]previewEntry
	revoked map[string]struct{}
	logger  *zap.Logger
}

// NewPreviewManager 创建句柄管理器（生命周期 = 一个表单实例）
func NewPreviewManager(logger *zap.Logger) *PreviewManager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PreviewManager{
		live:    make(map[string]previewEntry),
		revoked: make(map[string]struct{}),
		logger:  logger.Named("preview"),
	}
}

// Register 每次调用分配一个新句柄
func (m *PreviewManager) Register(blob []byte, contentType string) string {
	handle := uuid.New().String()

	m.mu.Lock()
	m.live[handle] = previewEntry{blob: blob, contentType: contentType}
	m.mu.Unlock()

	return handle
}

// Revoke 幂等：重复撤销只记日志
func (m *PreviewManager) Revoke(handle string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.live[handle]; ok {
		delete(m.live, handle)
		m.revoked[handle] = struct{}{}
		return
	}

	if _, ok := m.revoked[handle]; ok {
		m.logger.Warn("句柄重复撤销，已忽略", zap.String("handle", handle))
		return
	}
	m.logger.Warn("撤销未知句柄，已忽略", zap.String("handle", handle))
}

// RevokeAll 表单销毁时撤销全部句柄，返回撤销数量
func (m *PreviewManager) RevokeAll() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := len(m.live)
	for handle := range m.live {
		delete(m.live, handle)
		m.revoked[handle] = struct{}{}
	}
	return n
}

// Lookup 读取预览数据
func (m *PreviewManager) Lookup(handle string) ([]byte, string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	entry, ok := m.live[handle]
	if !ok {
		return nil, "", false
	}
	return entry.blob, entry.contentType, true
}

// Outstanding 未撤销句柄数
func (m *PreviewManager) Outstanding() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.live)
}
