package middleware

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// ==================== SubmitLimiter 提交限流器 ====================

// SubmitLimiter 按表单限制提交频率，防止操作员连点把重复请求打到后端
type SubmitLimiter struct {
	limiters sync.Map // formID -> *rate.Limiter
	every    time.Duration
	burst    int
}

// NewSubmitLimiter every 为两次提交的最小间隔
func NewSubmitLimiter(every time.Duration, burst int) *SubmitLimiter {
	if every <= 0 {
		every = 3 * time.Second
	}
	if burst <= 0 {
		burst = 1
	}
	return &SubmitLimiter{every: every, burst: burst}
}

// CheckResult 检查结果
type CheckResult struct {
	Allowed    bool          // 是否允许
	RetryAfter time.Duration // 剩余冷却时间
}

// Check 检查并消耗一次额度
func (l *SubmitLimiter) Check(key string) CheckResult {
	actual, _ := l.limiters.LoadOrStore(key, rate.NewLimiter(rate.Every(l.every), l.burst))
	limiter := actual.(*rate.Limiter)

	reservation := limiter.Reserve()
	if delay := reservation.Delay(); delay > 0 {
		reservation.Cancel()
		return CheckResult{Allowed: false, RetryAfter: delay}
	}
	return CheckResult{Allowed: true}
}

// Len 当前跟踪的表单数
func (l *SubmitLimiter) Len() int {
	n := 0
	l.limiters.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

// Reset 表单关闭后清理
func (l *SubmitLimiter) Reset(key string) {
	l.limiters.Delete(key)
}
