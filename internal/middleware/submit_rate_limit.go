package middleware

import (
	"fmt"
	"math"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// ==================== 提交限流中间件 ====================

// SubmitRateLimit 按 form_id 限流
// known 判断表单是否仍打开；不存在的表单直接放行，由控制器返回 404，
// 这样限流表里只有会被 Reset 清理的 key
//
// 使用示例:
//
//	forms.POST("/:form_id/submit",
//	    middleware.SubmitRateLimit(limiter, formCtl.HasForm),
//	    formCtl.Submit,
//	)
func SubmitRateLimit(limiter *SubmitLimiter, known func(formID string) bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.Param("form_id")
		if key == "" || (known != nil && !known(key)) {
			c.Next()
			return
		}

		result := limiter.Check(key)
		if !result.Allowed {
			retryAfter := int(math.Ceil(result.RetryAfter.Seconds()))
			c.Header("Retry-After", fmt.Sprintf("%d", retryAfter))
			c.JSON(http.StatusTooManyRequests, gin.H{
				"code":    429,
				"message": formatRetryMessage(result.RetryAfter),
				"data": gin.H{
					"retry_after": retryAfter,
				},
			})
			c.Abort()
			return
		}

		c.Next()
	}
}

// formatRetryMessage 格式化重试提示信息
func formatRetryMessage(d time.Duration) string {
	seconds := int(math.Ceil(d.Seconds()))

	if seconds < 60 {
		return fmt.Sprintf("提交过于频繁，请 %d 秒后重试", seconds)
	}

	minutes := seconds / 60
	remainingSeconds := seconds % 60
	if remainingSeconds == 0 {
		return fmt.Sprintf("提交过于频繁，请 %d 分钟后重试", minutes)
	}
	return fmt.Sprintf("提交过于频繁，请 %d 分 %d 秒后重试", minutes, remainingSeconds)
}
