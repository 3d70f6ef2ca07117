package middleware

import (
	"context"
	"reflect"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// ==================== 审计上下文 ====================

type auditContextKey struct{}

// AuditInfo 审计信息
type AuditInfo struct {
	UserID   int64
	Username string
}

// WithAuditInfo 注入审计信息到 context
func WithAuditInfo(ctx context.Context, userID int64, username string) context.Context {
	return context.WithValue(ctx, auditContextKey{}, &AuditInfo{
		UserID:   userID,
		Username: username,
	})
}

// AuditUserID 从 context 获取操作员 ID，未登录返回 0
func AuditUserID(ctx context.Context) int64 {
	if info, ok := ctx.Value(auditContextKey{}).(*AuditInfo); ok {
		return info.UserID
	}
	return 0
}

// AuditContext 把 JWT 中的操作员注入 request context，品牌/分类写库时由 GORM 回调读取
func AuditContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		if userID := GetUserID(c); userID > 0 {
			ctx := WithAuditInfo(c.Request.Context(), userID, GetUsername(c))
			c.Request = c.Request.WithContext(ctx)
		}
		c.Next()
	}
}

// ==================== GORM 回调 ====================

// RegisterAuditCallbacks 创建时填充 CreatedBy/UpdatedBy，更新时只填 UpdatedBy
func RegisterAuditCallbacks(db *gorm.DB) error {
	err := db.Callback().Create().Before("gorm:create").Register("audit:create", func(tx *gorm.DB) {
		if userID := statementUserID(tx); userID > 0 {
			setAuditField(tx, "CreatedBy", userID)
			setAuditField(tx, "UpdatedBy", userID)
		}
	})
	if err != nil {
		return err
	}
	return db.Callback().Update().Before("gorm:update").Register("audit:update", func(tx *gorm.DB) {
		if userID := statementUserID(tx); userID > 0 {
			setAuditField(tx, "UpdatedBy", userID)
		}
	})
}

func statementUserID(tx *gorm.DB) int64 {
	if tx.Statement.Context == nil {
		return 0
	}
	return AuditUserID(tx.Statement.Context)
}

// setAuditField 只覆盖零值字段
func setAuditField(tx *gorm.DB, fieldName string, value int64) {
	if tx.Statement.Schema == nil {
		return
	}
	field := tx.Statement.Schema.LookUpField(fieldName)
	if field == nil {
		return
	}

	ctx := tx.Statement.Context
	switch tx.Statement.ReflectValue.Kind() {
	case reflect.Struct:
		if _, isZero := field.ValueOf(ctx, tx.Statement.ReflectValue); isZero {
			_ = field.Set(ctx, tx.Statement.ReflectValue, value)
		}
	case reflect.Slice:
		for i := 0; i < tx.Statement.ReflectValue.Len(); i++ {
			rv := tx.Statement.ReflectValue.Index(i)
			if _, isZero := field.ValueOf(ctx, rv); isZero {
				_ = field.Set(ctx, rv, value)
			}
		}
	}
}
