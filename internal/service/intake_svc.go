package service

import (
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// ==================== 常量 ====================

const (
	// MaxIntakeBytes 单张原图上限 2 MiB
	MaxIntakeBytes = 2 * 1024 * 1024
	// MaxSourcePixels 解码前按文件头声明的宽高拦截，防止小文件声明超大尺寸
	MaxSourcePixels = 40_000_000

	ReasonUnsupportedType = "unsupported type"
	ReasonTooLarge        = "too large"
)

// allowedIntakeTypes 允许的三种栅格格式
var allowedIntakeTypes = map[string]struct{}{
	"image/jpeg": {},
	"image/png":  {},
	"image/webp": {},
}

// ==================== 录入校验 ====================

// FileDescriptor 待录入文件描述
type FileDescriptor struct {
	Name        string
	ContentType string
	Size        int64
}

// IntakeResult 校验结果
type IntakeResult struct {
	Valid  bool   `json:"valid"`
	Reason string `json:"reason,omitempty"`
}

// IntakeValidator 原图录入校验器（纯函数，无副作用）
type IntakeValidator struct {
	maxBytes int64
}

// NewIntakeValidator 创建校验器
func NewIntakeValidator() *IntakeValidator {
	return &IntakeValidator{maxBytes: MaxIntakeBytes}
}

// Validate 类型优先于大小检查
func (v *IntakeValidator) Validate(file FileDescriptor) IntakeResult {
	if !IsAllowedType(file.ContentType) {
		return IntakeResult{Valid: false, Reason: ReasonUnsupportedType}
	}
	if file.Size > v.maxBytes {
		return IntakeResult{Valid: false, Reason: ReasonTooLarge}
	}
	return IntakeResult{Valid: true}
}

// Check 校验并转成错误
func (v *IntakeValidator) Check(file FileDescriptor) error {
	if res := v.Validate(file); !res.Valid {
		return &IntakeError{Reason: res.Reason}
	}
	return nil
}

// IsAllowedType 判断 MIME 是否在白名单内（忽略参数与大小写）
func IsAllowedType(contentType string) bool {
	mediaType := strings.ToLower(strings.TrimSpace(contentType))
	if idx := strings.Index(mediaType, ";"); idx != -1 {
		mediaType = strings.TrimSpace(mediaType[:idx])
	}
	_, ok := allowedIntakeTypes[mediaType]
	return ok
}

// DeclaredType 客户端未声明或声明为通用二进制时，按内容嗅探
func DeclaredType(declared string, data []byte) string {
	declared = strings.TrimSpace(declared)
	if declared != "" && declared != "application/octet-stream" {
		return declared
	}
	return mimetype.Detect(data).String()
}
