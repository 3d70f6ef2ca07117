package service

import (
	"errors"
	"fmt"

	"catalog_studio_v1_202610/internal/apperr"
)

// ==================== 错误定义 ====================

var (
	// 录入
	ErrIntakeRejected = errors.New("image intake rejected")

	// 裁剪（时序错误，出现即说明调用方有 bug）
	ErrCropInvalidState = errors.New("crop session already open")
	ErrNoActiveCrop     = errors.New("no active crop")

	// 变体
	ErrVariantLimit    = errors.New("variant limit reached")
	ErrLastVariant     = errors.New("at least one variant is required")
	ErrVariantNotFound = errors.New("variant not found")
	ErrVariantBusy     = errors.New("variant has an action in flight")
	ErrImageSetFull    = errors.New("variant image set is full")
	ErrImageNotFound   = errors.New("image not found")

	// 表单
	ErrFormNotFound     = errors.New("form not found")
	ErrSubmitInFlight   = errors.New("submission already in flight")
	ErrSubmissionFailed = errors.New("submission failed")
	ErrStorageDisabled  = errors.New("asset store not configured")

	// 品牌/分类
	ErrCatalogDuplicate = errors.New("catalog entry already exists")
)

// IntakeError 录入拒绝
type IntakeError struct {
	Reason string
}

func (e *IntakeError) Error() string {
	return "intake rejected: " + e.Reason
}

func (e *IntakeError) Unwrap() error { return ErrIntakeRejected }

// ValidationError 草稿校验失败（只报告第一条）
type ValidationError struct {
	Field string
	// Variant 1-based 位置，0 表示与变体无关
	Variant int
	Message string
}

func (e *ValidationError) Error() string {
	if e.Variant > 0 {
		return fmt.Sprintf("validation failed: variant %d %s: %s", e.Variant, e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s: %s", e.Field, e.Message)
}

// ToAppError 服务错误 -> 对外错误
func ToAppError(err error) *apperr.AppError {
	if err == nil {
		return nil
	}
	if ae, ok := apperr.As(err); ok {
		return ae
	}

	var intakeErr *IntakeError
	if errors.As(err, &intakeErr) {
		return apperr.New(apperr.Invalid, intakeErr.Reason, err)
	}
	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		return apperr.New(apperr.Unprocessable, validationErr.Message, err)
	}

	switch {
	case errors.Is(err, ErrFormNotFound), errors.Is(err, ErrVariantNotFound), errors.Is(err, ErrImageNotFound):
		return apperr.New(apperr.NotFound, err.Error(), err)
	case errors.Is(err, ErrVariantLimit), errors.Is(err, ErrLastVariant),
		errors.Is(err, ErrImageSetFull), errors.Is(err, ErrVariantBusy),
		errors.Is(err, ErrSubmitInFlight), errors.Is(err, ErrCatalogDuplicate):
		return apperr.New(apperr.Conflict, err.Error(), err)
	case errors.Is(err, ErrNoActiveCrop), errors.Is(err, ErrCropInvalidState):
		return apperr.New(apperr.Conflict, err.Error(), err)
	case errors.Is(err, ErrSubmissionFailed):
		return apperr.New(apperr.BadGateway, "submission failed, please retry", err)
	case errors.Is(err, ErrStorageDisabled):
		return apperr.New(apperr.Conflict, err.Error(), err)
	}
	return apperr.Wrap(err)
}
