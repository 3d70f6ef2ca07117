package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind 错误分类
type Kind string

const (
	Invalid       Kind = "invalid"
	NotFound      Kind = "not_found"
	Conflict      Kind = "conflict"
	Unprocessable Kind = "unprocessable"
	BadGateway    Kind = "bad_gateway"
	TooMany       Kind = "too_many_requests"
	Internal      Kind = "internal"
)

// AppError 对外错误（PublicMsg 直接展示给操作员）
type AppError struct {
	Kind      Kind
	PublicMsg string
	Err       error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return string(e.Kind)
}

func (e *AppError) Unwrap() error { return e.Err }

// New 构造错误
func New(kind Kind, publicMsg string, err error) *AppError {
	return &AppError{Kind: kind, PublicMsg: publicMsg, Err: err}
}

// Wrap 包装内部错误，不暴露细节
func Wrap(err error) *AppError {
	if err == nil {
		return nil
	}
	return &AppError{Kind: Internal, PublicMsg: "unexpected error", Err: err}
}

func As(err error) (*AppError, bool) {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae, true
	}
	return nil, false
}

// HTTPStatus 错误分类 -> HTTP 状态码
func HTTPStatus(err error) int {
	if ae, ok := As(err); ok {
		switch ae.Kind {
		case Invalid:
			return http.StatusBadRequest
		case NotFound:
			return http.StatusNotFound
		case Conflict:
			return http.StatusConflict
		case Unprocessable:
			return http.StatusUnprocessableEntity
		case BadGateway:
			return http.StatusBadGateway
		case TooMany:
			return http.StatusTooManyRequests
		default:
			return http.StatusInternalServerError
		}
	}
	return http.StatusInternalServerError
}

// PublicMessage 取对外提示
func PublicMessage(err error) string {
	if ae, ok := As(err); ok && ae.PublicMsg != "" {
		return ae.PublicMsg
	}
	return "unexpected error"
}
