package net

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// FileData 二进制 part（同一 Field 可重复出现）
type FileData struct {
	Field       string
	Filename    string
	ContentType string
	Data        []byte
}

// MultipartRequest multipart 请求描述
type MultipartRequest struct {
	URL     string
	Headers map[string]string
	// JSONFields 以 application/json 发送的字段
	JSONFields map[string][]byte
	Fields     map[string]string
	Files      []FileData
}

// Response 精简响应
type Response struct {
	StatusCode int
	Body       []byte
}

// IsSuccess 2xx
func (r *Response) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Dispatcher 网络调度器
type Dispatcher interface {
	SendMultipart(ctx context.Context, req *MultipartRequest) (*Response, error)
}

// DispatcherConfig 调度器配置
type DispatcherConfig struct {
	Timeout    time.Duration
	MaxRetries int
	RetryWait  time.Duration
}

// restyDispatcher 是 Dispatcher 的 resty 实现
type restyDispatcher struct {
	client     *resty.Client
	maxRetries int
	retryWait  time.Duration
}

var _ Dispatcher = (*restyDispatcher)(nil)

func NewDispatcher(cfg DispatcherConfig) Dispatcher {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}

	return &restyDispatcher{
		client:     resty.New().SetTimeout(cfg.Timeout),
		maxRetries: cfg.MaxRetries,
		retryWait:  cfg.RetryWait,
	}
}

// SendMultipart 发送 multipart 请求
// 网络错误与 5xx 重试；每次重试都重新构建 body，reader 不能复用
func (d *restyDispatcher) SendMultipart(ctx context.Context, req *MultipartRequest) (*Response, error) {
	var lastErr error

	for i := 0; i <= d.maxRetries; i++ {
		if i > 0 && d.retryWait > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(d.retryWait):
			}
		}

		resp, err := d.buildRequest(ctx, req).Post(req.URL)
		if err != nil {
			lastErr = err
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			continue
		}

		result := &Response{StatusCode: resp.StatusCode(), Body: resp.Body()}
		if resp.StatusCode() >= 500 && i < d.maxRetries {
			lastErr = fmt.Errorf("server error: %d", resp.StatusCode())
			continue
		}
		return result, nil
	}

	return nil, fmt.Errorf("request failed after retries: %w", lastErr)
}

func (d *restyDispatcher) buildRequest(ctx context.Context, req *MultipartRequest) *resty.Request {
	r := d.client.R().SetContext(ctx).SetHeaders(req.Headers)

	for field, data := range req.JSONFields {
		r.SetMultipartField(field, "", "application/json", bytes.NewReader(data))
	}
	if len(req.Fields) > 0 {
		r.SetMultipartFormData(req.Fields)
	}
	for _, f := range req.Files {
		r.SetMultipartField(f.Field, f.Filename, f.ContentType, bytes.NewReader(f.Data))
	}
	return r
}
