package service

import (
	"context"
	"encoding/json"
	"fmt"

	"catalog_studio_v1_202610/pkg/net"
)

// Submitter 提交边界（不透明的异步调用，可能失败）
type Submitter interface {
	Submit(ctx context.Context, payload *WirePayload) error
}

// HTTPSubmitter 以 multipart 方式提交到外部目录服务
type HTTPSubmitter struct {
	dispatcher net.Dispatcher
	url        string
	token      string
}

// NewHTTPSubmitter 创建提交器
func NewHTTPSubmitter(dispatcher net.Dispatcher, url, token string) *HTTPSubmitter {
	return &HTTPSubmitter{dispatcher: dispatcher, url: url, token: token}
}

// submitErrorBody 对方返回的结构化错误
type submitErrorBody struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

// Submit 发送一个 JSON part（data）加若干图片 part（variant{i}）
func (s *HTTPSubmitter) Submit(ctx context.Context, payload *WirePayload) error {
	meta, err := payload.MetadataJSON()
	if err != nil {
		return fmt.Errorf("encode metadata: %w", err)
	}

	req := &net.MultipartRequest{
		URL:        s.url,
		Headers:    map[string]string{"Accept": "application/json"},
		JSONFields: map[string][]byte{MetadataField: meta},
	}
	if s.token != "" {
		req.Headers["Authorization"] = "Bearer " + s.token
	}
	for _, part := range payload.Parts {
		req.Files = append(req.Files, net.FileData{
			Field:       part.Field,
			Filename:    part.Filename,
			ContentType: part.ContentType,
			Data:        part.Data,
		})
	}

	resp, err := s.dispatcher.SendMultipart(ctx, req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSubmissionFailed, err)
	}
	if !resp.IsSuccess() {
		var body submitErrorBody
		_ = json.Unmarshal(resp.Body, &body)
		msg := body.Message
		if msg == "" {
			msg = body.Error
		}
		if msg == "" {
			msg = string(resp.Body)
		}
		return fmt.Errorf("%w: status %d: %s", ErrSubmissionFailed, resp.StatusCode, msg)
	}
	return nil
}
