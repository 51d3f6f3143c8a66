package generator

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

const (
	NameArk    = "ark"
	NameGemini = "gemini"
)

// ErrNotConfigured 缺少 API Key 时直接失败
var ErrNotConfigured = errors.New("generator: api key is not configured")

// Request 一次生成请求
type Request struct {
	// Prompt 已合成并截断后的完整提示词
	Prompt string
	// Images 参考图，data URI 或 http(s) 链接
	Images []string
}

// Provider 图像生成服务，返回生成图片的地址（URL 或 data URI）
type Provider interface {
	Name() string
	Generate(ctx context.Context, req Request) (string, error)
}

// UpstreamError 上游返回的错误，Status 为上游 HTTP 状态码（未知为 0）
type UpstreamError struct {
	Provider string
	Status   int
	Code     string
	Message  string
}

func (e *UpstreamError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s: %s - %s", e.Provider, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Provider, e.Message)
}

// StatusOf 取上游状态码，没有时返回 500
func StatusOf(err error) int {
	var ue *UpstreamError
	if errors.As(err, &ue) && ue.Status >= 400 {
		return ue.Status
	}
	return http.StatusInternalServerError
}
