package generator

import (
	"context"
	"errors"
	"time"

	"github.com/volcengine/volcengine-go-sdk/service/arkruntime"
	"github.com/volcengine/volcengine-go-sdk/service/arkruntime/model"
	"github.com/volcengine/volcengine-go-sdk/volcengine"
	"go.uber.org/zap"
)

type arkGenerateFunc func(ctx context.Context, req model.GenerateImagesRequest) (model.ImagesResponse, error)

// Ark 火山方舟文生图
type Ark struct {
	model    string
	size     string
	generate arkGenerateFunc
}

// NewArk 创建方舟 provider，apiKey 为空时 Generate 直接返回 ErrNotConfigured
func NewArk(apiKey, modelName, size string) *Ark {
	a := &Ark{model: modelName, size: size}
	if apiKey != "" {
		client := arkruntime.NewClientWithApiKey(apiKey)
		a.generate = func(ctx context.Context, req model.GenerateImagesRequest) (model.ImagesResponse, error) {
			return client.GenerateImages(ctx, req)
		}
	}
	return a
}

func (a *Ark) Name() string { return NameArk }

func (a *Ark) Generate(ctx context.Context, req Request) (string, error) {
	if a.generate == nil {
		return "", ErrNotConfigured
	}

	generateReq := model.GenerateImagesRequest{
		Model:          a.model,
		Prompt:         req.Prompt,
		Size:           volcengine.String(a.size),
		ResponseFormat: volcengine.String(model.GenerateImagesResponseFormatURL),
		Watermark:      volcengine.Bool(false),
	}

	//计算执行时间
	start := time.Now()
	defer func() {
		zap.L().Debug("ark GenerateImages finished", zap.Duration("cost", time.Since(start)))
	}()

	resp, err := a.generate(ctx, generateReq)
	if err != nil {
		return "", arkError(err)
	}
	if resp.Error != nil {
		return "", &UpstreamError{Provider: NameArk, Code: resp.Error.Code, Message: resp.Error.Message}
	}
	for _, image := range resp.Data {
		if image.Url != nil && *image.Url != "" {
			return *image.Url, nil
		}
	}
	return "", &UpstreamError{Provider: NameArk, Message: "response contains no image url"}
}

// arkError 保留 SDK 返回的 HTTP 状态码
func arkError(err error) error {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		return &UpstreamError{Provider: NameArk, Status: apiErr.HTTPStatusCode, Code: apiErr.Code, Message: apiErr.Message}
	}
	return &UpstreamError{Provider: NameArk, Message: err.Error()}
}
