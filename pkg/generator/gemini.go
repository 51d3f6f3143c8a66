package generator

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"prizmora/util"
)

type geminiGenerateFunc func(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)

// Gemini 使用 Gemini 图像模型生成图片，参考图以内联数据附带
//
// Gemini 只返回图片字节，结果编码为 data URI 交给调用方（后续由 CDN 镜像转成链接）。
type Gemini struct {
	model      string
	httpClient *http.Client
	generate   geminiGenerateFunc
}

// NewGemini 创建 Gemini provider，apiKey 为空时 Generate 直接返回 ErrNotConfigured
func NewGemini(ctx context.Context, apiKey, modelName string, httpClient *http.Client) (*Gemini, error) {
	g := &Gemini{model: modelName, httpClient: httpClient}
	if apiKey == "" {
		return g, nil
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	g.generate = client.Models.GenerateContent
	return g, nil
}

func (g *Gemini) Name() string { return NameGemini }

func (g *Gemini) Generate(ctx context.Context, req Request) (string, error) {
	if g.generate == nil {
		return "", ErrNotConfigured
	}

	parts := []*genai.Part{genai.NewPartFromText(req.Prompt)}
	for i, img := range req.Images {
		data, mime, err := util.FetchImage(ctx, g.httpClient, img)
		if err != nil {
			return "", fmt.Errorf("prepare image %d for gemini: %w", i+1, err)
		}
		parts = append(parts, genai.NewPartFromBytes(data, mime))
	}
	contents := []*genai.Content{
		genai.NewContentFromParts(parts, genai.RoleUser),
	}

	result, err := g.generate(ctx, g.model, contents, &genai.GenerateContentConfig{
		ResponseModalities: []string{"TEXT", "IMAGE"},
	})
	if err != nil {
		return "", geminiError(err)
	}
	if result == nil {
		return "", &UpstreamError{Provider: NameGemini, Message: "empty generate response"}
	}
	for _, cand := range result.Candidates {
		if cand == nil || cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if part != nil && part.InlineData != nil && len(part.InlineData.Data) > 0 {
				mime := part.InlineData.MIMEType
				if mime == "" {
					mime = "image/png"
				}
				return util.DataURL(mime, part.InlineData.Data), nil
			}
		}
	}
	zap.L().Warn("gemini returned no image part", zap.String("text", result.Text()))
	return "", &UpstreamError{Provider: NameGemini, Message: "response contains no image"}
}

func geminiError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return &UpstreamError{Provider: NameGemini, Status: apiErr.Code, Code: apiErr.Status, Message: apiErr.Message}
	}
	return &UpstreamError{Provider: NameGemini, Message: err.Error()}
}
