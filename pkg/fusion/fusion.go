package fusion

import (
	"context"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"prizmora/models"
	"prizmora/pkg/cdn"
	"prizmora/pkg/errno"
	"prizmora/pkg/generator"
	"prizmora/pkg/metrics"
)

// State 生成阶段的状态机
//
//	TryPrimary -> TrySecondary -> Failed
//	     |             |
//	     +-> Succeeded <+
//
// 只允许一次 TryPrimary -> TrySecondary 转移，保证最多一次回退。
type State int

const (
	StateTryPrimary State = iota
	StateTrySecondary
	StateSucceeded
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateTryPrimary:
		return "try_primary"
	case StateTrySecondary:
		return "try_secondary"
	case StateSucceeded:
		return "succeeded"
	default:
		return "failed"
	}
}

// Next 一次尝试结束后的下一个状态
func Next(s State, ok, hasFallback bool) State {
	if ok {
		return StateSucceeded
	}
	if s == StateTryPrimary && hasFallback {
		return StateTrySecondary
	}
	return StateFailed
}

// 事件阶段
const (
	StageGenerating     = "generating"
	StageFallback       = "fallback"
	StageGenerated      = "generated"
	StageMock           = "mock"
	StageMirrored       = "mirrored"
	StageMirrorSkipped  = "mirror_skipped"
	StageMirrorFallback = "mirror_fallback"
	StageFailed         = "failed"
)

// Observer 接收阶段事件，可为 nil
type Observer func(models.FusionEvent)

type Options struct {
	Primary  generator.Provider
	Fallback generator.Provider
	Mirror   cdn.Mirror
	// Mock 开发模式：生成失败时返回占位图而不是报错。未配置任何凭据时无论是否开发模式都返回占位图
	Mock         bool
	MockImageURL string
	// Timeout 上游调用的总时限，调用方断开不会取消上游请求
	Timeout time.Duration
	Metrics *metrics.Metrics
}

// Orchestrator 负责 生成 -> 镜像 的顺序编排，每个请求的状态都是独立的
type Orchestrator struct {
	opts Options
}

func New(opts Options) *Orchestrator {
	return &Orchestrator{opts: opts}
}

// Generation 生成阶段的结果
type Generation struct {
	ImageURL string
	IsMock   bool
	Provider string
	Attempts int
}

func (o *Orchestrator) hasFallback() bool {
	return o.opts.Fallback != nil && o.opts.Primary != nil && o.opts.Fallback.Name() != o.opts.Primary.Name()
}

func (o *Orchestrator) detach(ctx context.Context) (context.Context, context.CancelFunc) {
	ctx = context.WithoutCancel(ctx)
	if o.opts.Timeout > 0 {
		return context.WithTimeout(ctx, o.opts.Timeout)
	}
	return context.WithCancel(ctx)
}

// Generate 校验输入后调用生成服务，失败时最多回退一次
func (o *Orchestrator) Generate(ctx context.Context, prompt string, images []string, obs Observer) (Generation, error) {
	if prompt == "" && len(images) == 0 {
		return Generation{}, errno.New(errno.KindInvalidInput, "Either prompt or images are required")
	}
	if len(images) > models.MaxFusionImages {
		return Generation{}, errno.New(errno.KindInvalidInput, "Maximum of 4 images allowed")
	}
	if o.opts.Primary == nil {
		return Generation{}, errno.New(errno.KindGenerationFailed, "No image generation provider configured")
	}

	ctx, cancel := o.detach(ctx)
	defer cancel()

	req := generator.Request{Prompt: BuildPrompt(prompt, len(images)), Images: images}
	hasFallback := o.hasFallback()

	var (
		gen      Generation
		errs     []error
		provider generator.Provider
	)
	state := StateTryPrimary
	for state == StateTryPrimary || state == StateTrySecondary {
		provider = o.opts.Primary
		if state == StateTrySecondary {
			provider = o.opts.Fallback
			emit(obs, models.FusionEvent{Stage: StageFallback, Provider: provider.Name()})
		}
		emit(obs, models.FusionEvent{Stage: StageGenerating, Provider: provider.Name()})

		url, err := provider.Generate(ctx, req)
		gen.Attempts++
		if err != nil {
			zap.L().Error("image generation failed",
				zap.String("provider", provider.Name()),
				zap.String("state", state.String()),
				zap.Error(err))
			o.opts.Metrics.Generation(provider.Name(), "error")
			errs = append(errs, err)
		} else {
			o.opts.Metrics.Generation(provider.Name(), "ok")
			gen.ImageURL = url
			gen.Provider = provider.Name()
		}
		state = Next(state, err == nil, hasFallback)
	}

	if state == StateSucceeded {
		emit(obs, models.FusionEvent{Stage: StageGenerated, Provider: gen.Provider, URL: gen.ImageURL})
		return gen, nil
	}

	if o.opts.Mock || notConfigured(errs) {
		zap.L().Info("using mock image url", zap.Int("attempts", gen.Attempts), zap.Bool("dev", o.opts.Mock))
		o.opts.Metrics.Generation("mock", "ok")
		gen.ImageURL = o.opts.MockImageURL
		gen.IsMock = true
		gen.Provider = "mock"
		emit(obs, models.FusionEvent{Stage: StageMock, URL: gen.ImageURL})
		return gen, nil
	}

	last := errs[len(errs)-1]
	var err *errno.Error
	if len(errs) > 1 {
		err = errno.Wrap(errno.KindGenerationUnavailable, "Both image generation services failed. Please try again later.", last).
			WithStatus(http.StatusServiceUnavailable)
	} else {
		err = errno.Wrap(errno.KindGenerationFailed, "Image generation failed. Please try again later.", last).
			WithStatus(generator.StatusOf(last))
	}
	emit(obs, models.FusionEvent{Stage: StageFailed, Provider: provider.Name(), Error: err.Message})
	return gen, err
}

// notConfigured 所有尝试都因缺少凭据失败
func notConfigured(errs []error) bool {
	if len(errs) == 0 {
		return false
	}
	for _, err := range errs {
		if !errors.Is(err, generator.ErrNotConfigured) {
			return false
		}
	}
	return true
}

// Mirror 尽力把图片复制到 CDN，任何失败都退回原地址，不返回错误
func (o *Orchestrator) Mirror(ctx context.Context, imageURL string, obs Observer) (string, bool) {
	if o.opts.Mirror == nil || !o.opts.Mirror.Configured() {
		o.opts.Metrics.Mirror("skipped")
		emit(obs, models.FusionEvent{Stage: StageMirrorSkipped, URL: imageURL})
		return imageURL, false
	}

	ctx, cancel := o.detach(ctx)
	defer cancel()

	mirrored, err := o.opts.Mirror.Upload(ctx, imageURL)
	if err != nil {
		if !errors.Is(err, cdn.ErrNotConfigured) {
			zap.L().Warn("cdn mirror failed, using primary url", zap.Error(err))
		}
		o.opts.Metrics.Mirror("fallback")
		emit(obs, models.FusionEvent{Stage: StageMirrorFallback, URL: imageURL, Error: err.Error()})
		return imageURL, false
	}
	o.opts.Metrics.Mirror("uploaded")
	emit(obs, models.FusionEvent{Stage: StageMirrored, URL: mirrored})
	return mirrored, true
}

// Fuse 生成后镜像；镜像失败不影响成功判定
func (o *Orchestrator) Fuse(ctx context.Context, prompt string, images []string, obs Observer) (models.FusionResult, error) {
	gen, err := o.Generate(ctx, prompt, images, obs)
	if err != nil {
		return models.FusionResult{}, err
	}
	mirrorURL, _ := o.Mirror(ctx, gen.ImageURL, obs)
	return models.FusionResult{
		PrimaryURL: gen.ImageURL,
		MirrorURL:  mirrorURL,
		IsMock:     gen.IsMock,
	}, nil
}

func emit(obs Observer, ev models.FusionEvent) {
	if obs != nil {
		obs(ev)
	}
}
