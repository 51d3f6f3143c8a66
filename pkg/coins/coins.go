package coins

import (
	"context"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"prizmora/models"
	"prizmora/pkg/errno"
	"prizmora/pkg/metrics"
)

// 列表类型
const (
	KindTrending = "trending"
	KindNew      = "new"
	KindUser     = "user"

	DefaultCount = 10
	MaxCount     = 100
)

// RawPage 上游返回的原始节点
type RawPage struct {
	Nodes    []map[string]any
	PageInfo models.PageInfo
}

// Upstream 币数据源，具体能力通过下面的接口按需实现
type Upstream interface {
	Name() string
}

// TrendingQuerier 热门列表能力
type TrendingQuerier interface {
	Trending(ctx context.Context, count int, after string) (RawPage, error)
}

// NewQuerier 新币列表能力
type NewQuerier interface {
	Newest(ctx context.Context, count int, after string) (RawPage, error)
}

// ProfileQuerier 用户创建/持有币列表能力
type ProfileQuerier interface {
	ProfileCoins(ctx context.Context, address string, count int, after string) (RawPage, error)
}

// Cache 列表缓存，未命中返回 ok=false
type Cache interface {
	GetPage(ctx context.Context, key string) (models.CoinPage, bool, error)
	SetPage(ctx context.Context, key string, page models.CoinPage) error
}

// Adapter 把不同上游的币数据统一成 CoinSummary
type Adapter struct {
	upstream Upstream
	cache    Cache
	metrics  *metrics.Metrics
	now      func() time.Time
}

type Option func(*Adapter)

func WithCache(c Cache) Option { return func(a *Adapter) { a.cache = c } }

func WithMetrics(m *metrics.Metrics) Option { return func(a *Adapter) { a.metrics = m } }

// WithClock 注入时钟，用于 createdAt 缺失时的默认值
func WithClock(now func() time.Time) Option { return func(a *Adapter) { a.now = now } }

func NewAdapter(upstream Upstream, opts ...Option) *Adapter {
	a := &Adapter{upstream: upstream, now: time.Now}
	for _, o := range opts {
		o(a)
	}
	return a
}

// List 按类型查询并标准化
func (a *Adapter) List(ctx context.Context, kind string, count int, after, address string) (models.CoinPage, error) {
	kind = strings.ToLower(strings.TrimSpace(kind))
	if count <= 0 {
		count = DefaultCount
	}
	if count > MaxCount {
		count = MaxCount
	}

	var fetch func(context.Context) (RawPage, error)
	switch kind {
	case KindTrending:
		q, ok := a.upstream.(TrendingQuerier)
		if !ok {
			return emptyPage(), a.notImplemented(kind)
		}
		fetch = func(ctx context.Context) (RawPage, error) { return q.Trending(ctx, count, after) }
	case KindNew:
		q, ok := a.upstream.(NewQuerier)
		if !ok {
			return emptyPage(), a.notImplemented(kind)
		}
		fetch = func(ctx context.Context) (RawPage, error) { return q.Newest(ctx, count, after) }
	case KindUser:
		address = strings.TrimSpace(address)
		if address == "" {
			return emptyPage(), errno.New(errno.KindInvalidInput, "User address is required for user coins")
		}
		q, ok := a.upstream.(ProfileQuerier)
		if !ok {
			return emptyPage(), a.notImplemented(kind)
		}
		fetch = func(ctx context.Context) (RawPage, error) { return q.ProfileCoins(ctx, address, count, after) }
	default:
		return emptyPage(), errno.New(errno.KindInvalidInput, "Invalid coin type").WithDetails(kind)
	}

	key := cacheKey(a.upstreamName(), kind, address, count, after)
	if page, ok := a.lookup(ctx, key); ok {
		return page, nil
	}

	raw, err := fetch(ctx)
	if err != nil {
		zap.L().Warn("coin list upstream failed", zap.String("kind", kind), zap.Error(err))
		if e, ok := errno.As(err); ok {
			return emptyPage(), e
		}
		return emptyPage(), errno.Wrap(errno.KindUpstreamUnavailable, "Failed to fetch coins", err)
	}

	page := models.CoinPage{Coins: make([]models.CoinSummary, 0, len(raw.Nodes)), PageInfo: raw.PageInfo}
	now := a.now()
	for _, n := range raw.Nodes {
		page.Coins = append(page.Coins, Normalize(n, now))
	}

	if a.cache != nil {
		if err := a.cache.SetPage(ctx, key, page); err != nil {
			zap.L().Warn("coin cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
	return page, nil
}

func (a *Adapter) lookup(ctx context.Context, key string) (models.CoinPage, bool) {
	if a.cache == nil {
		return models.CoinPage{}, false
	}
	page, ok, err := a.cache.GetPage(ctx, key)
	switch {
	case err != nil:
		zap.L().Warn("coin cache read failed", zap.String("key", key), zap.Error(err))
		a.metrics.CacheLookup("error")
		return models.CoinPage{}, false
	case ok:
		a.metrics.CacheLookup("hit")
		return page, true
	default:
		a.metrics.CacheLookup("miss")
		return models.CoinPage{}, false
	}
}

func (a *Adapter) notImplemented(kind string) error {
	return errno.New(errno.KindNotImplemented, "Coin listing is not supported by the upstream").
		WithDetails(a.upstreamName() + " does not provide " + kind + " coins")
}

func (a *Adapter) upstreamName() string {
	if a.upstream == nil {
		return "none"
	}
	return a.upstream.Name()
}

func emptyPage() models.CoinPage {
	return models.CoinPage{Coins: []models.CoinSummary{}}
}

func cacheKey(upstream, kind, address string, count int, after string) string {
	var b strings.Builder
	b.WriteString("coins:")
	b.WriteString(upstream)
	b.WriteByte(':')
	b.WriteString(kind)
	b.WriteByte(':')
	b.WriteString(strings.ToLower(address))
	b.WriteByte(':')
	b.WriteString(strconv.Itoa(count))
	b.WriteByte(':')
	b.WriteString(after)
	return b.String()
}
