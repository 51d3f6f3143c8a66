package metrics

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics 服务指标，各组件通过可为 nil 的 *Metrics 上报
type Metrics struct {
	registry *prometheus.Registry

	GenerationAttempts *prometheus.CounterVec
	MirrorResults      *prometheus.CounterVec
	MintResults        *prometheus.CounterVec
	CoinListCache      *prometheus.CounterVec
}

// New 创建独立 registry 的指标集合，便于测试中重复创建
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		GenerationAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "prizmora",
			Name:      "generation_attempts_total",
			Help:      "Image generation attempts by provider and outcome.",
		}, []string{"provider", "outcome"}),
		MirrorResults: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "prizmora",
			Name:      "mirror_results_total",
			Help:      "CDN mirror outcomes (uploaded, skipped, fallback).",
		}, []string{"result"}),
		MintResults: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "prizmora",
			Name:      "mint_results_total",
			Help:      "Coin minting outcomes by error kind.",
		}, []string{"kind"}),
		CoinListCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "prizmora",
			Name:      "coin_list_cache_total",
			Help:      "Coin listing cache lookups by result.",
		}, []string{"result"}),
	}
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.GenerationAttempts,
		m.MirrorResults,
		m.MintResults,
		m.CoinListCache,
	)
	return m
}

func (m *Metrics) Generation(provider, outcome string) {
	if m == nil {
		return
	}
	m.GenerationAttempts.WithLabelValues(provider, outcome).Inc()
}

func (m *Metrics) Mirror(result string) {
	if m == nil {
		return
	}
	m.MirrorResults.WithLabelValues(result).Inc()
}

func (m *Metrics) Mint(kind string) {
	if m == nil {
		return
	}
	m.MintResults.WithLabelValues(kind).Inc()
}

func (m *Metrics) CacheLookup(result string) {
	if m == nil {
		return
	}
	m.CoinListCache.WithLabelValues(result).Inc()
}

// Handler 暴露 /metrics
func (m *Metrics) Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
}
