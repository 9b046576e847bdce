package metrics

import (
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics 封装了基于 Prometheus 的指标采集注册表及定价相关的标准指标。
type Metrics struct {
	registry *prometheus.Registry // 内部独立的 Prometheus 注册中心

	PricerCalls      *prometheus.CounterVec   // 定价调用次数 (维度: op)
	PricerErrors     *prometheus.CounterVec   // 定价失败次数 (维度: op, kind)
	ImpVolIterations *prometheus.HistogramVec // 隐含波动率求根迭代次数 (维度: option_type)
	BuildInfo        *prometheus.GaugeVec
}

// NewMetrics 初始化并返回一个新的指标采集器，自动注册 Go 运行时与进程指标。
func NewMetrics(namespace string) *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	m := &Metrics{registry: reg}

	m.PricerCalls = m.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "pricer_calls_total",
		Help:      "Total number of pricer operations",
	}, []string{"op"})

	m.PricerErrors = m.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "pricer_errors_total",
		Help:      "Total number of failed pricer operations",
	}, []string{"op", "kind"})

	m.ImpVolIterations = m.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "pricer_impvol_iterations",
		Help:      "Root finder iterations per implied volatility solve",
		Buckets:   prometheus.LinearBuckets(0, 5, 21),
	}, []string{"option_type"})

	slog.Info("unified metrics registry initialized", "namespace", namespace)
	return m
}

// Registry 返回内部注册中心。
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// NewCounterVec 创建并注册一个新的计数器指标。
func (m *Metrics) NewCounterVec(opts prometheus.CounterOpts, labelNames []string) *prometheus.CounterVec {
	cv := prometheus.NewCounterVec(opts, labelNames)
	m.registry.MustRegister(cv)
	return cv
}

// NewGaugeVec 创建并注册一个新的仪表盘指标。
func (m *Metrics) NewGaugeVec(opts prometheus.GaugeOpts, labelNames []string) *prometheus.GaugeVec {
	gv := prometheus.NewGaugeVec(opts, labelNames)
	m.registry.MustRegister(gv)
	return gv
}

// NewHistogramVec 创建并注册一个新的直方图指标。
func (m *Metrics) NewHistogramVec(opts prometheus.HistogramOpts, labelNames []string) *prometheus.HistogramVec {
	hv := prometheus.NewHistogramVec(opts, labelNames)
	m.registry.MustRegister(hv)
	return hv
}

// Handler 返回用于暴露指标的 HTTP 处理器。
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
