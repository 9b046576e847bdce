// Package pricing 将正态模型定价器与配置、日志、指标和追踪组装在一起，支持配置热更新时原子替换模型。
package pricing

import (
	"context"
	"errors"
	"sync/atomic"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/wyfcoding/bachelier/algorithm/finance"
	"github.com/wyfcoding/bachelier/algorithm/types"
	"github.com/wyfcoding/bachelier/config"
	"github.com/wyfcoding/bachelier/logging"
	"github.com/wyfcoding/bachelier/metrics"
	"github.com/wyfcoding/bachelier/tracing"
	"github.com/wyfcoding/bachelier/xerrors"
)

const moduleName = "bachelier"

// Engine 持有当前生效的 NormalModel。
// 模型本身不可变，重载配置时整体替换，进行中的调用继续使用旧模型。
type Engine struct {
	model   atomic.Pointer[finance.NormalModel]
	logger  *logging.Logger
	metrics *metrics.Metrics

	shutdown   func(context.Context) error
	unregister func()
}

// ModelFromConfig 根据配置构造 NormalModel。
func ModelFromConfig(cfg *config.Config) *finance.NormalModel {
	opts := []finance.Option{
		finance.WithVolBracket(cfg.Solver.VolLower, cfg.Solver.VolUpper),
	}
	if cfg.Solver.XTol > 0 {
		opts = append(opts, finance.WithSolverTolerance(cfg.Solver.XTol))
	}
	if cfg.Solver.MaxIterations > 0 {
		opts = append(opts, finance.WithMaxIterations(cfg.Solver.MaxIterations))
	}
	if cfg.Greeks.RateSource == "model" {
		opts = append(opts, finance.WithModelRates())
	}
	if cfg.Greeks.Strict {
		opts = append(opts, finance.WithStrictGreeks())
	}
	return finance.NewNormalModel(cfg.Model.Vol, cfg.Model.Intr, cfg.Model.Divr, opts...)
}

// NewEngine 创建定价引擎，logger 为空时使用默认日志，m 为空时不采集指标。
func NewEngine(cfg *config.Config, logger *logging.Logger, m *metrics.Metrics) *Engine {
	if logger == nil {
		logger = logging.Default()
	}
	e := &Engine{logger: logger, metrics: m}
	e.model.Store(ModelFromConfig(cfg))
	return e
}

// Open 加载配置文件并创建引擎，配置文件变更时自动替换模型。
// 日志、指标与追踪初始化完成后才开始监听文件。
func Open(path string) (*Engine, error) {
	cfg, err := config.Read(path)
	if err != nil {
		return nil, err
	}

	logger := logging.NewFromConfig(cfg.LoggingConfig(moduleName, "pricing"))

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.NewMetrics(cfg.Metrics.Namespace)
		m.RegisterBuildInfo(moduleName, cfg.Version)
	}

	e := NewEngine(cfg, logger, m)
	if cfg.Tracing.Enabled {
		shutdown, err := tracing.InitTracer(cfg.Tracing)
		if err != nil {
			return nil, err
		}
		e.shutdown = shutdown
	}

	e.unregister = config.RegisterReloadHook(e.Reload)
	latest, err := config.Load(path)
	if err != nil {
		_ = e.Close(context.Background())
		return nil, err
	}
	e.model.Store(ModelFromConfig(latest))
	config.PrintWithMask(logger.Logger, latest)
	return e, nil
}

// Close 注销热更新回调，并刷新关闭追踪导出器。
func (e *Engine) Close(ctx context.Context) error {
	if e.unregister != nil {
		e.unregister()
		e.unregister = nil
	}
	if e.shutdown == nil {
		return nil
	}
	return e.shutdown(ctx)
}

// Model 返回当前生效的模型。
func (e *Engine) Model() *finance.NormalModel {
	return e.model.Load()
}

// Metrics 返回指标采集器，可能为空。
func (e *Engine) Metrics() *metrics.Metrics {
	return e.metrics
}

// Reload 用新配置替换模型。
func (e *Engine) Reload(cfg *config.Config) {
	next := ModelFromConfig(cfg)
	prev := e.model.Swap(next)
	e.logger.Info("normal model reloaded",
		"vol", next.Vol(), "intr", next.Intr(), "divr", next.Divr(),
		"prev_vol", prev.Vol(),
	)
}

func (e *Engine) observe(ctx context.Context, op string, err error, args ...any) {
	if e.metrics != nil {
		e.metrics.PricerCalls.WithLabelValues(op).Inc()
	}
	if err != nil {
		e.recordError(ctx, op, err, args...)
	}
}

func (e *Engine) recordError(ctx context.Context, op string, err error, args ...any) {
	tracing.SetError(ctx, err)

	kind := "unknown"
	code := 0
	if xe, ok := xerrors.FromError(err); ok {
		kind = xe.Message
		code = xe.Code
	}
	if e.metrics != nil {
		e.metrics.PricerErrors.WithLabelValues(op, kind).Inc()
	}
	logArgs := append([]any{"op", op, "code", code, "error", err}, args...)
	e.logger.WarnContext(ctx, "pricer operation failed", logArgs...)
}

func startSpan(ctx context.Context, op string, strike, texp, cpSign float64) (context.Context, trace.Span) {
	return tracing.StartSpan(ctx, "pricer."+op, trace.WithAttributes(
		attribute.Float64("strike", strike),
		attribute.Float64("texp", texp),
		attribute.String("option_type", string(types.OptionTypeFromSign(cpSign))),
	))
}

// Price 定价。
func (e *Engine) Price(ctx context.Context, strike, spot, texp, cpSign float64) float64 {
	ctx, span := startSpan(ctx, "price", strike, texp, cpSign)
	defer span.End()

	p := e.Model().Price(strike, spot, texp, cpSign)
	e.observe(ctx, "price", nil)
	return p
}

// Delta 计算 Delta。
func (e *Engine) Delta(ctx context.Context, strike, spot, texp, intr, divr, cpSign float64) (float64, error) {
	ctx, span := startSpan(ctx, "delta", strike, texp, cpSign)
	defer span.End()

	v, err := e.Model().Delta(strike, spot, texp, intr, divr, cpSign)
	e.observe(ctx, "delta", err, "strike", strike, "texp", texp)
	return v, err
}

// Vega 计算 Vega。
func (e *Engine) Vega(ctx context.Context, strike, spot, texp, intr, divr, cpSign float64) (float64, error) {
	ctx, span := startSpan(ctx, "vega", strike, texp, cpSign)
	defer span.End()

	v, err := e.Model().Vega(strike, spot, texp, intr, divr, cpSign)
	e.observe(ctx, "vega", err, "strike", strike, "texp", texp)
	return v, err
}

// Gamma 计算 Gamma。
func (e *Engine) Gamma(ctx context.Context, strike, spot, texp, intr, divr, cpSign float64) (float64, error) {
	ctx, span := startSpan(ctx, "gamma", strike, texp, cpSign)
	defer span.End()

	v, err := e.Model().Gamma(strike, spot, texp, intr, divr, cpSign)
	e.observe(ctx, "gamma", err, "strike", strike, "texp", texp)
	return v, err
}

// Greeks 计算价格与全部希腊字母。
func (e *Engine) Greeks(ctx context.Context, strike, spot, texp, intr, divr, cpSign float64) (*finance.GreekResult, error) {
	ctx, span := startSpan(ctx, "greeks", strike, texp, cpSign)
	defer span.End()

	g, err := e.Model().Greeks(strike, spot, texp, intr, divr, cpSign)
	e.observe(ctx, "greeks", err, "strike", strike, "texp", texp)
	return g, err
}

// ImpVol 反解隐含波动率并记录迭代次数。
func (e *Engine) ImpVol(ctx context.Context, price, strike, spot, texp, cpSign float64) (float64, error) {
	ctx, span := startSpan(ctx, "impvol", strike, texp, cpSign)
	defer span.End()
	defer logging.LogDuration(ctx, "impvol", "strike", strike)()

	vol, iter, err := e.Model().ImpVolIter(price, strike, spot, texp, cpSign)
	tracing.AddTag(ctx, "iterations", iter)
	if e.metrics != nil && err == nil {
		e.metrics.ImpVolIterations.WithLabelValues(string(types.OptionTypeFromSign(cpSign))).Observe(float64(iter))
	}
	e.observe(ctx, "impvol", err, "price", price, "strike", strike, "texp", texp)
	return vol, err
}

// ImpVolStrikes 对一组报价并发反解隐含波动率，失败项逐一计入错误指标。
func (e *Engine) ImpVolStrikes(ctx context.Context, quotes []finance.StrikeQuote, spot, texp, cpSign float64) ([]float64, error) {
	ctx, span := tracing.StartSpan(ctx, "pricer.impvol_strikes", trace.WithAttributes(
		attribute.Int("quotes", len(quotes)),
		attribute.Float64("texp", texp),
	))
	defer span.End()

	vols, err := e.Model().ImpVolStrikes(quotes, spot, texp, cpSign)
	e.observe(ctx, "impvol_strikes", nil)

	var joined interface{ Unwrap() []error }
	if errors.As(err, &joined) {
		for _, each := range joined.Unwrap() {
			e.recordError(ctx, "impvol_strikes", each)
		}
	}
	return vols, err
}
