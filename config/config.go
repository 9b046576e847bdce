// Package config 提供了统一的配置加载与管理能力.
package config

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/wyfcoding/bachelier/logging"

	"github.com/fsnotify/fsnotify"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Config 全局顶级配置结构.
type Config struct {
	Version string        `mapstructure:"version" toml:"version"`
	Model   ModelConfig   `mapstructure:"model"   toml:"model"`
	Solver  SolverConfig  `mapstructure:"solver"  toml:"solver"`
	Greeks  GreeksConfig  `mapstructure:"greeks"  toml:"greeks"`
	Log     LogConfig     `mapstructure:"log"     toml:"log"`
	Metrics MetricsConfig `mapstructure:"metrics" toml:"metrics"`
	Tracing TracingConfig `mapstructure:"tracing" toml:"tracing"`
}

// ModelConfig 正态模型参数.
type ModelConfig struct {
	Vol  float64 `mapstructure:"vol"  toml:"vol"  validate:"gte=0"`
	Intr float64 `mapstructure:"intr" toml:"intr"`
	Divr float64 `mapstructure:"divr" toml:"divr"`
}

// SolverConfig 隐含波动率求根参数.
type SolverConfig struct {
	VolLower      float64 `mapstructure:"vol_lower"      toml:"vol_lower"      validate:"gte=0"`
	VolUpper      float64 `mapstructure:"vol_upper"      toml:"vol_upper"      validate:"gtfield=VolLower"`
	XTol          float64 `mapstructure:"xtol"           toml:"xtol"           validate:"gte=0"`
	MaxIterations int     `mapstructure:"max_iterations" toml:"max_iterations" validate:"gte=0"`
}

// GreeksConfig 希腊字母行为开关.
type GreeksConfig struct {
	RateSource string `mapstructure:"rate_source" toml:"rate_source" validate:"oneof=args model"` // args: 使用调用参数; model: 使用模型利率。
	Strict     bool   `mapstructure:"strict"      toml:"strict"`                                  // 退化波动率时返回错误。
}

// LogConfig 定义日志输出、级别与切割策略.
type LogConfig struct {
	Level      string `mapstructure:"level"       toml:"level"       validate:"omitempty,oneof=debug info warn error"`
	Output     string `mapstructure:"output"      toml:"output"      validate:"omitempty,oneof=stdout file both"`
	File       string `mapstructure:"file"        toml:"file"`
	MaxSize    int    `mapstructure:"max_size"    toml:"max_size"`
	MaxBackups int    `mapstructure:"max_backups" toml:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"     toml:"max_age"`
	Compress   bool   `mapstructure:"compress"    toml:"compress"`
}

// MetricsConfig Prometheus 指标配置.
type MetricsConfig struct {
	Enabled   bool   `mapstructure:"enabled"   toml:"enabled"`
	Namespace string `mapstructure:"namespace" toml:"namespace"`
}

// TracingConfig OpenTelemetry 追踪配置.
type TracingConfig struct {
	Enabled     bool    `mapstructure:"enabled"      toml:"enabled"`
	ServiceName string  `mapstructure:"service_name" toml:"service_name"`
	Endpoint    string  `mapstructure:"endpoint"     toml:"endpoint"     validate:"required_if=Enabled true"`
	SampleRatio float64 `mapstructure:"sample_ratio" toml:"sample_ratio" validate:"gte=0,lte=1"`
}

// LoggingConfig 转换为 logging.Config.
func (c *Config) LoggingConfig(service, module string) logging.Config {
	return logging.Config{
		Service:    service,
		Module:     module,
		Level:      c.Log.Level,
		Output:     c.Log.Output,
		File:       c.Log.File,
		MaxSize:    c.Log.MaxSize,
		MaxBackups: c.Log.MaxBackups,
		MaxAge:     c.Log.MaxAge,
		Compress:   c.Log.Compress,
	}
}

// Default 返回与库默认行为一致的配置.
func Default() *Config {
	return &Config{
		Solver:  SolverConfig{VolUpper: 1000},
		Greeks:  GreeksConfig{RateSource: "args"},
		Log:     LogConfig{Level: "info", Output: "stdout"},
		Metrics: MetricsConfig{Enabled: true, Namespace: "bachelier"},
		Tracing: TracingConfig{ServiceName: "bachelier", Endpoint: "localhost:4317", SampleRatio: 1},
	}
}

func setDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("solver.vol_lower", d.Solver.VolLower)
	v.SetDefault("solver.vol_upper", d.Solver.VolUpper)
	v.SetDefault("greeks.rate_source", d.Greeks.RateSource)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.output", d.Log.Output)
	v.SetDefault("metrics.enabled", d.Metrics.Enabled)
	v.SetDefault("metrics.namespace", d.Metrics.Namespace)
	v.SetDefault("tracing.enabled", d.Tracing.Enabled)
	v.SetDefault("tracing.service_name", d.Tracing.ServiceName)
	v.SetDefault("tracing.endpoint", d.Tracing.Endpoint)
	v.SetDefault("tracing.sample_ratio", d.Tracing.SampleRatio)
}

var (
	validate = validator.New()

	hookMu   sync.RWMutex
	hookSeq  uint64
	onReload = map[uint64]func(*Config){}
)

// RegisterReloadHook 注册配置热更新回调，返回的函数用于注销该回调.
func RegisterReloadHook(hook func(*Config)) (unregister func()) {
	if hook == nil {
		return func() {}
	}
	hookMu.Lock()
	hookSeq++
	id := hookSeq
	onReload[id] = hook
	hookMu.Unlock()

	return func() {
		hookMu.Lock()
		delete(onReload, id)
		hookMu.Unlock()
	}
}

func runReloadHooks(conf *Config) {
	hookMu.RLock()
	hooks := make([]func(*Config), 0, len(onReload))
	for _, hook := range onReload {
		hooks = append(hooks, hook)
	}
	hookMu.RUnlock()

	for _, hook := range hooks {
		hook(conf)
	}
}

// Validate 校验配置.
func Validate(conf *Config) error {
	if err := validate.Struct(conf); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	return nil
}

// Read 读取并校验配置文件，不启用热更新.
func Read(path string) (*Config, error) {
	return read(viper.New(), path)
}

func read(v *viper.Viper, path string) (*Config, error) {
	v.SetConfigFile(path)
	v.SetConfigType("toml")

	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config error: %w", err)
	}
	return decode(v)
}

func decode(v *viper.Viper) (*Config, error) {
	conf := &Config{}
	if err := v.Unmarshal(conf); err != nil {
		return nil, fmt.Errorf("unmarshal config error: %w", err)
	}
	if err := Validate(conf); err != nil {
		return nil, err
	}
	return conf, nil
}

// Load 读取配置并监听文件变更，变更通过校验后触发全部热更新回调.
// 未通过校验的变更被丢弃，回调继续持有上一份配置.
func Load(path string) (*Config, error) {
	v := viper.New()
	conf, err := read(v, path)
	if err != nil {
		return nil, err
	}

	v.OnConfigChange(func(event fsnotify.Event) {
		slog.Info("detecting config change", "file", event.Name)
		const debounceTimeout = 500 * time.Millisecond
		time.Sleep(debounceTimeout)

		// 去抖后重新读取，拿到最后一次写入的内容
		if readErr := v.ReadInConfig(); readErr != nil {
			slog.Error("reload config read failed", "error", readErr)

			return
		}
		next, decodeErr := decode(v)
		if decodeErr != nil {
			slog.Error("reload config rejected", "error", decodeErr)

			return
		}

		logging.SetLevel(next.Log.Level)
		slog.Info("config hot-reloaded and validated successfully", "file", event.Name)
		runReloadHooks(next)
	})
	v.WatchConfig()

	return conf, nil
}

var sensitiveKeys = []string{"password", "secret", "dsn", "key", "token"}

// PrintWithMask 脱敏后输出当前生效的配置，logger 为空时使用 slog 默认实例.
func PrintWithMask(logger *slog.Logger, conf any) {
	if logger == nil {
		logger = slog.Default()
	}

	data, err := json.Marshal(conf)
	if err != nil {
		logger.Error("failed to marshal config for printing", "error", err)

		return
	}

	var configMap map[string]any
	if unmarshalErr := json.Unmarshal(data, &configMap); unmarshalErr != nil {
		logger.Error("failed to unmarshal config for masking", "error", unmarshalErr)

		return
	}

	mask(configMap)

	maskedJSON, marshalErr := json.Marshal(configMap)
	if marshalErr != nil {
		logger.Error("failed to marshal masked config", "error", marshalErr)

		return
	}

	logger.Info("effective configuration", "config", string(maskedJSON))
}

func mask(configMap map[string]any) {
	for key, val := range configMap {
		switch v := val.(type) {
		case map[string]any:
			mask(v)

			continue
		case []any:
			for _, item := range v {
				if sub, ok := item.(map[string]any); ok {
					mask(sub)
				}
			}

			continue
		}

		lower := strings.ToLower(key)
		for _, sensitiveKey := range sensitiveKeys {
			if strings.Contains(lower, sensitiveKey) {
				configMap[key] = "******"

				break
			}
		}
	}
}
