package metrics

import "github.com/prometheus/client_golang/prometheus"

// RegisterBuildInfo 注册构建信息指标，重复调用无效。
func (m *Metrics) RegisterBuildInfo(module, version string) {
	if m == nil || m.BuildInfo != nil {
		return
	}
	if module == "" {
		module = "unknown"
	}
	if version == "" {
		version = "unknown"
	}

	m.BuildInfo = m.NewGaugeVec(prometheus.GaugeOpts{
		Name: "build_info",
		Help: "Build information for the pricing module",
	}, []string{"module", "version"})

	m.BuildInfo.WithLabelValues(module, version).Set(1)
}
