// Package finance - 期权定价算法（Bachelier 正态模型）。
package finance

import (
	"fmt"
	"math"

	amath "github.com/wyfcoding/bachelier/algorithm/math"
	"github.com/wyfcoding/bachelier/xerrors"
)

const (
	// Call 看涨方向符号。
	Call = 1.0
	// Put 看跌方向符号。
	Put = -1.0

	// minVolStd 低于该标准化波动率时按内在价值处理。
	minVolStd = 1e-8
	// volStdFloor 防止除零的下限。
	volStdFloor = 1e-16

	// DefaultVolLower 隐含波动率求解区间下限。
	DefaultVolLower = 0.0
	// DefaultVolUpper 隐含波动率求解区间上限。
	DefaultVolUpper = 1000.0
)

// Forward 返回贴现因子、分红因子和远期价格。
func Forward(spot, texp, intr, divr float64) (discFac, divFac, forward float64) {
	divFac = math.Exp(-texp * divr)
	discFac = math.Exp(-texp * intr)
	forward = spot / discFac * divFac
	return discFac, divFac, forward
}

// NormalPrice 计算 Bachelier 模型下的欧式期权价格。
// 到期时间为负或 vol*sqrt(texp) 过小时返回贴现后的内在价值。
func NormalPrice(strike, spot, vol, texp, intr, divr, cpSign float64) float64 {
	discFac, _, forward := Forward(spot, texp, intr, divr)

	if texp < 0 || vol*math.Sqrt(texp) < minVolStd {
		return discFac * math.Max(cpSign*(forward-strike), 0)
	}

	// NaN 同样取下限
	volStd := vol * math.Sqrt(texp)
	if !(volStd > volStdFloor) {
		volStd = volStdFloor
	}
	d := (forward - strike) / volStd

	return discFac * (cpSign*(forward-strike)*amath.NormCDF(cpSign*d) + volStd*amath.NormPDF(d))
}

// RateSource 决定希腊字母使用哪一组利率。
type RateSource uint8

const (
	// RatesFromArgs 使用调用方传入的 intr/divr，忽略模型自身的利率。
	RatesFromArgs RateSource = iota
	// RatesFromModel 使用模型构造时的 intr/divr，忽略调用参数。
	RatesFromModel
)

// Option 配置 NormalModel 的可选行为。
type Option func(*NormalModel)

// WithModelRates 让 Delta/Vega/Gamma 使用模型自身的利率。
func WithModelRates() Option {
	return func(m *NormalModel) { m.rateSource = RatesFromModel }
}

// WithStrictGreeks 在 vol*sqrt(texp) 退化时让希腊字母返回 ErrDegenerateVolatility，而不是 Inf/NaN。
func WithStrictGreeks() Option {
	return func(m *NormalModel) { m.strict = true }
}

// WithVolBracket 设置隐含波动率求解区间。
func WithVolBracket(lo, hi float64) Option {
	return func(m *NormalModel) {
		if hi > lo {
			m.volLower, m.volUpper = lo, hi
		}
	}
}

// WithSolverTolerance 设置求根的绝对容差。
func WithSolverTolerance(xtol float64) Option {
	return func(m *NormalModel) { m.solver.XTol = xtol }
}

// WithMaxIterations 设置求根的最大迭代次数。
func WithMaxIterations(n int) Option {
	return func(m *NormalModel) { m.solver.MaxIter = n }
}

// NormalModel 正态模型定价器，构造后不可变，可并发使用。
type NormalModel struct {
	vol  float64
	intr float64
	divr float64

	rateSource RateSource
	strict     bool
	volLower   float64
	volUpper   float64
	solver     amath.BrentOptions
}

// NewNormalModel 创建正态模型定价器。
func NewNormalModel(vol, intr, divr float64, opts ...Option) *NormalModel {
	m := &NormalModel{
		vol:      vol,
		intr:     intr,
		divr:     divr,
		volLower: DefaultVolLower,
		volUpper: DefaultVolUpper,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *NormalModel) Vol() float64  { return m.vol }
func (m *NormalModel) Intr() float64 { return m.intr }
func (m *NormalModel) Divr() float64 { return m.divr }

// RateSource 返回希腊字母的利率来源。
func (m *NormalModel) RateSource() RateSource { return m.rateSource }

// Strict 返回是否启用退化波动率检查。
func (m *NormalModel) Strict() bool { return m.strict }

// VolBracket 返回隐含波动率求解区间。
func (m *NormalModel) VolBracket() (lo, hi float64) { return m.volLower, m.volUpper }

// Price 使用模型自身的波动率与利率定价。
func (m *NormalModel) Price(strike, spot, texp, cpSign float64) float64 {
	return NormalPrice(strike, spot, m.vol, texp, m.intr, m.divr, cpSign)
}

// moneyness 计算希腊字母共用的标准化波动率与标准化价差 d。
func (m *NormalModel) moneyness(strike, spot, texp, intr, divr float64) (volStd, d float64, err error) {
	if m.rateSource == RatesFromModel {
		intr, divr = m.intr, m.divr
	}
	_, _, forward := Forward(spot, texp, intr, divr)
	volStd = m.vol * math.Sqrt(texp)
	if m.strict && !(volStd >= minVolStd) {
		return 0, 0, xerrors.ErrDegenerateVolatility.Derive(
			fmt.Errorf("vol=%g texp=%g", m.vol, texp))
	}
	d = (forward - strike) / volStd
	return volStd, d, nil
}

// Delta 价格对标的价格的一阶敏感度。
// 默认使用传入的 intr/divr；vol*sqrt(texp) 为零时结果为 NaN 或 ±1，除非启用 WithStrictGreeks。
func (m *NormalModel) Delta(strike, spot, texp, intr, divr, cpSign float64) (float64, error) {
	_, d, err := m.moneyness(strike, spot, texp, intr, divr)
	if err != nil {
		return 0, err
	}
	return cpSign * amath.NormCDF(cpSign*d), nil
}

// Vega 价格对波动率的敏感度，看涨看跌相同。
func (m *NormalModel) Vega(strike, spot, texp, intr, divr, cpSign float64) (float64, error) {
	_, d, err := m.moneyness(strike, spot, texp, intr, divr)
	if err != nil {
		return 0, err
	}
	return math.Sqrt(texp) * amath.NormPDF(d), nil
}

// Gamma 价格对标的价格的二阶敏感度。
func (m *NormalModel) Gamma(strike, spot, texp, intr, divr, cpSign float64) (float64, error) {
	volStd, d, err := m.moneyness(strike, spot, texp, intr, divr)
	if err != nil {
		return 0, err
	}
	return amath.NormPDF(d) / volStd, nil
}

// GreekResult 包含价格及希腊字母。
type GreekResult struct {
	Price float64
	Delta float64
	Vega  float64
	Gamma float64
}

// Greeks 一次性计算价格与全部希腊字母。价格始终使用模型利率。
func (m *NormalModel) Greeks(strike, spot, texp, intr, divr, cpSign float64) (*GreekResult, error) {
	volStd, d, err := m.moneyness(strike, spot, texp, intr, divr)
	if err != nil {
		return nil, err
	}
	pdf := amath.NormPDF(d)
	return &GreekResult{
		Price: m.Price(strike, spot, texp, cpSign),
		Delta: cpSign * amath.NormCDF(cpSign*d),
		Vega:  math.Sqrt(texp) * pdf,
		Gamma: pdf / volStd,
	}, nil
}

// ImpVol 反解使模型价格等于 price 的波动率，模型自身不被修改。
// 目标价格在求解区间内不可达时返回包装了 xerrors.ErrRootNotBracketed 的错误。
func (m *NormalModel) ImpVol(price, strike, spot, texp, cpSign float64) (float64, error) {
	vol, _, err := m.ImpVolIter(price, strike, spot, texp, cpSign)
	return vol, err
}

// ImpVolIter 同 ImpVol，并返回求根迭代次数。
func (m *NormalModel) ImpVolIter(price, strike, spot, texp, cpSign float64) (float64, int, error) {
	objective := func(vol float64) float64 {
		return NormalPrice(strike, spot, vol, texp, m.intr, m.divr, cpSign) - price
	}
	vol, iter, err := amath.Brent(objective, m.volLower, m.volUpper, m.solver)
	if err != nil {
		return 0, iter, fmt.Errorf("impvol: price=%g strike=%g spot=%g texp=%g: %w", price, strike, spot, texp, err)
	}
	return vol, iter, nil
}
