package finance

import (
	"github.com/shopspring/decimal"
	"github.com/wyfcoding/bachelier/algorithm/types"
	"github.com/wyfcoding/bachelier/xerrors"
)

// NormalCalculator 基于 decimal 输入的正态模型计算器。
// 调用方传入的 rate/div 同时作为模型利率与希腊字母利率。
// decimal 无法表示 NaN/Inf，因此希腊字母总是启用退化波动率检查。
type NormalCalculator struct {
	opts []Option
}

// NewNormalCalculator 创建计算器，opts 作用于每次计算构造的 NormalModel。
func NewNormalCalculator(opts ...Option) *NormalCalculator {
	return &NormalCalculator{opts: opts}
}

// NormalResult 包含计算出的期权价格及其希腊字母。
type NormalResult struct {
	Price decimal.Decimal
	Delta decimal.Decimal
	Gamma decimal.Decimal
	Vega  decimal.Decimal
}

func (c *NormalCalculator) model(vol, rate, div decimal.Decimal, strict bool) *NormalModel {
	opts := append([]Option{}, c.opts...)
	if strict {
		opts = append(opts, WithStrictGreeks())
	}
	return NewNormalModel(vol.InexactFloat64(), rate.InexactFloat64(), div.InexactFloat64(), opts...)
}

func checkInputs(optionType string, expiry, vol decimal.Decimal) (float64, error) {
	sign := types.OptionType(optionType).Sign()
	if sign == 0 {
		return 0, xerrors.ErrInvalidOptionType
	}
	if expiry.IsNegative() || vol.IsNegative() {
		return 0, xerrors.ErrInvalidInput
	}
	return sign, nil
}

// CalculatePrice 计算期权价格。
func (c *NormalCalculator) CalculatePrice(optionType string, spot, strike, expiry, rate, vol, div decimal.Decimal) (decimal.Decimal, error) {
	sign, err := checkInputs(optionType, expiry, vol)
	if err != nil {
		return decimal.Zero, err
	}
	m := c.model(vol, rate, div, false)
	return decimal.NewFromFloat(m.Price(strike.InexactFloat64(), spot.InexactFloat64(), expiry.InexactFloat64(), sign)), nil
}

// CalculateDelta 计算 Delta。
func (c *NormalCalculator) CalculateDelta(optionType string, spot, strike, expiry, rate, vol, div decimal.Decimal) (decimal.Decimal, error) {
	res, err := c.Calculate(optionType, spot, strike, expiry, rate, vol, div)
	if err != nil {
		return decimal.Zero, err
	}
	return res.Delta, nil
}

// CalculateGamma 计算 Gamma。
func (c *NormalCalculator) CalculateGamma(spot, strike, expiry, rate, vol, div decimal.Decimal) (decimal.Decimal, error) {
	res, err := c.Calculate(string(types.OptionTypeCall), spot, strike, expiry, rate, vol, div)
	if err != nil {
		return decimal.Zero, err
	}
	return res.Gamma, nil
}

// CalculateVega 计算 Vega。
func (c *NormalCalculator) CalculateVega(spot, strike, expiry, rate, vol, div decimal.Decimal) (decimal.Decimal, error) {
	res, err := c.Calculate(string(types.OptionTypeCall), spot, strike, expiry, rate, vol, div)
	if err != nil {
		return decimal.Zero, err
	}
	return res.Vega, nil
}

// Calculate 一次性计算期权价格及所有希腊字母。
func (c *NormalCalculator) Calculate(optionType string, spot, strike, expiry, rate, vol, div decimal.Decimal) (*NormalResult, error) {
	sign, err := checkInputs(optionType, expiry, vol)
	if err != nil {
		return nil, err
	}
	r := rate.InexactFloat64()
	q := div.InexactFloat64()

	m := c.model(vol, rate, div, true)
	g, err := m.Greeks(strike.InexactFloat64(), spot.InexactFloat64(), expiry.InexactFloat64(), r, q, sign)
	if err != nil {
		return nil, err
	}

	return &NormalResult{
		Price: decimal.NewFromFloat(g.Price),
		Delta: decimal.NewFromFloat(g.Delta),
		Gamma: decimal.NewFromFloat(g.Gamma),
		Vega:  decimal.NewFromFloat(g.Vega),
	}, nil
}

// CalculateImpliedVolatility 计算隐含波动率。
func (c *NormalCalculator) CalculateImpliedVolatility(optionType string, spot, strike, expiry, rate, div, marketPrice decimal.Decimal) (decimal.Decimal, error) {
	sign, err := checkInputs(optionType, expiry, decimal.Zero)
	if err != nil {
		return decimal.Zero, err
	}
	m := c.model(decimal.Zero, rate, div, false)
	vol, err := m.ImpVol(marketPrice.InexactFloat64(), strike.InexactFloat64(), spot.InexactFloat64(), expiry.InexactFloat64(), sign)
	if err != nil {
		return decimal.Zero, err
	}
	return decimal.NewFromFloat(vol), nil
}
