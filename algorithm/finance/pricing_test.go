package finance

import (
	"math"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wyfcoding/bachelier/xerrors"
)

func d(v float64) decimal.Decimal { return decimal.NewFromFloat(v) }

func TestNormalCalculatorPrice(t *testing.T) {
	c := NewNormalCalculator()

	call, err := c.CalculatePrice("CALL", d(100), d(100), d(1), d(0), d(20), d(0))
	require.NoError(t, err)
	assert.InDelta(t, 20/math.Sqrt(2*math.Pi), call.InexactFloat64(), 1e-9)

	put, err := c.CalculatePrice("PUT", d(100), d(110), d(0.5), d(0.03), d(15), d(0.01))
	require.NoError(t, err)
	assert.InDelta(t, NormalPrice(110, 100, 15, 0.5, 0.03, 0.01, Put), put.InexactFloat64(), 1e-9)
}

func TestNormalCalculatorInvalidInput(t *testing.T) {
	c := NewNormalCalculator()

	_, err := c.CalculatePrice("STRADDLE", d(100), d(100), d(1), d(0), d(20), d(0))
	assert.ErrorIs(t, err, xerrors.ErrInvalidOptionType)

	_, err = c.CalculatePrice("CALL", d(100), d(100), d(-1), d(0), d(20), d(0))
	assert.ErrorIs(t, err, xerrors.ErrInvalidInput)

	_, err = c.Calculate("PUT", d(100), d(100), d(1), d(0), d(-5), d(0))
	assert.ErrorIs(t, err, xerrors.ErrInvalidInput)

	_, err = c.CalculateDelta("", d(100), d(100), d(1), d(0), d(20), d(0))
	assert.ErrorIs(t, err, xerrors.ErrInvalidOptionType)
}

func TestNormalCalculatorGreeks(t *testing.T) {
	c := NewNormalCalculator()
	res, err := c.Calculate("CALL", d(100), d(105), d(0.5), d(0.02), d(18), d(0.01))
	require.NoError(t, err)

	m := NewNormalModel(18, 0.02, 0.01)
	g, err := m.Greeks(105, 100, 0.5, 0.02, 0.01, Call)
	require.NoError(t, err)

	assert.InDelta(t, g.Price, res.Price.InexactFloat64(), 1e-12)
	assert.InDelta(t, g.Delta, res.Delta.InexactFloat64(), 1e-12)
	assert.InDelta(t, g.Vega, res.Vega.InexactFloat64(), 1e-12)
	assert.InDelta(t, g.Gamma, res.Gamma.InexactFloat64(), 1e-12)

	delta, err := c.CalculateDelta("PUT", d(100), d(105), d(0.5), d(0.02), d(18), d(0.01))
	require.NoError(t, err)
	assert.InDelta(t, g.Delta-1, delta.InexactFloat64(), 1e-12)

	vega, err := c.CalculateVega(d(100), d(105), d(0.5), d(0.02), d(18), d(0.01))
	require.NoError(t, err)
	assert.True(t, vega.Equal(res.Vega))

	gamma, err := c.CalculateGamma(d(100), d(105), d(0.5), d(0.02), d(18), d(0.01))
	require.NoError(t, err)
	assert.True(t, gamma.Equal(res.Gamma))
}

func TestNormalCalculatorDegenerate(t *testing.T) {
	c := NewNormalCalculator()

	// 到期时价格仍为内在价值，希腊字母报错而不是 NaN
	price, err := c.CalculatePrice("CALL", d(100), d(90), d(0), d(0), d(20), d(0))
	require.NoError(t, err)
	assert.True(t, price.Equal(d(10)))

	_, err = c.Calculate("CALL", d(100), d(90), d(0), d(0), d(20), d(0))
	assert.ErrorIs(t, err, xerrors.ErrDegenerateVolatility)
	_, err = c.CalculateGamma(d(100), d(90), d(1), d(0), d(0), d(0))
	assert.ErrorIs(t, err, xerrors.ErrDegenerateVolatility)
}

func TestNormalCalculatorImpliedVolatility(t *testing.T) {
	c := NewNormalCalculator()
	price, err := c.CalculatePrice("PUT", d(100), d(95), d(0.25), d(0.01), d(12), d(0))
	require.NoError(t, err)

	vol, err := c.CalculateImpliedVolatility("PUT", d(100), d(95), d(0.25), d(0.01), d(0), price)
	require.NoError(t, err)
	assert.InDelta(t, 12, vol.InexactFloat64(), 1e-6)

	_, err = c.CalculateImpliedVolatility("PUT", d(100), d(95), d(0.25), d(0.01), d(0), d(-1))
	assert.ErrorIs(t, err, xerrors.ErrRootNotBracketed)
}
