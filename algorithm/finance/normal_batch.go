package finance

import (
	"fmt"

	"github.com/sourcegraph/conc/iter"
)

// PriceStrikes 对一组行权价并发定价，结果与输入顺序一致。
func (m *NormalModel) PriceStrikes(strikes []float64, spot, texp, cpSign float64) []float64 {
	return iter.Map(strikes, func(k *float64) float64 {
		return m.Price(*k, spot, texp, cpSign)
	})
}

// GreeksStrikes 对一组行权价并发计算价格与希腊字母。
// 严格模式下任一行权价失败都会返回错误。
func (m *NormalModel) GreeksStrikes(strikes []float64, spot, texp, intr, divr, cpSign float64) ([]GreekResult, error) {
	return iter.MapErr(strikes, func(k *float64) (GreekResult, error) {
		g, err := m.Greeks(*k, spot, texp, intr, divr, cpSign)
		if err != nil {
			return GreekResult{}, fmt.Errorf("strike %g: %w", *k, err)
		}
		return *g, nil
	})
}

// StrikeQuote 行权价及其期权价格。
type StrikeQuote struct {
	Strike float64
	Price  float64
}

// ImpVolStrikes 对一组报价并发反解隐含波动率。
// 不可达的报价对应位置为 0，返回的错误合并了所有失败项。
func (m *NormalModel) ImpVolStrikes(quotes []StrikeQuote, spot, texp, cpSign float64) ([]float64, error) {
	return iter.MapErr(quotes, func(q *StrikeQuote) (float64, error) {
		return m.ImpVol(q.Price, q.Strike, spot, texp, cpSign)
	})
}
