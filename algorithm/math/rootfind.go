package math

import (
	"fmt"
	"math"

	"github.com/wyfcoding/bachelier/xerrors"
)

// Brent 求根的默认参数，与常见数值库的 brentq 保持一致.
const (
	DefaultXTol    = 2e-12
	DefaultRTol    = 4 * 2.220446049250313e-16
	DefaultMaxIter = 100
)

// BrentOptions 控制 Brent 求根的终止条件，零值字段取默认值.
type BrentOptions struct {
	XTol    float64
	RTol    float64
	MaxIter int
}

func (o BrentOptions) withDefaults() BrentOptions {
	if o.XTol <= 0 {
		o.XTol = DefaultXTol
	}
	if o.RTol <= 0 {
		o.RTol = DefaultRTol
	}
	if o.MaxIter <= 0 {
		o.MaxIter = DefaultMaxIter
	}
	return o
}

// Brent 在区间 [lo, hi] 上求 f 的根.
// 组合反二次插值、割线与二分，要求 f(lo) 与 f(hi) 异号.
// 返回根、迭代次数以及错误:
// 未形成包围时返回 xerrors.ErrRootNotBracketed，超过迭代上限返回 xerrors.ErrMathConvergence 及最后的近似值.
func Brent(f func(float64) float64, lo, hi float64, opts BrentOptions) (float64, int, error) {
	opts = opts.withDefaults()

	xpre, xcur := lo, hi
	fpre, fcur := f(xpre), f(xcur)

	if math.IsNaN(fpre) || math.IsNaN(fcur) || fpre*fcur > 0 {
		return 0, 0, fmt.Errorf("brent: f(%g)=%g, f(%g)=%g: %w", lo, fpre, hi, fcur, xerrors.ErrRootNotBracketed)
	}
	if fpre == 0 {
		return xpre, 0, nil
	}
	if fcur == 0 {
		return xcur, 0, nil
	}

	var xblk, fblk, spre, scur float64
	for i := 0; i < opts.MaxIter; i++ {
		if fpre != 0 && fcur != 0 && math.Signbit(fpre) != math.Signbit(fcur) {
			xblk, fblk = xpre, fpre
			spre = xcur - xpre
			scur = spre
		}
		if math.Abs(fblk) < math.Abs(fcur) {
			xpre, xcur, xblk = xcur, xblk, xcur
			fpre, fcur, fblk = fcur, fblk, fcur
		}

		delta := (opts.XTol + opts.RTol*math.Abs(xcur)) / 2
		sbis := (xblk - xcur) / 2
		if fcur == 0 || math.Abs(sbis) < delta {
			return xcur, i + 1, nil
		}

		if math.Abs(spre) > delta && math.Abs(fcur) < math.Abs(fpre) {
			var stry float64
			if xpre == xblk {
				// 割线
				stry = -fcur * (xcur - xpre) / (fcur - fpre)
			} else {
				// 反二次插值
				dpre := (fpre - fcur) / (xpre - xcur)
				dblk := (fblk - fcur) / (xblk - xcur)
				stry = -fcur * (fblk*dblk - fpre*dpre) / (dblk * dpre * (fblk - fpre))
			}
			if 2*math.Abs(stry) < math.Min(math.Abs(spre), 3*math.Abs(sbis)-delta) {
				spre, scur = scur, stry
			} else {
				spre, scur = sbis, sbis
			}
		} else {
			spre, scur = sbis, sbis
		}

		xpre, fpre = xcur, fcur
		if math.Abs(scur) > delta {
			xcur += scur
		} else if sbis > 0 {
			xcur += delta
		} else {
			xcur -= delta
		}
		fcur = f(xcur)
	}

	return xcur, opts.MaxIter, fmt.Errorf("brent: no convergence after %d iterations: %w", opts.MaxIter, xerrors.ErrMathConvergence)
}
