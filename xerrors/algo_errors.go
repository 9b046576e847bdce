package xerrors

var (
	// ErrInvalidInput 输入参数不合法。
	ErrInvalidInput = New(ErrInvalidArg, 400002, "invalid input", "check your input parameters", nil)
	// ErrInvalidOptionType 无效的期权类型。
	ErrInvalidOptionType = New(ErrInvalidArg, 400004, "invalid option type", "supported types: CALL, PUT", nil)
	// ErrRootNotBracketed 求根区间两端函数值同号，目标价格在波动率区间内不可达。
	ErrRootNotBracketed = New(ErrInvalidArg, 400020, "root not bracketed", "target price is not attainable within the volatility bracket", nil)
	// ErrDegenerateVolatility 标准化波动率趋近于零，希腊字母无定义。
	ErrDegenerateVolatility = New(ErrInvalidArg, 400021, "degenerate volatility", "vol*sqrt(texp) is zero, greeks are undefined", nil)
	// ErrMathConvergence 数学计算未收敛。
	ErrMathConvergence = New(ErrInternal, 500002, "math convergence failed", "algorithm failed to converge", nil)
)
