package types

// OptionType 定义期权类型。
type OptionType string

const (
	OptionTypeCall OptionType = "CALL"
	OptionTypePut  OptionType = "PUT"
)

// Sign 返回期权方向符号：看涨 +1，看跌 -1，未知类型返回 0。
func (t OptionType) Sign() float64 {
	switch t {
	case OptionTypeCall:
		return 1
	case OptionTypePut:
		return -1
	default:
		return 0
	}
}

// Valid 判断期权类型是否受支持。
func (t OptionType) Valid() bool {
	return t.Sign() != 0
}

// OptionTypeFromSign 将 +1/-1 符号还原为期权类型，其余值返回空串。
func OptionTypeFromSign(sign float64) OptionType {
	switch {
	case sign > 0:
		return OptionTypeCall
	case sign < 0:
		return OptionTypePut
	default:
		return ""
	}
}
