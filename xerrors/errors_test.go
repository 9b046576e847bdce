package xerrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
)

func TestDeriveKeepsSentinel(t *testing.T) {
	cause := errors.New("vol=0 texp=1")
	err := ErrDegenerateVolatility.Derive(cause)

	assert.ErrorIs(t, err, ErrDegenerateVolatility)
	assert.ErrorIs(t, err, cause)
	assert.NotErrorIs(t, err, ErrRootNotBracketed)
	assert.Nil(t, ErrDegenerateVolatility.Cause)
	assert.NotEmpty(t, err.Stack)
	assert.Contains(t, err.Error(), "degenerate volatility")
	assert.Contains(t, err.Error(), "vol=0 texp=1")
}

func TestFromErrorThroughWrapping(t *testing.T) {
	wrapped := fmt.Errorf("impvol: price=-1: %w", fmt.Errorf("brent: %w", ErrRootNotBracketed))

	xe, ok := FromError(wrapped)
	require.True(t, ok)
	assert.Equal(t, 400020, xe.Code)
	assert.Equal(t, "root not bracketed", xe.Message)

	_, ok = FromError(errors.New("plain"))
	assert.False(t, ok)
	_, ok = FromError(nil)
	assert.False(t, ok)
}

func TestProtocolMapping(t *testing.T) {
	tests := []struct {
		err  *Error
		http int
		grpc codes.Code
	}{
		{ErrInvalidInput, http.StatusBadRequest, codes.InvalidArgument},
		{ErrMathConvergence, http.StatusInternalServerError, codes.Internal},
		{New(ErrNotFound, 404, "missing", "", nil), http.StatusNotFound, codes.NotFound},
		{New(ErrUnavailable, 503, "down", "", nil), http.StatusServiceUnavailable, codes.Unavailable},
	}
	for _, tt := range tests {
		t.Run(tt.err.Message, func(t *testing.T) {
			assert.Equal(t, tt.http, tt.err.HTTPStatus())
			assert.Equal(t, tt.grpc, tt.err.GRPCCode())
			st := tt.err.ToGRPCStatus()
			assert.Equal(t, tt.grpc, st.Code())
			assert.Equal(t, tt.err.Message, st.Message())
		})
	}
}

func TestWrap(t *testing.T) {
	assert.Nil(t, Wrap(nil, ErrInternal, "noop"))

	plain := Wrap(errors.New("disk"), ErrUnavailable, "storage unavailable")
	assert.Equal(t, ErrUnavailable, plain.Type)
	assert.Equal(t, "storage unavailable", plain.Message)

	derived := Wrap(fmt.Errorf("ctx: %w", ErrInvalidOptionType), ErrInternal, "bad request")
	assert.Equal(t, ErrInvalidArg, derived.Type)
	assert.Equal(t, 400004, derived.Code)
	assert.Equal(t, "bad request", derived.Message)
	assert.Equal(t, "invalid option type", ErrInvalidOptionType.Message)

	assert.Equal(t, ErrInternal, WrapInternal(errors.New("boom"), "internal").Type)
}

func TestErrorTypeString(t *testing.T) {
	assert.Equal(t, "InvalidArg", ErrInvalidArg.String())
	assert.Equal(t, "Unknown", ErrorType(42).String())
}

func TestContextAndDetail(t *testing.T) {
	err := InvalidArg("bad strike").WithContext("strike", -1.0).WithDetail("strike=%g", -1.0)
	assert.Equal(t, -1.0, err.Context["strike"])
	assert.Equal(t, "strike=-1", err.Detail)
	assert.Equal(t, 400, err.Code)
}
