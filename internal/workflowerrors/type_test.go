package workflowerrors

import (
	"errors"
	"fmt"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"
)

func Test_getErrorType_stringError(t *testing.T) {
	require.Empty(t, getErrorType(errors.New("test")))
}

type CustomError struct {
	msg string
}

func (ce *CustomError) Error() string {
	return ce.msg
}

func Test_getErrorType_custom(t *testing.T) {
	ce := &CustomError{msg: "test"}

	etype := getErrorType(ce)
	require.Equal(t, "CustomError", etype)
}

func TestKind(t *testing.T) {
	_, numErr := strconv.Atoi("abc")

	tests := []struct {
		name string
		err  error
		want string
	}{
		{"string error", errors.New("foo"), "Error"},
		{"custom error", &CustomError{msg: "foo"}, "CustomError"},
		{"wrapped custom error", fmt.Errorf("doing: %w", &CustomError{msg: "foo"}), "CustomError"},
		{"std named error", numErr, "NumError"},
		{"wrapped string error", fmt.Errorf("doing: %w", errors.New("foo")), "Error"},
		{"panic", NewPanicError("boom"), "PanicError"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, Kind(tt.err))
		})
	}
}
