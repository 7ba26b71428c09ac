package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *AppError
		want string
	}{
		{
			name: "without cause",
			err:  NewAppValidationError("bad window", nil),
			want: "[VALIDATION] bad window",
		},
		{
			name: "with cause",
			err:  NewParsingError("read csv", errors.New("bare quote")),
			want: "[PARSING] read csv: bare quote",
		},
		{
			name: "not found helper",
			err:  NewNotFoundError("dataset"),
			want: "[NOT_FOUND] dataset not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestAppError_UnwrapAndIs(t *testing.T) {
	sentinel := errors.New("no usable columns")
	err := fmt.Errorf("normalize: %w", NewParsingError("infer columns", sentinel))

	assert.True(t, errors.Is(err, sentinel))

	var appErr *AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, ErrTypeParsing, appErr.Type)
}

func TestAppError_WithContext(t *testing.T) {
	err := NewStorageError("write xlsx", nil).
		WithContext("path", "data/cleaned.xlsx").
		WithContext("rows", 12)

	assert.Equal(t, "data/cleaned.xlsx", err.Context["path"])
	assert.Equal(t, 12, err.Context["rows"])

	bare := &AppError{Type: ErrTypeConfig, Message: "x"}
	bare.WithContext("key", "value")
	assert.Equal(t, "value", bare.Context["key"])
}

func TestIsType(t *testing.T) {
	network := NewNetworkError("fetch", errors.New("timeout"))
	wrapped := fmt.Errorf("load: %w", NewUnavailableError("dataset", network))

	assert.True(t, IsType(wrapped, ErrTypeUnavailable))
	assert.True(t, IsType(wrapped, ErrTypeNetwork))
	assert.False(t, IsType(wrapped, ErrTypeParsing))
	assert.False(t, IsType(nil, ErrTypeNetwork))
	assert.False(t, IsType(errors.New("plain"), ErrTypeNetwork))
}

func TestIsType_JoinedErrors(t *testing.T) {
	joined := errors.Join(
		NewParsingError("bad row", nil),
		fmt.Errorf("persist: %w", NewStorageError("disk full", nil)),
	)
	assert.True(t, IsType(joined, ErrTypeParsing))
	assert.True(t, IsType(joined, ErrTypeStorage))
	assert.False(t, IsType(joined, ErrTypeNetwork))

	multi := fmt.Errorf("stages: %w, %w", errors.New("plain"), NewNotFoundError("dataset"))
	assert.True(t, IsType(multi, ErrTypeNotFound))
}

func TestHelperTypes(t *testing.T) {
	tests := []struct {
		err  *AppError
		want ErrorType
	}{
		{NewNetworkError("m", nil), ErrTypeNetwork},
		{NewParsingError("m", nil), ErrTypeParsing},
		{NewStorageError("m", nil), ErrTypeStorage},
		{NewAppValidationError("m", nil), ErrTypeValidation},
		{NewNotFoundError("m"), ErrTypeNotFound},
		{NewConfigError("m", nil), ErrTypeConfig},
		{NewUnavailableError("m", nil), ErrTypeUnavailable},
	}

	for _, tt := range tests {
		t.Run(string(tt.want), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Type)
			assert.NotNil(t, tt.err.Context)
		})
	}
}
