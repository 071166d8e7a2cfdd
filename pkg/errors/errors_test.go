package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_Is(t *testing.T) {
	missing := ErrValidation.WithMessage("name and email required")
	invalid := ErrValidation.WithMessage("invalid email")

	assert.True(t, errors.Is(missing, ErrValidation))
	assert.True(t, errors.Is(missing, missing))
	assert.False(t, errors.Is(missing, invalid))
	assert.False(t, errors.Is(missing, ErrProvider))

	wrapped := fmt.Errorf("handler: %w", missing.WithCause(errors.New("root")))
	assert.True(t, errors.Is(wrapped, missing))
	assert.True(t, IsValidation(wrapped))
}

func TestWrap(t *testing.T) {
	assert.Nil(t, Wrap(nil, ErrProvider))

	root := errors.New("connection reset")
	err := Wrap(root, ErrProvider.WithDetails("relay down"))
	assert.ErrorIs(t, err, root)
	assert.True(t, IsProvider(err))
	assert.Equal(t, "relay down", err.Details)
}

func TestToHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "validation", err: ErrValidation.WithMessage("invalid email"), want: http.StatusBadRequest},
		{name: "configuration", err: ErrConfiguration, want: http.StatusInternalServerError},
		{name: "not found", err: ErrNotFound, want: http.StatusNotFound},
		{name: "rate limited", err: ErrRateLimited, want: http.StatusTooManyRequests},
		{name: "plain error", err: errors.New("boom"), want: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ToHTTPStatus(tt.err))
		})
	}
}

func TestToErrorResponse(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorResponse
	}{
		{
			name: "provider exposes details",
			err:  ErrProvider.WithDetails("bad recipient"),
			want: ErrorResponse{OK: false, Error: "failed to send email", Details: "bad recipient"},
		},
		{
			name: "internal hides details",
			err:  ErrInternal.WithDetails("stack trace"),
			want: ErrorResponse{OK: false, Error: "server error"},
		},
		{
			name: "configuration",
			err:  ErrConfiguration.WithMessage("PDF not available on server"),
			want: ErrorResponse{OK: false, Error: "PDF not available on server"},
		},
		{
			name: "unknown error",
			err:  errors.New("database exploded"),
			want: ErrorResponse{OK: false, Error: "server error"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ToErrorResponse(tt.err))
		})
	}
}

func TestRecoverPanic(t *testing.T) {
	assert.Nil(t, RecoverPanic(nil))

	err := RecoverPanic("boom")
	assert.True(t, errors.Is(err, ErrInternal))
	assert.Contains(t, err.Error(), "panic: boom")
	assert.Equal(t, "server error", ToErrorResponse(err).Error)
	assert.Empty(t, ToErrorResponse(err).Details)
}
