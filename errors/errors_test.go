package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatusFromErr(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"invalid argument", NewError("bad amount").Mark(ErrInvalidArgument), http.StatusBadRequest, ErrCodeInvalidArgument},
		{"not found", NewError("no invoice").Mark(ErrNotFound), http.StatusNotFound, ErrCodeNotFound},
		{"invalid state", NewError("cancelled").Mark(ErrInvalidState), http.StatusConflict, ErrCodeInvalidState},
		{"conflict", NewError("stale").Mark(ErrConflict), http.StatusConflict, ErrCodeConflict},
		{"blocked", NewError("overdue").Mark(ErrAccessBlocked), http.StatusForbidden, ErrCodeAccessBlocked},
		{"upstream", NewError("db down").Mark(ErrUpstreamUnavailable), http.StatusServiceUnavailable, ErrCodeUpstreamUnavailable},
		{"unmarked", fmt.Errorf("boom"), http.StatusInternalServerError, ErrCodeSystem},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.status, HTTPStatusFromErr(tt.err))
			assert.Equal(t, tt.code, CodeFromErr(tt.err))
		})
	}
}

func TestMarkSurvivesWrapping(t *testing.T) {
	err := NewError("payment not found").Mark(ErrNotFound)
	wrapped := fmt.Errorf("deleting payment: %w", err)

	assert.True(t, IsNotFound(wrapped))
	assert.False(t, IsConflict(wrapped))
}

func TestDisplayMessage(t *testing.T) {
	err := NewError("amount <= 0").WithHint("amount must be positive").Mark(ErrInvalidArgument)
	assert.Equal(t, "amount must be positive", DisplayMessage(err))

	assert.Equal(t, "plain", DisplayMessage(fmt.Errorf("plain")))
	assert.Empty(t, DisplayMessage(nil))
}
