package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMapErrorToStatus(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		want     int
		wantCode string
	}{
		{"not found", fmt.Errorf("offer: %w", ErrNotFound), http.StatusNotFound, "not_found"},
		{"forbidden", fmt.Errorf("only the owner can accept: %w", ErrForbidden), http.StatusForbidden, "forbidden"},
		{"conflict", fmt.Errorf("offer is no longer pending: %w", ErrConflict), http.StatusConflict, "conflict"},
		{"invalid input", ErrInvalidInput, http.StatusBadRequest, "invalid_input"},
		{"bad request", fmt.Errorf("invalid id: %w", ErrBadRequest), http.StatusBadRequest, "bad_request"},
		{"rate limited", ErrRateLimitExceeded, http.StatusTooManyRequests, "rate_limited"},
		{"explicit internal", fmt.Errorf("search: %w", ErrInternal), http.StatusInternalServerError, "internal"},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, "internal"},
		{"nil", nil, http.StatusInternalServerError, "internal"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MapErrorToStatus(tt.err))
			assert.Equal(t, tt.wantCode, Code(tt.err))
		})
	}
}

func TestCode_JoinedErrorsUseFirstKnownKind(t *testing.T) {
	err := errors.Join(ErrRateLimitExceeded, ErrNotFound)
	assert.Equal(t, "not_found", Code(err))
	assert.Equal(t, http.StatusNotFound, MapErrorToStatus(err))
}
