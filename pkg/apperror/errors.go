package apperror

import (
	"errors"
	"net/http"
)

var (
	ErrNotFound          = errors.New("resource not found")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrForbidden         = errors.New("forbidden")
	ErrBadRequest        = errors.New("bad request")
	ErrInternal          = errors.New("internal server error")
	ErrInvalidInput      = errors.New("invalid input")
	ErrConflict          = errors.New("conflict")
	ErrRateLimitExceeded = errors.New("rate limit exceeded")
)

type kind struct {
	sentinel error
	status   int
	code     string
}

// Order matters: the first sentinel found in the chain wins.
var kinds = []kind{
	{ErrNotFound, http.StatusNotFound, "not_found"},
	{ErrUnauthorized, http.StatusUnauthorized, "unauthorized"},
	{ErrForbidden, http.StatusForbidden, "forbidden"},
	{ErrInvalidInput, http.StatusBadRequest, "invalid_input"},
	{ErrBadRequest, http.StatusBadRequest, "bad_request"},
	{ErrConflict, http.StatusConflict, "conflict"},
	{ErrRateLimitExceeded, http.StatusTooManyRequests, "rate_limited"},
}

func lookup(err error) (kind, bool) {
	for _, k := range kinds {
		if errors.Is(err, k.sentinel) {
			return k, true
		}
	}
	return kind{}, false
}

// MapErrorToStatus maps sentinel errors to HTTP status codes.
func MapErrorToStatus(err error) int {
	if k, ok := lookup(err); ok {
		return k.status
	}
	return http.StatusInternalServerError
}

// Code returns a stable machine-readable code for err. Clients use it to
// tell a stale offer transition apart from a rejected one without parsing
// the message.
func Code(err error) string {
	if k, ok := lookup(err); ok {
		return k.code
	}
	return "internal"
}
