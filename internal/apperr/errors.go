// Package apperr defines sentinel errors and user-facing error messages.
package apperr

import (
	"errors"
	"strings"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrConflict         = errors.New("conflict")
	ErrAlreadyExists    = errors.New("already exists")
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrInvalidInput     = errors.New("invalid input")
)

// SafeMessage returns a short, actionable string suitable for user display.
// Only a small set of recognised patterns pass through; everything else is
// collapsed to a generic message so internals are never leaked. Full detail
// belongs in the log, not in the UI string.
func SafeMessage(err error) string {
	if err == nil {
		return ""
	}
	switch {
	case errors.Is(err, ErrNotAuthenticated):
		return "not authenticated: check the API token"
	case errors.Is(err, ErrNotFound):
		return "not found"
	case errors.Is(err, ErrAlreadyExists):
		return "already exists"
	case errors.Is(err, ErrConflict):
		return "conflict: refresh and retry"
	case errors.Is(err, ErrInvalidInput):
		return "invalid input"
	}
	msg := strings.ToLower(err.Error())
	for _, pat := range []string{"not authenticated", "already exists", "not found"} {
		if strings.Contains(msg, pat) {
			return pat
		}
	}
	return "operation failed (see log for details)"
}
