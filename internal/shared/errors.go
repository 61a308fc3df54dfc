package shared

import (
	"errors"
	"fmt"
)

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")

	// Authentication errors
	ErrAuthFailed       = fmt.Errorf("re-authentication required")
	ErrNotAuthenticated = fmt.Errorf("not authenticated")
	ErrInvalidToken     = fmt.Errorf("invalid or expired token")
	ErrNoRefreshToken   = fmt.Errorf("no refresh token found, re-authentication required")

	// Provider and store errors
	ErrProvider       = fmt.Errorf("mail provider request failed")
	ErrNotFound       = fmt.Errorf("record not found")
	ErrConflict       = fmt.Errorf("record already exists")
	ErrSyncInProgress = fmt.Errorf("sync already running")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)

// IsAuthError reports whether err belongs to the authentication family and should be surfaced as "re-authenticate".
func IsAuthError(err error) bool {
	return errors.Is(err, ErrAuthFailed) ||
		errors.Is(err, ErrNotAuthenticated) ||
		errors.Is(err, ErrInvalidToken) ||
		errors.Is(err, ErrNoRefreshToken)
}
