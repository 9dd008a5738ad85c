// Package errs contains sentinel errors used across layers for stable error mapping.
package errs

import (
	"errors"
	"fmt"
	"net/http"
)

// Common sentinels across client/service layers.
var (
	// ErrNotFound indicates the requested entity or key does not exist.
	ErrNotFound = errors.New("not found")

	// ErrUnauthorized indicates failed authentication/authorization (401/403).
	ErrUnauthorized = errors.New("unauthorized")

	// ErrConflict indicates the backend rejected a write as conflicting (e.g., email taken).
	ErrConflict = errors.New("conflict")

	// ErrSessionExpired indicates the refresh cycle failed and the session was cleared.
	ErrSessionExpired = errors.New("session expired")

	// ErrNoRefreshToken indicates a refresh was requested without a held refresh token.
	ErrNoRefreshToken = errors.New("no refresh token available")

	// ErrAutoLoginFailed indicates registration succeeded but the follow-up login did not.
	ErrAutoLoginFailed = errors.New("auto-login failed after registration")

	// ErrUnexpectedResponse indicates a 2xx body that matches none of the accepted shapes.
	ErrUnexpectedResponse = errors.New("unexpected response format")
)

// APIError is an application-level failure reported by the backend.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s (HTTP %d)", e.Message, e.StatusCode)
}

// Unwrap maps well-known statuses onto sentinels so callers can use errors.Is.
func (e *APIError) Unwrap() error {
	switch e.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return ErrUnauthorized
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusConflict:
		return ErrConflict
	}
	return nil
}
