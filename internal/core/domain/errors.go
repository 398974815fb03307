package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotAuthenticated means no access token is stored; the call was
	// rejected before any network IO.
	ErrNotAuthenticated = errors.New("not authenticated")
	// ErrSessionExpired means the access token was rejected and could not be
	// refreshed. Credentials and session are torn down before it is returned.
	ErrSessionExpired = errors.New("session expired, please log in again")
	// ErrNetwork means no HTTP response was received at all.
	ErrNetwork = errors.New("network error")
)

// APIError carries a non-401 HTTP error response through to the caller
// unchanged, so the backend's own explanation can be shown verbatim.
type APIError struct {
	StatusCode int
	// Detail is the backend-supplied `detail` field when the body carried
	// one, otherwise empty.
	Detail string
	Body   []byte
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return e.Detail
	}
	return fmt.Sprintf("request failed with status %d", e.StatusCode)
}
