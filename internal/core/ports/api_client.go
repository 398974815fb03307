package ports

import "context"

// FormFile is one file part of a multipart upload. Content is held in memory
// so the request body can be rebuilt for the transparent retry after a token
// refresh.
type FormFile struct {
	Field    string
	Filename string
	Content  []byte
}

// MultipartForm describes a multipart/form-data body (receipt and photo
// uploads). When set, the client leaves Content-Type to the multipart writer
// so the boundary is correct.
type MultipartForm struct {
	Fields map[string]string
	Files  []FormFile
}

// APIRequest describes one backend call.
type APIRequest struct {
	Method string
	// Path is relative to the API base, e.g. "/notifications".
	Path string
	// Body is JSON-encoded when non-nil. Mutually exclusive with Form.
	Body any
	Form *MultipartForm
	// Query is appended to the URL when non-empty.
	Query map[string]string
	// Headers are merged over the standard set.
	Headers map[string]string
	// RequireAuth attaches the bearer token and enables the single
	// refresh-and-retry on 401.
	RequireAuth bool
	// Unversioned targets the API root instead of the versioned prefix
	// (auth and media endpoints).
	Unversioned bool
}

// APIClient performs authenticated backend calls. Implementations decode the
// JSON response body into out when out is non-nil.
//
// Error contract: domain.ErrNotAuthenticated before any IO when RequireAuth
// is set and no token is stored; domain.ErrSessionExpired after a failed
// refresh (credentials and session already torn down); *domain.APIError for
// any other HTTP error status; domain.ErrNetwork when no response arrived.
type APIClient interface {
	Do(ctx context.Context, req APIRequest, out any) error
}
