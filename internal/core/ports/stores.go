package ports

import "context"

// Fixed keys for the three persisted credential strings.
const (
	KeyAccessToken  = "access_token"
	KeyRefreshToken = "refresh_token"
	KeyRole         = "role"
)

// Keys for ordinary (non-secret) local state.
const (
	KeyLocationID    = "location_id"
	KeyToolCartDraft = "tool_cart_draft"
)

// CredentialStore persists the credential pair and role tag. It is the only
// durable owner of tokens; in-memory copies elsewhere are derived.
//
// Lookups return "" with a nil error when the key has never been written.
type CredentialStore interface {
	AccessToken() (string, error)
	SetAccessToken(token string) error
	RefreshToken() (string, error)
	SetRefreshToken(token string) error
	Role() (string, error)
	SetRole(role string) error
	// ClearAll deletes all three values together. Called on logout and on
	// irrecoverable refresh failure.
	ClearAll() error
}

// KVStore holds plain (non-secret) local state: the active location id and
// the tool-cart draft. Get returns "" with a nil error when absent.
type KVStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}
