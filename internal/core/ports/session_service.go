package ports

import (
	"context"

	"github.com/fieldops/companion/internal/core/domain"
)

// SessionService owns login, logout, and the startup profile bootstrap.
type SessionService interface {
	// Login exchanges credentials for a token pair, persists it, and
	// populates the session context.
	Login(ctx context.Context, email, password string) (*domain.User, error)
	// Bootstrap populates the session from a stored token. Returns
	// domain.ErrNotAuthenticated without any network call when no token is
	// stored (cold start straight to login).
	Bootstrap(ctx context.Context) (*domain.User, error)
	// Logout clears stored credentials and the session context.
	Logout(ctx context.Context) error
	// SetLocation records the active location id in local storage and the
	// session context.
	SetLocation(ctx context.Context, locationID string) error
}
