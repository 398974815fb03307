package ports

import (
	"context"
	"io"

	"github.com/fieldops/companion/internal/core/domain"
)

// ListenerFactory opens the notification socket for a user and delivers each
// raw inbound frame to onFrame. The returned closer shuts the connection down
// with a normal closure code and cancels any pending reconnect.
type ListenerFactory func(userID string, onFrame func([]byte)) (io.Closer, error)

// NotificationService keeps the in-memory notification feed current: one
// bulk fetch per login session, then live updates over the socket.
type NotificationService interface {
	// EnsureBootstrapped runs the bulk fetch and opens the socket, at most
	// once per user id regardless of how many trigger paths call it.
	EnsureBootstrapped(ctx context.Context, userID string) error
	// Resync re-runs the bulk fetch, replacing the collection.
	Resync(ctx context.Context) error
	// MarkRead flags a notification read on the backend, then optimistically
	// locally; on backend failure it falls back to a full resync.
	MarkRead(ctx context.Context, id string) error
	// Notifications returns a copy of the collection, newest first.
	Notifications() []domain.Notification
	// Unread returns the current unread counter.
	Unread() int
	// Shutdown closes the socket, cancels pending reconnects, and clears the
	// per-user bootstrap markers. Called on logout and process exit.
	Shutdown()
}
