package service

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"sync"

	"github.com/rs/zerolog"

	"github.com/fieldops/companion/internal/core/domain"
	"github.com/fieldops/companion/internal/core/ports"
	"github.com/fieldops/companion/internal/metrics"
)

// bootstrapLimit is the page size of the initial bulk fetch.
const bootstrapLimit = 100

// NotificationService keeps the in-memory notification feed current for the
// logged-in user: one bulk fetch per login session, then live merges from
// the socket listener.
type NotificationService struct {
	api         ports.APIClient
	newListener ports.ListenerFactory
	log         zerolog.Logger

	mu           sync.Mutex
	items        []domain.Notification
	unread       int
	bootstrapped map[string]bool
	listener     io.Closer
}

func NewNotificationService(api ports.APIClient, newListener ports.ListenerFactory, log zerolog.Logger) *NotificationService {
	return &NotificationService{
		api:          api,
		newListener:  newListener,
		log:          log,
		bootstrapped: map[string]bool{},
	}
}

type notificationPage struct {
	Items      []domain.Notification `json:"items"`
	Total      int64                 `json:"total"`
	Page       int                   `json:"page"`
	Limit      int                   `json:"limit"`
	TotalPages int                   `json:"total_pages"`
}

// EnsureBootstrapped runs the bulk fetch and opens the socket, at most once
// per user id no matter how many trigger paths call it (reactive session
// update and command-time check both funnel through here).
func (s *NotificationService) EnsureBootstrapped(ctx context.Context, userID string) error {
	if userID == "" {
		return nil
	}

	s.mu.Lock()
	if s.bootstrapped[userID] {
		s.mu.Unlock()
		return nil
	}
	s.bootstrapped[userID] = true
	s.mu.Unlock()

	if err := s.fetch(ctx); err != nil {
		// Degraded: collection already reset. Drop the marker so the next
		// trigger can bootstrap again; the caller surfaces the error.
		s.mu.Lock()
		delete(s.bootstrapped, userID)
		s.mu.Unlock()
		return err
	}

	s.openSocket(userID)
	return nil
}

// Resync re-runs the bulk fetch, replacing the whole collection. Used as the
// fallback when an optimistic mutation fails.
func (s *NotificationService) Resync(ctx context.Context) error {
	return s.fetch(ctx)
}

func (s *NotificationService) fetch(ctx context.Context) error {
	var page notificationPage
	err := s.api.Do(ctx, ports.APIRequest{
		Method:      http.MethodGet,
		Path:        "/notifications",
		Query:       map[string]string{"page": "1", "limit": strconv.Itoa(bootstrapLimit)},
		RequireAuth: true,
	}, &page)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		s.items = nil
		s.unread = 0
		metrics.UnreadNotifications.Set(0)
		return err
	}

	domain.SortNotifications(page.Items)
	s.items = page.Items
	s.unread = domain.CountUnread(page.Items)
	metrics.UnreadNotifications.Set(float64(s.unread))
	s.log.Debug().Int("count", len(page.Items)).Int("unread", s.unread).Msg("notifications fetched")
	return nil
}

func (s *NotificationService) openSocket(userID string) {
	listener, err := s.newListener(userID, s.HandleFrame)
	if err != nil {
		// Real-time sync is best-effort; the feed stays readable from the
		// bulk fetch and MarkRead's resync path.
		s.log.Warn().Err(err).Msg("failed to open notification socket")
		return
	}

	s.mu.Lock()
	old := s.listener
	s.listener = listener
	s.mu.Unlock()

	if old != nil {
		_ = old.Close()
	}
}

type socketEnvelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// HandleFrame parses one inbound socket frame and merges notification
// payloads into the collection. Malformed frames are logged and dropped;
// they never take the listener down.
func (s *NotificationService) HandleFrame(data []byte) {
	var env socketEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		s.log.Warn().Err(err).Msg("malformed socket frame")
		return
	}
	if env.Event != "notification" {
		s.log.Debug().Str("event", env.Event).Msg("ignoring socket event")
		return
	}

	var n domain.Notification
	if err := json.Unmarshal(env.Data, &n); err != nil {
		s.log.Warn().Err(err).Msg("malformed notification payload")
		return
	}
	if n.Key() == "" {
		s.log.Warn().Msg("notification payload missing identifier")
		return
	}

	s.apply(n)
}

// apply merges a live notification: replace the entry with the same
// normalized id when one exists, otherwise prepend as new. A server-supplied
// running unread count is authoritative; otherwise a new unread entry bumps
// the counter by one. The counter is never recomputed from the collection
// here: the collection holds at most one page, while the counter may track
// unread items beyond it.
func (s *NotificationService) apply(n domain.Notification) {
	s.mu.Lock()
	defer s.mu.Unlock()

	merged := false
	for i := range s.items {
		if s.items[i].Key() == n.Key() {
			s.items[i] = n
			merged = true
			break
		}
	}
	if !merged {
		s.items = append([]domain.Notification{n}, s.items...)
	}

	if n.UnreadCount != nil {
		s.unread = *n.UnreadCount
	} else if !merged && !n.Read {
		s.unread++
	}

	metrics.NotificationsReceivedTotal.Inc()
	metrics.UnreadNotifications.Set(float64(s.unread))
	s.log.Debug().Str("id", n.Key()).Bool("merged", merged).Msg("notification applied")
}

// MarkRead flags a notification read on the backend, then flips the local
// entry optimistically. When the backend call fails, local and server state
// could diverge, so it falls back to a full resync instead.
func (s *NotificationService) MarkRead(ctx context.Context, id string) error {
	err := s.api.Do(ctx, ports.APIRequest{
		Method:      http.MethodPost,
		Path:        "/notifications/" + id + "/read",
		RequireAuth: true,
	}, nil)
	if err != nil {
		s.log.Warn().Err(err).Str("id", id).Msg("mark-as-read failed, resyncing")
		return s.Resync(ctx)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.items {
		if s.items[i].Matches(id) && !s.items[i].Read {
			s.items[i].Read = true
			if s.unread > 0 {
				s.unread--
			}
		}
	}
	metrics.UnreadNotifications.Set(float64(s.unread))
	return nil
}

// Notifications returns a copy of the collection, newest first.
func (s *NotificationService) Notifications() []domain.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Notification, len(s.items))
	copy(out, s.items)
	return out
}

// Unread returns the current unread counter.
func (s *NotificationService) Unread() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.unread
}

// Shutdown closes the socket (normal closure, pending reconnects cancelled)
// and forgets the per-user bootstrap markers. Called on logout and on
// process exit.
func (s *NotificationService) Shutdown() {
	s.mu.Lock()
	listener := s.listener
	s.listener = nil
	s.bootstrapped = map[string]bool{}
	s.items = nil
	s.unread = 0
	s.mu.Unlock()

	metrics.UnreadNotifications.Set(0)
	if listener != nil {
		_ = listener.Close()
	}
}
