package service

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/fieldops/companion/internal/core/domain"
	"github.com/fieldops/companion/internal/core/ports"
)

// ---------------------------------------------------------------------------
// Stubs
// ---------------------------------------------------------------------------

// stubAPI records every request and answers through a pluggable handler.
type stubAPI struct {
	mu      sync.Mutex
	calls   []ports.APIRequest
	handler func(req ports.APIRequest, out any) error
}

func (s *stubAPI) Do(_ context.Context, req ports.APIRequest, out any) error {
	s.mu.Lock()
	s.calls = append(s.calls, req)
	s.mu.Unlock()
	if s.handler == nil {
		return nil
	}
	return s.handler(req, out)
}

func (s *stubAPI) callCount(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, c := range s.calls {
		if c.Path == path {
			n++
		}
	}
	return n
}

// respond marshals v into out, mimicking the client's JSON decode.
func respond(out, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}

type stubListener struct {
	closed bool
}

func (l *stubListener) Close() error {
	l.closed = true
	return nil
}

func newNotifSvc(api *stubAPI) (*NotificationService, *stubListener, *int) {
	listener := &stubListener{}
	opens := 0
	factory := func(userID string, onFrame func([]byte)) (io.Closer, error) {
		opens++
		return listener, nil
	}
	return NewNotificationService(api, factory, zerolog.Nop()), listener, &opens
}

func feedPage(items ...domain.Notification) notificationPage {
	return notificationPage{Items: items, Total: int64(len(items)), Page: 1, Limit: bootstrapLimit}
}

func ts(offsetMinutes int) time.Time {
	return time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC).Add(time.Duration(offsetMinutes) * time.Minute)
}

func frame(t *testing.T, n domain.Notification) []byte {
	t.Helper()
	raw, err := json.Marshal(map[string]any{"event": "notification", "data": n})
	if err != nil {
		t.Fatalf("marshal frame: %v", err)
	}
	return raw
}

// ---------------------------------------------------------------------------
// Tests
// ---------------------------------------------------------------------------

func TestNotificationService_Bootstrap_SortsAndCountsUnread(t *testing.T) {
	api := &stubAPI{handler: func(req ports.APIRequest, out any) error {
		return respond(out, feedPage(
			domain.Notification{ID: "n1", Message: "old", Read: true, CreatedAt: ts(0)},
			domain.Notification{ID: "n3", Message: "newest", CreatedAt: ts(20)},
			domain.Notification{ID: "n2", Message: "middle", CreatedAt: ts(10)},
		))
	}}
	svc, _, opens := newNotifSvc(api)

	if err := svc.EnsureBootstrapped(context.Background(), "u1"); err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	items := svc.Notifications()
	if len(items) != 3 {
		t.Fatalf("expected 3 notifications, got %d", len(items))
	}
	if items[0].ID != "n3" || items[1].ID != "n2" || items[2].ID != "n1" {
		t.Errorf("expected newest-first order, got %s %s %s", items[0].ID, items[1].ID, items[2].ID)
	}
	if svc.Unread() != 2 {
		t.Errorf("expected 2 unread, got %d", svc.Unread())
	}
	if *opens != 1 {
		t.Errorf("expected socket opened once, got %d", *opens)
	}
}

func TestNotificationService_Bootstrap_AtMostOncePerUser(t *testing.T) {
	api := &stubAPI{handler: func(req ports.APIRequest, out any) error {
		return respond(out, feedPage())
	}}
	svc, _, opens := newNotifSvc(api)

	// Both trigger paths (reactive update and mount-time check) funnel here.
	_ = svc.EnsureBootstrapped(context.Background(), "u1")
	_ = svc.EnsureBootstrapped(context.Background(), "u1")
	_ = svc.EnsureBootstrapped(context.Background(), "u1")

	if n := api.callCount("/notifications"); n != 1 {
		t.Errorf("expected one bulk fetch, got %d", n)
	}
	if *opens != 1 {
		t.Errorf("expected one socket open, got %d", *opens)
	}
}

func TestNotificationService_Bootstrap_FailureResetsCollection(t *testing.T) {
	down := true
	api := &stubAPI{}
	api.handler = func(req ports.APIRequest, out any) error {
		if down {
			return errors.New("backend down")
		}
		return respond(out, feedPage(
			domain.Notification{ID: "n1", CreatedAt: ts(0)},
		))
	}
	svc, _, opens := newNotifSvc(api)

	err := svc.EnsureBootstrapped(context.Background(), "u1")
	if err == nil {
		t.Fatal("expected bootstrap error to surface")
	}
	if len(svc.Notifications()) != 0 {
		t.Error("expected empty collection after failed bootstrap")
	}
	if svc.Unread() != 0 {
		t.Errorf("expected zero unread, got %d", svc.Unread())
	}
	if *opens != 0 {
		t.Error("expected no socket open after failed bootstrap")
	}

	// A failed bootstrap does not poison the user: the next trigger retries.
	down = false
	if err := svc.EnsureBootstrapped(context.Background(), "u1"); err != nil {
		t.Fatalf("expected retry to succeed, got: %v", err)
	}
	if len(svc.Notifications()) != 1 {
		t.Error("expected collection populated on retry")
	}
	if *opens != 1 {
		t.Errorf("expected socket opened on retry, got %d", *opens)
	}
}

func TestNotificationService_Frame_NewIDIsPrepended(t *testing.T) {
	api := &stubAPI{handler: func(req ports.APIRequest, out any) error {
		return respond(out, feedPage(
			domain.Notification{ID: "n1", Message: "existing", CreatedAt: ts(0)},
		))
	}}
	svc, _, _ := newNotifSvc(api)
	_ = svc.EnsureBootstrapped(context.Background(), "u1")

	svc.HandleFrame(frame(t, domain.Notification{NotificationID: "n2", Message: "fresh", CreatedAt: ts(5)}))

	items := svc.Notifications()
	if len(items) != 2 {
		t.Fatalf("expected collection to grow by one, got %d", len(items))
	}
	if items[0].Key() != "n2" {
		t.Errorf("expected new notification first, got %q", items[0].Key())
	}
	if svc.Unread() != 2 {
		t.Errorf("expected unread to increment, got %d", svc.Unread())
	}
}

func TestNotificationService_Frame_MatchingIDIsMergedInPlace(t *testing.T) {
	api := &stubAPI{handler: func(req ports.APIRequest, out any) error {
		return respond(out, feedPage(
			domain.Notification{ID: "n1", Message: "before", CreatedAt: ts(0)},
		))
	}}
	svc, _, _ := newNotifSvc(api)
	_ = svc.EnsureBootstrapped(context.Background(), "u1")

	// Socket payloads use the legacy id field; both spellings are one key.
	svc.HandleFrame(frame(t, domain.Notification{NotificationID: "n1", Message: "after", CreatedAt: ts(0)}))

	items := svc.Notifications()
	if len(items) != 1 {
		t.Fatalf("expected collection size unchanged, got %d", len(items))
	}
	if items[0].Message != "after" {
		t.Errorf("expected payload replaced, got %q", items[0].Message)
	}
}

func TestNotificationService_Frame_IncrementPreservesAuthoritativeCount(t *testing.T) {
	api := &stubAPI{handler: func(req ports.APIRequest, out any) error {
		return respond(out, feedPage(
			domain.Notification{ID: "n1", CreatedAt: ts(0)},
		))
	}}
	svc, _, _ := newNotifSvc(api)
	_ = svc.EnsureBootstrapped(context.Background(), "u1")

	// The server count may exceed what one page holds.
	count := 10
	svc.HandleFrame(frame(t, domain.Notification{ID: "n2", CreatedAt: ts(1), UnreadCount: &count}))
	if svc.Unread() != 10 {
		t.Fatalf("expected authoritative count applied, got %d", svc.Unread())
	}

	// A plain unread frame bumps that count, never resets it to what the
	// local page happens to contain.
	svc.HandleFrame(frame(t, domain.Notification{ID: "n3", CreatedAt: ts(2)}))
	if svc.Unread() != 11 {
		t.Errorf("expected counter incremented to 11, got %d", svc.Unread())
	}

	// An in-place merge leaves the counter alone.
	svc.HandleFrame(frame(t, domain.Notification{ID: "n3", Message: "edited", CreatedAt: ts(2)}))
	if svc.Unread() != 11 {
		t.Errorf("expected counter unchanged on merge, got %d", svc.Unread())
	}
}

func TestNotificationService_Frame_ReadFrameDoesNotIncrement(t *testing.T) {
	api := &stubAPI{handler: func(req ports.APIRequest, out any) error {
		return respond(out, feedPage())
	}}
	svc, _, _ := newNotifSvc(api)
	_ = svc.EnsureBootstrapped(context.Background(), "u1")

	svc.HandleFrame(frame(t, domain.Notification{ID: "n1", Read: true, CreatedAt: ts(1)}))

	if len(svc.Notifications()) != 1 {
		t.Fatal("expected frame applied to collection")
	}
	if svc.Unread() != 0 {
		t.Errorf("expected counter untouched by a read frame, got %d", svc.Unread())
	}
}

func TestNotificationService_Frame_AuthoritativeUnreadCountWins(t *testing.T) {
	api := &stubAPI{handler: func(req ports.APIRequest, out any) error {
		return respond(out, feedPage())
	}}
	svc, _, _ := newNotifSvc(api)
	_ = svc.EnsureBootstrapped(context.Background(), "u1")

	count := 7
	svc.HandleFrame(frame(t, domain.Notification{ID: "n1", CreatedAt: ts(1), UnreadCount: &count}))

	if svc.Unread() != 7 {
		t.Errorf("expected server count to replace local counter, got %d", svc.Unread())
	}
}

func TestNotificationService_Frame_MalformedIsIgnored(t *testing.T) {
	api := &stubAPI{handler: func(req ports.APIRequest, out any) error {
		return respond(out, feedPage(
			domain.Notification{ID: "n1", CreatedAt: ts(0)},
		))
	}}
	svc, _, _ := newNotifSvc(api)
	_ = svc.EnsureBootstrapped(context.Background(), "u1")

	svc.HandleFrame([]byte(`{not json`))
	svc.HandleFrame([]byte(`{"event":"presence","data":{}}`))
	svc.HandleFrame([]byte(`{"event":"notification","data":{"message":"no id"}}`))

	if n := len(svc.Notifications()); n != 1 {
		t.Errorf("expected collection untouched, got %d entries", n)
	}
}

func TestNotificationService_MarkRead_OptimisticFlip(t *testing.T) {
	api := &stubAPI{handler: func(req ports.APIRequest, out any) error {
		if req.Path == "/notifications" {
			return respond(out, feedPage(
				domain.Notification{ID: "n1", CreatedAt: ts(1)},
				domain.Notification{ID: "n2", CreatedAt: ts(0)},
			))
		}
		return nil // mark-read succeeds
	}}
	svc, _, _ := newNotifSvc(api)
	_ = svc.EnsureBootstrapped(context.Background(), "u1")

	if err := svc.MarkRead(context.Background(), "n1"); err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if svc.Unread() != 1 {
		t.Errorf("expected unread to drop to 1, got %d", svc.Unread())
	}
	if items := svc.Notifications(); !items[0].Read {
		t.Error("expected n1 flipped to read")
	}

	// Idempotent: marking an already-read entry leaves the counter alone.
	if err := svc.MarkRead(context.Background(), "n1"); err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if svc.Unread() != 1 {
		t.Errorf("expected unread unchanged, got %d", svc.Unread())
	}
}

func TestNotificationService_MarkRead_FailureFallsBackToResync(t *testing.T) {
	serverFeed := feedPage(
		domain.Notification{ID: "n1", Read: true, CreatedAt: ts(1)},
		domain.Notification{ID: "n2", CreatedAt: ts(0)},
	)
	api := &stubAPI{handler: func(req ports.APIRequest, out any) error {
		if req.Path == "/notifications" {
			return respond(out, serverFeed)
		}
		return errors.New("write failed")
	}}
	svc, _, _ := newNotifSvc(api)
	_ = svc.EnsureBootstrapped(context.Background(), "u1")

	if err := svc.MarkRead(context.Background(), "n2"); err != nil {
		t.Fatalf("expected resync to absorb the failure, got: %v", err)
	}
	if n := api.callCount("/notifications"); n != 2 {
		t.Errorf("expected a second bulk fetch, got %d", n)
	}

	// Final state matches what a fresh fetch produces, no diverged optimism.
	items := svc.Notifications()
	if len(items) != 2 || !items[0].Read || items[1].Read {
		t.Errorf("expected state identical to server feed, got %+v", items)
	}
	if svc.Unread() != 1 {
		t.Errorf("expected unread recomputed from server feed, got %d", svc.Unread())
	}
}

func TestNotificationService_UnreadFloorsAtZero(t *testing.T) {
	api := &stubAPI{handler: func(req ports.APIRequest, out any) error {
		if req.Path == "/notifications" {
			return respond(out, feedPage(
				domain.Notification{ID: "n1", CreatedAt: ts(0)},
			))
		}
		return nil
	}}
	svc, _, _ := newNotifSvc(api)
	_ = svc.EnsureBootstrapped(context.Background(), "u1")

	_ = svc.MarkRead(context.Background(), "n1")
	_ = svc.MarkRead(context.Background(), "n1")

	if svc.Unread() != 0 {
		t.Errorf("expected unread floored at zero, got %d", svc.Unread())
	}
}

func TestNotificationService_Shutdown_ClosesSocketAndForgetsMarkers(t *testing.T) {
	api := &stubAPI{handler: func(req ports.APIRequest, out any) error {
		return respond(out, feedPage())
	}}
	svc, listener, _ := newNotifSvc(api)
	_ = svc.EnsureBootstrapped(context.Background(), "u1")

	svc.Shutdown()

	if !listener.closed {
		t.Error("expected listener closed on shutdown")
	}
	if len(svc.Notifications()) != 0 || svc.Unread() != 0 {
		t.Error("expected collection cleared on shutdown")
	}

	// A new login session bootstraps again.
	_ = svc.EnsureBootstrapped(context.Background(), "u1")
	if n := api.callCount("/notifications"); n != 2 {
		t.Errorf("expected bootstrap to run again after shutdown, got %d fetches", n)
	}
}
