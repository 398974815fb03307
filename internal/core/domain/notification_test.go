package domain

import (
	"testing"
	"time"
)

func TestNotification_Key(t *testing.T) {
	tests := []struct {
		name string
		n    Notification
		want string
	}{
		{"primary id wins", Notification{ID: "n1", NotificationID: "legacy"}, "n1"},
		{"legacy fallback", Notification{NotificationID: "legacy"}, "legacy"},
		{"no identifier", Notification{Message: "hi"}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.n.Key(); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestNotification_Matches(t *testing.T) {
	n := Notification{ID: "n1", NotificationID: "legacy"}
	if !n.Matches("n1") || !n.Matches("legacy") {
		t.Error("expected match on either identifier")
	}
	if n.Matches("other") {
		t.Error("expected no match on an unrelated id")
	}
	if n.Matches("") {
		t.Error("expected empty id to never match")
	}
}

func TestSortNotifications_NewestFirst(t *testing.T) {
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	items := []Notification{
		{ID: "a", CreatedAt: base},
		{ID: "c", CreatedAt: base.Add(2 * time.Minute)},
		{ID: "b", CreatedAt: base.Add(time.Minute)},
	}

	SortNotifications(items)

	if items[0].ID != "c" || items[1].ID != "b" || items[2].ID != "a" {
		t.Errorf("expected newest-first, got %s %s %s", items[0].ID, items[1].ID, items[2].ID)
	}
}

func TestCountUnread(t *testing.T) {
	items := []Notification{
		{ID: "a", Read: true},
		{ID: "b"},
		{ID: "c"},
	}
	if got := CountUnread(items); got != 2 {
		t.Errorf("expected 2 unread, got %d", got)
	}
	if got := CountUnread(nil); got != 0 {
		t.Errorf("expected 0 for empty slice, got %d", got)
	}
}
