package domain

import (
	"sort"
	"time"
)

// Notification is a single entry in the user's notification feed.
//
// The backend emits two identifier spellings depending on the producing
// service: `id` on the REST list endpoint and `notification_id` on socket
// payloads. Key unifies them into one logical key for deduplication.
type Notification struct {
	ID             string    `json:"id,omitempty"`
	NotificationID string    `json:"notification_id,omitempty"`
	Message        string    `json:"message"`
	Type           string    `json:"type,omitempty"`
	Read           bool      `json:"read"`
	CreatedAt      time.Time `json:"created_at"`
	// UnreadCount is an optional server-supplied running total. When present
	// on a socket payload it is authoritative and replaces the local counter.
	UnreadCount *int `json:"unread_count,omitempty"`
}

// Key returns the normalized identifier: the primary id when present,
// otherwise the legacy alternate.
func (n *Notification) Key() string {
	if n.ID != "" {
		return n.ID
	}
	return n.NotificationID
}

// Matches reports whether id refers to this notification by either
// identifier field.
func (n *Notification) Matches(id string) bool {
	return id != "" && (n.ID == id || n.NotificationID == id)
}

// SortNotifications orders the slice newest-first by creation timestamp.
func SortNotifications(items []Notification) {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})
}

// CountUnread counts entries whose read flag is false.
func CountUnread(items []Notification) int {
	n := 0
	for i := range items {
		if !items[i].Read {
			n++
		}
	}
	return n
}
