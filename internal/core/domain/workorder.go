package domain

import "time"

// RequestKind identifies one of the employee request workflows. The backend
// owns the approval rules for every kind; the client only submits and lists.
type RequestKind string

const (
	KindTool       RequestKind = "tool"
	KindClothing   RequestKind = "clothing"
	KindExpense    RequestKind = "expense"
	KindSpiff      RequestKind = "spiff"
	KindTimeOff    RequestKind = "time_off"
	KindSuggestion RequestKind = "suggestion"
	KindReferral   RequestKind = "referral"
)

// Valid reports whether k names a known workflow.
func (k RequestKind) Valid() bool {
	switch k {
	case KindTool, KindClothing, KindExpense, KindSpiff, KindTimeOff, KindSuggestion, KindReferral:
		return true
	}
	return false
}

// WorkOrder is a submitted employee request as echoed back by the backend.
// Status transitions happen server-side only.
type WorkOrder struct {
	ID          string      `json:"id"`
	Kind        RequestKind `json:"kind"`
	Status      string      `json:"status"`
	Title       string      `json:"title,omitempty"`
	Detail      string      `json:"detail,omitempty"`
	SubmittedAt time.Time   `json:"submitted_at"`
	UpdatedAt   time.Time   `json:"updated_at,omitempty"`
}

// CartItem is one catalog entry in the tool-request draft cart. The cart is
// the only draft that survives leaving and re-entering a workflow.
type CartItem struct {
	CatalogID string `json:"catalog_id"`
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
}
