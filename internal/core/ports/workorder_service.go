package ports

import (
	"context"
	"time"

	"github.com/fieldops/companion/internal/core/domain"
)

// ToolRequestInput submits the current cart.
type ToolRequestInput struct {
	Items   []domain.CartItem `validate:"required,min=1,dive"`
	Urgency string            `validate:"omitempty,oneof=low normal high"`
	Notes   string            `validate:"max=2000"`
}

// ClothingRequestInput requests work clothing items.
type ClothingRequestInput struct {
	Item     string `validate:"required"`
	Size     string `validate:"required"`
	Quantity int    `validate:"required,gt=0"`
	Notes    string `validate:"max=2000"`
}

// ExpenseInput submits an expense, optionally with a receipt image uploaded
// as multipart form data.
type ExpenseInput struct {
	Amount      float64 `validate:"required,gt=0"`
	Currency    string  `validate:"omitempty,len=3"`
	Category    string  `validate:"required"`
	Description string  `validate:"required,max=2000"`
	IncurredOn  time.Time
	// Receipt is the raw image content; empty means no attachment.
	Receipt         []byte
	ReceiptFilename string
}

// SpiffInput claims a sales incentive.
type SpiffInput struct {
	JobNumber string  `validate:"required"`
	Amount    float64 `validate:"required,gt=0"`
	Notes     string  `validate:"max=2000"`
}

// TimeOffInput requests leave between two dates.
type TimeOffInput struct {
	Start  time.Time `validate:"required"`
	End    time.Time `validate:"required,gtefield=Start"`
	Kind   string    `validate:"required,oneof=vacation sick personal unpaid"`
	Reason string    `validate:"max=2000"`
}

// SuggestionInput files an improvement suggestion.
type SuggestionInput struct {
	Subject string `validate:"required,max=200"`
	Body    string `validate:"required,max=5000"`
}

// ReferralInput refers a candidate for hire.
type ReferralInput struct {
	Name  string `validate:"required"`
	Phone string `validate:"omitempty,min=7"`
	Email string `validate:"omitempty,email"`
	Notes string `validate:"max=2000"`
}

// ListRequestsInput pages through the caller's submitted requests.
type ListRequestsInput struct {
	Kind  domain.RequestKind // empty = all kinds
	Page  int                // 1-based
	Limit int                // capped at 100
}

// RequestPage is the standard backend pagination envelope.
type RequestPage struct {
	Items      []domain.WorkOrder `json:"items"`
	Total      int64              `json:"total"`
	Page       int                `json:"page"`
	Limit      int                `json:"limit"`
	TotalPages int                `json:"total_pages"`
}

// WorkOrderService submits and lists employee request workflows. All business
// rules (approval, inventory, status transitions) are backend-owned; the
// client validates input shape only.
type WorkOrderService interface {
	SubmitTool(ctx context.Context, in ToolRequestInput) (*domain.WorkOrder, error)
	SubmitClothing(ctx context.Context, in ClothingRequestInput) (*domain.WorkOrder, error)
	SubmitExpense(ctx context.Context, in ExpenseInput) (*domain.WorkOrder, error)
	SubmitSpiff(ctx context.Context, in SpiffInput) (*domain.WorkOrder, error)
	SubmitTimeOff(ctx context.Context, in TimeOffInput) (*domain.WorkOrder, error)
	SubmitSuggestion(ctx context.Context, in SuggestionInput) (*domain.WorkOrder, error)
	SubmitReferral(ctx context.Context, in ReferralInput) (*domain.WorkOrder, error)
	ListMine(ctx context.Context, in ListRequestsInput) (*RequestPage, error)

	// Cart draft: survives leaving and re-entering the tool workflow,
	// discarded on submit.
	CartAdd(ctx context.Context, item domain.CartItem) error
	CartItems(ctx context.Context) ([]domain.CartItem, error)
	CartClear(ctx context.Context) error
}
