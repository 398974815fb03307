package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/fieldops/companion/internal/core/domain"
	"github.com/fieldops/companion/internal/core/ports"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

// WorkOrderService submits and lists the employee request workflows. Every
// submission carries a fresh idempotency key so an interrupted CLI run can be
// re-issued safely.
type WorkOrderService struct {
	api      ports.APIClient
	kv       ports.KVStore
	validate *validator.Validate
	log      zerolog.Logger
}

func NewWorkOrderService(api ports.APIClient, kv ports.KVStore, log zerolog.Logger) *WorkOrderService {
	return &WorkOrderService{
		api:      api,
		kv:       kv,
		validate: validator.New(),
		log:      log,
	}
}

type toolRequestBody struct {
	Items          []domain.CartItem `json:"items"`
	Urgency        string            `json:"urgency,omitempty"`
	Notes          string            `json:"notes,omitempty"`
	IdempotencyKey string            `json:"idempotency_key"`
}

// SubmitTool submits the tool request and discards the cart draft on
// success.
func (s *WorkOrderService) SubmitTool(ctx context.Context, in ports.ToolRequestInput) (*domain.WorkOrder, error) {
	if err := s.validate.Struct(in); err != nil {
		return nil, humanizeValidation(err)
	}

	var order domain.WorkOrder
	err := s.api.Do(ctx, ports.APIRequest{
		Method:      http.MethodPost,
		Path:        "/requests/tools",
		Body:        toolRequestBody{Items: in.Items, Urgency: in.Urgency, Notes: in.Notes, IdempotencyKey: uuid.NewString()},
		RequireAuth: true,
	}, &order)
	if err != nil {
		return nil, err
	}

	if cerr := s.CartClear(ctx); cerr != nil {
		s.log.Warn().Err(cerr).Msg("failed to discard tool cart draft")
	}
	s.log.Info().Str("id", order.ID).Msg("tool request submitted")
	return &order, nil
}

type clothingRequestBody struct {
	Item           string `json:"item"`
	Size           string `json:"size"`
	Quantity       int    `json:"quantity"`
	Notes          string `json:"notes,omitempty"`
	IdempotencyKey string `json:"idempotency_key"`
}

func (s *WorkOrderService) SubmitClothing(ctx context.Context, in ports.ClothingRequestInput) (*domain.WorkOrder, error) {
	if err := s.validate.Struct(in); err != nil {
		return nil, humanizeValidation(err)
	}
	return s.submit(ctx, "/requests/clothing", clothingRequestBody{
		Item: in.Item, Size: in.Size, Quantity: in.Quantity, Notes: in.Notes,
		IdempotencyKey: uuid.NewString(),
	})
}

// SubmitExpense posts the expense; when a receipt is attached the request is
// sent as multipart form data so the image travels alongside the fields.
func (s *WorkOrderService) SubmitExpense(ctx context.Context, in ports.ExpenseInput) (*domain.WorkOrder, error) {
	if err := s.validate.Struct(in); err != nil {
		return nil, humanizeValidation(err)
	}

	key := uuid.NewString()

	if len(in.Receipt) == 0 {
		return s.submit(ctx, "/requests/expenses", map[string]any{
			"amount":          in.Amount,
			"currency":        in.Currency,
			"category":        in.Category,
			"description":     in.Description,
			"incurred_on":     formatDate(in.IncurredOn),
			"idempotency_key": key,
		})
	}

	filename := in.ReceiptFilename
	if filename == "" {
		filename = "receipt.jpg"
	}
	form := &ports.MultipartForm{
		Fields: map[string]string{
			"amount":          strconv.FormatFloat(in.Amount, 'f', 2, 64),
			"currency":        in.Currency,
			"category":        in.Category,
			"description":     in.Description,
			"incurred_on":     formatDate(in.IncurredOn),
			"idempotency_key": key,
		},
		Files: []ports.FormFile{{Field: "receipt", Filename: filename, Content: in.Receipt}},
	}

	var order domain.WorkOrder
	err := s.api.Do(ctx, ports.APIRequest{
		Method:      http.MethodPost,
		Path:        "/requests/expenses",
		Form:        form,
		RequireAuth: true,
		Unversioned: true, // media uploads live at the unversioned root
	}, &order)
	if err != nil {
		return nil, err
	}
	return &order, nil
}

type spiffRequestBody struct {
	JobNumber      string  `json:"job_number"`
	Amount         float64 `json:"amount"`
	Notes          string  `json:"notes,omitempty"`
	IdempotencyKey string  `json:"idempotency_key"`
}

func (s *WorkOrderService) SubmitSpiff(ctx context.Context, in ports.SpiffInput) (*domain.WorkOrder, error) {
	if err := s.validate.Struct(in); err != nil {
		return nil, humanizeValidation(err)
	}
	return s.submit(ctx, "/requests/spiffs", spiffRequestBody{
		JobNumber: in.JobNumber, Amount: in.Amount, Notes: in.Notes,
		IdempotencyKey: uuid.NewString(),
	})
}

type timeOffRequestBody struct {
	Start          string `json:"start"`
	End            string `json:"end"`
	Kind           string `json:"kind"`
	Reason         string `json:"reason,omitempty"`
	IdempotencyKey string `json:"idempotency_key"`
}

func (s *WorkOrderService) SubmitTimeOff(ctx context.Context, in ports.TimeOffInput) (*domain.WorkOrder, error) {
	if err := s.validate.Struct(in); err != nil {
		return nil, humanizeValidation(err)
	}
	return s.submit(ctx, "/requests/time-off", timeOffRequestBody{
		Start: formatDate(in.Start), End: formatDate(in.End), Kind: in.Kind, Reason: in.Reason,
		IdempotencyKey: uuid.NewString(),
	})
}

type suggestionRequestBody struct {
	Subject        string `json:"subject"`
	Body           string `json:"body"`
	IdempotencyKey string `json:"idempotency_key"`
}

func (s *WorkOrderService) SubmitSuggestion(ctx context.Context, in ports.SuggestionInput) (*domain.WorkOrder, error) {
	if err := s.validate.Struct(in); err != nil {
		return nil, humanizeValidation(err)
	}
	return s.submit(ctx, "/requests/suggestions", suggestionRequestBody{
		Subject: in.Subject, Body: in.Body, IdempotencyKey: uuid.NewString(),
	})
}

type referralRequestBody struct {
	Name           string `json:"name"`
	Phone          string `json:"phone,omitempty"`
	Email          string `json:"email,omitempty"`
	Notes          string `json:"notes,omitempty"`
	IdempotencyKey string `json:"idempotency_key"`
}

func (s *WorkOrderService) SubmitReferral(ctx context.Context, in ports.ReferralInput) (*domain.WorkOrder, error) {
	if err := s.validate.Struct(in); err != nil {
		return nil, humanizeValidation(err)
	}
	return s.submit(ctx, "/requests/referrals", referralRequestBody{
		Name: in.Name, Phone: in.Phone, Email: in.Email, Notes: in.Notes,
		IdempotencyKey: uuid.NewString(),
	})
}

// ListMine pages through the caller's submitted requests.
func (s *WorkOrderService) ListMine(ctx context.Context, in ports.ListRequestsInput) (*ports.RequestPage, error) {
	if in.Kind != "" && !in.Kind.Valid() {
		return nil, fmt.Errorf("unknown request kind %q", in.Kind)
	}
	page := in.Page
	if page < 1 {
		page = 1
	}
	limit := in.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	query := map[string]string{
		"page":  strconv.Itoa(page),
		"limit": strconv.Itoa(limit),
	}
	if in.Kind != "" {
		query["kind"] = string(in.Kind)
	}

	var result ports.RequestPage
	err := s.api.Do(ctx, ports.APIRequest{
		Method:      http.MethodGet,
		Path:        "/requests",
		Query:       query,
		RequireAuth: true,
	}, &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// --- Tool cart draft -------------------------------------------------------
//
// The cart is the one draft that survives leaving and re-entering a workflow
// (catalog hand-off); everything else is ephemeral.

// CartAdd merges the item into the draft, summing quantities on a catalog id
// match.
func (s *WorkOrderService) CartAdd(ctx context.Context, item domain.CartItem) error {
	if item.CatalogID == "" || item.Quantity <= 0 {
		return fmt.Errorf("cart item needs a catalog id and a positive quantity")
	}

	items, err := s.CartItems(ctx)
	if err != nil {
		return err
	}

	merged := false
	for i := range items {
		if items[i].CatalogID == item.CatalogID {
			items[i].Quantity += item.Quantity
			merged = true
			break
		}
	}
	if !merged {
		items = append(items, item)
	}

	raw, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("encode cart draft: %w", err)
	}
	return s.kv.Set(ctx, ports.KeyToolCartDraft, string(raw))
}

func (s *WorkOrderService) CartItems(ctx context.Context) ([]domain.CartItem, error) {
	raw, err := s.kv.Get(ctx, ports.KeyToolCartDraft)
	if err != nil {
		return nil, err
	}
	if raw == "" {
		return nil, nil
	}
	var items []domain.CartItem
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, fmt.Errorf("decode cart draft: %w", err)
	}
	return items, nil
}

func (s *WorkOrderService) CartClear(ctx context.Context) error {
	return s.kv.Delete(ctx, ports.KeyToolCartDraft)
}

func (s *WorkOrderService) submit(ctx context.Context, path string, body any) (*domain.WorkOrder, error) {
	var order domain.WorkOrder
	err := s.api.Do(ctx, ports.APIRequest{
		Method:      http.MethodPost,
		Path:        path,
		Body:        body,
		RequireAuth: true,
	}, &order)
	if err != nil {
		return nil, err
	}
	s.log.Info().Str("id", order.ID).Str("path", path).Msg("request submitted")
	return &order, nil
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}
