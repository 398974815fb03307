package service

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/fieldops/companion/internal/core/domain"
	"github.com/fieldops/companion/internal/core/ports"
)

// ScheduleService fetches the personal dashboard and schedule. Pure reads;
// everything is computed backend-side.
type ScheduleService struct {
	api ports.APIClient
	log zerolog.Logger
}

func NewScheduleService(api ports.APIClient, log zerolog.Logger) *ScheduleService {
	return &ScheduleService{api: api, log: log}
}

func (s *ScheduleService) Dashboard(ctx context.Context) (*domain.Dashboard, error) {
	var dash domain.Dashboard
	err := s.api.Do(ctx, ports.APIRequest{
		Method:      http.MethodGet,
		Path:        "/dashboard",
		RequireAuth: true,
	}, &dash)
	if err != nil {
		return nil, err
	}
	return &dash, nil
}

type schedulePage struct {
	Items []domain.Shift `json:"items"`
}

func (s *ScheduleService) Schedule(ctx context.Context, from, to time.Time) ([]domain.Shift, error) {
	query := map[string]string{}
	if !from.IsZero() {
		query["from"] = from.Format("2006-01-02")
	}
	if !to.IsZero() {
		query["to"] = to.Format("2006-01-02")
	}

	var page schedulePage
	err := s.api.Do(ctx, ports.APIRequest{
		Method:      http.MethodGet,
		Path:        "/schedule",
		Query:       query,
		RequireAuth: true,
	}, &page)
	if err != nil {
		return nil, err
	}
	return page.Items, nil
}
