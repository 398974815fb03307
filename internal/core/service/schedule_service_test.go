package service

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/fieldops/companion/internal/core/domain"
	"github.com/fieldops/companion/internal/core/ports"
)

func TestScheduleService_Dashboard(t *testing.T) {
	api := &stubAPI{handler: func(req ports.APIRequest, out any) error {
		return respond(out, domain.Dashboard{OpenRequests: 3, HoursThisWeek: 32.5})
	}}
	svc := NewScheduleService(api, zerolog.Nop())

	dash, err := svc.Dashboard(context.Background())
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if dash.OpenRequests != 3 || dash.HoursThisWeek != 32.5 {
		t.Errorf("unexpected dashboard: %+v", dash)
	}
	if req := api.calls[0]; req.Path != "/dashboard" || !req.RequireAuth {
		t.Errorf("unexpected request: %+v", req)
	}
}

func TestScheduleService_Schedule_DateRangeQuery(t *testing.T) {
	api := &stubAPI{handler: func(req ports.APIRequest, out any) error {
		return respond(out, schedulePage{Items: []domain.Shift{{ID: "s1"}}})
	}}
	svc := NewScheduleService(api, zerolog.Nop())

	from := time.Date(2026, 8, 3, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 7)
	shifts, err := svc.Schedule(context.Background(), from, to)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if len(shifts) != 1 || shifts[0].ID != "s1" {
		t.Errorf("unexpected shifts: %+v", shifts)
	}

	q := api.calls[0].Query
	if q["from"] != "2026-08-03" || q["to"] != "2026-08-10" {
		t.Errorf("unexpected date range query: %v", q)
	}
}

func TestScheduleService_Schedule_ZeroTimesOmitted(t *testing.T) {
	api := &stubAPI{handler: func(req ports.APIRequest, out any) error {
		return respond(out, schedulePage{})
	}}
	svc := NewScheduleService(api, zerolog.Nop())

	if _, err := svc.Schedule(context.Background(), time.Time{}, time.Time{}); err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if q := api.calls[0].Query; len(q) != 0 {
		t.Errorf("expected no date params, got %v", q)
	}
}
