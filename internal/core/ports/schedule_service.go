package ports

import (
	"context"
	"time"

	"github.com/fieldops/companion/internal/core/domain"
)

// ScheduleService fetches the personal dashboard and schedule views.
type ScheduleService interface {
	Dashboard(ctx context.Context) (*domain.Dashboard, error)
	Schedule(ctx context.Context, from, to time.Time) ([]domain.Shift, error)
}
