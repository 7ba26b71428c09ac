package http

import (
	"context"

	"vahanpulse/internal/analytics"
	"vahanpulse/internal/services"
	"vahanpulse/pkg/contracts/domain"
)

// DashboardService defines the dataset queries behind the dashboard API.
type DashboardService interface {
	Summary(ctx context.Context, f analytics.Filter) (domain.SummaryMetrics, error)
	Yearly(ctx context.Context, f analytics.Filter, keys ...analytics.GroupKey) ([]domain.PeriodAggregate, error)
	Quarterly(ctx context.Context, f analytics.Filter, keys ...analytics.GroupKey) ([]domain.PeriodAggregate, error)
	TopManufacturers(ctx context.Context, f analytics.Filter, n int) ([]domain.ManufacturerTotal, error)
	Trend(ctx context.Context, f analytics.Filter) ([]domain.TrendPoint, error)
	Options(ctx context.Context) (domain.FilterOptions, error)
	CategoryShare(ctx context.Context, f analytics.Filter) ([]domain.CategoryShare, error)
	Records(ctx context.Context, f analytics.Filter) ([]domain.Registration, error)

	Reload(ctx context.Context) (*services.Dataset, error)
	Status() services.DatasetStatus
}

// HealthService defines the health and version reports.
type HealthService interface {
	HealthCheck(ctx context.Context) services.HealthStatus
	ReadinessCheck(ctx context.Context) services.HealthStatus
	LivenessCheck(ctx context.Context) services.HealthStatus
	Version() map[string]interface{}
}
