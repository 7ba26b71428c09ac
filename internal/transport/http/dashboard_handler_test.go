package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"vahanpulse/internal/analytics"
	apierrors "vahanpulse/internal/errors"
	"vahanpulse/internal/services"
	"vahanpulse/internal/shared/testutil"
	"vahanpulse/pkg/contracts/domain"
)

// MockDashboardService is a mock implementation of DashboardService
type MockDashboardService struct {
	mock.Mock
}

func (m *MockDashboardService) Summary(ctx context.Context, f analytics.Filter) (domain.SummaryMetrics, error) {
	args := m.Called(f)
	return args.Get(0).(domain.SummaryMetrics), args.Error(1)
}

func (m *MockDashboardService) Yearly(ctx context.Context, f analytics.Filter, keys ...analytics.GroupKey) ([]domain.PeriodAggregate, error) {
	args := m.Called(f, keys)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.PeriodAggregate), args.Error(1)
}

func (m *MockDashboardService) Quarterly(ctx context.Context, f analytics.Filter, keys ...analytics.GroupKey) ([]domain.PeriodAggregate, error) {
	args := m.Called(f, keys)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.PeriodAggregate), args.Error(1)
}

func (m *MockDashboardService) TopManufacturers(ctx context.Context, f analytics.Filter, n int) ([]domain.ManufacturerTotal, error) {
	args := m.Called(f, n)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ManufacturerTotal), args.Error(1)
}

func (m *MockDashboardService) Trend(ctx context.Context, f analytics.Filter) ([]domain.TrendPoint, error) {
	args := m.Called(f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.TrendPoint), args.Error(1)
}

func (m *MockDashboardService) Options(ctx context.Context) (domain.FilterOptions, error) {
	args := m.Called()
	return args.Get(0).(domain.FilterOptions), args.Error(1)
}

func (m *MockDashboardService) CategoryShare(ctx context.Context, f analytics.Filter) ([]domain.CategoryShare, error) {
	args := m.Called(f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.CategoryShare), args.Error(1)
}

func (m *MockDashboardService) Records(ctx context.Context, f analytics.Filter) ([]domain.Registration, error) {
	args := m.Called(f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Registration), args.Error(1)
}

func (m *MockDashboardService) Reload(ctx context.Context) (*services.Dataset, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.Dataset), args.Error(1)
}

func (m *MockDashboardService) Status() services.DatasetStatus {
	return m.Called().Get(0).(services.DatasetStatus)
}

func newTestRouter(t *testing.T, svc *MockDashboardService) http.Handler {
	t.Helper()
	logger, _ := testutil.NewTestLogger(t)
	handler := NewDashboardHandler(svc, logger, apierrors.NewErrorHandler(logger, false))

	r := chi.NewRouter()
	r.Mount("/api/dashboard", handler.Routes())
	r.Post("/api/dataset/reload", handler.ReloadDataset)
	r.Get("/api/dataset/status", handler.GetDatasetStatus)
	return r
}

func do(t *testing.T, h http.Handler, method, target string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, target, nil))

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return rec, body
}

func TestDashboardHandler_Summary(t *testing.T) {
	svc := new(MockDashboardService)
	svc.On("Summary", analytics.Filter{}).
		Return(domain.SummaryMetrics{Total: 500, YearOverYearPct: 50, QuarterOverQuarterPct: -33.33}, nil)

	rec, body := do(t, newTestRouter(t, svc), http.MethodGet, "/api/dashboard/summary")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "success", body["status"])
	data := body["data"].(map[string]interface{})
	assert.Equal(t, float64(500), data["total"])
	assert.Equal(t, float64(50), data["year_over_year_pct"])
	svc.AssertExpectations(t)
}

func TestDashboardHandler_FilterParsing(t *testing.T) {
	start := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC)
	want := analytics.Filter{
		Categories:    []string{"TWO_WHEELER", "FOUR_WHEELER"},
		Manufacturers: []string{"Hero"},
		Window:        &domain.Window{Start: start, End: end},
	}

	svc := new(MockDashboardService)
	svc.On("Yearly", want, []analytics.GroupKey{analytics.GroupByCategory, analytics.GroupByManufacturer}).
		Return([]domain.PeriodAggregate{{Period: "2023", Year: 2023, Total: 10}}, nil)

	rec, body := do(t, newTestRouter(t, svc), http.MethodGet,
		"/api/dashboard/yearly?category=TWO_WHEELER&category=FOUR_WHEELER&manufacturer=Hero"+
			"&start=2023-01-01&end=2023-12-31&group_by=vehicle_category,manufacturer")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(1), body["count"])
	svc.AssertExpectations(t)
}

func TestDashboardHandler_ManufacturerWithComma(t *testing.T) {
	want := analytics.Filter{Manufacturers: []string{"Tata Motors, Ltd", "Hero"}}

	svc := new(MockDashboardService)
	svc.On("CategoryShare", want).Return([]domain.CategoryShare{}, nil)

	rec, _ := do(t, newTestRouter(t, svc), http.MethodGet,
		"/api/dashboard/category-share?manufacturer=Tata+Motors%2C+Ltd&manufacturer=Hero")
	assert.Equal(t, http.StatusOK, rec.Code)
	svc.AssertExpectations(t)
}

func TestDashboardHandler_TopManufacturers(t *testing.T) {
	tests := []struct {
		name  string
		query string
		wantN int
	}{
		{"default n", "", DefaultTopN},
		{"explicit n", "?n=3", 3},
		{"max n", "?n=100", MaxTopN},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockDashboardService)
			svc.On("TopManufacturers", analytics.Filter{}, tt.wantN).
				Return([]domain.ManufacturerTotal{{Manufacturer: "Hero", Total: 250}}, nil)

			rec, body := do(t, newTestRouter(t, svc), http.MethodGet, "/api/dashboard/top-manufacturers"+tt.query)
			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, float64(1), body["count"])
			svc.AssertExpectations(t)
		})
	}
}

func TestDashboardHandler_InvalidQuery(t *testing.T) {
	tests := []struct {
		name      string
		target    string
		wantField string
	}{
		{"n not a number", "/api/dashboard/top-manufacturers?n=ten", "n"},
		{"n too small", "/api/dashboard/top-manufacturers?n=0", "n"},
		{"n too large", "/api/dashboard/top-manufacturers?n=101", "n"},
		{"bad start", "/api/dashboard/summary?start=01-01-2023", "start"},
		{"bad end", "/api/dashboard/trend?end=2023-13-01", "end"},
		{"end before start", "/api/dashboard/summary?start=2023-06-01&end=2023-01-01", "end"},
		{"unknown group", "/api/dashboard/quarterly?group_by=fuel", "group_by"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockDashboardService)
			rec, body := do(t, newTestRouter(t, svc), http.MethodGet, tt.target)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, float64(http.StatusBadRequest), body["status"])
			assert.Equal(t, apierrors.TypeValidation, body["type"])
			assert.Contains(t, rec.Body.String(), `"field":"`+tt.wantField+`"`)
			svc.AssertNotCalled(t, "Summary", mock.Anything)
			svc.AssertNotCalled(t, "TopManufacturers", mock.Anything, mock.Anything)
		})
	}
}

func TestDashboardHandler_DatasetUnavailable(t *testing.T) {
	svc := new(MockDashboardService)
	cause := apierrors.NewUnavailableError("dataset unavailable", errors.New("fetch stage: timeout"))
	svc.On("Trend", analytics.Filter{}).Return(nil, cause)
	svc.On("Options").Return(domain.FilterOptions{}, cause)

	router := newTestRouter(t, svc)
	for _, target := range []string{"/api/dashboard/trend", "/api/dashboard/options"} {
		rec, body := do(t, router, http.MethodGet, target)
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code, target)
		assert.Equal(t, "DATASET_UNAVAILABLE", body["error_code"], target)
	}
	svc.AssertExpectations(t)
}

func TestDashboardHandler_CategoryShare(t *testing.T) {
	svc := new(MockDashboardService)
	svc.On("CategoryShare", analytics.Filter{Manufacturers: []string{"Hero"}}).
		Return([]domain.CategoryShare{{VehicleCategory: domain.TwoWheeler, Total: 250, SharePct: 100}}, nil)

	rec, body := do(t, newTestRouter(t, svc), http.MethodGet, "/api/dashboard/category-share?manufacturer=Hero")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(1), body["count"])
	svc.AssertExpectations(t)
}

func TestDashboardHandler_Records(t *testing.T) {
	records := testutil.SampleRegistrations(t)[:2]
	want := analytics.Filter{
		Manufacturers: []string{"Hero"},
		Window:        &domain.Window{Start: time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC)},
	}

	svc := new(MockDashboardService)
	svc.On("Records", want).Return(records, nil)

	rec, body := do(t, newTestRouter(t, svc), http.MethodGet, "/api/dashboard/records?manufacturer=Hero&start=2022-01-01")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(2), body["count"])
	rows := body["data"].([]interface{})
	require.Len(t, rows, 2)
	assert.Contains(t, rec.Body.String(), `"Hero"`)
	svc.AssertExpectations(t)

	t.Run("invalid window", func(t *testing.T) {
		svc := new(MockDashboardService)
		rec, _ := do(t, newTestRouter(t, svc), http.MethodGet, "/api/dashboard/records?end=2023-13-01")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		svc.AssertNotCalled(t, "Records", mock.Anything)
	})
}

func TestDashboardHandler_Reload(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		svc := new(MockDashboardService)
		svc.On("Reload").Return(&services.Dataset{
			Records: testutil.SampleRegistrations(t),
			Origin:  "url",
			RunID:   "run-1",
		}, nil)

		rec, body := do(t, newTestRouter(t, svc), http.MethodPost, "/api/dataset/reload")
		assert.Equal(t, http.StatusOK, rec.Code)
		data := body["data"].(map[string]interface{})
		assert.Equal(t, "run-1", data["run_id"])
		assert.Equal(t, float64(7), data["records"])
	})

	t.Run("conflict", func(t *testing.T) {
		svc := new(MockDashboardService)
		svc.On("Reload").Return(nil, services.ErrReloadInProgress)

		rec, body := do(t, newTestRouter(t, svc), http.MethodPost, "/api/dataset/reload")
		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Equal(t, apierrors.TypeConflict, body["type"])
	})

	t.Run("pipeline failure", func(t *testing.T) {
		svc := new(MockDashboardService)
		svc.On("Reload").Return(nil, apierrors.NewUnavailableError("dataset unavailable", errors.New("boom")))

		rec, _ := do(t, newTestRouter(t, svc), http.MethodPost, "/api/dataset/reload")
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})
}

func TestDashboardHandler_Status(t *testing.T) {
	svc := new(MockDashboardService)
	svc.On("Status").Return(services.DatasetStatus{Loaded: true, Records: 12, Origin: "file"})

	rec, body := do(t, newTestRouter(t, svc), http.MethodGet, "/api/dataset/status")
	assert.Equal(t, http.StatusOK, rec.Code)
	data := body["data"].(map[string]interface{})
	assert.Equal(t, true, data["loaded"])
	assert.Equal(t, float64(12), data["records"])
}
