package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	"vahanpulse/internal/analytics"
	apierrors "vahanpulse/internal/errors"
	"vahanpulse/internal/services"
)

// DashboardHandler serves the dashboard query endpoints with RFC 7807 errors.
type DashboardHandler struct {
	service      DashboardService
	validate     *validator.Validate
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewDashboardHandler creates a dashboard handler.
func NewDashboardHandler(service DashboardService, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *DashboardHandler {
	return &DashboardHandler{
		service:      service,
		validate:     validator.New(),
		logger:       logger.With(slog.String("component", "dashboard_handler")),
		errorHandler: errorHandler,
	}
}

// Routes returns the /api/dashboard routes.
func (h *DashboardHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Get("/summary", h.GetSummary)
	r.Get("/yearly", h.GetYearly)
	r.Get("/quarterly", h.GetQuarterly)
	r.Get("/top-manufacturers", h.GetTopManufacturers)
	r.Get("/trend", h.GetTrend)
	r.Get("/options", h.GetOptions)
	r.Get("/category-share", h.GetCategoryShare)
	r.Get("/records", h.GetRecords)

	return r
}

// query parses the request query, replying with a 400 problem on failure.
func (h *DashboardHandler) query(w http.ResponseWriter, r *http.Request) (DashboardQuery, bool) {
	q, err := parseDashboardQuery(r.URL.Query(), h.validate)
	if err != nil {
		h.logger.DebugContext(r.Context(), "invalid dashboard query",
			slog.String("query", r.URL.RawQuery),
			slog.String("error", err.Error()))
		h.errorHandler.HandleError(w, r, err)
		return q, false
	}
	return q, true
}

// fail maps service errors onto API errors.
func (h *DashboardHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, services.ErrReloadInProgress):
		h.errorHandler.HandleError(w, r, apierrors.ErrReloadInProgress)
	case errors.Is(err, analytics.ErrUnknownGroupKey):
		h.errorHandler.HandleError(w, r, apierrors.InvalidParameterError("group_by", err))
	case apierrors.IsType(err, apierrors.ErrTypeUnavailable):
		h.errorHandler.HandleError(w, r, apierrors.DatasetUnavailableError(err))
	default:
		h.errorHandler.HandleError(w, r, err)
	}
}

func (h *DashboardHandler) respond(w http.ResponseWriter, r *http.Request, data interface{}, count int) {
	body := map[string]interface{}{
		"status": "success",
		"data":   data,
	}
	if count >= 0 {
		body["count"] = count
	}
	render.JSON(w, r, body)
}

// GetSummary handles GET /api/dashboard/summary
func (h *DashboardHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	q, ok := h.query(w, r)
	if !ok {
		return
	}
	summary, err := h.service.Summary(r.Context(), q.Filter())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respond(w, r, summary, -1)
}

// GetYearly handles GET /api/dashboard/yearly
func (h *DashboardHandler) GetYearly(w http.ResponseWriter, r *http.Request) {
	q, ok := h.query(w, r)
	if !ok {
		return
	}
	rows, err := h.service.Yearly(r.Context(), q.Filter(), q.GroupKeys()...)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respond(w, r, rows, len(rows))
}

// GetQuarterly handles GET /api/dashboard/quarterly
func (h *DashboardHandler) GetQuarterly(w http.ResponseWriter, r *http.Request) {
	q, ok := h.query(w, r)
	if !ok {
		return
	}
	rows, err := h.service.Quarterly(r.Context(), q.Filter(), q.GroupKeys()...)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respond(w, r, rows, len(rows))
}

// GetTopManufacturers handles GET /api/dashboard/top-manufacturers
func (h *DashboardHandler) GetTopManufacturers(w http.ResponseWriter, r *http.Request) {
	q, ok := h.query(w, r)
	if !ok {
		return
	}
	rows, err := h.service.TopManufacturers(r.Context(), q.Filter(), q.N)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respond(w, r, rows, len(rows))
}

// GetTrend handles GET /api/dashboard/trend
func (h *DashboardHandler) GetTrend(w http.ResponseWriter, r *http.Request) {
	q, ok := h.query(w, r)
	if !ok {
		return
	}
	points, err := h.service.Trend(r.Context(), q.Filter())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respond(w, r, points, len(points))
}

// GetOptions handles GET /api/dashboard/options
func (h *DashboardHandler) GetOptions(w http.ResponseWriter, r *http.Request) {
	opts, err := h.service.Options(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respond(w, r, opts, -1)
}

// GetCategoryShare handles GET /api/dashboard/category-share
func (h *DashboardHandler) GetCategoryShare(w http.ResponseWriter, r *http.Request) {
	q, ok := h.query(w, r)
	if !ok {
		return
	}
	shares, err := h.service.CategoryShare(r.Context(), q.Filter())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respond(w, r, shares, len(shares))
}

// GetRecords handles GET /api/dashboard/records
func (h *DashboardHandler) GetRecords(w http.ResponseWriter, r *http.Request) {
	q, ok := h.query(w, r)
	if !ok {
		return
	}
	records, err := h.service.Records(r.Context(), q.Filter())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respond(w, r, records, len(records))
}

// ReloadDataset handles POST /api/dataset/reload
func (h *DashboardHandler) ReloadDataset(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetReqID(r.Context())
	h.logger.InfoContext(r.Context(), "dataset reload requested",
		slog.String("request_id", reqID))

	ds, err := h.service.Reload(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}

	h.respond(w, r, map[string]interface{}{
		"run_id":    ds.RunID,
		"origin":    ds.Origin,
		"fell_back": ds.FellBack,
		"records":   len(ds.Records),
		"loaded_at": ds.LoadedAt,
		"report":    ds.Report,
	}, -1)
}

// GetDatasetStatus handles GET /api/dataset/status
func (h *DashboardHandler) GetDatasetStatus(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, h.service.Status(), -1)
}
