package errors

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vahanpulse/internal/shared/testutil"
)

func newRequest(path string) *http.Request {
	r := httptest.NewRequest(http.MethodGet, path, nil)
	ctx := context.WithValue(r.Context(), middleware.RequestIDKey, "test-request-id")
	return r.WithContext(ctx)
}

func decodeProblem(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var got map[string]interface{}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&got))
	return got
}

func TestErrorHandler_HandleError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantType   string
	}{
		{
			name:       "context deadline exceeded",
			err:        context.DeadlineExceeded,
			wantStatus: http.StatusGatewayTimeout,
			wantType:   TypeTimeout,
		},
		{
			name:       "wrapped API error",
			err:        fmt.Errorf("handler: %w", ErrInvalidParameter),
			wantStatus: http.StatusBadRequest,
			wantType:   TypeValidation,
		},
		{
			name:       "dataset unavailable",
			err:        ErrDatasetUnavailable,
			wantStatus: http.StatusServiceUnavailable,
			wantType:   TypeDatasetUnavailable,
		},
		{
			name:       "parsing app error",
			err:        NewParsingError("normalize", nil),
			wantStatus: http.StatusUnprocessableEntity,
			wantType:   TypeDataUnprocessable,
		},
		{
			name:       "network app error",
			err:        NewNetworkError("fetch", nil),
			wantStatus: http.StatusBadGateway,
			wantType:   TypeSourceFailed,
		},
		{
			name:       "unavailable app error",
			err:        NewUnavailableError("dataset", nil),
			wantStatus: http.StatusServiceUnavailable,
			wantType:   TypeServiceDown,
		},
		{
			name:       "plain error",
			err:        fmt.Errorf("something went wrong"),
			wantStatus: http.StatusInternalServerError,
			wantType:   TypeInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, logs := testutil.NewTestLogger(t)
			handler := NewErrorHandler(logger, false)
			w := httptest.NewRecorder()

			handler.HandleError(w, newRequest("/api/dashboard/summary"), tt.err)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Contains(t, w.Header().Get("Content-Type"), "application/json")

			got := decodeProblem(t, w)
			assert.Equal(t, tt.wantType, got["type"])
			assert.Equal(t, "test-request-id", got["trace_id"])
			assert.Equal(t, "/api/dashboard/summary", got["instance"])
			assert.NotContains(t, got, "stack")
			assert.True(t, logs.ContainsMessage("request failed"))
		})
	}
}

func TestErrorHandler_HandleError_Nil(t *testing.T) {
	logger, logs := testutil.NewTestLogger(t)
	handler := NewErrorHandler(logger, false)
	w := httptest.NewRecorder()

	handler.HandleError(w, newRequest("/"), nil)

	assert.Equal(t, 0, w.Body.Len())
	assert.Equal(t, 0, logs.Count())
}

func TestErrorHandler_IncludeStack(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	handler := NewErrorHandler(logger, true)
	w := httptest.NewRecorder()

	handler.HandleError(w, newRequest("/"), fmt.Errorf("boom"))

	got := decodeProblem(t, w)
	assert.NotEmpty(t, got["stack"])
}

func TestErrorHandler_AppErrorContext(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	handler := NewErrorHandler(logger, false)
	w := httptest.NewRecorder()

	err := NewAppValidationError("invalid window", nil).WithContext("field", "start")
	handler.HandleError(w, newRequest("/"), err)

	got := decodeProblem(t, w)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "start", got["field"])
	assert.Equal(t, "VALIDATION", got["error_type"])
}

func TestErrorHandler_NotFoundAndMethodNotAllowed(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	handler := NewErrorHandler(logger, false)

	w := httptest.NewRecorder()
	handler.NotFound(w, newRequest("/missing"))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, TypeNotFound, decodeProblem(t, w)["type"])

	w = httptest.NewRecorder()
	handler.MethodNotAllowed(w, newRequest("/api/health"))
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	assert.Equal(t, TypeMethodDenied, decodeProblem(t, w)["type"])
}

func TestErrorHandler_RecoveryMiddleware(t *testing.T) {
	logger, logs := testutil.NewTestLogger(t)
	handler := NewErrorHandler(logger, false)

	panicky := handler.RecoveryMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("normalizer exploded")
	}))

	w := httptest.NewRecorder()
	panicky.ServeHTTP(w, newRequest("/api/dashboard/summary"))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, TypeInternal, decodeProblem(t, w)["type"])
	assert.True(t, logs.ContainsMessage("panic recovered"))
}
