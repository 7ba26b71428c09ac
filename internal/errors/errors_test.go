package errors

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/render"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAPIError_Render(t *testing.T) {
	tests := []struct {
		name       string
		apiError   *APIError
		wantStatus int
	}{
		{"invalid parameter", ErrInvalidParameter, http.StatusBadRequest},
		{"dataset unavailable", ErrDatasetUnavailable, http.StatusServiceUnavailable},
		{"reload conflict", ErrReloadInProgress, http.StatusConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodGet, "/", nil)

			require.NoError(t, render.Render(w, r, tt.apiError))
			assert.Equal(t, tt.wantStatus, w.Code)

			var body APIError
			require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
			assert.Equal(t, tt.apiError.ErrorCode, body.ErrorCode)
		})
	}
}

func TestInvalidParameterError(t *testing.T) {
	err := InvalidParameterError("n", errors.New("must be between 1 and 100"))

	assert.Equal(t, http.StatusBadRequest, err.StatusCode)
	assert.Equal(t, "INVALID_PARAMETER", err.ErrorCode)
	details, ok := err.Details.(ValidationError)
	require.True(t, ok)
	assert.Equal(t, "n", details.Field)
	assert.Equal(t, "must be between 1 and 100", details.Message)
}

func TestDatasetUnavailableError(t *testing.T) {
	err := DatasetUnavailableError(errors.New("source down"))

	assert.Equal(t, http.StatusServiceUnavailable, err.StatusCode)
	assert.Equal(t, "source down", err.Details)
	assert.Equal(t, "Registration dataset is not available", err.Error())
}

func TestNewValidationErrors(t *testing.T) {
	err := NewValidationErrors([]ValidationError{
		{Field: "start", Message: "invalid date"},
		{Field: "end", Message: "invalid date"},
	})

	details, ok := err.Details.(ValidationErrors)
	require.True(t, ok)
	assert.Len(t, details.Errors, 2)
}

func TestProblemDetails_MarshalJSON(t *testing.T) {
	pd := NewProblemDetails(http.StatusBadRequest, TypeValidation, "Bad Request", "n out of range", "/api/dashboard/top-manufacturers").
		WithExtension("trace_id", "abc")

	raw, err := json.Marshal(pd)
	require.NoError(t, err)

	var got map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.Equal(t, TypeValidation, got["type"])
	assert.Equal(t, float64(http.StatusBadRequest), got["status"])
	assert.Equal(t, "abc", got["trace_id"])
	assert.Equal(t, "/api/dashboard/top-manufacturers", got["instance"])

	t.Run("extensions cannot override standard fields", func(t *testing.T) {
		pd := NewProblemDetails(http.StatusNotFound, TypeNotFound, "Not Found", "", "").
			WithExtension("status", 200)
		raw, err := json.Marshal(pd)
		require.NoError(t, err)

		var got map[string]interface{}
		require.NoError(t, json.Unmarshal(raw, &got))
		assert.Equal(t, float64(http.StatusNotFound), got["status"])
		assert.NotContains(t, got, "detail")
	})
}
