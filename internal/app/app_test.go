package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vahanpulse/internal/config"
	"vahanpulse/internal/shared/testutil"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()

	cfg := config.Default()
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.Port = 0
	cfg.Server.ShutdownTimeout = 2 * time.Second
	cfg.Paths.DataDir = dir
	cfg.Paths.RawPath = filepath.Join(dir, "raw", "vehicle_data_raw.csv")
	cfg.Paths.CleanedPath = filepath.Join(dir, "processed", "vehicle_data_cleaned.csv")
	cfg.Source.Kind = config.SourceSample
	cfg.Source.SampleMonths = 12
	cfg.RateLimit.Enabled = false
	return cfg
}

func newTestApp(t *testing.T) *Application {
	t.Helper()
	logger, _ := testutil.NewTestLogger(t)

	application, err := NewApplication(context.Background(), testConfig(t), logger)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = application.OTelProviders.Shutdown(context.Background())
	})
	return application
}

func serve(t *testing.T, a *Application, method, target string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	a.Router.ServeHTTP(rec, req)

	var body map[string]interface{}
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	}
	return rec, body
}

func TestNewApplication_Wiring(t *testing.T) {
	a := newTestApp(t)

	assert.NotNil(t, a.Router)
	assert.NotNil(t, a.WebSocketHub)
	assert.NotNil(t, a.Runner)
	assert.NotNil(t, a.Dataset)
	assert.NotNil(t, a.HealthService)
	assert.Equal(t, "127.0.0.1:0", a.Server.Addr)
	assert.DirExists(t, filepath.Dir(a.Config.Paths.CleanedPath))
}

func TestNewApplication_UnknownSource(t *testing.T) {
	cfg := testConfig(t)
	cfg.Source.Kind = "ftp"

	_, err := NewApplication(context.Background(), cfg, nil)
	assert.Error(t, err)
}

func TestRouter_Health(t *testing.T) {
	a := newTestApp(t)

	rec, body := serve(t, a, http.MethodGet, "/api/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", body["status"])
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))

	rec, body = serve(t, a, http.MethodGet, "/api/health/ready")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "not_ready", body["status"])

	rec, _ = serve(t, a, http.MethodGet, "/api/health/live")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, body = serve(t, a, http.MethodGet, "/api/version")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, Version, body["version"])
}

func TestRouter_NotFoundProblem(t *testing.T) {
	a := newTestApp(t)

	rec, body := serve(t, a, http.MethodGet, "/api/nope")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, float64(http.StatusNotFound), body["status"])
	assert.Equal(t, "/api/nope", body["instance"])
}

func TestRouter_MethodNotAllowed(t *testing.T) {
	a := newTestApp(t)

	rec, _ := serve(t, a, http.MethodGet, "/api/dataset/reload")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestRouter_Metrics(t *testing.T) {
	a := newTestApp(t)
	serve(t, a, http.MethodGet, "/api/health")

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	a.Router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestRouter_DashboardLoadsSample(t *testing.T) {
	a := newTestApp(t)

	rec, body := serve(t, a, http.MethodGet, "/api/dashboard/summary")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "success", body["status"])

	data, ok := body["data"].(map[string]interface{})
	require.True(t, ok)
	assert.Greater(t, data["total"], float64(0))

	assert.FileExists(t, a.Config.Paths.CleanedPath)
	assert.FileExists(t, a.Config.Paths.RawPath)

	rec, body = serve(t, a, http.MethodGet, "/api/dataset/status")
	require.Equal(t, http.StatusOK, rec.Code)
	status := body["data"].(map[string]interface{})
	assert.Equal(t, true, status["loaded"])
	assert.Equal(t, "sample", status["origin"])

	rec, body = serve(t, a, http.MethodGet, "/api/dashboard/records")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, status["records"], body["count"])

	rec, _ = serve(t, a, http.MethodGet, "/api/health/ready")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouter_DashboardRejectsBadQuery(t *testing.T) {
	a := newTestApp(t)

	rec, body := serve(t, a, http.MethodGet, "/api/dashboard/top-manufacturers?n=0")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, float64(http.StatusBadRequest), body["status"])
}

func TestRouter_Reload(t *testing.T) {
	a := newTestApp(t)

	rec, body := serve(t, a, http.MethodPost, "/api/dataset/reload")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	data := body["data"].(map[string]interface{})
	assert.Equal(t, "sample", data["origin"])
	assert.NotEmpty(t, data["run_id"])
	assert.Greater(t, data["records"], float64(0))
}

func TestApplication_RunStopsOnCancel(t *testing.T) {
	a := newTestApp(t)

	// Load up front so the background warm-up returns the cached snapshot.
	_, err := a.Dataset.Dataset(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
