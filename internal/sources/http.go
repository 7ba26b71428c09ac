package sources

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"vahanpulse/internal/dataprocessing"
	apierrors "vahanpulse/internal/errors"
)

const (
	// DefaultTimeout bounds a whole download.
	DefaultTimeout = 30 * time.Second
	// maxBodyBytes caps the size of a downloaded export.
	maxBodyBytes = 64 << 20
)

// HTTPFetcher downloads CSV exports.
type HTTPFetcher struct {
	client    *http.Client
	userAgent string
	logger    *slog.Logger
}

// HTTPOption configures an HTTPFetcher.
type HTTPOption func(*HTTPFetcher)

// WithHTTPClient replaces the HTTP client. Its timeout is left as is.
func WithHTTPClient(c *http.Client) HTTPOption {
	return func(f *HTTPFetcher) {
		if c != nil {
			f.client = c
		}
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) HTTPOption {
	return func(f *HTTPFetcher) {
		if d > 0 {
			f.client.Timeout = d
		}
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) HTTPOption {
	return func(f *HTTPFetcher) {
		f.userAgent = ua
	}
}

// WithHTTPLogger sets the logger.
func WithHTTPLogger(logger *slog.Logger) HTTPOption {
	return func(f *HTTPFetcher) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// NewHTTPFetcher creates a fetcher with a 30 second timeout.
func NewHTTPFetcher(opts ...HTTPOption) *HTTPFetcher {
	f := &HTTPFetcher{
		client:    &http.Client{Timeout: DefaultTimeout},
		userAgent: "vahanpulse",
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(f)
	}
	f.logger = f.logger.With(slog.String("component", "http_fetcher"))
	return f
}

// Fetch downloads url and parses the body as CSV.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) (dataprocessing.RawTable, error) {
	body, err := f.download(ctx, url)
	if err != nil {
		return dataprocessing.RawTable{}, err
	}
	return dataprocessing.ReadCSV(bytes.NewReader(body))
}

func (f *HTTPFetcher) download(ctx context.Context, url string) ([]byte, error) {
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, apierrors.NewAppValidationError("invalid source url", err).WithContext("url", url)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/csv, */*")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, apierrors.NewNetworkError("download failed", err).WithContext("url", url)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, apierrors.NewNetworkError(
			fmt.Sprintf("download failed with status %d", resp.StatusCode), nil,
		).WithContext("url", url).WithContext("status", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes+1))
	if err != nil {
		return nil, apierrors.NewNetworkError("failed to read response body", err).WithContext("url", url)
	}
	if len(body) > maxBodyBytes {
		return nil, apierrors.NewNetworkError("response body too large", nil).
			WithContext("url", url).WithContext("limit_bytes", maxBodyBytes)
	}

	f.logger.InfoContext(ctx, "download complete",
		slog.String("url", url),
		slog.Int("bytes", len(body)),
		slog.Duration("duration", time.Since(start)))
	return body, nil
}

// URLSource is a Source backed by an HTTPFetcher.
type URLSource struct {
	Fetcher *HTTPFetcher
	URL     string
}

// Name implements Source.
func (s URLSource) Name() string { return "url" }

// Fetch implements Source.
func (s URLSource) Fetch(ctx context.Context) (dataprocessing.RawTable, error) {
	return s.Fetcher.Fetch(ctx, s.URL)
}
