package sources

import (
	"context"
	"fmt"
	"log/slog"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"vahanpulse/internal/dataprocessing"
	apierrors "vahanpulse/internal/errors"
)

// SheetsOptions configures access to the Google Sheets API.
type SheetsOptions struct {
	SpreadsheetID   string
	Range           string
	APIKey          string
	CredentialsFile string
	// ClientOptions are appended after the credential options.
	ClientOptions []option.ClientOption
}

// SheetsSource reads a spreadsheet range. The first row is the header.
type SheetsSource struct {
	service       *sheets.Service
	spreadsheetID string
	readRange     string
	logger        *slog.Logger
}

// NewSheetsSource creates the Sheets client. Either an API key or a
// credentials file is required unless ClientOptions supply one.
func NewSheetsSource(ctx context.Context, opts SheetsOptions, logger *slog.Logger) (*SheetsSource, error) {
	if opts.SpreadsheetID == "" {
		return nil, apierrors.NewConfigError("spreadsheet id is required", nil)
	}
	if logger == nil {
		logger = slog.Default()
	}

	var clientOpts []option.ClientOption
	switch {
	case opts.CredentialsFile != "":
		clientOpts = append(clientOpts, option.WithCredentialsFile(opts.CredentialsFile))
	case opts.APIKey != "":
		clientOpts = append(clientOpts, option.WithAPIKey(opts.APIKey))
	}
	clientOpts = append(clientOpts, opts.ClientOptions...)

	service, err := sheets.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, apierrors.NewConfigError("failed to create sheets service", err)
	}

	readRange := opts.Range
	if readRange == "" {
		readRange = "A:Z"
	}

	return &SheetsSource{
		service:       service,
		spreadsheetID: opts.SpreadsheetID,
		readRange:     readRange,
		logger:        logger.With(slog.String("component", "sheets_source")),
	}, nil
}

// Name implements Source.
func (s *SheetsSource) Name() string { return "sheets" }

// Fetch implements Source. Cells are read as formatted text.
func (s *SheetsSource) Fetch(ctx context.Context) (dataprocessing.RawTable, error) {
	resp, err := s.service.Spreadsheets.Values.Get(s.spreadsheetID, s.readRange).
		ValueRenderOption("FORMATTED_VALUE").
		Context(ctx).
		Do()
	if err != nil {
		return dataprocessing.RawTable{}, apierrors.NewNetworkError("failed to read from sheets", err).
			WithContext("spreadsheet_id", s.spreadsheetID).
			WithContext("range", s.readRange)
	}

	if len(resp.Values) == 0 {
		return dataprocessing.RawTable{}, apierrors.NewParsingError("sheet range is empty", dataprocessing.ErrEmptyInput).
			WithContext("range", s.readRange)
	}

	header := stringRow(resp.Values[0])
	rows := make([][]string, 0, len(resp.Values)-1)
	for _, row := range resp.Values[1:] {
		rows = append(rows, stringRow(row))
	}

	s.logger.InfoContext(ctx, "sheet range read",
		slog.String("range", resp.Range),
		slog.Int("rows", len(rows)))
	return dataprocessing.NewRawTable(header, rows), nil
}

func stringRow(row []interface{}) []string {
	out := make([]string, len(row))
	for i, v := range row {
		if v == nil {
			continue
		}
		if s, ok := v.(string); ok {
			out[i] = s
			continue
		}
		out[i] = fmt.Sprint(v)
	}
	return out
}
