package exporter

import (
	"fmt"
	"path/filepath"
	"strings"

	"vahanpulse/internal/dataprocessing"
)

// ErrUnsupportedFormat is returned for file extensions no exporter handles.
var ErrUnsupportedFormat = dataprocessing.ErrUnsupportedFormat

// Format is a persisted table format.
type Format string

const (
	FormatCSV    Format = "csv"
	FormatXLSX   Format = "xlsx"
	FormatSQLite Format = "sqlite"
)

// FormatOf picks the format from the file extension.
func FormatOf(path string) (Format, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".csv":
		return FormatCSV, nil
	case ".xlsx":
		return FormatXLSX, nil
	case ".db", ".sqlite", ".sqlite3":
		return FormatSQLite, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
}
