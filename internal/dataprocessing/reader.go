package dataprocessing

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	apierrors "vahanpulse/internal/errors"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ReadFile reads a CSV or XLSX file into a raw table. sheet selects the
// worksheet of a workbook; empty means the first sheet.
func ReadFile(path, sheet string) (RawTable, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".csv", ".xlsx", ".xlsm":
	default:
		return RawTable{}, apierrors.NewParsingError(fmt.Sprintf("cannot read %s", path), ErrUnsupportedFormat).
			WithContext("extension", ext)
	}

	f, err := os.Open(path)
	if err != nil {
		return RawTable{}, apierrors.NewStorageError("failed to open input", err).WithContext("path", path)
	}
	defer f.Close()

	if ext == ".csv" {
		return ReadCSV(f)
	}
	return ReadXLSX(f, sheet)
}

// ReadCSV decodes a CSV stream, dropping a leading UTF-8 BOM. The first record
// is the header. Rows may be ragged.
func ReadCSV(r io.Reader) (RawTable, error) {
	br := bufio.NewReader(r)
	if prefix, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(prefix, utf8BOM) {
		br.Discard(len(utf8BOM))
	}

	reader := csv.NewReader(br)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return RawTable{}, apierrors.NewParsingError("malformed csv", err)
	}
	if len(rows) == 0 {
		return RawTable{}, apierrors.NewParsingError("csv has no header", ErrEmptyInput)
	}

	return NewRawTable(rows[0], rows[1:]), nil
}

// ReadXLSX decodes a workbook. The first row with any non-blank cell is the
// header. Cells are read unformatted, so date cells arrive as Excel serials.
func ReadXLSX(r io.Reader, sheet string) (RawTable, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return RawTable{}, apierrors.NewParsingError("failed to open workbook", err)
	}
	defer f.Close()

	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return RawTable{}, apierrors.NewParsingError("workbook has no sheets", ErrEmptyInput)
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return RawTable{}, apierrors.NewParsingError("failed to read sheet", err).WithContext("sheet", sheet)
	}

	headerRow := -1
	for i, row := range rows {
		if !blankRow(row) {
			headerRow = i
			break
		}
	}
	if headerRow < 0 {
		return RawTable{}, apierrors.NewParsingError("sheet has no header", ErrEmptyInput).WithContext("sheet", sheet)
	}

	data := make([][]string, 0, len(rows)-headerRow-1)
	for _, row := range rows[headerRow+1:] {
		if blankRow(row) {
			continue
		}
		data = append(data, row)
	}

	return NewRawTable(rows[headerRow], data), nil
}

func blankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
