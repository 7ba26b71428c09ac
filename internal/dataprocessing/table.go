package dataprocessing

import (
	"fmt"
	"strings"
)

// RawRecord is one input row keyed by column name. Values are strings from
// file readers, or numbers, time.Time or nil from in-memory callers.
type RawRecord map[string]any

// RawTable is an input table with its header order. Column order decides
// which column wins a mapping collision.
type RawTable struct {
	Columns []string
	Records []RawRecord
}

// Len returns the number of records.
func (t RawTable) Len() int {
	return len(t.Records)
}

// NewRawTable builds a table from a header and string rows. Header names are
// trimmed and made unique by suffixing repeats with ".1", ".2", and so on.
// Short rows are padded with nil; cells beyond the header are discarded.
func NewRawTable(header []string, rows [][]string) RawTable {
	columns := uniqueColumns(header)

	records := make([]RawRecord, 0, len(rows))
	for _, row := range rows {
		rec := make(RawRecord, len(columns))
		for i, col := range columns {
			if i < len(row) {
				rec[col] = row[i]
			} else {
				rec[col] = nil
			}
		}
		records = append(records, rec)
	}

	return RawTable{Columns: columns, Records: records}
}

func uniqueColumns(header []string) []string {
	seen := make(map[string]int, len(header))
	columns := make([]string, len(header))
	for i, h := range header {
		name := strings.TrimSpace(h)
		if name == "" {
			name = fmt.Sprintf("column_%d", i+1)
		}
		if n, dup := seen[name]; dup {
			seen[name] = n + 1
			name = fmt.Sprintf("%s.%d", name, n+1)
			seen[name] = 0
		} else {
			seen[name] = 0
		}
		columns[i] = name
	}
	return columns
}

// Rows renders the records as text in column order, nil cells as "".
func (t RawTable) Rows() [][]string {
	rows := make([][]string, len(t.Records))
	for i, rec := range t.Records {
		row := make([]string, len(t.Columns))
		for j, col := range t.Columns {
			row[j] = cellText(rec[col])
		}
		rows[i] = row
	}
	return rows
}
