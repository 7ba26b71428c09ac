package dataprocessing

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"vahanpulse/pkg/contracts/domain"
)

// dateLayouts are tried in order. Day-first layouts precede month-first ones,
// so "03/04/2023" is 3 April.
var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05.000000",
	"2006/01/02",
	"2006/01/02 15:04:05",
	"02-01-2006",
	"02/01/2006",
	"02/01/2006 15:04:05",
	"01/02/2006",
	"01/02/2006 15:04:05",
	"02.01.2006",
	"Jan 2 2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"2 Jan 2006",
	"02-Jan-2006",
	"2-Jan-06",
	"2006-01",
	"Jan 2006",
	"January 2006",
	"Jan-06",
}

// Excel serial numbers accepted as dates: 1900-01-01 through 9999-12-31.
const (
	minExcelSerial = 1
	maxExcelSerial = 2958465
)

// parseDate converts a cell to a calendar day. ok is false when the cell
// cannot be read as a date.
func parseDate(v any) (time.Time, bool) {
	switch val := v.(type) {
	case nil:
		return time.Time{}, false
	case time.Time:
		if val.IsZero() {
			return time.Time{}, false
		}
		return domain.TruncateDay(val), true
	case string:
		return parseDateString(val)
	default:
		f, ok := toFloat(val)
		if !ok {
			return time.Time{}, false
		}
		return excelSerialDate(f)
	}
}

func parseDateString(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return domain.TruncateDay(t), true
		}
	}

	if len(s) == 4 {
		if year, err := strconv.Atoi(s); err == nil && year >= 1900 && year <= 2100 {
			return time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC), true
		}
	}

	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return excelSerialDate(f)
	}
	return time.Time{}, false
}

func excelSerialDate(serial float64) (time.Time, bool) {
	if math.IsNaN(serial) || serial < minExcelSerial || serial > maxExcelSerial {
		return time.Time{}, false
	}
	t, err := excelize.ExcelDateToTime(serial, false)
	if err != nil {
		return time.Time{}, false
	}
	return domain.TruncateDay(t), true
}

var monthNames = map[string]time.Month{
	"jan": time.January, "feb": time.February, "mar": time.March,
	"apr": time.April, "may": time.May, "jun": time.June,
	"jul": time.July, "aug": time.August, "sep": time.September,
	"oct": time.October, "nov": time.November, "dec": time.December,
}

// yearMonthDate builds day 1 of the given year and month cells.
func yearMonthDate(yearCell, monthCell any) (time.Time, bool) {
	year, ok := toInt(yearCell)
	if !ok || year < 1 || year > 9999 {
		return time.Time{}, false
	}

	month, ok := toInt(monthCell)
	if !ok {
		s, isString := monthCell.(string)
		if !isString {
			return time.Time{}, false
		}
		name := strings.ToLower(strings.TrimSpace(s))
		if len(name) < 3 {
			return time.Time{}, false
		}
		m, found := monthNames[name[:3]]
		if !found {
			return time.Time{}, false
		}
		month = int(m)
	}
	if month < 1 || month > 12 {
		return time.Time{}, false
	}

	return time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC), true
}

func toInt(v any) (int, bool) {
	f, ok := toFloat(v)
	if !ok || f != math.Trunc(f) {
		return 0, false
	}
	return int(f), true
}
