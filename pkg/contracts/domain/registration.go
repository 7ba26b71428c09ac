package domain

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the on-disk and on-wire format for canonical dates.
const DateLayout = "2006-01-02"

// VehicleCategory is a vehicle class. The three wheeler classes form a closed
// set; any other value is an upper-cased free-text fallback.
type VehicleCategory string

const (
	TwoWheeler   VehicleCategory = "TWO_WHEELER"
	ThreeWheeler VehicleCategory = "THREE_WHEELER"
	FourWheeler  VehicleCategory = "FOUR_WHEELER"

	// UnknownCategory is what a missing category standardizes to.
	UnknownCategory VehicleCategory = "UNKNOWN"
)

// UnknownManufacturer is the default manufacturer for rows that carry none.
const UnknownManufacturer = "Unknown"

// IsKnown reports whether c belongs to the closed wheeler enumeration.
func (c VehicleCategory) IsKnown() bool {
	switch c {
	case TwoWheeler, ThreeWheeler, FourWheeler:
		return true
	}
	return false
}

// CanonicalColumns is the fixed column order of every persisted canonical table.
var CanonicalColumns = []string{
	"date", "year", "quarter", "vehicle_category", "manufacturer", "registrations",
}

// Registration is one canonical record: the summed registrations of a
// (date, vehicle category, manufacturer) combination.
type Registration struct {
	Date            time.Time       `json:"date" csv:"date" validate:"required"`
	Year            int             `json:"year" csv:"year"`
	Quarter         string          `json:"quarter" csv:"quarter"`
	VehicleCategory VehicleCategory `json:"vehicle_category" csv:"vehicle_category" validate:"required"`
	Manufacturer    string          `json:"manufacturer" csv:"manufacturer" validate:"required"`
	Registrations   int64           `json:"registrations" csv:"registrations" validate:"min=0"`
}

// NewRegistration builds a record and derives year and quarter from date.
// The date is truncated to a UTC calendar day.
func NewRegistration(date time.Time, category VehicleCategory, manufacturer string, count int64) Registration {
	day := TruncateDay(date)
	return Registration{
		Date:            day,
		Year:            day.Year(),
		Quarter:         QuarterLabel(day),
		VehicleCategory: category,
		Manufacturer:    manufacturer,
		Registrations:   count,
	}
}

// Key returns the uniqueness key of the record.
func (r Registration) Key() RegistrationKey {
	return RegistrationKey{
		Date:            r.Date,
		VehicleCategory: r.VehicleCategory,
		Manufacturer:    r.Manufacturer,
	}
}

// CSVRecord renders r in CanonicalColumns order.
func (r Registration) CSVRecord() []string {
	return []string{
		r.Date.Format(DateLayout),
		fmt.Sprintf("%d", r.Year),
		r.Quarter,
		string(r.VehicleCategory),
		r.Manufacturer,
		fmt.Sprintf("%d", r.Registrations),
	}
}

// RegistrationKey is the (date, vehicle_category, manufacturer) tuple that is
// unique within a canonical dataset.
type RegistrationKey struct {
	Date            time.Time
	VehicleCategory VehicleCategory
	Manufacturer    string
}

// TruncateDay drops the time of day, keeping the calendar date in UTC.
func TruncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// QuarterOf returns the calendar quarter (1..4) of t.
func QuarterOf(t time.Time) int {
	return (int(t.Month())-1)/3 + 1
}

// QuarterLabel formats t's quarter as "2023Q2".
func QuarterLabel(t time.Time) string {
	return fmt.Sprintf("%dQ%d", t.Year(), QuarterOf(t))
}

// ParseQuarterLabel splits a "2023Q2" label into year and quarter number.
func ParseQuarterLabel(label string) (year, quarter int, err error) {
	idx := strings.IndexByte(strings.ToUpper(label), 'Q')
	if idx <= 0 {
		return 0, 0, fmt.Errorf("invalid quarter label %q", label)
	}
	if _, err := fmt.Sscanf(label[:idx], "%d", &year); err != nil {
		return 0, 0, fmt.Errorf("invalid quarter label %q: %w", label, err)
	}
	if _, err := fmt.Sscanf(label[idx+1:], "%d", &quarter); err != nil {
		return 0, 0, fmt.Errorf("invalid quarter label %q: %w", label, err)
	}
	if quarter < 1 || quarter > 4 {
		return 0, 0, fmt.Errorf("invalid quarter number in %q", label)
	}
	return year, quarter, nil
}
