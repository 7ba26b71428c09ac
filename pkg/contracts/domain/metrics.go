package domain

import (
	"time"
)

// SummaryMetrics are the three headline numbers of the dashboard.
type SummaryMetrics struct {
	Total                 int64   `json:"total"`
	YearOverYearPct       float64 `json:"year_over_year_pct"`
	QuarterOverQuarterPct float64 `json:"quarter_over_quarter_pct"`
}

// PeriodAggregate is the summed registrations of one period, optionally
// split by grouping keys. ChangePct is nil for the first period of a group
// or when the previous period summed to zero.
type PeriodAggregate struct {
	Period     string            `json:"period"`
	Year       int               `json:"year"`
	QuarterNum int               `json:"quarter_num,omitempty"`
	Group      map[string]string `json:"group,omitempty"`
	Total      int64             `json:"total"`
	ChangePct  *float64          `json:"change_pct"`
}

// ManufacturerTotal is one row of a manufacturer ranking.
type ManufacturerTotal struct {
	Manufacturer string `json:"manufacturer"`
	Total        int64  `json:"total"`
}

// CategoryShare is a vehicle category's share of all registrations.
type CategoryShare struct {
	VehicleCategory VehicleCategory `json:"vehicle_category"`
	Total           int64           `json:"total"`
	SharePct        float64         `json:"share_pct"`
}

// TrendPoint is the total registrations on one date.
type TrendPoint struct {
	Date          time.Time `json:"date"`
	Registrations int64     `json:"registrations"`
}

// Window is an inclusive date range. A zero Start or End leaves that side open.
type Window struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Contains reports whether t falls inside the window, both ends inclusive.
func (w Window) Contains(t time.Time) bool {
	if !w.Start.IsZero() && t.Before(w.Start) {
		return false
	}
	if !w.End.IsZero() && t.After(w.End) {
		return false
	}
	return true
}

// FilterOptions lists the values a dashboard filter can offer.
type FilterOptions struct {
	Categories    []VehicleCategory `json:"categories"`
	Manufacturers []string          `json:"manufacturers"`
	MinDate       *time.Time        `json:"min_date,omitempty"`
	MaxDate       *time.Time        `json:"max_date,omitempty"`
}
