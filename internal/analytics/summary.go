package analytics

import (
	"sort"

	"vahanpulse/pkg/contracts/domain"
)

// quarterKey identifies a calendar quarter and orders chronologically.
type quarterKey struct {
	year    int
	quarter int
}

func (q quarterKey) before(o quarterKey) bool {
	if q.year != o.year {
		return q.year < o.year
	}
	return q.quarter < o.quarter
}

func quarterOf(r domain.Registration) quarterKey {
	return quarterKey{year: r.Date.Year(), quarter: domain.QuarterOf(r.Date)}
}

// Summarize returns the total and the latest year-over-year and
// quarter-over-quarter growth in percent.
func Summarize(records []domain.Registration) domain.SummaryMetrics {
	var total int64
	byYear := make(map[int]int64)
	byQuarter := make(map[quarterKey]int64)

	for _, r := range records {
		total += r.Registrations
		byYear[r.Date.Year()] += r.Registrations
		byQuarter[quarterOf(r)] += r.Registrations
	}

	years := make([]int, 0, len(byYear))
	for y := range byYear {
		years = append(years, y)
	}
	sort.Ints(years)

	quarters := make([]quarterKey, 0, len(byQuarter))
	for q := range byQuarter {
		quarters = append(quarters, q)
	}
	sort.Slice(quarters, func(i, j int) bool { return quarters[i].before(quarters[j]) })

	summary := domain.SummaryMetrics{Total: total}
	if n := len(years); n >= 2 {
		summary.YearOverYearPct = growth(byYear[years[n-2]], byYear[years[n-1]])
	}
	if n := len(quarters); n >= 2 {
		summary.QuarterOverQuarterPct = growth(byQuarter[quarters[n-2]], byQuarter[quarters[n-1]])
	}
	return summary
}

// growth is the percent change from prior to latest, 0 when prior is 0.
func growth(prior, latest int64) float64 {
	if prior == 0 {
		return 0
	}
	return float64(latest-prior) / float64(prior) * 100
}
