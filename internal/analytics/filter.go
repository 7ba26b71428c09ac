package analytics

import (
	"sort"
	"strings"
	"time"

	"vahanpulse/pkg/contracts/domain"
)

// Filter selects records for the dashboard. Empty lists match everything.
// Categories and manufacturers compare case-insensitively.
type Filter struct {
	Categories    []string
	Manufacturers []string
	Window        *domain.Window
}

// IsZero reports whether the filter matches every record.
func (f Filter) IsZero() bool {
	return len(f.Categories) == 0 && len(f.Manufacturers) == 0 && f.Window == nil
}

// Apply returns the matching records in input order.
func (f Filter) Apply(records []domain.Registration) []domain.Registration {
	if f.IsZero() {
		return records
	}

	categories := lowerSet(f.Categories)
	manufacturers := lowerSet(f.Manufacturers)

	out := make([]domain.Registration, 0, len(records))
	for _, r := range records {
		if categories != nil {
			if _, ok := categories[strings.ToLower(string(r.VehicleCategory))]; !ok {
				continue
			}
		}
		if manufacturers != nil {
			if _, ok := manufacturers[strings.ToLower(r.Manufacturer)]; !ok {
				continue
			}
		}
		if f.Window != nil && !f.Window.Contains(r.Date) {
			continue
		}
		out = append(out, r)
	}
	return out
}

func lowerSet(values []string) map[string]struct{} {
	if len(values) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[strings.ToLower(strings.TrimSpace(v))] = struct{}{}
	}
	return set
}

// Trend returns total registrations per date in ascending date order.
func Trend(records []domain.Registration) []domain.TrendPoint {
	totals := make(map[time.Time]int64)
	for _, r := range records {
		totals[r.Date] += r.Registrations
	}

	points := make([]domain.TrendPoint, 0, len(totals))
	for d, total := range totals {
		points = append(points, domain.TrendPoint{Date: d, Registrations: total})
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Date.Before(points[j].Date) })
	return points
}

// Options lists the distinct categories and manufacturers, sorted, and the
// date range covered by records.
func Options(records []domain.Registration) domain.FilterOptions {
	categories := make(map[domain.VehicleCategory]struct{})
	manufacturers := make(map[string]struct{})
	var minDate, maxDate time.Time

	for i, r := range records {
		categories[r.VehicleCategory] = struct{}{}
		manufacturers[r.Manufacturer] = struct{}{}
		if i == 0 || r.Date.Before(minDate) {
			minDate = r.Date
		}
		if i == 0 || r.Date.After(maxDate) {
			maxDate = r.Date
		}
	}

	opts := domain.FilterOptions{
		Categories:    make([]domain.VehicleCategory, 0, len(categories)),
		Manufacturers: make([]string, 0, len(manufacturers)),
	}
	for c := range categories {
		opts.Categories = append(opts.Categories, c)
	}
	sort.Slice(opts.Categories, func(i, j int) bool { return opts.Categories[i] < opts.Categories[j] })
	for m := range manufacturers {
		opts.Manufacturers = append(opts.Manufacturers, m)
	}
	sort.Strings(opts.Manufacturers)

	if len(records) > 0 {
		opts.MinDate = &minDate
		opts.MaxDate = &maxDate
	}
	return opts
}

// CategoryShare returns per-category totals and their share of all
// registrations, largest first. Shares are 0 when the total is 0.
func CategoryShare(records []domain.Registration) []domain.CategoryShare {
	totals := make(map[domain.VehicleCategory]int64)
	var grand int64
	for _, r := range records {
		totals[r.VehicleCategory] += r.Registrations
		grand += r.Registrations
	}

	shares := make([]domain.CategoryShare, 0, len(totals))
	for c, total := range totals {
		share := domain.CategoryShare{VehicleCategory: c, Total: total}
		if grand > 0 {
			share.SharePct = float64(total) / float64(grand) * 100
		}
		shares = append(shares, share)
	}
	sort.Slice(shares, func(i, j int) bool {
		if shares[i].Total != shares[j].Total {
			return shares[i].Total > shares[j].Total
		}
		return shares[i].VehicleCategory < shares[j].VehicleCategory
	})
	return shares
}
