package analytics

import (
	"sort"

	"vahanpulse/pkg/contracts/domain"
)

// TopManufacturers ranks manufacturers by total registrations inside window,
// or over all records when window is nil. Equal totals are ordered by name.
// n <= 0 yields an empty ranking.
func TopManufacturers(records []domain.Registration, n int, window *domain.Window) []domain.ManufacturerTotal {
	if n <= 0 {
		return []domain.ManufacturerTotal{}
	}

	totals := make(map[string]int64)
	for _, r := range records {
		if window != nil && !window.Contains(r.Date) {
			continue
		}
		totals[r.Manufacturer] += r.Registrations
	}

	ranking := make([]domain.ManufacturerTotal, 0, len(totals))
	for m, total := range totals {
		ranking = append(ranking, domain.ManufacturerTotal{Manufacturer: m, Total: total})
	}
	sort.Slice(ranking, func(i, j int) bool {
		if ranking[i].Total != ranking[j].Total {
			return ranking[i].Total > ranking[j].Total
		}
		return ranking[i].Manufacturer < ranking[j].Manufacturer
	})

	if len(ranking) > n {
		ranking = ranking[:n]
	}
	return ranking
}
