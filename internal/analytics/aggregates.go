package analytics

import (
	"errors"
	"fmt"
	"sort"
	"strconv"

	"vahanpulse/pkg/contracts/domain"
)

// ErrUnknownGroupKey is returned for a grouping key other than the supported ones.
var ErrUnknownGroupKey = errors.New("unknown group key")

// GroupKey names a record field that period aggregates can be split by.
type GroupKey string

const (
	GroupByCategory     GroupKey = "vehicle_category"
	GroupByManufacturer GroupKey = "manufacturer"
)

// ParseGroupKey validates a group key name.
func ParseGroupKey(s string) (GroupKey, error) {
	switch k := GroupKey(s); k {
	case GroupByCategory, GroupByManufacturer:
		return k, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownGroupKey, s)
}

func (k GroupKey) value(r domain.Registration) string {
	if k == GroupByCategory {
		return string(r.VehicleCategory)
	}
	return r.Manufacturer
}

type period struct {
	label   string
	year    int
	quarter int
}

// AggregateByYear sums registrations per year and group.
func AggregateByYear(records []domain.Registration, keys ...GroupKey) ([]domain.PeriodAggregate, error) {
	return aggregateBy(records, keys, func(r domain.Registration) period {
		y := r.Date.Year()
		return period{label: strconv.Itoa(y), year: y}
	})
}

// AggregateByQuarter sums registrations per calendar quarter and group.
func AggregateByQuarter(records []domain.Registration, keys ...GroupKey) ([]domain.PeriodAggregate, error) {
	return aggregateBy(records, keys, func(r domain.Registration) period {
		q := quarterOf(r)
		return period{label: domain.QuarterLabel(r.Date), year: q.year, quarter: q.quarter}
	})
}

type bucket struct {
	period period
	group  []string
	total  int64
}

func aggregateBy(records []domain.Registration, keys []GroupKey, periodOf func(domain.Registration) period) ([]domain.PeriodAggregate, error) {
	for _, k := range keys {
		if _, err := ParseGroupKey(string(k)); err != nil {
			return nil, err
		}
	}

	index := make(map[string]int)
	var buckets []bucket
	for _, r := range records {
		p := periodOf(r)
		group := make([]string, len(keys))
		for i, k := range keys {
			group[i] = k.value(r)
		}
		id := fmt.Sprintf("%s\x00%q", p.label, group)
		if i, ok := index[id]; ok {
			buckets[i].total += r.Registrations
			continue
		}
		index[id] = len(buckets)
		buckets = append(buckets, bucket{period: p, group: group, total: r.Registrations})
	}

	sort.Slice(buckets, func(i, j int) bool {
		a, b := buckets[i], buckets[j]
		if a.period.year != b.period.year {
			return a.period.year < b.period.year
		}
		if a.period.quarter != b.period.quarter {
			return a.period.quarter < b.period.quarter
		}
		return lessStrings(a.group, b.group)
	})

	// Buckets are in period order, so the last total seen per group is the
	// previous period of that group.
	previous := make(map[string]int64)
	out := make([]domain.PeriodAggregate, 0, len(buckets))
	for _, b := range buckets {
		agg := domain.PeriodAggregate{
			Period:     b.period.label,
			Year:       b.period.year,
			QuarterNum: b.period.quarter,
			Total:      b.total,
		}
		if len(keys) > 0 {
			agg.Group = make(map[string]string, len(keys))
			for i, k := range keys {
				agg.Group[string(k)] = b.group[i]
			}
		}

		groupID := fmt.Sprintf("%q", b.group)
		if prior, ok := previous[groupID]; ok && prior != 0 {
			pct := growth(prior, b.total)
			agg.ChangePct = &pct
		}
		previous[groupID] = b.total

		out = append(out, agg)
	}
	return out, nil
}

func lessStrings(a, b []string) bool {
	for i := range a {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return false
}
