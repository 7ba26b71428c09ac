package dataprocessing

import (
	"log/slog"
	"sort"
	"strings"
	"time"

	"vahanpulse/pkg/contracts/domain"
)

// DateSource says where record dates came from during a normalization pass.
type DateSource string

const (
	DateFromColumn    DateSource = "column"
	DateFromYearMonth DateSource = "year_month"
	DateFromClock     DateSource = "processing_date"
)

// Report carries the informational counts of one normalization pass.
type Report struct {
	RowsIn          int        `json:"rows_in"`
	InvalidDates    int        `json:"invalid_dates"`
	NonNumericCount int        `json:"non_numeric_counts"`
	NegativeClamped int        `json:"negative_clamped"`
	Irrelevant      int        `json:"irrelevant"`
	Merged          int        `json:"merged"`
	RowsOut         int        `json:"rows_out"`
	DateSource      DateSource `json:"date_source"`
	Mapping         Mapping    `json:"mapping"`
}

// Dropped returns the raw rows that did not become a record of their own, by reason.
func (r Report) Dropped() map[string]int {
	return map[string]int{
		"invalid_date": r.InvalidDates,
		"irrelevant":   r.Irrelevant,
		"merged":       r.Merged,
	}
}

// Result is the canonical table produced by Normalize.
type Result struct {
	Records []domain.Registration
	Report  Report
}

// Normalizer turns raw tables into canonical registration records.
type Normalizer struct {
	rules  []domain.ColumnRule
	policy domain.CollisionPolicy
	now    func() time.Time
	logger *slog.Logger
}

// Option configures a Normalizer.
type Option func(*Normalizer)

// WithRules replaces the column inference rules.
func WithRules(rules []domain.ColumnRule) Option {
	return func(n *Normalizer) {
		if len(rules) > 0 {
			n.rules = append([]domain.ColumnRule(nil), rules...)
		}
	}
}

// WithCollisionPolicy sets how mapping collisions are resolved.
func WithCollisionPolicy(policy domain.CollisionPolicy) Option {
	return func(n *Normalizer) {
		if policy != "" {
			n.policy = policy
		}
	}
}

// WithClock sets the processing-date source used when a table has no dates.
func WithClock(now func() time.Time) Option {
	return func(n *Normalizer) {
		if now != nil {
			n.now = now
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(n *Normalizer) {
		if logger != nil {
			n.logger = logger
		}
	}
}

// NewNormalizer returns a Normalizer with the default rules and keep_first policy.
func NewNormalizer(opts ...Option) *Normalizer {
	n := &Normalizer{
		rules:  domain.DefaultColumnRules(),
		policy: domain.CollisionKeepFirst,
		now:    time.Now,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(n)
	}
	n.logger = n.logger.With(slog.String("component", "normalizer"))
	return n
}

// Normalize normalizes raw with a default Normalizer.
func Normalize(raw RawTable) (*Result, error) {
	return NewNormalizer().Normalize(raw)
}

type workingRow struct {
	date         time.Time
	category     domain.VehicleCategory
	manufacturer string
	count        int64
}

// Normalize maps, coerces, filters and aggregates raw into canonical records.
// Row-level problems are resolved and counted in the report; only structural
// problems return an error. raw is not modified.
func (n *Normalizer) Normalize(raw RawTable) (*Result, error) {
	mapping, err := InferColumns(raw.Columns, n.rules, n.policy)
	if err != nil {
		return nil, err
	}

	report := Report{RowsIn: raw.Len(), Mapping: mapping}
	for _, c := range mapping.Collisions {
		n.logger.Warn("column mapping collision",
			slog.String("field", string(c.Field)),
			slog.String("kept", c.Kept),
			slog.Any("dropped", c.Dropped),
			slog.String("policy", string(n.policy)))
	}

	dateCol, hasDate := mapping.Column(domain.FieldDate)
	categoryCol, hasCategory := mapping.Column(domain.FieldVehicleCategory)
	makerCol, hasMaker := mapping.Column(domain.FieldManufacturer)
	countCol, hasCount := mapping.Column(domain.FieldRegistrations)

	var today time.Time
	switch {
	case hasDate:
		report.DateSource = DateFromColumn
	case mapping.YearColumn != "":
		report.DateSource = DateFromYearMonth
	default:
		report.DateSource = DateFromClock
		today = domain.TruncateDay(n.now())
	}

	rows := make([]workingRow, 0, raw.Len())
	for _, rec := range raw.Records {
		var (
			date time.Time
			ok   bool
		)
		switch report.DateSource {
		case DateFromColumn:
			date, ok = parseDate(rec[dateCol])
		case DateFromYearMonth:
			date, ok = yearMonthDate(rec[mapping.YearColumn], rec[mapping.MonthColumn])
		default:
			date, ok = today, true
		}
		if !ok {
			report.InvalidDates++
			continue
		}

		row := workingRow{
			date:         date,
			category:     domain.UnknownCategory,
			manufacturer: domain.UnknownManufacturer,
			count:        1,
		}

		if hasCount {
			cv := coerceCount(rec[countCol])
			row.count = cv.n
			if cv.nonNumeric {
				report.NonNumericCount++
			}
			if cv.clamped {
				report.NegativeClamped++
			}
		}

		if hasMaker {
			if text := cellText(rec[makerCol]); text != "" {
				row.manufacturer = text
			}
		}

		if hasCategory {
			if text := cellText(rec[categoryCol]); text != "" {
				row.category = StandardizeCategory(text)
			}
		}

		if row.count == 0 &&
			strings.EqualFold(row.manufacturer, "unknown") &&
			strings.EqualFold(string(row.category), "unknown") {
			report.Irrelevant++
			continue
		}

		rows = append(rows, row)
	}

	records := aggregate(rows, &report)
	report.RowsOut = len(records)

	n.logger.Info("normalization complete",
		slog.Any("columns", mapping.Fields),
		slog.Any("unmapped", mapping.Unmapped),
		slog.String("date_source", string(report.DateSource)),
		slog.Int("rows_in", report.RowsIn),
		slog.Int("invalid_dates", report.InvalidDates),
		slog.Int("irrelevant", report.Irrelevant),
		slog.Int("non_numeric_counts", report.NonNumericCount),
		slog.Int("negative_clamped", report.NegativeClamped),
		slog.Int("merged", report.Merged),
		slog.Int("rows_out", report.RowsOut))

	return &Result{Records: records, Report: report}, nil
}

// aggregate sums counts per (date, category, manufacturer) and orders the
// output by date, category then manufacturer.
func aggregate(rows []workingRow, report *Report) []domain.Registration {
	index := make(map[domain.RegistrationKey]int, len(rows))
	records := make([]domain.Registration, 0, len(rows))

	for _, row := range rows {
		reg := domain.NewRegistration(row.date, row.category, row.manufacturer, row.count)
		key := reg.Key()
		if i, ok := index[key]; ok {
			records[i].Registrations += row.count
			report.Merged++
			continue
		}
		index[key] = len(records)
		records = append(records, reg)
	}

	SortRegistrations(records)
	return records
}

// SortRegistrations orders records by date, category then manufacturer.
func SortRegistrations(records []domain.Registration) {
	sort.SliceStable(records, func(i, j int) bool {
		a, b := records[i], records[j]
		if !a.Date.Equal(b.Date) {
			return a.Date.Before(b.Date)
		}
		if a.VehicleCategory != b.VehicleCategory {
			return a.VehicleCategory < b.VehicleCategory
		}
		return a.Manufacturer < b.Manufacturer
	})
}
