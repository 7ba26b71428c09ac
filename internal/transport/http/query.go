package http

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"vahanpulse/internal/analytics"
	apierrors "vahanpulse/internal/errors"
	"vahanpulse/pkg/contracts/domain"
)

// Query parameter limits
const (
	DefaultTopN = 10
	MaxTopN     = 100
)

// DashboardQuery holds the raw dashboard query parameters.
type DashboardQuery struct {
	Categories    []string `validate:"dive,required,max=64"`
	Manufacturers []string `validate:"dive,required,max=128"`
	Start         string   `validate:"omitempty,datetime=2006-01-02"`
	End           string   `validate:"omitempty,datetime=2006-01-02"`
	GroupBy       []string `validate:"dive,oneof=vehicle_category manufacturer"`
	N             int      `validate:"min=1,max=100"`
}

// queryParams maps struct fields to their query parameter names.
var queryParams = map[string]string{
	"Categories":    "category",
	"Manufacturers": "manufacturer",
	"Start":         "start",
	"End":           "end",
	"GroupBy":       "group_by",
	"N":             "n",
}

// parseDashboardQuery reads and validates the query string. group_by also
// accepts comma separated values; category and manufacturer values are taken
// whole, since names may contain commas.
func parseDashboardQuery(values url.Values, validate *validator.Validate) (DashboardQuery, error) {
	q := DashboardQuery{
		Categories:    multi(values, "category", false),
		Manufacturers: multi(values, "manufacturer", false),
		Start:         strings.TrimSpace(values.Get("start")),
		End:           strings.TrimSpace(values.Get("end")),
		GroupBy:       multi(values, "group_by", true),
		N:             DefaultTopN,
	}

	if raw := strings.TrimSpace(values.Get("n")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return q, apierrors.InvalidParameterError("n", fmt.Errorf("must be an integer, got %q", raw))
		}
		q.N = n
	}

	if err := validate.Struct(q); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok {
			return q, validationProblem(verrs)
		}
		return q, apierrors.ErrValidationFailed
	}

	if q.Start != "" && q.End != "" && q.End < q.Start {
		return q, apierrors.NewValidationErrors([]apierrors.ValidationError{{
			Field:   "end",
			Message: "end must not be before start",
		}})
	}

	return q, nil
}

func multi(values url.Values, key string, splitCommas bool) []string {
	var out []string
	for _, v := range values[key] {
		parts := []string{v}
		if splitCommas {
			parts = strings.Split(v, ",")
		}
		for _, part := range parts {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func validationProblem(verrs validator.ValidationErrors) error {
	out := make([]apierrors.ValidationError, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, apierrors.ValidationError{
			Field:   fieldName(fe),
			Message: formatValidationError(fe),
		})
	}
	return apierrors.NewValidationErrors(out)
}

func fieldName(fe validator.FieldError) string {
	// dive errors carry the index, e.g. "GroupBy[0]"
	name := fe.StructField()
	if i := strings.IndexByte(name, '['); i >= 0 {
		name = name[:i]
	}
	if param, ok := queryParams[name]; ok {
		return param
	}
	return strings.ToLower(name)
}

func formatValidationError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "datetime":
		return fmt.Sprintf("must be a date in YYYY-MM-DD format, got %q", fe.Value())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", strings.ReplaceAll(fe.Param(), " ", ", "))
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		if fe.Kind().String() == "string" {
			return fmt.Sprintf("must be at most %s characters", fe.Param())
		}
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "required":
		return "must not be empty"
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}

// Filter converts the query into an analytics filter.
func (q DashboardQuery) Filter() analytics.Filter {
	f := analytics.Filter{
		Categories:    q.Categories,
		Manufacturers: q.Manufacturers,
	}
	if q.Start == "" && q.End == "" {
		return f
	}

	var w domain.Window
	// both were validated against this layout
	if q.Start != "" {
		w.Start, _ = time.Parse(domain.DateLayout, q.Start)
	}
	if q.End != "" {
		w.End, _ = time.Parse(domain.DateLayout, q.End)
	}
	f.Window = &w
	return f
}

// GroupKeys returns the validated grouping keys.
func (q DashboardQuery) GroupKeys() []analytics.GroupKey {
	keys := make([]analytics.GroupKey, 0, len(q.GroupBy))
	for _, g := range q.GroupBy {
		keys = append(keys, analytics.GroupKey(g))
	}
	return keys
}
