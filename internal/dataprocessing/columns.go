package dataprocessing

import (
	"fmt"
	"strings"

	apierrors "vahanpulse/internal/errors"
	"vahanpulse/pkg/contracts/domain"
)

// Collision records raw columns that mapped to the same canonical field.
type Collision struct {
	Field   domain.CanonicalField `json:"field"`
	Kept    string                `json:"kept"`
	Dropped []string              `json:"dropped"`
}

// Mapping is the outcome of column inference.
type Mapping struct {
	// Fields maps each inferred canonical field to the raw column that feeds it.
	Fields     map[domain.CanonicalField]string `json:"fields"`
	Unmapped   []string                         `json:"unmapped,omitempty"`
	Collisions []Collision                      `json:"collisions,omitempty"`
	// YearColumn and MonthColumn are set when the date is synthesized from them.
	YearColumn  string `json:"year_column,omitempty"`
	MonthColumn string `json:"month_column,omitempty"`
}

// Column returns the raw column for field, if any.
func (m Mapping) Column(field domain.CanonicalField) (string, bool) {
	col, ok := m.Fields[field]
	return col, ok
}

func normalizeColumnName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// matchColumn returns the canonical field a column maps to. A name equal to a
// canonical field maps to it directly; otherwise the first matching rule wins.
func matchColumn(name string, rules []domain.ColumnRule) (domain.CanonicalField, bool) {
	switch f := domain.CanonicalField(name); f {
	case domain.FieldDate, domain.FieldVehicleCategory, domain.FieldManufacturer, domain.FieldRegistrations:
		return f, true
	}
	for _, rule := range rules {
		if rule.Matches(name) {
			return rule.Field, true
		}
	}
	return "", false
}

// InferColumns maps raw column names onto canonical fields.
func InferColumns(columns []string, rules []domain.ColumnRule, policy domain.CollisionPolicy) (Mapping, error) {
	mapping := Mapping{Fields: make(map[domain.CanonicalField]string)}
	if len(columns) == 0 {
		return mapping, apierrors.NewParsingError("cannot infer schema", ErrNoColumns)
	}

	candidates := make(map[domain.CanonicalField][]string)
	var order []domain.CanonicalField
	for _, col := range columns {
		field, ok := matchColumn(normalizeColumnName(col), rules)
		if !ok {
			mapping.Unmapped = append(mapping.Unmapped, col)
			continue
		}
		if _, seen := candidates[field]; !seen {
			order = append(order, field)
		}
		candidates[field] = append(candidates[field], col)
	}

	for _, field := range order {
		cols := candidates[field]
		if len(cols) == 1 {
			mapping.Fields[field] = cols[0]
			continue
		}

		collision := Collision{Field: field}
		switch policy {
		case domain.CollisionError:
			return mapping, apierrors.NewAppValidationError(
				fmt.Sprintf("columns %s all map to %s", strings.Join(cols, ", "), field),
				ErrColumnCollision,
			).WithContext("field", string(field)).WithContext("columns", cols)
		case domain.CollisionKeepLast:
			collision.Kept = cols[len(cols)-1]
			collision.Dropped = append([]string(nil), cols[:len(cols)-1]...)
		default:
			collision.Kept = cols[0]
			collision.Dropped = append([]string(nil), cols[1:]...)
		}
		mapping.Fields[field] = collision.Kept
		mapping.Collisions = append(mapping.Collisions, collision)
	}

	if _, hasDate := mapping.Fields[domain.FieldDate]; !hasDate {
		for _, col := range mapping.Unmapped {
			switch normalizeColumnName(col) {
			case "year":
				if mapping.YearColumn == "" {
					mapping.YearColumn = col
				}
			case "month":
				if mapping.MonthColumn == "" {
					mapping.MonthColumn = col
				}
			}
		}
		if mapping.YearColumn == "" || mapping.MonthColumn == "" {
			mapping.YearColumn, mapping.MonthColumn = "", ""
		}
	}

	if len(mapping.Fields) == 0 && mapping.YearColumn == "" {
		return mapping, apierrors.NewParsingError("cannot infer schema", ErrNoUsableColumns).
			WithContext("columns", columns)
	}

	return mapping, nil
}
