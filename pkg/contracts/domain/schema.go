package domain

import (
	"fmt"
	"strings"
)

// CanonicalField names a column of the canonical schema that raw columns can map to.
type CanonicalField string

const (
	FieldDate            CanonicalField = "date"
	FieldVehicleCategory CanonicalField = "vehicle_category"
	FieldManufacturer    CanonicalField = "manufacturer"
	FieldRegistrations   CanonicalField = "registrations"
)

// ColumnRule maps a raw column name onto a canonical field. Names are compared
// after trimming and lower-casing. A rule matches when any of its conditions
// hold: the name equals one of Exact, the name contains every entry of AllOf,
// or the name contains at least one entry of AnyOf.
type ColumnRule struct {
	Field CanonicalField `yaml:"field" json:"field" validate:"required,oneof=date vehicle_category manufacturer registrations"`
	Exact []string       `yaml:"exact,omitempty" json:"exact,omitempty"`
	AllOf []string       `yaml:"all_of,omitempty" json:"all_of,omitempty"`
	AnyOf []string       `yaml:"any_of,omitempty" json:"any_of,omitempty"`
}

// Matches reports whether the normalized column name satisfies the rule.
func (r ColumnRule) Matches(name string) bool {
	for _, e := range r.Exact {
		if name == e {
			return true
		}
	}
	if len(r.AllOf) > 0 {
		all := true
		for _, sub := range r.AllOf {
			if !strings.Contains(name, sub) {
				all = false
				break
			}
		}
		if all {
			return true
		}
	}
	for _, sub := range r.AnyOf {
		if strings.Contains(name, sub) {
			return true
		}
	}
	return false
}

// Validate checks that the rule targets a known field and has a condition.
func (r ColumnRule) Validate() error {
	switch r.Field {
	case FieldDate, FieldVehicleCategory, FieldManufacturer, FieldRegistrations:
	default:
		return fmt.Errorf("column rule: unknown field %q", r.Field)
	}
	if len(r.Exact) == 0 && len(r.AllOf) == 0 && len(r.AnyOf) == 0 {
		return fmt.Errorf("column rule for %s has no conditions", r.Field)
	}
	return nil
}

// DefaultColumnRules is the inference rule set, in precedence order.
func DefaultColumnRules() []ColumnRule {
	return []ColumnRule{
		{Field: FieldDate, AllOf: []string{"date"}},
		{Field: FieldVehicleCategory, AllOf: []string{"vehicle", "type"}},
		{Field: FieldVehicleCategory, Exact: []string{"type", "v_type"}},
		{Field: FieldManufacturer, AnyOf: []string{"manufacturer", "make"}},
		{Field: FieldRegistrations, AnyOf: []string{"regist", "count"}},
	}
}

// CollisionPolicy decides which raw column wins when several map to the same field.
type CollisionPolicy string

const (
	CollisionKeepFirst CollisionPolicy = "keep_first"
	CollisionKeepLast  CollisionPolicy = "keep_last"
	CollisionError     CollisionPolicy = "error"
)

// ParseCollisionPolicy accepts the policy names case-insensitively; empty
// selects keep_first.
func ParseCollisionPolicy(s string) (CollisionPolicy, error) {
	switch CollisionPolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", CollisionKeepFirst:
		return CollisionKeepFirst, nil
	case CollisionKeepLast:
		return CollisionKeepLast, nil
	case CollisionError:
		return CollisionError, nil
	}
	return "", fmt.Errorf("unknown collision policy %q", s)
}
