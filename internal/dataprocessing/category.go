package dataprocessing

import (
	"strings"

	"vahanpulse/pkg/contracts/domain"
)

var categorySynonyms = map[string]domain.VehicleCategory{
	"2w":            domain.TwoWheeler,
	"2-w":           domain.TwoWheeler,
	"2 wheeler":     domain.TwoWheeler,
	"2-wheeler":     domain.TwoWheeler,
	"two wheeler":   domain.TwoWheeler,
	"two-wheeler":   domain.TwoWheeler,
	"two_wheeler":   domain.TwoWheeler,
	"3w":            domain.ThreeWheeler,
	"3-w":           domain.ThreeWheeler,
	"3 wheeler":     domain.ThreeWheeler,
	"3-wheeler":     domain.ThreeWheeler,
	"three wheeler": domain.ThreeWheeler,
	"three-wheeler": domain.ThreeWheeler,
	"three_wheeler": domain.ThreeWheeler,
	"4w":            domain.FourWheeler,
	"4-w":           domain.FourWheeler,
	"4 wheeler":     domain.FourWheeler,
	"4-wheeler":     domain.FourWheeler,
	"four wheeler":  domain.FourWheeler,
	"four-wheeler":  domain.FourWheeler,
	"four_wheeler":  domain.FourWheeler,
	"car":           domain.FourWheeler,
}

// StandardizeCategory maps a free-text vehicle class onto the wheeler
// enumeration. Unrecognized values pass through trimmed and upper-cased.
func StandardizeCategory(raw string) domain.VehicleCategory {
	trimmed := strings.TrimSpace(raw)
	if c, ok := categorySynonyms[strings.ToLower(trimmed)]; ok {
		return c
	}
	return domain.VehicleCategory(strings.ToUpper(trimmed))
}
