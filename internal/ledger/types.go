package ledger

import (
	"fmt"
	"strings"
)

// MaxUnits is the exclusive upper bound for a single emission event.
// Accepted values are 1..MaxUnits-1.
const MaxUnits = 10000

// Category classifies an emission event. The numeric values are part of the
// wire format and must not be renumbered.
type Category uint8

const (
	Transportation Category = 1
	Energy         Category = 2
	Diet           Category = 3
)

// Valid reports whether c is one of the three defined categories.
func (c Category) Valid() bool {
	return c >= Transportation && c <= Diet
}

func (c Category) String() string {
	switch c {
	case Transportation:
		return "transportation"
	case Energy:
		return "energy"
	case Diet:
		return "diet"
	default:
		return fmt.Sprintf("category(%d)", uint8(c))
	}
}

// ParseCategory maps a category name or its numeric form to a Category.
// Unknown inputs return the zero Category, which fails validation inside
// LogEmission. Callers must not reject unknown categories themselves: the
// profile-existence check runs before validation, and pre-rejecting would
// let a profile-less actor see the wrong failure.
func ParseCategory(s string) Category {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "transportation":
		return Transportation
	case "2", "energy":
		return Energy
	case "3", "diet":
		return Diet
	default:
		return 0
	}
}

// Profile is the per-actor running aggregate. TotalEmissions always equals
// the sum of units over the actor's accepted emissions and EmissionCount
// their count; both are updated in the same transition that records the
// emission.
type Profile struct {
	Actor          string `json:"actor"`
	TotalEmissions uint64 `json:"total_emissions"`
	EmissionCount  uint64 `json:"emission_count"`
}

// EmissionRecord is one accepted emission event, keyed by (actor, tick).
// Records are immutable and never deleted.
type EmissionRecord struct {
	Actor    string   `json:"actor"`
	Tick     uint64   `json:"logical_time"`
	Category Category `json:"category"`
	Units    uint64   `json:"units"`
}

// validateEmission checks the per-event input bounds shared by all backends.
func validateEmission(units uint64, category Category) error {
	if units == 0 || units >= MaxUnits {
		return ErrInvalidEmission
	}
	if !category.Valid() {
		return ErrInvalidEmission
	}
	return nil
}
