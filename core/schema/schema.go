package schema

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownType is returned when a schema selection is neither VP nor VU.
var ErrUnknownType = errors.New("unknown schema type")

// Type selects the composite key used to match rows across snapshots.
type Type string

const (
	// VP is the passenger vehicle schema.
	VP Type = "VP"
	// VU is the utility vehicle schema.
	VU Type = "VU"
)

// Required column display names.
const (
	MassColumn      = "Masse suspendue en charge de référence"
	ReferenceColumn = "Référence"
)

// Metadata columns appended to the new snapshot by the reconciler.
const (
	ColOldReference    = "Old Reference"
	ColNewReference    = "New Reference"
	ColOldMass         = "Old Mass"
	ColNewMass         = "New Mass"
	ColMassDifference  = "Mass Difference"
	ColMassStatus      = "Mass Status"
	ColReferenceStatus = "Reference Status"
	ColChangeType      = "Change Type"
	ColCellIDNew       = "Cell ID New"
	ColCellIDOld       = "Cell ID Old"
)

var keyColumns = map[Type][]string{
	VP: {
		"Moteur", "Boite", "Niveau",
		"Plaque de protection tôle sous GMP",
		"Pavillon multifonction", "2e PLC Gauche",
		"Chauffage additionnel type WEBASTO",
	},
	VU: {
		"Moteur", "Boite", "Niveau", "Plaque de conception",
	},
}

// ParseType converts user input into a Type. Matching ignores case and surrounding spaces.
func ParseType(s string) (Type, error) {
	t := Type(strings.ToUpper(strings.TrimSpace(s)))
	if _, ok := keyColumns[t]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownType, s)
	}
	return t, nil
}

// IsValid reports whether t is a known schema type.
func (t Type) IsValid() bool {
	_, ok := keyColumns[t]
	return ok
}

// KeyColumns returns the configured composite key columns for t, in order.
// The returned slice is a copy; unknown types yield nil.
func KeyColumns(t Type) []string {
	cols, ok := keyColumns[t]
	if !ok {
		return nil
	}
	out := make([]string, len(cols))
	copy(out, cols)
	return out
}

// RequiredColumns returns the columns every ingested snapshot must contain.
func RequiredColumns() []string {
	return []string{MassColumn, ReferenceColumn}
}

// MetadataColumns returns the derived columns in the order they are appended to results.
func MetadataColumns() []string {
	return []string{
		ColOldReference, ColNewReference,
		ColOldMass, ColNewMass, ColMassDifference,
		ColMassStatus, ColReferenceStatus, ColChangeType,
		ColCellIDNew, ColCellIDOld,
	}
}
