package reconcile

import (
	"spring-change/core/schema"
	"spring-change/core/snapshot"
)

// Provenance tells which snapshot(s) a joined row came from.
type Provenance string

const (
	// ProvenanceBoth marks an old row matched with a new row.
	ProvenanceBoth Provenance = "both"
	// ProvenanceOldOnly marks an old row without a new counterpart (a removed vehicle).
	ProvenanceOldOnly Provenance = "old_only"
	// ProvenanceNewOnly marks a new row without an old counterpart.
	ProvenanceNewOnly Provenance = "new_only"
)

// ChangeType is the primary classification of a reconciled record.
type ChangeType string

const (
	ChangeNew           ChangeType = "New"
	ChangeSpringChanged ChangeType = "Spring Changed"
	ChangeUnchanged     ChangeType = "Unchanged"
)

// ChangeTypes lists every change type in display order.
var ChangeTypes = []ChangeType{ChangeNew, ChangeSpringChanged, ChangeUnchanged}

// MassStatus is the sign of the mass difference.
type MassStatus string

const (
	MassIncreased MassStatus = "Increased"
	MassDecreased MassStatus = "Decreased"
	MassUnchanged MassStatus = "Unchanged"
)

// MassStatuses lists every mass status in display order.
var MassStatuses = []MassStatus{MassIncreased, MassDecreased, MassUnchanged}

// ReferenceStatus tells whether the spring reference differs between snapshots.
// It is informational only; ChangeType is authoritative.
type ReferenceStatus string

const (
	ReferenceChanged   ReferenceStatus = "Change"
	ReferenceUnchanged ReferenceStatus = "No Change"
)

// Record is the reconciliation output for a single row of the new snapshot.
// Old-side fields keep their zero value when Provenance is ProvenanceNewOnly.
type Record struct {
	// OldReference and NewReference are the normalized spring references.
	OldReference string `json:"old_reference"`
	NewReference string `json:"new_reference"`

	OldMass        float64 `json:"old_mass"`
	NewMass        float64 `json:"new_mass"`
	MassDifference float64 `json:"mass_difference"`

	MassStatus      MassStatus      `json:"mass_status"`
	ReferenceStatus ReferenceStatus `json:"reference_status"`
	ChangeType      ChangeType      `json:"change_type"`

	// NewOriginID and OldOriginID point back to the source spreadsheet rows.
	NewOriginID int `json:"cell_id_new"`
	OldOriginID int `json:"cell_id_old"`

	Provenance Provenance `json:"provenance"`

	// Key is the composite key value and Sequence the duplicate rank within it.
	Key      string `json:"key"`
	Sequence int    `json:"sequence"`
}

// HasOld reports whether the record was matched with an old row.
func (r Record) HasOld() bool {
	return r.Provenance == ProvenanceBoth
}

// Spec configures a reconciliation run.
type Spec struct {
	// Schema selects the configured composite key columns.
	Schema schema.Type

	// KeyColumns overrides the schema key list when non-nil.
	KeyColumns []string

	// MassColumn and ReferenceColumn name the two required columns.
	MassColumn      string
	ReferenceColumn string

	// OriginOffset is added to a row position to obtain its origin id.
	// It accounts for the header and skipped rows above the data.
	OriginOffset int
}

// DefaultOriginOffset maps the first data row to its spreadsheet row number:
// one header row plus one skipped metadata row, one-based.
const DefaultOriginOffset = 3

// NewSpec returns a spec for t with the standard required columns and origin offset.
func NewSpec(t schema.Type) Spec {
	return Spec{
		Schema:          t,
		MassColumn:      schema.MassColumn,
		ReferenceColumn: schema.ReferenceColumn,
		OriginOffset:    DefaultOriginOffset,
	}
}

// configuredKeys returns the key list before intersection with the snapshots.
func (s Spec) configuredKeys() []string {
	if s.KeyColumns != nil {
		return s.KeyColumns
	}
	return schema.KeyColumns(s.Schema)
}

// Report is the result of a reconciliation run.
type Report struct {
	// Records holds one record per new row, sorted by NewOriginID.
	Records []Record `json:"records"`

	// Table is a copy of the raw new snapshot with the metadata columns appended,
	// row-aligned with Records.
	Table *snapshot.Snapshot `json:"-"`

	// KeyColumns is the composite key actually used after intersection.
	KeyColumns []string `json:"key_columns"`

	// Summary provides aggregate counts.
	Summary Summary `json:"summary"`
}

// Summary provides aggregate counts for a reconciliation run.
type Summary struct {
	// TotalRows is the number of rows in the new snapshot.
	TotalRows int `json:"total_rows"`

	New           int `json:"new"`
	SpringChanged int `json:"spring_changed"`
	Unchanged     int `json:"unchanged"`

	// Matched counts new rows paired with an old row.
	Matched int `json:"matched"`

	// Removed counts old rows without a new counterpart. They are not reported.
	Removed int `json:"removed"`

	MassIncreased int `json:"mass_increased"`
	MassDecreased int `json:"mass_decreased"`
	MassUnchanged int `json:"mass_unchanged"`
}
