package reconcile

import (
	"errors"
	"fmt"
	"strings"

	"spring-change/core/normalize"
	"spring-change/core/schema"
	"spring-change/core/snapshot"
)

// ErrMissingColumn is returned when a snapshot lacks the mass or reference column.
var ErrMissingColumn = errors.New("missing required column")

// keySeparator joins composite key parts. It cannot appear in spreadsheet text.
const keySeparator = "\x1f"

// joinedRow is one row of the full outer join between old and new.
// oldRow and newRow are row positions, -1 when the side is absent.
type joinedRow struct {
	key        string
	seq        int
	oldRow     int
	newRow     int
	provenance Provenance
}

// Reconcile matches the rows of newSnap against oldSnap and classifies each new row.
//
// Rows correspond when they share the composite key value and the duplicate
// sequence number (the Nth occurrence of a key in old pairs with the Nth in new).
// Old rows without a counterpart are dropped. The returned records follow the
// row order of newSnap.
func Reconcile(oldSnap, newSnap *snapshot.Snapshot, spec Spec) (*Report, error) {
	if oldSnap == nil || newSnap == nil {
		return nil, errors.New("reconcile: nil snapshot")
	}
	if err := checkRequired(oldSnap, "old", spec); err != nil {
		return nil, err
	}
	if err := checkRequired(newSnap, "new", spec); err != nil {
		return nil, err
	}

	// Origin ids are positional in the raw snapshots; normalization keeps row order.
	oldNorm := normalize.Normalize(oldSnap)
	newNorm := normalize.Normalize(newSnap)

	keys := ResolveKeyColumns(spec.configuredKeys(), oldNorm, newNorm)

	oldKeys, oldSeq := sequence(oldNorm, keys)
	newKeys, newSeq := sequence(newNorm, keys)

	joined := join(oldKeys, oldSeq, newKeys, newSeq)

	records := make([]Record, len(newSnap.Rows))
	var summary Summary
	summary.TotalRows = newSnap.Len()
	for _, j := range joined {
		if j.provenance == ProvenanceOldOnly {
			summary.Removed++
			continue
		}
		rec := buildRecord(j, oldNorm, newNorm, spec)
		records[j.newRow] = rec
		summary.add(rec)
	}

	table, err := assemble(newSnap, records)
	if err != nil {
		return nil, err
	}

	return &Report{
		Records:    records,
		Table:      table,
		KeyColumns: keys,
		Summary:    summary,
	}, nil
}

// ResolveKeyColumns keeps the configured key columns present in every snapshot,
// in configured order. Columns missing from either side are dropped silently.
func ResolveKeyColumns(configured []string, snaps ...*snapshot.Snapshot) []string {
	keys := make([]string, 0, len(configured))
	for _, col := range configured {
		present := true
		for _, s := range snaps {
			if !s.Has(col) {
				present = false
				break
			}
		}
		if present {
			keys = append(keys, col)
		}
	}
	return keys
}

func checkRequired(s *snapshot.Snapshot, side string, spec Spec) error {
	for _, col := range []string{spec.MassColumn, spec.ReferenceColumn} {
		if !s.Has(col) {
			return fmt.Errorf("%w: %q in %s snapshot", ErrMissingColumn, col, side)
		}
	}
	return nil
}

// sequence computes the composite key of every row and its 0-based rank among
// the rows sharing that key, in row order. With no key columns every row shares
// the empty key and the rank is the row position.
func sequence(s *snapshot.Snapshot, keys []string) ([]string, []int) {
	idx := make([]int, len(keys))
	for i, col := range keys {
		idx[i] = s.Index(col)
	}

	rowKeys := make([]string, len(s.Rows))
	seqs := make([]int, len(s.Rows))
	seen := make(map[string]int)
	parts := make([]string, len(keys))
	for i, row := range s.Rows {
		for k, j := range idx {
			parts[k] = ""
			if j < len(row) {
				parts[k] = row[j].Canonical()
			}
		}
		key := strings.Join(parts, keySeparator)
		rowKeys[i] = key
		seqs[i] = seen[key]
		seen[key]++
	}
	return rowKeys, seqs
}

type matchKey struct {
	key string
	seq int
}

// join performs a full outer join on (key, sequence). New rows come first in new
// order, followed by unmatched old rows in old order.
func join(oldKeys []string, oldSeq []int, newKeys []string, newSeq []int) []joinedRow {
	oldIndex := make(map[matchKey]int, len(oldKeys))
	for i := range oldKeys {
		oldIndex[matchKey{oldKeys[i], oldSeq[i]}] = i
	}

	matched := make([]bool, len(oldKeys))
	out := make([]joinedRow, 0, len(newKeys)+len(oldKeys))
	for i := range newKeys {
		mk := matchKey{newKeys[i], newSeq[i]}
		j := joinedRow{key: mk.key, seq: mk.seq, oldRow: -1, newRow: i, provenance: ProvenanceNewOnly}
		if o, ok := oldIndex[mk]; ok {
			j.oldRow = o
			j.provenance = ProvenanceBoth
			matched[o] = true
		}
		out = append(out, j)
	}

	for i := range oldKeys {
		if matched[i] {
			continue
		}
		out = append(out, joinedRow{
			key: oldKeys[i], seq: oldSeq[i],
			oldRow: i, newRow: -1,
			provenance: ProvenanceOldOnly,
		})
	}
	return out
}

// buildRecord derives the deltas and classification of a joined row that has a new side.
func buildRecord(j joinedRow, oldNorm, newNorm *snapshot.Snapshot, spec Spec) Record {
	rec := Record{
		Provenance:   j.provenance,
		Key:          j.key,
		Sequence:     j.seq,
		NewOriginID:  j.newRow + spec.OriginOffset,
		NewReference: NormalizeReference(newNorm.Value(j.newRow, spec.ReferenceColumn)),
		NewMass:      newNorm.Value(j.newRow, spec.MassColumn).Float(),
	}
	if j.oldRow >= 0 {
		rec.OldOriginID = j.oldRow + spec.OriginOffset
		rec.OldReference = NormalizeReference(oldNorm.Value(j.oldRow, spec.ReferenceColumn))
		rec.OldMass = oldNorm.Value(j.oldRow, spec.MassColumn).Float()
	}

	rec.MassDifference = rec.NewMass - rec.OldMass
	switch {
	case rec.MassDifference > 0:
		rec.MassStatus = MassIncreased
	case rec.MassDifference < 0:
		rec.MassStatus = MassDecreased
	default:
		rec.MassStatus = MassUnchanged
	}

	rec.ReferenceStatus = ReferenceUnchanged
	if rec.OldReference != rec.NewReference {
		rec.ReferenceStatus = ReferenceChanged
	}

	switch {
	case j.provenance == ProvenanceNewOnly:
		rec.ChangeType = ChangeNew
	case rec.OldReference != rec.NewReference:
		rec.ChangeType = ChangeSpringChanged
	default:
		rec.ChangeType = ChangeUnchanged
	}
	return rec
}

// NormalizeReference renders a spring reference for comparison: missing is "",
// and the ".0" suffix left by numeric spreadsheet formatting is removed.
func NormalizeReference(c snapshot.Cell) string {
	if c.IsMissing() {
		return ""
	}
	s := strings.TrimSpace(c.Canonical())
	s = strings.TrimSuffix(s, ".0")
	return strings.TrimSpace(s)
}

// assemble appends the metadata columns to a copy of the raw new snapshot.
// records are indexed by new row position, which is also NewOriginID order.
func assemble(newSnap *snapshot.Snapshot, records []Record) (*snapshot.Snapshot, error) {
	table := newSnap.Clone()
	n := len(records)
	cols := map[string][]snapshot.Cell{}
	for _, name := range schema.MetadataColumns() {
		cols[name] = make([]snapshot.Cell, n)
	}

	for i, r := range records {
		cols[schema.ColOldReference][i] = snapshot.Text(r.OldReference)
		cols[schema.ColNewReference][i] = snapshot.Text(r.NewReference)
		cols[schema.ColOldMass][i] = snapshot.Number(r.OldMass)
		cols[schema.ColNewMass][i] = snapshot.Number(r.NewMass)
		cols[schema.ColMassDifference][i] = snapshot.Number(r.MassDifference)
		cols[schema.ColMassStatus][i] = snapshot.Text(string(r.MassStatus))
		cols[schema.ColReferenceStatus][i] = snapshot.Text(string(r.ReferenceStatus))
		cols[schema.ColChangeType][i] = snapshot.Text(string(r.ChangeType))
		cols[schema.ColCellIDNew][i] = snapshot.Number(float64(r.NewOriginID))
		if r.HasOld() {
			cols[schema.ColCellIDOld][i] = snapshot.Number(float64(r.OldOriginID))
		}
	}

	for _, name := range schema.MetadataColumns() {
		if err := table.SetColumn(name, cols[name]); err != nil {
			return nil, fmt.Errorf("failed to attach %s: %w", name, err)
		}
	}
	return table, nil
}

func (s *Summary) add(r Record) {
	switch r.ChangeType {
	case ChangeNew:
		s.New++
	case ChangeSpringChanged:
		s.SpringChanged++
	case ChangeUnchanged:
		s.Unchanged++
	}
	if r.Provenance == ProvenanceBoth {
		s.Matched++
	}
	switch r.MassStatus {
	case MassIncreased:
		s.MassIncreased++
	case MassDecreased:
		s.MassDecreased++
	default:
		s.MassUnchanged++
	}
}
