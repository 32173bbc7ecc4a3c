package normalize

import (
	"strings"

	"spring-change/core/snapshot"
)

// Marker is the checkbox token used by flag columns.
const Marker = "X"

// ColumnKind is the normalization branch chosen for a column.
type ColumnKind int

const (
	// Flag columns only hold the checkbox marker or nothing.
	Flag ColumnKind = iota
	// Text columns hold at least one free text value.
	Text
	// Numeric columns hold numbers and gaps only.
	Numeric
)

// String returns the kind name.
func (k ColumnKind) String() string {
	switch k {
	case Flag:
		return "flag"
	case Text:
		return "text"
	default:
		return "numeric"
	}
}

// Classify picks the normalization branch for a column from its cells.
// A column without any value counts as a flag column.
func Classify(cells []snapshot.Cell) ColumnKind {
	allMarkers := true
	hasText := false
	for _, c := range cells {
		if c.IsMissing() {
			continue
		}
		if !isMarker(c) {
			allMarkers = false
		}
		if c.Kind == snapshot.KindText {
			hasText = true
		}
	}

	switch {
	case allMarkers:
		return Flag
	case hasText:
		return Text
	default:
		return Numeric
	}
}

// ClassifyColumns classifies every column of s, in column order.
func ClassifyColumns(s *snapshot.Snapshot) []ColumnKind {
	kinds := make([]ColumnKind, len(s.Columns))
	for i := range s.Columns {
		kinds[i] = Classify(columnAt(s, i))
	}
	return kinds
}

// Normalize returns a normalized copy of s with the same rows and columns.
func Normalize(s *snapshot.Snapshot) *snapshot.Snapshot {
	out := s.Clone()
	kinds := ClassifyColumns(s)
	for _, row := range out.Rows {
		for j := range out.Columns {
			if j >= len(row) {
				continue
			}
			row[j] = Apply(kinds[j], row[j])
		}
	}
	return out
}

// Apply transforms a single cell according to its column kind.
func Apply(kind ColumnKind, c snapshot.Cell) snapshot.Cell {
	switch kind {
	case Flag:
		if !c.IsMissing() && isMarker(c) {
			return snapshot.Number(1)
		}
		return snapshot.Number(0)
	case Text:
		return snapshot.Text(strings.ToLower(strings.TrimSpace(c.Canonical())))
	default:
		if c.IsMissing() {
			return snapshot.Number(0)
		}
		return c
	}
}

func isMarker(c snapshot.Cell) bool {
	return c.Kind == snapshot.KindText && strings.EqualFold(strings.TrimSpace(c.Text), Marker)
}

// columnAt reads a column by position so duplicated header names stay distinct.
func columnAt(s *snapshot.Snapshot, idx int) []snapshot.Cell {
	cells := make([]snapshot.Cell, len(s.Rows))
	for i, row := range s.Rows {
		if idx < len(row) {
			cells[i] = row[idx]
		}
	}
	return cells
}
