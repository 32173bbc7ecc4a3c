package snapshot

import "fmt"

// Row holds one cell per snapshot column, aligned with Snapshot.Columns.
type Row []Cell

// Snapshot is an ordered table of rows.
type Snapshot struct {
	Columns []string
	Rows    []Row
}

// New creates a snapshot with the given columns and no rows.
func New(columns []string) *Snapshot {
	cols := make([]string, len(columns))
	copy(cols, columns)
	return &Snapshot{Columns: cols}
}

// FromRecords builds a snapshot from raw string records, parsing every value with ParseCell.
// Records shorter than the header are padded with missing cells; extra values are ignored.
func FromRecords(columns []string, records [][]string) *Snapshot {
	s := New(columns)
	s.Rows = make([]Row, 0, len(records))
	for _, rec := range records {
		row := make(Row, len(columns))
		for i := range columns {
			if i < len(rec) {
				row[i] = ParseCell(rec[i])
			}
		}
		s.Rows = append(s.Rows, row)
	}
	return s
}

// Len returns the number of rows.
func (s *Snapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Rows)
}

// Index returns the position of the first column with the given name, or -1 when absent.
func (s *Snapshot) Index(column string) int {
	for i, c := range s.Columns {
		if c == column {
			return i
		}
	}
	return -1
}

// Has reports whether the snapshot contains the column.
func (s *Snapshot) Has(column string) bool {
	return s.Index(column) >= 0
}

// Value returns the cell at row i for the given column. Unknown columns read as missing.
func (s *Snapshot) Value(i int, column string) Cell {
	idx := s.Index(column)
	if idx < 0 || idx >= len(s.Rows[i]) {
		return Empty()
	}
	return s.Rows[i][idx]
}

// Column returns a copy of all cells of a column, in row order.
func (s *Snapshot) Column(column string) []Cell {
	idx := s.Index(column)
	if idx < 0 {
		return nil
	}
	out := make([]Cell, len(s.Rows))
	for i, row := range s.Rows {
		if idx < len(row) {
			out[i] = row[idx]
		}
	}
	return out
}

// Clone returns a deep copy of the snapshot.
func (s *Snapshot) Clone() *Snapshot {
	c := New(s.Columns)
	c.Rows = make([]Row, len(s.Rows))
	for i, row := range s.Rows {
		r := make(Row, len(row))
		copy(r, row)
		c.Rows[i] = r
	}
	return c
}

// SetColumn replaces the cells of an existing column or appends a new one.
// cells must have one entry per row.
func (s *Snapshot) SetColumn(column string, cells []Cell) error {
	if len(cells) != len(s.Rows) {
		return fmt.Errorf("column %q: got %d cells for %d rows", column, len(cells), len(s.Rows))
	}
	idx := s.Index(column)
	if idx < 0 {
		s.Columns = append(s.Columns, column)
		for i := range s.Rows {
			s.Rows[i] = append(s.Rows[i], cells[i])
		}
		return nil
	}
	for i := range s.Rows {
		s.Rows[i][idx] = cells[i]
	}
	return nil
}

// Records renders the snapshot as canonical strings, one slice per row.
func (s *Snapshot) Records() [][]string {
	out := make([][]string, len(s.Rows))
	for i, row := range s.Rows {
		rec := make([]string, len(s.Columns))
		for j := range s.Columns {
			if j < len(row) {
				rec[j] = row[j].Canonical()
			}
		}
		out[i] = rec
	}
	return out
}
