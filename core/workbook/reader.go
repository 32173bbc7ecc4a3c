package workbook

import (
	"fmt"
	"io"
	"os"
	"strings"

	"spring-change/core/schema"
	"spring-change/core/snapshot"

	"github.com/xuri/excelize/v2"
)

// Reader loads one sheet of a PTA workbook.
type Reader struct {
	// Sheet is the name of the sheet to read.
	Sheet string

	// SkipRows lists 0-based sheet line indices dropped before the header is taken
	// (line 0 is the first line of the sheet). PTA files carry one unit line under
	// the header, hence the default {1}.
	SkipRows []int

	// Required lists the columns every snapshot must contain.
	Required []string
}

// NewReader creates a reader for sheet that skips the given lines and requires
// the mass and reference columns.
func NewReader(sheet string, skipRows []int) *Reader {
	return &Reader{
		Sheet:    sheet,
		SkipRows: skipRows,
		Required: schema.RequiredColumns(),
	}
}

// ReadFile opens path and reads it like Read.
func (r *Reader) ReadFile(path, label string) (*snapshot.Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &FileError{Label: label, Err: err}
	}
	defer f.Close()
	return r.Read(f, label)
}

// Read parses the configured sheet of the workbook in src and validates it.
// All failures are returned as *FileError.
func (r *Reader) Read(src io.Reader, label string) (*snapshot.Snapshot, error) {
	if src == nil {
		return nil, &FileError{Label: label, Err: ErrNoFile}
	}

	file, err := excelize.OpenReader(src)
	if err != nil {
		return nil, &FileError{Label: label, Err: fmt.Errorf("failed to open excel: %w", err)}
	}
	defer file.Close()

	rows, err := file.GetRows(r.Sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, &FileError{Label: label, Err: err}
	}

	snap := r.build(rows)
	if snap == nil || snap.Len() == 0 {
		return nil, &FileError{Label: label, Err: ErrEmptySnapshot}
	}

	if err := r.validate(snap); err != nil {
		return nil, &FileError{Label: label, Err: err}
	}
	return snap, nil
}

// build drops the skipped lines, takes the first remaining line as header and
// the rest as data. Trailing blank lines are ignored.
func (r *Reader) build(rows [][]string) *snapshot.Snapshot {
	skip := make(map[int]struct{}, len(r.SkipRows))
	for _, i := range r.SkipRows {
		skip[i] = struct{}{}
	}

	kept := make([][]string, 0, len(rows))
	for i, row := range rows {
		if _, ok := skip[i]; ok {
			continue
		}
		kept = append(kept, row)
	}

	for len(kept) > 0 && isBlank(kept[len(kept)-1]) {
		kept = kept[:len(kept)-1]
	}
	if len(kept) == 0 {
		return nil
	}

	header := headerNames(kept[0])
	return snapshot.FromRecords(header, kept[1:])
}

func (r *Reader) validate(s *snapshot.Snapshot) error {
	var missing []string
	for _, col := range r.Required {
		if !s.Has(col) {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return &MissingColumnsError{Columns: missing}
	}
	return nil
}

// headerNames trims header cells, names blank ones "Unnamed: i" and suffixes
// repeated names with ".1", ".2", ...
func headerNames(raw []string) []string {
	names := make([]string, len(raw))
	seen := make(map[string]int, len(raw))
	for i, h := range raw {
		name := strings.TrimSpace(h)
		if name == "" {
			name = fmt.Sprintf("Unnamed: %d", i)
		}
		if n, dup := seen[name]; dup {
			seen[name] = n + 1
			name = fmt.Sprintf("%s.%d", name, n)
		} else {
			seen[name] = 1
		}
		names[i] = name
	}
	return names
}

func isBlank(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
