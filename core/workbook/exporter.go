package workbook

import (
	"bytes"
	"fmt"
	"unicode/utf8"

	"spring-change/core/reconcile"
	"spring-change/core/schema"
	"spring-change/core/snapshot"
	"spring-change/core/utils"

	"github.com/xuri/excelize/v2"
)

// ResultsSheet is the name of the sheet written by Export.
const ResultsSheet = "Results"

// Highlight colours per change type. Unchanged rows are not filled.
const (
	ColorNew           = "#FF5733"
	ColorSpringChanged = "#B4C6E7"
	colorHeader        = "#DDEBF7"
)

const (
	minColumnWidth = 8
	maxColumnWidth = 60
)

// Export writes a results table to a new workbook.
// The table must carry the Change Type column appended by the reconciler.
func Export(table *snapshot.Snapshot) (*excelize.File, error) {
	if table == nil {
		return nil, fmt.Errorf("no results to export")
	}
	changeIdx := table.Index(schema.ColChangeType)
	if changeIdx < 0 {
		return nil, fmt.Errorf("results table has no %q column", schema.ColChangeType)
	}

	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", ResultsSheet); err != nil {
		return nil, err
	}

	styles, err := newStyles(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create styles: %w", err)
	}

	lastCol, err := excelize.ColumnNumberToName(max(len(table.Columns), 1))
	if err != nil {
		f.Close()
		return nil, err
	}

	header := make([]interface{}, len(table.Columns))
	for i, c := range table.Columns {
		header[i] = c
	}
	if err := f.SetSheetRow(ResultsSheet, "A1", &header); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to write header: %w", err)
	}
	if err := f.SetCellStyle(ResultsSheet, "A1", lastCol+"1", styles.header); err != nil {
		f.Close()
		return nil, err
	}

	widths := make([]int, len(table.Columns))
	for i, c := range table.Columns {
		widths[i] = utf8.RuneCountInString(c)
	}

	for i, row := range table.Rows {
		rowNum := i + 2
		values := make([]interface{}, len(table.Columns))
		for j := range table.Columns {
			if j >= len(row) {
				continue
			}
			values[j] = cellValue(row[j])
			if w := utf8.RuneCountInString(utils.ToString(values[j])); w > widths[j] {
				widths[j] = w
			}
		}

		first := fmt.Sprintf("A%d", rowNum)
		if err := f.SetSheetRow(ResultsSheet, first, &values); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to write row %d: %w", rowNum, err)
		}

		var change string
		if changeIdx < len(row) {
			change = row[changeIdx].Canonical()
		}
		if style, ok := styles.rows[change]; ok {
			if err := f.SetCellStyle(ResultsSheet, first, fmt.Sprintf("%s%d", lastCol, rowNum), style); err != nil {
				f.Close()
				return nil, err
			}
		}
	}

	for j, w := range widths {
		name, _ := excelize.ColumnNumberToName(j + 1)
		if err := f.SetColWidth(ResultsSheet, name, name, columnWidth(w)); err != nil {
			f.Close()
			return nil, err
		}
	}

	if err := f.SetPanes(ResultsSheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		f.Close()
		return nil, err
	}

	return f, nil
}

// ExportBytes exports table and serializes the workbook.
func ExportBytes(table *snapshot.Snapshot) ([]byte, error) {
	f, err := Export(table)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

type exportStyles struct {
	header int
	rows   map[string]int
}

func newStyles(f *excelize.File) (*exportStyles, error) {
	border := []excelize.Border{
		{Type: "left", Color: "#000000", Style: 1},
		{Type: "top", Color: "#000000", Style: 1},
		{Type: "right", Color: "#000000", Style: 1},
		{Type: "bottom", Color: "#000000", Style: 1},
	}

	header, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{colorHeader}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center", WrapText: true},
		Border:    border,
	})
	if err != nil {
		return nil, err
	}

	rows := make(map[string]int, 2)
	for change, color := range map[string]string{
		string(reconcile.ChangeNew):           ColorNew,
		string(reconcile.ChangeSpringChanged): ColorSpringChanged,
	} {
		id, err := f.NewStyle(&excelize.Style{
			Fill: excelize.Fill{Type: "pattern", Color: []string{color}, Pattern: 1},
		})
		if err != nil {
			return nil, err
		}
		rows[change] = id
	}

	return &exportStyles{header: header, rows: rows}, nil
}

func cellValue(c snapshot.Cell) interface{} {
	switch c.Kind {
	case snapshot.KindNumber:
		return c.Number
	case snapshot.KindText:
		return c.Text
	default:
		return nil
	}
}

func columnWidth(runes int) float64 {
	w := runes + 2
	if w < minColumnWidth {
		w = minColumnWidth
	}
	if w > maxColumnWidth {
		w = maxColumnWidth
	}
	return float64(w)
}
