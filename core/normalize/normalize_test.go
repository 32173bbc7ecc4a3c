package normalize

import (
	"testing"

	"spring-change/core/snapshot"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rawSnapshot() *snapshot.Snapshot {
	return snapshot.FromRecords(
		[]string{"Moteur", "Option", "Masse", "Mixed", "Blank"},
		[][]string{
			{"  E1 ", "X", "100", "12", ""},
			{"e2", "", "", "abc", ""},
			{"E3", "x", "105.5", "", ""},
		},
	)
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name  string
		cells []snapshot.Cell
		want  ColumnKind
	}{
		{"Markers", []snapshot.Cell{snapshot.Text("X"), snapshot.Empty(), snapshot.Text("x")}, Flag},
		{"Padded marker", []snapshot.Cell{snapshot.Text(" X ")}, Flag},
		{"All missing", []snapshot.Cell{snapshot.Empty(), snapshot.Empty()}, Flag},
		{"Text", []snapshot.Cell{snapshot.Text("X"), snapshot.Text("Y")}, Text},
		{"Mixed number and text", []snapshot.Cell{snapshot.Number(1), snapshot.Text("a")}, Text},
		{"Numbers", []snapshot.Cell{snapshot.Number(1), snapshot.Empty()}, Numeric},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.cells))
		})
	}
}

func TestNormalize(t *testing.T) {
	raw := rawSnapshot()
	got := Normalize(raw)

	require.Equal(t, raw.Len(), got.Len())
	require.Equal(t, raw.Columns, got.Columns)

	assert.Equal(t, []ColumnKind{Text, Flag, Numeric, Text, Flag}, ClassifyColumns(raw))

	// Text: trimmed and lower-cased
	assert.Equal(t, "e1", got.Value(0, "Moteur").Text)
	assert.Equal(t, "e3", got.Value(2, "Moteur").Text)

	// Flag: 1 for marker, 0 otherwise
	assert.Equal(t, snapshot.Number(1), got.Value(0, "Option"))
	assert.Equal(t, snapshot.Number(0), got.Value(1, "Option"))
	assert.Equal(t, snapshot.Number(1), got.Value(2, "Option"))

	// Numeric: gaps filled with zero
	assert.Equal(t, snapshot.Number(100), got.Value(0, "Masse"))
	assert.Equal(t, snapshot.Number(0), got.Value(1, "Masse"))
	assert.Equal(t, snapshot.Number(105.5), got.Value(2, "Masse"))

	// Mixed columns become text, numbers rendered without artifacts
	assert.Equal(t, snapshot.Text("12"), got.Value(0, "Mixed"))
	assert.Equal(t, snapshot.Text(""), got.Value(2, "Mixed"))

	// An empty column is a flag column of zeros
	assert.Equal(t, snapshot.Number(0), got.Value(1, "Blank"))
}

func TestNormalize_DoesNotMutateInput(t *testing.T) {
	raw := rawSnapshot()
	before := raw.Records()

	_ = Normalize(raw)

	assert.Equal(t, before, raw.Records())
	assert.Equal(t, snapshot.Text("  E1 "), raw.Value(0, "Moteur"))
}

func TestNormalize_Idempotent(t *testing.T) {
	once := Normalize(rawSnapshot())
	twice := Normalize(once)

	require.Equal(t, once.Len(), twice.Len())
	for i := range once.Rows {
		for j := range once.Columns {
			assert.True(t, once.Rows[i][j].Equal(twice.Rows[i][j]),
				"row %d column %s: %+v != %+v", i, once.Columns[j], once.Rows[i][j], twice.Rows[i][j])
		}
	}
}

func TestNormalize_EmptySnapshot(t *testing.T) {
	s := snapshot.New([]string{"A"})
	got := Normalize(s)
	assert.Equal(t, 0, got.Len())
	assert.Equal(t, []string{"A"}, got.Columns)
}

func TestNormalize_PaddedMarkers(t *testing.T) {
	raw := snapshot.FromRecords(
		[]string{"Option"},
		[][]string{{" X"}, {"x "}, {""}},
	)

	assert.Equal(t, []ColumnKind{Flag}, ClassifyColumns(raw))

	got := Normalize(raw)
	assert.Equal(t, snapshot.Number(1), got.Value(0, "Option"))
	assert.Equal(t, snapshot.Number(1), got.Value(1, "Option"))
	assert.Equal(t, snapshot.Number(0), got.Value(2, "Option"))
}
