package analysis

import (
	"testing"

	"spring-change/core/schema"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

var ptaHeader = []interface{}{"Moteur", "Boite", schema.ReferenceColumn, schema.MassColumn}

// ptaFile builds a PTA workbook with the header, a unit line and rows.
func ptaFile(t *testing.T, rows ...[]interface{}) []byte {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()
	require.NoError(t, f.SetSheetName("Sheet1", "PTA"))

	lines := append([][]interface{}{ptaHeader, {"", "", "", "kg"}}, rows...)
	for i, r := range lines {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		row := r
		require.NoError(t, f.SetSheetRow("PTA", cell, &row))
	}

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func oldPTA(t *testing.T) []byte {
	return ptaFile(t,
		[]interface{}{"E1", "B1", "R1", 100},
		[]interface{}{"E2", "B1", "R2", 200},
		[]interface{}{"E3", "B2", "R3", 300},
	)
}

func newPTA(t *testing.T) []byte {
	return ptaFile(t,
		[]interface{}{"E1", "B1", "R1", 110},
		[]interface{}{"E2", "B1", "R9", 190},
		[]interface{}{"E4", "B4", "R4", 400},
	)
}
