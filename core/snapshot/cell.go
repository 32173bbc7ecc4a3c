package snapshot

import (
	"math"
	"strconv"
	"strings"

	"spring-change/core/utils"
)

// Kind tags the content of a Cell.
type Kind uint8

const (
	// KindEmpty marks a missing value.
	KindEmpty Kind = iota
	// KindText marks a free text value.
	KindText
	// KindNumber marks a numeric value.
	KindNumber
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindNumber:
		return "number"
	default:
		return "empty"
	}
}

// Cell is a single spreadsheet value.
type Cell struct {
	Kind   Kind
	Text   string
	Number float64
}

// Empty returns a missing cell.
func Empty() Cell { return Cell{} }

// Text returns a text cell.
func Text(s string) Cell { return Cell{Kind: KindText, Text: s} }

// Number returns a numeric cell.
func Number(f float64) Cell { return Cell{Kind: KindNumber, Number: f} }

// missingTokens are the spreadsheet placeholders read as missing values.
var missingTokens = map[string]struct{}{
	"#N/A": {}, "#N/A N/A": {}, "#NA": {}, "-1.#IND": {}, "-1.#QNAN": {},
	"-NaN": {}, "-nan": {}, "1.#IND": {}, "1.#QNAN": {}, "<NA>": {},
	"N/A": {}, "NA": {}, "NULL": {}, "NaN": {}, "None": {}, "n/a": {},
	"nan": {}, "null": {},
}

// ParseCell classifies a raw spreadsheet string. Blank input and the usual
// placeholders (NaN, #N/A, NULL...) are missing, finite floats are numbers,
// the rest is text. Text keeps its original spacing; only the checks trim.
func ParseCell(raw string) Cell {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return Empty()
	}
	if _, ok := missingTokens[trimmed]; ok {
		return Empty()
	}
	if f, err := strconv.ParseFloat(trimmed, 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
		return Number(f)
	}
	return Text(raw)
}

// IsMissing reports whether the cell holds no value.
func (c Cell) IsMissing() bool { return c.Kind == KindEmpty }

// Canonical returns the string form used for key comparison and display.
// Numbers use the shortest decimal representation (100 rather than 100.0).
func (c Cell) Canonical() string {
	switch c.Kind {
	case KindText:
		return c.Text
	case KindNumber:
		return utils.FormatFloat(c.Number)
	default:
		return ""
	}
}

// Float returns the numeric value of the cell. Text is parsed leniently and
// anything unreadable, like a missing cell, is 0.
func (c Cell) Float() float64 {
	switch c.Kind {
	case KindNumber:
		return c.Number
	case KindText:
		return utils.ToFloat(c.Text)
	default:
		return 0
	}
}

// Equal reports whether two cells hold the same kind and value.
func (c Cell) Equal(o Cell) bool {
	if c.Kind != o.Kind {
		return false
	}
	switch c.Kind {
	case KindText:
		return c.Text == o.Text
	case KindNumber:
		return c.Number == o.Number
	default:
		return true
	}
}
