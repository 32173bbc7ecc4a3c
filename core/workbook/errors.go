package workbook

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNoFile is returned when no workbook was provided.
	ErrNoFile = errors.New("no file uploaded")
	// ErrEmptySnapshot is returned when the sheet holds a header but no data rows.
	ErrEmptySnapshot = errors.New("file is empty")
)

// MissingColumnsError lists required columns absent from a sheet.
type MissingColumnsError struct {
	Columns []string
}

func (e *MissingColumnsError) Error() string {
	return fmt.Sprintf("Missing columns: %s.", strings.Join(e.Columns, ", "))
}

// FileError wraps an ingestion failure for one of the uploaded files.
// Its message is meant to be shown as is.
type FileError struct {
	// Label identifies the file, e.g. "old" or "new".
	Label string
	Err   error
}

func (e *FileError) Error() string {
	var missing *MissingColumnsError
	switch {
	case errors.Is(e.Err, ErrNoFile):
		return fmt.Sprintf("No '%s' file uploaded.", e.Label)
	case errors.Is(e.Err, ErrEmptySnapshot):
		return fmt.Sprintf("'%s' file is empty.", e.Label)
	case errors.As(e.Err, &missing):
		return missing.Error()
	default:
		return fmt.Sprintf("Error reading '%s' file: %v", e.Label, e.Err)
	}
}

func (e *FileError) Unwrap() error {
	return e.Err
}
