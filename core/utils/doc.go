// Package utils provides common utility functions for the spring-change application.
// It includes helper functions for converting the loosely typed values found in
// spreadsheets and configuration into Go types.
package utils
