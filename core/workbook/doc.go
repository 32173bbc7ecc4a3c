// Package workbook is the spreadsheet boundary of the analysis.
//
// Ingestion (Reader) turns one sheet of an uploaded PTA workbook into a
// snapshot.Snapshot, after skipping the metadata rows below the header, and refuses
// files that are unreadable, empty or missing a required column. The resulting
// errors carry the message shown to the user.
//
// Export (Export, ExportBytes) writes a results table to a new workbook with a
// styled header, one highlight colour per change type and auto-sized columns.
// The only contract with the engine is the metadata column names in package schema.
package workbook
