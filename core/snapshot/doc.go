// Package snapshot defines the tabular data model shared by ingestion, normalization,
// reconciliation and export.
//
// A Snapshot is an ordered list of rows over a fixed, ordered set of column names.
// Each cell is a small tagged variant (Empty, Text or Number) rather than an
// interface value, so every consumer has to decide explicitly how it treats
// missing and mistyped content.
//
// Snapshots are treated as immutable once built: functions that transform a
// snapshot return a new one (see Clone).
package snapshot
