// Package normalize converts a raw snapshot into the canonical form the reconciler
// matches on.
//
// Every column is classified once, by looking at its non-missing values, into one of
// three kinds, and then transformed as a whole:
//
//   - Flag: every value is the checkbox marker "X" (any case). Becomes 1 where the
//     marker is set and 0 elsewhere.
//   - Text: at least one value is free text. Every value becomes trimmed, lower-cased
//     text and missing values become "".
//   - Numeric: everything else. Missing values become 0.
//
// Classification is evaluated in that order, so a column cannot take two branches.
// Normalize never mutates its input and never fails.
package normalize
