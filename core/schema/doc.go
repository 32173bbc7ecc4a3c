// Package schema holds the static configuration surface of the spring change analysis.
//
// A PTA file describes one vehicle configuration per row. Which columns identify a
// configuration depends on the vehicle category:
//
//   - VP (passenger vehicles): engine, gearbox, trim level and a set of equipment options.
//   - VU (utility vehicles): engine, gearbox, trim level and the design plate.
//
// The package also names the two required columns (suspended mass and spring
// reference) and the metadata columns appended to the results table. These names are
// the only contract between the engine and the spreadsheet export.
package schema
