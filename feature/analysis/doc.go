// Package analysis implements the spring change workflow behind the HTTP API.
//
// A Session walks through three steps:
//
//  1. upload: the old and new PTA workbooks are ingested one at a time.
//     Replacing either file discards previous results.
//  2. analysis: the snapshots are reconciled and the overview metrics,
//     distributions and mass difference statistics are computed.
//  3. results: the reconciled table is browsed and exported as a styled
//     workbook.
//
// A step can only be entered once the previous one is completed; requests that
// skip ahead are answered with 409 Conflict.
//
// # Persistence
//
// Sessions live in memory and expire after an idle period. When a database is
// configured each analysis run is recorded in the run history, and when object
// storage is configured exported reports are archived under the run id.
//
// # Routes
//
//	POST /analysis/sessions?type=VP
//	GET  /analysis/sessions/:id
//	POST /analysis/sessions/:id/files/:side   (multipart field "file", side old|new)
//	POST /analysis/sessions/:id/analyze
//	GET  /analysis/sessions/:id/overview
//	GET  /analysis/sessions/:id/results?offset=0&limit=100
//	GET  /analysis/sessions/:id/export
//	PUT  /analysis/sessions/:id/step/:step
//	GET  /analysis/runs
//	GET  /analysis/runs/:id/report
package analysis
