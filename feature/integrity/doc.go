// Package integrity provides health checks for the report archive and run history.
//
// Unlike the 'analysis' package which serves the spring change workflow, this
// package validates the infrastructure it persists to.
//
// # Checks Provided
//
//   - Bucket: Checks that the report bucket exists (supports ?fix=true to create it).
//   - Reports: Cross-references archived report objects with the runs that
//     reference them, listing runs whose report is missing and objects no run
//     knows about (supports ?fix=true to remove orphans and clear dangling keys).
//   - Database: Checks that the run history table exists (supports ?fix=true to migrate).
//
// Checks whose backend is disabled report "skipped" instead of failing.
//
// # HTTP Endpoints
//
//   - GET /integrity : Runs all checks.
//   - GET /integrity/bucket
//   - GET /integrity/reports
//   - GET /integrity/database
package integrity
