// Package server holds the HTTP server configuration.
//
// While the start command handles the server startup, this package defines the
// configuration structure and helpers derived from it, such as the listen
// address and the request body limit applied to spreadsheet uploads.
//
// # Configuration
//
// The Config struct defines the HTTP port, the optional API key and the body
// limit in megabytes.
package server
