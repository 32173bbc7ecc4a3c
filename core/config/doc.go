// Package config provides configuration management for the spring change service.
//
// It utilizes Viper for loading configuration from environment variables and an
// optional .env file. Defaults are declared on the section structs through
// `default` struct tags and registered by reflection, so every key can be
// overridden by its upper-cased environment variable.
//
// # Configuration Structure
//
// The Config struct is the central repository for all application settings, divided into subsections:
//   - Server: HTTP server settings (port, API key, body limit)
//   - Database: MySQL connection details for the run history
//   - Storage: S3/MinIO credentials and bucket for archived reports
//   - Log: Logging level and format
//   - Analysis: PTA sheet name, skipped rows, origin offset, upload limits and cache TTL
//
// # Usage
//
//	cfg, err := config.LoadConfig(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Analysis.SheetName)
package config
