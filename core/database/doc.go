// Package database handles the optional MySQL connection used for run history.
//
// It provides a wrapper around GORM to configure MySQL connections from the
// application's configuration, with timeouts applied to connection setup and
// I/O, plus a Migrate helper that creates the tables of the given models.
//
// The connection is optional: when it is disabled or fails, callers keep
// working without persisted history.
//
// # Usage
//
//	db, err := database.Connect(cfg.Database)
//	if err != nil {
//	    logg.Warn("Optional database connection failed", zap.Error(err))
//	}
//	_ = database.Migrate(db, &analysis.Run{})
package database
