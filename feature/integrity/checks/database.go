package checks

import (
	"fmt"

	"spring-change/core/database"

	"gorm.io/gorm"
)

// DatabaseReport describes the run history schema.
type DatabaseReport struct {
	Table       string `json:"table"`
	TableExists bool   `json:"table_exists"`
	Fixed       bool   `json:"fixed,omitempty"`
}

// CheckDatabase reports whether the run history table exists, migrating it when fix is set.
func CheckDatabase(db *gorm.DB, fix bool) (*DatabaseReport, error) {
	report := &DatabaseReport{Table: database.Run{}.TableName()}

	var count int64
	err := db.Raw("SELECT COUNT(*) FROM information_schema.tables WHERE table_schema = DATABASE() AND table_name = ?", report.Table).
		Scan(&count).Error
	if err != nil {
		return nil, fmt.Errorf("failed to inspect table %s: %w", report.Table, err)
	}
	report.TableExists = count > 0

	if !report.TableExists && fix {
		if err := database.NewRunRepository(db).Migrate(); err != nil {
			return nil, err
		}
		report.TableExists, report.Fixed = true, true
	}
	return report, nil
}
