package database

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// Run is one persisted analysis run.
type Run struct {
	ID        string `gorm:"primaryKey;size:36" json:"id"`
	SessionID string `gorm:"size:36;index" json:"session_id"`
	Schema    string `gorm:"size:8" json:"schema"`
	OldFile   string `gorm:"size:255" json:"old_file"`
	NewFile   string `gorm:"size:255" json:"new_file"`

	TotalRows     int `json:"total_rows"`
	NewRows       int `json:"new_rows"`
	SpringChanged int `json:"spring_changed"`
	Unchanged     int `json:"unchanged"`
	Removed       int `json:"removed"`

	FleetMassChange float64 `json:"fleet_mass_change"`

	// ReportKey is the object name of the archived report, if any.
	ReportKey string `gorm:"size:255" json:"report_key,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// TableName overrides the table name used by Run.
func (Run) TableName() string {
	return "analysis_runs"
}

// RunRepository persists analysis runs.
type RunRepository struct {
	db *gorm.DB
}

// NewRunRepository creates a repository over db.
func NewRunRepository(db *gorm.DB) *RunRepository {
	return &RunRepository{db: db}
}

// Migrate creates the runs table.
func (r *RunRepository) Migrate() error {
	return Migrate(r.db, &Run{})
}

// Save inserts a run.
func (r *RunRepository) Save(ctx context.Context, run *Run) error {
	if err := r.db.WithContext(ctx).Create(run).Error; err != nil {
		return fmt.Errorf("failed to save run %s: %w", run.ID, err)
	}
	return nil
}

// List returns runs, most recent first.
func (r *RunRepository) List(ctx context.Context, limit, offset int) ([]Run, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	var runs []Run
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&runs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	return runs, nil
}

// SetReportKey records where the report of a run was archived.
func (r *RunRepository) SetReportKey(ctx context.Context, id, key string) error {
	err := r.db.WithContext(ctx).
		Model(&Run{}).
		Where("id = ?", id).
		Update("report_key", key).Error
	if err != nil {
		return fmt.Errorf("failed to update run %s: %w", id, err)
	}
	return nil
}

// WithReports returns the runs that reference an archived report.
func (r *RunRepository) WithReports(ctx context.Context) ([]Run, error) {
	var runs []Run
	err := r.db.WithContext(ctx).
		Where("report_key <> ?", "").
		Order("created_at DESC").
		Find(&runs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list archived runs: %w", err)
	}
	return runs, nil
}
