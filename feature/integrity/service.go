package integrity

import (
	"context"
	"errors"

	"spring-change/core/database"
	"spring-change/core/storage"
	"spring-change/feature/integrity/checks"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	// ErrStorageDisabled is returned by checks that need object storage.
	ErrStorageDisabled = errors.New("object storage is not configured")
	// ErrDatabaseDisabled is returned by checks that need the run history database.
	ErrDatabaseDisabled = errors.New("run history database is not configured")
)

// Service handles integrity checks of the report archive and run history.
type Service struct {
	client  storage.Client
	bucket  string
	archive *storage.Archive
	db      *gorm.DB
	runs    *database.RunRepository
	logger  *zap.Logger
}

// NewService creates a new integrity service. client and db may be nil when
// the corresponding backend is disabled.
func NewService(client storage.Client, bucket, prefix string, logger *zap.Logger, db *gorm.DB) *Service {
	s := &Service{
		client: client,
		bucket: bucket,
		db:     db,
		logger: logger,
	}
	if client != nil {
		s.archive = storage.NewArchive(client, bucket, prefix)
	}
	if db != nil {
		s.runs = database.NewRunRepository(db)
	}
	return s
}

// CheckBucket verifies the report bucket, creating it when fix is set.
func (s *Service) CheckBucket(ctx context.Context, fix bool) (*checks.BucketReport, error) {
	if s.client == nil {
		return nil, ErrStorageDisabled
	}
	return checks.CheckBucket(ctx, s.client, s.bucket, fix)
}

// CheckReports cross-references archived reports with the run history and
// repairs both sides when fix is set.
func (s *Service) CheckReports(ctx context.Context, fix bool) (*checks.ReportsReport, error) {
	if s.archive == nil {
		return nil, ErrStorageDisabled
	}
	if s.runs == nil {
		return nil, ErrDatabaseDisabled
	}

	report, err := checks.CheckReports(ctx, s.archive, s.runs)
	if err != nil {
		return nil, err
	}
	if fix && (len(report.Missing) > 0 || len(report.Orphans) > 0) {
		if err := checks.FixReports(ctx, s.archive, s.runs, s.logger, report); err != nil {
			return nil, err
		}
	}
	return report, nil
}

// CheckDatabase verifies the run history table, migrating it when fix is set.
func (s *Service) CheckDatabase(fix bool) (*checks.DatabaseReport, error) {
	if s.db == nil {
		return nil, ErrDatabaseDisabled
	}
	return checks.CheckDatabase(s.db, fix)
}
