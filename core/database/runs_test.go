package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupMockDB creates a mock GORM DB for testing.
func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to open mock sql db: %v", err)
	}

	dialector := mysql.New(mysql.Config{
		Conn:                      db,
		SkipInitializeWithVersion: true,
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("Failed to open gorm db: %v", err)
	}

	return gormDB, mock
}

func TestRunRepository_Save(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewRunRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `analysis_runs`").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	run := &Run{ID: "run-1", SessionID: "s-1", Schema: "VP", TotalRows: 3, NewRows: 1}
	require.NoError(t, repo.Save(context.Background(), run))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRunRepository_Save_Error(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewRunRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `analysis_runs`").WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	err := repo.Save(context.Background(), &Run{ID: "run-1"})
	assert.ErrorContains(t, err, "run-1")
	assert.ErrorContains(t, err, "disk full")
}

func TestRunRepository_List(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewRunRepository(db)

	created := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "session_id", "schema", "old_file", "new_file", "total_rows", "new_rows", "spring_changed", "unchanged", "removed", "fleet_mass_change", "report_key", "created_at"}).
		AddRow("run-2", "s-1", "VP", "old.xlsx", "new.xlsx", 10, 2, 3, 5, 1, 12.5, "", created).
		AddRow("run-1", "s-1", "VU", "a.xlsx", "b.xlsx", 4, 0, 0, 4, 0, 0.0, "reports/run-1.xlsx", created.Add(-time.Hour))

	mock.ExpectQuery("SELECT \\* FROM `analysis_runs` ORDER BY created_at DESC").WillReturnRows(rows)

	runs, err := repo.List(context.Background(), 0, -1)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "run-2", runs[0].ID)
	assert.Equal(t, 3, runs[0].SpringChanged)
	assert.Equal(t, 12.5, runs[0].FleetMassChange)
	assert.Equal(t, "reports/run-1.xlsx", runs[1].ReportKey)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRunRepository_SetReportKey(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewRunRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE `analysis_runs` SET `report_key`").
		WithArgs("reports/run-1.xlsx", "run-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.SetReportKey(context.Background(), "run-1", "reports/run-1.xlsx"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRunRepository_WithReports(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewRunRepository(db)

	rows := sqlmock.NewRows([]string{"id", "report_key"}).AddRow("run-1", "reports/run-1.xlsx")
	mock.ExpectQuery("SELECT \\* FROM `analysis_runs` WHERE report_key <> \\?").
		WithArgs("").
		WillReturnRows(rows)

	runs, err := repo.WithReports(context.Background())
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "reports/run-1.xlsx", runs[0].ReportKey)
	assert.NoError(t, mock.ExpectationsWereMet())
}
