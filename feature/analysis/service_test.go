package analysis

import (
	"bytes"
	"context"
	"errors"
	"math"
	"testing"

	"spring-change/core/reconcile"
	"spring-change/core/storage"
	"spring-change/core/storage/mocks"
	"spring-change/core/workbook"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
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

// uploadBoth creates a session and loads the standard old and new files.
func uploadBoth(t *testing.T, svc *Service) string {
	t.Helper()
	ctx := context.Background()

	st, err := svc.CreateSession("VP")
	require.NoError(t, err)

	_, err = svc.Upload(ctx, st.ID, SideOld, "old.xlsx", bytes.NewReader(oldPTA(t)))
	require.NoError(t, err)
	_, err = svc.Upload(ctx, st.ID, SideNew, "new.xlsx", bytes.NewReader(newPTA(t)))
	require.NoError(t, err)
	return st.ID
}

func TestService_CreateSession(t *testing.T) {
	svc := NewService(DefaultConfig(), zap.NewNop(), nil, nil)

	st, err := svc.CreateSession("")
	require.NoError(t, err)
	assert.Equal(t, "VP", st.Schema)
	assert.Equal(t, StepUpload, st.Step)
	assert.NotEmpty(t, st.ID)

	_, err = svc.CreateSession("XX")
	assert.Error(t, err)
}

func TestService_Upload(t *testing.T) {
	ctx := context.Background()
	svc := NewService(DefaultConfig(), zap.NewNop(), nil, nil)
	st, err := svc.CreateSession("VP")
	require.NoError(t, err)

	t.Run("Unknown session", func(t *testing.T) {
		_, err := svc.Upload(ctx, "missing", SideOld, "old.xlsx", bytes.NewReader(oldPTA(t)))
		assert.ErrorIs(t, err, ErrSessionNotFound)
	})

	t.Run("Unsupported extension", func(t *testing.T) {
		_, err := svc.Upload(ctx, st.ID, SideOld, "old.csv", bytes.NewReader([]byte("a,b")))
		assert.ErrorIs(t, err, ErrUnsupportedFile)
	})

	t.Run("Missing file", func(t *testing.T) {
		_, err := svc.Upload(ctx, st.ID, SideOld, "old.xlsx", nil)
		var fileErr *workbook.FileError
		require.ErrorAs(t, err, &fileErr)
		assert.Equal(t, "No 'old' file uploaded.", err.Error())
	})

	t.Run("Missing columns", func(t *testing.T) {
		f := excelize.NewFile()
		defer f.Close()
		require.NoError(t, f.SetSheetName("Sheet1", "PTA"))
		require.NoError(t, f.SetSheetRow("PTA", "A1", &[]interface{}{"Moteur"}))
		require.NoError(t, f.SetSheetRow("PTA", "A2", &[]interface{}{""}))
		require.NoError(t, f.SetSheetRow("PTA", "A3", &[]interface{}{"E1"}))
		buf, err := f.WriteToBuffer()
		require.NoError(t, err)

		_, err = svc.Upload(ctx, st.ID, SideNew, "new.xlsx", buf)
		var missing *workbook.MissingColumnsError
		require.ErrorAs(t, err, &missing)
		assert.ElementsMatch(t, []string{"Masse suspendue en charge de référence", "Référence"}, missing.Columns)
	})

	t.Run("Too large", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.MaxFileSizeMB = 1
		small := NewService(cfg, zap.NewNop(), nil, nil)
		s, err := small.CreateSession("VP")
		require.NoError(t, err)

		_, err = small.Upload(ctx, s.ID, SideOld, "old.xlsx", bytes.NewReader(make([]byte, 1024*1024+1)))
		assert.ErrorIs(t, err, ErrFileTooLarge)
	})

	t.Run("Success", func(t *testing.T) {
		got, err := svc.Upload(ctx, st.ID, SideOld, "old.xlsx", bytes.NewReader(oldPTA(t)))
		require.NoError(t, err)
		assert.Equal(t, 3, got.OldRows)
		assert.Equal(t, StepUpload, got.Step)

		got, err = svc.Upload(ctx, st.ID, SideNew, "new.xlsx", bytes.NewReader(newPTA(t)))
		require.NoError(t, err)
		assert.Equal(t, 3, got.NewRows)
		assert.Equal(t, StepAnalysis, got.Step)
		assert.True(t, got.Completed[StepUpload])
	})
}

func TestService_AnalyzeRequiresUploads(t *testing.T) {
	svc := NewService(DefaultConfig(), zap.NewNop(), nil, nil)
	st, err := svc.CreateSession("VP")
	require.NoError(t, err)

	_, err = svc.Analyze(context.Background(), st.ID)
	assert.ErrorIs(t, err, ErrStepIncomplete)

	_, err = svc.Overview(st.ID)
	assert.ErrorIs(t, err, ErrStepIncomplete)

	_, err = svc.Export(context.Background(), st.ID)
	assert.ErrorIs(t, err, ErrStepIncomplete)
}

func TestService_Analyze(t *testing.T) {
	svc := NewService(DefaultConfig(), zap.NewNop(), nil, nil)
	id := uploadBoth(t, svc)

	res, err := svc.Analyze(context.Background(), id)
	require.NoError(t, err)

	assert.NotEmpty(t, res.RunID)
	assert.Equal(t, []string{"Moteur", "Boite"}, res.KeyColumns)
	assert.Equal(t, 3, res.Summary.TotalRows)
	assert.Equal(t, 1, res.Summary.New)
	assert.Equal(t, 1, res.Summary.SpringChanged)
	assert.Equal(t, 1, res.Summary.Unchanged)
	assert.Equal(t, 1, res.Summary.Removed)
	assert.Equal(t, 3, res.Analysis.Overview.TotalCars)
	assert.Equal(t, 2, res.Analysis.MassDifference.Count)

	overview, err := svc.Overview(id)
	require.NoError(t, err)
	assert.Equal(t, res.RunID, overview.RunID)
	assert.Equal(t, res.Summary, overview.Summary)

	st, err := svc.Session(id)
	require.NoError(t, err)
	assert.True(t, st.Completed[StepAnalysis])
	assert.Equal(t, res.RunID, st.RunID)
}

func TestService_Results(t *testing.T) {
	svc := NewService(DefaultConfig(), zap.NewNop(), nil, nil)
	id := uploadBoth(t, svc)
	_, err := svc.Analyze(context.Background(), id)
	require.NoError(t, err)

	page, err := svc.Results(id, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, 3, page.Total)
	assert.Equal(t, 1, page.Offset)
	assert.Equal(t, 1, page.Limit)
	require.Len(t, page.Records, 1)
	require.Len(t, page.Rows, 1)
	assert.Equal(t, reconcile.ChangeSpringChanged, page.Records[0].ChangeType)
	assert.Equal(t, "E2", page.Rows[0][0])
	assert.Contains(t, page.Columns, "Change Type")

	all, err := svc.Results(id, 0, 0)
	require.NoError(t, err)
	assert.Len(t, all.Rows, 3)

	beyond, err := svc.Results(id, 10, 5)
	require.NoError(t, err)
	assert.Empty(t, beyond.Rows)

	huge, err := svc.Results(id, 1, math.MaxInt)
	require.NoError(t, err)
	assert.Equal(t, 1, huge.Offset)
	assert.Len(t, huge.Rows, 2)

	st, err := svc.Session(id)
	require.NoError(t, err)
	assert.Equal(t, StepResults, st.Step)
}

func TestWindow(t *testing.T) {
	tests := []struct {
		name                 string
		total, offset, limit int
		start, end           int
	}{
		{"All", 5, 0, 0, 0, 5},
		{"Page", 5, 1, 2, 1, 3},
		{"Negative offset", 5, -3, 2, 0, 2},
		{"Offset past end", 5, 9, 2, 5, 5},
		{"Limit past end", 5, 3, 10, 3, 5},
		{"Max limit", 5, 1, math.MaxInt, 1, 5},
		{"Max offset", 5, math.MaxInt, math.MaxInt, 5, 5},
		{"Empty", 0, 0, 10, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end := window(tt.total, tt.offset, tt.limit)
			assert.Equal(t, tt.start, start)
			assert.Equal(t, tt.end, end)
		})
	}
}

func TestService_Export(t *testing.T) {
	svc := NewService(DefaultConfig(), zap.NewNop(), nil, nil)
	id := uploadBoth(t, svc)
	_, err := svc.Analyze(context.Background(), id)
	require.NoError(t, err)

	data, err := svc.Export(context.Background(), id)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(workbook.ResultsSheet)
	require.NoError(t, err)
	assert.Len(t, rows, 4)
}

func TestService_ReuploadClearsResults(t *testing.T) {
	ctx := context.Background()
	svc := NewService(DefaultConfig(), zap.NewNop(), nil, nil)
	id := uploadBoth(t, svc)
	_, err := svc.Analyze(ctx, id)
	require.NoError(t, err)

	_, err = svc.Upload(ctx, id, SideOld, "old.xlsx", bytes.NewReader(oldPTA(t)))
	require.NoError(t, err)

	_, err = svc.Overview(id)
	assert.ErrorIs(t, err, ErrStepIncomplete)
}

func TestService_Navigate(t *testing.T) {
	svc := NewService(DefaultConfig(), zap.NewNop(), nil, nil)
	st, err := svc.CreateSession("VU")
	require.NoError(t, err)

	_, err = svc.Navigate(st.ID, StepAnalysis)
	assert.ErrorIs(t, err, ErrStepIncomplete)

	got, err := svc.Navigate(st.ID, StepUpload)
	require.NoError(t, err)
	assert.Equal(t, StepUpload, got.Step)

	_, err = svc.Navigate("missing", StepUpload)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestService_HistoryAndArchive(t *testing.T) {
	ctx := context.Background()
	db, sqlMock := setupMockDB(t)
	client := new(mocks.Client)
	archive := storage.NewArchive(client, "bucket", "reports")

	svc := NewService(DefaultConfig(), zap.NewNop(), db, archive)
	assert.True(t, svc.HistoryEnabled())
	id := uploadBoth(t, svc)

	sqlMock.ExpectBegin()
	sqlMock.ExpectExec("INSERT INTO `analysis_runs`").WillReturnResult(sqlmock.NewResult(1, 1))
	sqlMock.ExpectCommit()

	res, err := svc.Analyze(ctx, id)
	require.NoError(t, err)

	key := "reports/" + res.RunID + ".xlsx"
	client.On("PutObject", mock.Anything, "bucket", key, mock.Anything, mock.Anything, mock.Anything).
		Return(minio.UploadInfo{}, nil)

	sqlMock.ExpectBegin()
	sqlMock.ExpectExec("UPDATE `analysis_runs` SET `report_key`").
		WithArgs(key, res.RunID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	sqlMock.ExpectCommit()

	_, err = svc.Export(ctx, id)
	require.NoError(t, err)

	st, err := svc.Session(id)
	require.NoError(t, err)
	assert.Equal(t, key, st.ReportKey)
	client.AssertExpectations(t)
	assert.NoError(t, sqlMock.ExpectationsWereMet())
}

func TestService_ArchiveFailureKeepsExport(t *testing.T) {
	ctx := context.Background()
	client := new(mocks.Client)
	client.On("PutObject", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(minio.UploadInfo{}, errors.New("offline"))

	svc := NewService(DefaultConfig(), zap.NewNop(), nil, storage.NewArchive(client, "bucket", "reports"))
	id := uploadBoth(t, svc)
	_, err := svc.Analyze(ctx, id)
	require.NoError(t, err)

	data, err := svc.Export(ctx, id)
	require.NoError(t, err)
	assert.NotEmpty(t, data)

	st, err := svc.Session(id)
	require.NoError(t, err)
	assert.Empty(t, st.ReportKey)
}

func TestService_ExportSessionExpired(t *testing.T) {
	ctx := context.Background()
	core, logs := observer.New(zap.DebugLevel)
	client := new(mocks.Client)
	svc := NewService(DefaultConfig(), zap.New(core), nil, storage.NewArchive(client, "bucket", "reports"))
	id := uploadBoth(t, svc)
	_, err := svc.Analyze(ctx, id)
	require.NoError(t, err)

	client.On("PutObject", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Run(func(mock.Arguments) { svc.store.Delete(id) }).
		Return(minio.UploadInfo{}, nil)

	data, err := svc.Export(ctx, id)
	require.NoError(t, err)
	assert.NotEmpty(t, data)

	gone := logs.FilterMessage("Session gone before report key was set")
	require.Equal(t, 1, gone.Len())
	assert.Equal(t, zap.DebugLevel, gone.All()[0].Level)
	assert.Equal(t, 1, logs.FilterMessage("Report archived").Len())
}

func TestService_ArchivedReport(t *testing.T) {
	ctx := context.Background()
	client := new(mocks.Client)
	svc := NewService(DefaultConfig(), zap.NewNop(), nil, storage.NewArchive(client, "bucket", "reports"))

	_, err := svc.ArchivedReport(ctx, "../secrets")
	assert.ErrorIs(t, err, storage.ErrInvalidReportID)
	client.AssertNotCalled(t, "GetObject", mock.Anything, mock.Anything, mock.Anything, mock.Anything)

	client.On("GetObject", ctx, "bucket", "reports/run-9.xlsx", minio.GetObjectOptions{}).
		Return(nil, minio.ErrorResponse{Code: "NoSuchKey"})
	_, err = svc.ArchivedReport(ctx, "run-9")
	assert.ErrorIs(t, err, storage.ErrReportNotFound)
}

func TestService_RunsDisabled(t *testing.T) {
	svc := NewService(DefaultConfig(), zap.NewNop(), nil, nil)
	assert.False(t, svc.HistoryEnabled())

	_, err := svc.Runs(context.Background(), 10, 0)
	assert.ErrorIs(t, err, ErrHistoryDisabled)

	_, err = svc.ArchivedReport(context.Background(), "run-1")
	assert.ErrorIs(t, err, ErrHistoryDisabled)
}
