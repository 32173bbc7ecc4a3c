package analysis

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"spring-change/core/database"
	"spring-change/core/reconcile"
	"spring-change/core/snapshot"
	"spring-change/core/stats"
	"spring-change/core/storage"
	"spring-change/core/workbook"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ExportFileName is the download name of the exported report.
const ExportFileName = "spring_change_analysis.xlsx"

var (
	// ErrUnsupportedFile is returned for uploads with a rejected extension.
	ErrUnsupportedFile = errors.New("unsupported file type")
	// ErrFileTooLarge is returned for uploads above the configured limit.
	ErrFileTooLarge = errors.New("file too large")
	// ErrHistoryDisabled is returned when run history is requested without a database.
	ErrHistoryDisabled = errors.New("run history is not configured")
)

// Result is the analysis outcome served for a session.
type Result struct {
	RunID      string            `json:"run_id"`
	Schema     string            `json:"schema"`
	KeyColumns []string          `json:"key_columns"`
	Summary    reconcile.Summary `json:"summary"`
	Analysis   stats.Analysis    `json:"analysis"`
}

// Page is a window over the reconciled table.
type Page struct {
	Total   int                `json:"total"`
	Offset  int                `json:"offset"`
	Limit   int                `json:"limit"`
	Columns []string           `json:"columns"`
	Rows    [][]any            `json:"rows"`
	Records []reconcile.Record `json:"records"`
}

// Service drives the upload, analysis and results workflow.
type Service struct {
	cfg     Config
	store   *Store
	reader  *workbook.Reader
	cache   *reconcile.Cache
	runs    *database.RunRepository
	archive *storage.Archive
	logger  *zap.Logger
}

// NewService creates the workflow service. db and archive are optional: without
// them runs are not persisted and exports are not archived.
func NewService(cfg Config, logger *zap.Logger, db *gorm.DB, archive *storage.Archive) *Service {
	svc := &Service{
		cfg:     cfg,
		store:   NewStore(cfg.SessionTTL()),
		reader:  workbook.NewReader(cfg.SheetName, cfg.SkipRows),
		cache:   reconcile.NewCache(cfg.CacheTTL()),
		archive: archive,
		logger:  logger,
	}
	if db != nil {
		svc.runs = database.NewRunRepository(db)
	}
	return svc
}

// HistoryEnabled reports whether runs are persisted.
func (s *Service) HistoryEnabled() bool {
	return s.runs != nil
}

// CreateSession starts a session for the named schema type.
func (s *Service) CreateSession(schemaName string) (Status, error) {
	t, err := s.cfg.SchemaType(schemaName)
	if err != nil {
		return Status{}, err
	}

	if removed := s.store.Sweep(); removed > 0 {
		s.logger.Debug("Evicted idle sessions", zap.Int("count", removed))
	}
	s.cache.Purge()

	sess := s.store.Create(t)
	s.logger.Info("Session created", zap.String("session", sess.ID), zap.String("schema", string(t)))
	return sess.Status(), nil
}

// Session returns the status of a session.
func (s *Service) Session(id string) (Status, error) {
	var st Status
	err := s.store.View(id, func(sess *Session) error {
		st = sess.Status()
		return nil
	})
	return st, err
}

// Upload ingests one snapshot of a session.
func (s *Service) Upload(ctx context.Context, id string, side Side, name string, src io.Reader) (Status, error) {
	if err := s.store.View(id, func(*Session) error { return nil }); err != nil {
		return Status{}, err
	}
	if !s.cfg.IsAllowed(name) {
		return Status{}, fmt.Errorf("%w: %s", ErrUnsupportedFile, name)
	}

	data, err := s.readLimited(src)
	if err != nil {
		return Status{}, err
	}

	var snap *snapshot.Snapshot
	if len(data) == 0 {
		snap, err = s.reader.Read(nil, string(side))
	} else {
		snap, err = s.reader.Read(bytes.NewReader(data), string(side))
	}
	if err != nil {
		s.logger.Warn("Snapshot rejected",
			zap.String("session", id),
			zap.String("side", string(side)),
			zap.String("file", name),
			zap.Error(err),
		)
		return Status{}, err
	}

	var st Status
	err = s.store.Update(id, func(sess *Session) error {
		sess.SetSnapshot(side, name, snap)
		st = sess.Status()
		return nil
	})
	if err != nil {
		return Status{}, err
	}

	s.logger.Info("Snapshot loaded",
		zap.String("session", id),
		zap.String("side", string(side)),
		zap.String("file", name),
		zap.Int("rows", snap.Len()),
		zap.Int("columns", len(snap.Columns)),
	)
	return st, nil
}

func (s *Service) readLimited(src io.Reader) ([]byte, error) {
	if src == nil {
		return nil, nil
	}
	limit := s.cfg.MaxFileSize()
	if limit <= 0 {
		return io.ReadAll(src)
	}

	data, err := io.ReadAll(io.LimitReader(src, limit+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("%w: limit is %d MB", ErrFileTooLarge, s.cfg.MaxFileSizeMB)
	}
	return data, nil
}

// Analyze reconciles the two snapshots of a session and computes its metrics.
func (s *Service) Analyze(ctx context.Context, id string) (Result, error) {
	var (
		oldSnap, newSnap *snapshot.Snapshot
		spec             reconcile.Spec
		oldFile, newFile string
	)
	err := s.store.View(id, func(sess *Session) error {
		if !sess.StepCompleted(StepUpload) {
			return fmt.Errorf("%w: both files must be uploaded", ErrStepIncomplete)
		}
		oldSnap, newSnap = sess.Old, sess.New
		oldFile, newFile = sess.OldFile, sess.NewFile
		spec = reconcile.NewSpec(sess.Schema)
		return nil
	})
	if err != nil {
		return Result{}, err
	}
	spec.OriginOffset = s.cfg.OriginOffset

	report, err := s.cache.GetOrReconcile(oldSnap, newSnap, spec)
	if err != nil {
		return Result{}, err
	}
	analysis := stats.Compute(report.Records)
	runID := uuid.NewString()

	err = s.store.Update(id, func(sess *Session) error {
		// Snapshots replaced mid-flight make this result stale.
		if sess.Old != oldSnap || sess.New != newSnap {
			return fmt.Errorf("%w: files changed during analysis", ErrStepIncomplete)
		}
		sess.SetResults(runID, report, &analysis)
		return nil
	})
	if err != nil {
		return Result{}, err
	}

	s.logger.Info("Analysis completed",
		zap.String("session", id),
		zap.String("run", runID),
		zap.String("schema", string(spec.Schema)),
		zap.Strings("keys", report.KeyColumns),
		zap.Int("total", report.Summary.TotalRows),
		zap.Int("new", report.Summary.New),
		zap.Int("spring_changed", report.Summary.SpringChanged),
		zap.Int("unchanged", report.Summary.Unchanged),
		zap.Int("removed", report.Summary.Removed),
	)

	if s.runs != nil {
		run := &database.Run{
			ID:              runID,
			SessionID:       id,
			Schema:          string(spec.Schema),
			OldFile:         oldFile,
			NewFile:         newFile,
			TotalRows:       report.Summary.TotalRows,
			NewRows:         report.Summary.New,
			SpringChanged:   report.Summary.SpringChanged,
			Unchanged:       report.Summary.Unchanged,
			Removed:         report.Summary.Removed,
			FleetMassChange: analysis.Overview.FleetMassChange,
		}
		if err := s.runs.Save(ctx, run); err != nil {
			s.logger.Warn("Failed to record analysis run", zap.String("run", runID), zap.Error(err))
		}
	}

	return Result{
		RunID:      runID,
		Schema:     string(spec.Schema),
		KeyColumns: report.KeyColumns,
		Summary:    report.Summary,
		Analysis:   analysis,
	}, nil
}

// Overview returns the analysis result of a session.
func (s *Service) Overview(id string) (Result, error) {
	var res Result
	err := s.store.View(id, func(sess *Session) error {
		if !sess.StepCompleted(StepAnalysis) {
			return fmt.Errorf("%w: run the analysis first", ErrStepIncomplete)
		}
		res = Result{
			RunID:      sess.RunID,
			Schema:     string(sess.Schema),
			KeyColumns: sess.Report.KeyColumns,
			Summary:    sess.Report.Summary,
			Analysis:   *sess.Analysis,
		}
		return nil
	})
	return res, err
}

// Results returns a window of the reconciled table, ordered by new row id.
// A non-positive limit returns every row from offset.
func (s *Service) Results(id string, offset, limit int) (Page, error) {
	var page Page
	err := s.store.Update(id, func(sess *Session) error {
		if !sess.StepCompleted(StepAnalysis) {
			return fmt.Errorf("%w: run the analysis first", ErrStepIncomplete)
		}
		sess.Step = StepResults

		table := sess.Report.Table
		total := table.Len()
		start, end := window(total, offset, limit)

		page = Page{
			Total:   total,
			Offset:  start,
			Limit:   end - start,
			Columns: table.Columns,
			Rows:    make([][]any, 0, end-start),
			Records: sess.Report.Records[start:end],
		}
		for _, row := range table.Rows[start:end] {
			values := make([]any, len(row))
			for j, c := range row {
				values[j] = cellJSON(c)
			}
			page.Rows = append(page.Rows, values)
		}
		return nil
	})
	return page, err
}

// Export renders the reconciled table as a styled workbook. When an archive is
// configured the report is also stored under the session's run id.
func (s *Service) Export(ctx context.Context, id string) ([]byte, error) {
	var (
		table *snapshot.Snapshot
		runID string
	)
	err := s.store.View(id, func(sess *Session) error {
		if !sess.StepCompleted(StepResults) {
			return fmt.Errorf("%w: run the analysis first", ErrStepIncomplete)
		}
		table, runID = sess.Report.Table, sess.RunID
		return nil
	})
	if err != nil {
		return nil, err
	}

	data, err := workbook.ExportBytes(table)
	if err != nil {
		s.logger.Error("Export failed", zap.String("session", id), zap.Error(err))
		return nil, fmt.Errorf("error creating excel file: %w", err)
	}

	if s.archive != nil {
		key, err := s.archive.Put(ctx, runID, data)
		if err != nil {
			s.logger.Warn("Failed to archive report", zap.String("run", runID), zap.Error(err))
			return data, nil
		}
		err = s.store.Update(id, func(sess *Session) error {
			if sess.RunID == runID {
				sess.ReportKey = key
			}
			return nil
		})
		if err != nil {
			s.logger.Debug("Session gone before report key was set", zap.String("session", id), zap.Error(err))
		}
		if s.runs != nil {
			if err := s.runs.SetReportKey(ctx, runID, key); err != nil {
				s.logger.Warn("Failed to record report key", zap.String("run", runID), zap.Error(err))
			}
		}
		s.logger.Info("Report archived", zap.String("run", runID), zap.String("key", key))
	}

	return data, nil
}

// ArchivedReport downloads a previously archived report by run id.
func (s *Service) ArchivedReport(ctx context.Context, runID string) ([]byte, error) {
	if s.archive == nil {
		return nil, ErrHistoryDisabled
	}
	return s.archive.Get(ctx, runID)
}

// Navigate moves a session to step when its prerequisites are met.
func (s *Service) Navigate(id string, step Step) (Status, error) {
	var st Status
	err := s.store.Update(id, func(sess *Session) error {
		if !sess.CanEnter(step) {
			return fmt.Errorf("%w: cannot enter %s", ErrStepIncomplete, step)
		}
		sess.Step = step
		st = sess.Status()
		return nil
	})
	return st, err
}

// Runs lists the persisted analysis runs, most recent first.
func (s *Service) Runs(ctx context.Context, limit, offset int) ([]database.Run, error) {
	if s.runs == nil {
		return nil, ErrHistoryDisabled
	}
	return s.runs.List(ctx, limit, offset)
}

// window clamps [offset, offset+limit) to [0, total].
func window(total, offset, limit int) (int, int) {
	if offset < 0 {
		offset = 0
	}
	if offset > total {
		offset = total
	}
	end := total
	if limit > 0 && limit < total-offset {
		end = offset + limit
	}
	return offset, end
}

func cellJSON(c snapshot.Cell) any {
	switch c.Kind {
	case snapshot.KindNumber:
		return c.Number
	case snapshot.KindText:
		return c.Text
	default:
		return nil
	}
}
