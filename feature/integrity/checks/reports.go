package checks

import (
	"context"
	"sort"

	"spring-change/core/database"
	"spring-change/core/storage"

	"go.uber.org/zap"
)

// ReportsReport cross-references archived reports with the run history.
type ReportsReport struct {
	// Archived is the number of report objects in storage.
	Archived int `json:"archived"`
	// Recorded is the number of runs referencing a report.
	Recorded int `json:"recorded"`
	// Missing lists runs whose report object is gone.
	Missing []string `json:"missing"`
	// Orphans lists report objects without a run.
	Orphans []string `json:"orphans"`
}

// CheckReports compares the archive listing with the runs referencing a report.
func CheckReports(ctx context.Context, archive *storage.Archive, runs *database.RunRepository) (*ReportsReport, error) {
	ids, err := archive.List(ctx)
	if err != nil {
		return nil, err
	}
	recorded, err := runs.WithReports(ctx)
	if err != nil {
		return nil, err
	}

	archived := make(map[string]bool, len(ids))
	for _, id := range ids {
		archived[id] = true
	}
	known := make(map[string]bool, len(recorded))
	for _, run := range recorded {
		known[run.ID] = true
	}

	report := &ReportsReport{
		Archived: len(ids),
		Recorded: len(recorded),
		Missing:  []string{},
		Orphans:  []string{},
	}
	for _, run := range recorded {
		if !archived[run.ID] {
			report.Missing = append(report.Missing, run.ID)
		}
	}
	for _, id := range ids {
		if !known[id] {
			report.Orphans = append(report.Orphans, id)
		}
	}
	sort.Strings(report.Missing)
	sort.Strings(report.Orphans)
	return report, nil
}

// FixReports removes orphaned report objects and clears the report key of
// runs whose object is missing. It stops at the first failure.
func FixReports(ctx context.Context, archive *storage.Archive, runs *database.RunRepository, logger *zap.Logger, report *ReportsReport) error {
	for _, id := range report.Orphans {
		if err := archive.Remove(ctx, id); err != nil {
			logger.Error("Failed to remove orphaned report", zap.String("run", id), zap.Error(err))
			return err
		}
		logger.Info("Removed orphaned report", zap.String("run", id))
	}
	for _, id := range report.Missing {
		if err := runs.SetReportKey(ctx, id, ""); err != nil {
			logger.Error("Failed to clear report key", zap.String("run", id), zap.Error(err))
			return err
		}
		logger.Info("Cleared missing report key", zap.String("run", id))
	}
	return nil
}
