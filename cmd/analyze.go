package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"spring-change/core/config"
	"spring-change/core/database"
	"spring-change/core/logger"
	"spring-change/core/reconcile"
	"spring-change/core/stats"
	"spring-change/core/storage"
	"spring-change/core/workbook"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	// Flags for the analyze command
	oldFile    string
	newFile    string
	schemaName string
	outFile    string
	sheetName  string
	uploadOut  bool
)

// analyzeCmd reconciles two PTA workbooks from the command line.
var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Compare an old and a new PTA workbook and export the spring changes",
	Long: `Reads the old and new PTA workbooks, matches vehicle configurations on the
composite key of the selected schema, classifies every new row as New,
Spring Changed or Unchanged and writes the colour-coded report.

Examples:
  # VP comparison with the default output name
  analyze --old pta_2023.xlsx --new pta_2024.xlsx

  # VU comparison, archived to object storage
  analyze --old a.xlsx --new b.xlsx --type VU --out vu.xlsx --upload`,
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().StringVar(&oldFile, "old", "", "Path to the old PTA workbook")
	analyzeCmd.Flags().StringVar(&newFile, "new", "", "Path to the new PTA workbook")
	analyzeCmd.Flags().StringVar(&schemaName, "type", "", "Schema type (VP or VU), defaults to the configured schema")
	analyzeCmd.Flags().StringVar(&outFile, "out", "spring_change_analysis.xlsx", "Path of the exported report")
	analyzeCmd.Flags().StringVar(&sheetName, "sheet", "", "Sheet to read, defaults to the configured sheet")
	analyzeCmd.Flags().BoolVar(&uploadOut, "upload", false, "Archive the report to object storage")
	_ = analyzeCmd.MarkFlagRequired("old")
	_ = analyzeCmd.MarkFlagRequired("new")

	RootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.LoadConfig(".")
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	l, err := logger.New(&cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer l.Sync()

	t, err := cfg.Analysis.SchemaType(schemaName)
	if err != nil {
		return err
	}

	sheet := cfg.Analysis.SheetName
	if sheetName != "" {
		sheet = sheetName
	}
	reader := workbook.NewReader(sheet, cfg.Analysis.SkipRows)

	oldSnap, err := reader.ReadFile(oldFile, "old")
	if err != nil {
		return err
	}
	newSnap, err := reader.ReadFile(newFile, "new")
	if err != nil {
		return err
	}
	l.Info("Snapshots loaded",
		zap.String("schema", string(t)),
		zap.Int("old_rows", oldSnap.Len()),
		zap.Int("new_rows", newSnap.Len()),
	)

	spec := reconcile.NewSpec(t)
	spec.OriginOffset = cfg.Analysis.OriginOffset

	start := time.Now()
	report, err := reconcile.Reconcile(oldSnap, newSnap, spec)
	if err != nil {
		return fmt.Errorf("failed to reconcile: %w", err)
	}
	analysis := stats.Compute(report.Records)
	printAnalysisReport(l, report, analysis, time.Since(start))

	f, err := workbook.Export(report.Table)
	if err != nil {
		return fmt.Errorf("error creating excel file: %w", err)
	}
	defer f.Close()
	if err := f.SaveAs(outFile); err != nil {
		return fmt.Errorf("failed to write %s: %w", outFile, err)
	}
	l.Info("Report written", zap.String("path", outFile))

	if !uploadOut {
		return nil
	}

	runID := uuid.NewString()
	data, err := os.ReadFile(outFile)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", outFile, err)
	}

	client, err := storage.NewClient(cfg.Storage)
	if err != nil {
		return fmt.Errorf("failed to connect to storage: %w", err)
	}
	archive := storage.NewArchive(client, cfg.Storage.Bucket, cfg.Storage.ReportPrefix)
	if err := archive.EnsureBucket(ctx); err != nil {
		return err
	}
	key, err := archive.Put(ctx, runID, data)
	if err != nil {
		return err
	}
	l.Info("Report archived", zap.String("run", runID), zap.String("key", key))

	if cfg.Database.Enabled {
		recordRun(ctx, l, cfg.Database, &database.Run{
			ID:              runID,
			Schema:          string(t),
			OldFile:         oldFile,
			NewFile:         newFile,
			TotalRows:       report.Summary.TotalRows,
			NewRows:         report.Summary.New,
			SpringChanged:   report.Summary.SpringChanged,
			Unchanged:       report.Summary.Unchanged,
			Removed:         report.Summary.Removed,
			FleetMassChange: analysis.Overview.FleetMassChange,
			ReportKey:       key,
		})
	}

	return nil
}

// recordRun stores the run in the history database. Failures are logged only.
func recordRun(ctx context.Context, l *zap.Logger, cfg database.Config, run *database.Run) {
	db, err := database.Connect(cfg)
	if err != nil {
		l.Warn("Optional database connection failed", zap.Error(err))
		return
	}
	repo := database.NewRunRepository(db)
	if err := repo.Migrate(); err != nil {
		l.Warn("Failed to migrate run history", zap.Error(err))
		return
	}
	if err := repo.Save(ctx, run); err != nil {
		l.Warn("Failed to record run", zap.Error(err))
		return
	}
	l.Info("Run recorded", zap.String("run", run.ID))
}

// printAnalysisReport prints a formatted analysis report using logger.
func printAnalysisReport(l *zap.Logger, report *reconcile.Report, analysis stats.Analysis, took time.Duration) {
	s := report.Summary
	o := analysis.Overview

	l.Info("Analysis report",
		zap.Strings("key_columns", report.KeyColumns),
		zap.Int("total_cars", s.TotalRows),
		zap.Int("new", s.New),
		zap.Int("spring_changed", s.SpringChanged),
		zap.Int("unchanged", s.Unchanged),
		zap.Int("removed", s.Removed),
		zap.Duration("took", took),
	)

	l.Info("Fleet mass",
		zap.Float64("spring_changed_percent", o.SpringChangedPercent),
		zap.Float64("mass_change_kg", o.FleetMassChange),
		zap.Float64("mass_change_percent", o.FleetMassChangePercent),
		zap.Int("mass_increased", s.MassIncreased),
		zap.Int("mass_decreased", s.MassDecreased),
	)

	if m := analysis.MassDifference; m.Count > 0 {
		l.Info("Mass difference",
			zap.Int("count", m.Count),
			zap.Float64("mean", m.Mean),
			zap.Float64("std_dev", m.StdDev),
			zap.Float64("min", m.Min),
			zap.Float64("median", m.Median),
			zap.Float64("max", m.Max),
		)
	}

	// Show a sample of spring changes (max 5 for logger)
	shown := 0
	for _, r := range report.Records {
		if r.ChangeType != reconcile.ChangeSpringChanged {
			continue
		}
		if shown == 5 {
			l.Info("Additional spring changes not shown", zap.Int("count", s.SpringChanged-shown))
			break
		}
		l.Info("Spring change",
			zap.Int("row", r.NewOriginID),
			zap.Int("old_row", r.OldOriginID),
			zap.String("old_reference", r.OldReference),
			zap.String("new_reference", r.NewReference),
			zap.Float64("mass_difference", r.MassDifference),
		)
		shown++
	}
}
