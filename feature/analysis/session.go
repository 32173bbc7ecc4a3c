package analysis

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"spring-change/core/reconcile"
	"spring-change/core/schema"
	"spring-change/core/snapshot"
	"spring-change/core/stats"
)

var (
	// ErrSessionNotFound is returned for an unknown or expired session id.
	ErrSessionNotFound = errors.New("session not found")
	// ErrStepIncomplete is returned when a step's prerequisites are not met.
	ErrStepIncomplete = errors.New("step prerequisites not met")
	// ErrInvalidStep is returned for an unknown workflow step.
	ErrInvalidStep = errors.New("invalid step")
	// ErrInvalidSide is returned for a snapshot side other than old or new.
	ErrInvalidSide = errors.New("invalid side, expected 'old' or 'new'")
)

// Step is a stage of the analysis workflow.
type Step string

const (
	StepUpload   Step = "upload"
	StepAnalysis Step = "analysis"
	StepResults  Step = "results"
)

// Steps lists the workflow stages in order.
var Steps = []Step{StepUpload, StepAnalysis, StepResults}

// ParseStep converts user input into a Step.
func ParseStep(s string) (Step, error) {
	step := Step(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Steps {
		if step == known {
			return step, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidStep, s)
}

// Side identifies one of the two uploaded snapshots.
type Side string

const (
	SideOld Side = "old"
	SideNew Side = "new"
)

// ParseSide converts user input into a Side.
func ParseSide(s string) (Side, error) {
	switch Side(strings.ToLower(strings.TrimSpace(s))) {
	case SideOld:
		return SideOld, nil
	case SideNew:
		return SideNew, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidSide, s)
	}
}

// Session carries the state of one user's analysis between requests.
type Session struct {
	ID        string
	Schema    schema.Type
	Step      Step
	CreatedAt time.Time
	UpdatedAt time.Time

	OldFile string
	NewFile string
	Old     *snapshot.Snapshot
	New     *snapshot.Snapshot

	// Report and Analysis are set once the analysis step has run.
	Report   *reconcile.Report
	Analysis *stats.Analysis

	// RunID identifies the analysis run in the history and the archive.
	RunID string
	// ReportKey is the archived object name of the last export.
	ReportKey string
}

// StepCompleted reports whether step is done: upload once both snapshots are
// loaded, analysis and results once the analysis has run.
func (s *Session) StepCompleted(step Step) bool {
	switch step {
	case StepUpload:
		return s.Old != nil && s.New != nil
	case StepAnalysis, StepResults:
		return s.Report != nil
	default:
		return false
	}
}

// CanEnter reports whether the prerequisites of step are met.
func (s *Session) CanEnter(step Step) bool {
	switch step {
	case StepUpload:
		return true
	case StepAnalysis:
		return s.StepCompleted(StepUpload)
	case StepResults:
		return s.StepCompleted(StepAnalysis)
	default:
		return false
	}
}

// SetSnapshot stores an uploaded snapshot. Loading an old snapshot discards the
// previous results, and so does replacing a new one, so they are re-derived.
// Once both snapshots are present the session moves on to the analysis step.
func (s *Session) SetSnapshot(side Side, name string, snap *snapshot.Snapshot) {
	switch side {
	case SideOld:
		s.Old, s.OldFile = snap, name
	case SideNew:
		s.New, s.NewFile = snap, name
	}
	s.clearResults()

	if s.StepCompleted(StepUpload) {
		s.Step = StepAnalysis
	} else {
		s.Step = StepUpload
	}
}

// SetResults stores the outcome of an analysis run.
func (s *Session) SetResults(runID string, report *reconcile.Report, analysis *stats.Analysis) {
	s.RunID = runID
	s.Report = report
	s.Analysis = analysis
	s.ReportKey = ""
	s.Step = StepAnalysis
}

func (s *Session) clearResults() {
	s.Report = nil
	s.Analysis = nil
	s.RunID = ""
	s.ReportKey = ""
}

// Status is the serializable view of a session.
type Status struct {
	ID        string        `json:"id"`
	Schema    string        `json:"schema"`
	Step      Step          `json:"step"`
	Completed map[Step]bool `json:"completed"`
	CreatedAt time.Time     `json:"created_at"`

	OldFile string `json:"old_file,omitempty"`
	NewFile string `json:"new_file,omitempty"`
	OldRows int    `json:"old_rows"`
	NewRows int    `json:"new_rows"`

	RunID     string `json:"run_id,omitempty"`
	ReportKey string `json:"report_key,omitempty"`
}

// Status returns the serializable view of s.
func (s *Session) Status() Status {
	completed := make(map[Step]bool, len(Steps))
	for _, step := range Steps {
		completed[step] = s.StepCompleted(step)
	}

	st := Status{
		ID:        s.ID,
		Schema:    string(s.Schema),
		Step:      s.Step,
		Completed: completed,
		CreatedAt: s.CreatedAt,
		OldFile:   s.OldFile,
		NewFile:   s.NewFile,
		RunID:     s.RunID,
		ReportKey: s.ReportKey,
	}
	if s.Old != nil {
		st.OldRows = s.Old.Len()
	}
	if s.New != nil {
		st.NewRows = s.New.Len()
	}
	return st
}
