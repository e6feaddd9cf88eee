// Package report aggregates per-file resolution outcomes into a run
// report and persists it as JSON.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
)

// FileResult is one file's outcome within a run.
type FileResult struct {
	Path       string `json:"path"`
	Success    bool   `json:"success"`
	Strategy   string `json:"strategy"`
	Message    string `json:"message"`
	DurationMs int64  `json:"durationMs"`
}

// RunReport aggregates one resolver invocation. It is created by the
// orchestrator, finalized exactly once, and immutable afterwards.
type RunReport struct {
	RunID              string         `json:"runId"`
	StartedAt          time.Time      `json:"startedAt"`
	FinishedAt         time.Time      `json:"finishedAt"`
	TotalConflicts     int            `json:"totalConflicts"`
	ResolvedCount      int            `json:"resolvedCount"`
	FailedCount        int            `json:"failedCount"`
	StrategyTally      map[string]int `json:"strategyTally"`
	PerFile            []FileResult   `json:"perFile"`
	NeedsHuman         []string       `json:"needsHuman"`
	SuccessRatePercent float64        `json:"successRatePercent"`
	DryRun             bool           `json:"dryRun,omitempty"`

	finalized bool
}

// New starts a report for a run.
func New(runID string) *RunReport {
	return &RunReport{
		RunID:         runID,
		StartedAt:     time.Now().UTC(),
		StrategyTally: make(map[string]int),
		PerFile:       make([]FileResult, 0),
		NeedsHuman:    make([]string, 0),
	}
}

// Add records one file's outcome. Must not be called after Finalize.
func (r *RunReport) Add(res FileResult, needsHuman bool) {
	if r.finalized {
		panic("report: Add after Finalize")
	}
	r.PerFile = append(r.PerFile, res)
	r.TotalConflicts++
	r.StrategyTally[res.Strategy]++
	if res.Success {
		r.ResolvedCount++
	} else {
		r.FailedCount++
	}
	if needsHuman {
		r.NeedsHuman = append(r.NeedsHuman, res.Path)
	}
}

// Finalize stamps the finish time and derives the success rate. The
// rate is defined as 100 for a run with no conflicts.
func (r *RunReport) Finalize() {
	r.FinishedAt = time.Now().UTC()
	if r.TotalConflicts == 0 {
		r.SuccessRatePercent = 100
	} else {
		r.SuccessRatePercent = float64(r.ResolvedCount) / float64(r.TotalConflicts) * 100
	}
	r.finalized = true
}

// Clean reports whether every conflict was resolved with nothing left
// for a human.
func (r *RunReport) Clean() bool {
	return r.FailedCount == 0 && len(r.NeedsHuman) == 0
}

// Encode writes the report as indented JSON.
func (r *RunReport) Encode(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

// Write persists the report to a timestamped file under dir and
// returns the path.
func (r *RunReport) Write(dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create report dir: %w", err)
	}
	name := fmt.Sprintf("remerge-report-%s.json", r.StartedAt.Format("20060102-150405"))
	path := filepath.Join(dir, name)

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create report file: %w", err)
	}
	defer f.Close()

	if err := r.Encode(f); err != nil {
		return "", fmt.Errorf("encode report: %w", err)
	}
	return path, nil
}
