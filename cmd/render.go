package cmd

import (
	"fmt"

	"github.com/remerge-cli/remerge/pkg/report"
	"github.com/remerge-cli/remerge/pkg/ui"
)

// render prints the per-file table and summary for a finished run.
func render(rep *report.RunReport) {
	rows := make([]ui.Row, 0, len(rep.PerFile))
	for _, f := range rep.PerFile {
		status := ui.StatusReview
		if f.Success {
			status = ui.StatusResolved
			if rep.DryRun {
				status = ui.StatusDryRun
			}
		}
		rows = append(rows, ui.Row{File: f.Path, Strategy: f.Strategy, Status: status})
	}
	ui.ResultTable(rows)
	ui.Summary(rep.FailedCount, rep.TotalConflicts)

	if len(rep.NeedsHuman) > 0 {
		fmt.Println()
		ui.Warning("files needing manual resolution:")
		for _, path := range rep.NeedsHuman {
			ui.Step(path)
		}
	}
}
