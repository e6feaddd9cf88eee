package report

import (
	"bytes"
	"encoding/json"
	"os"
	"testing"
)

func TestReportArithmetic(t *testing.T) {
	r := New("run-1")
	r.Add(FileResult{Path: "a.json", Success: true, Strategy: "json-merge"}, false)
	r.Add(FileResult{Path: "b.go", Success: false, Strategy: "code-merge"}, true)
	r.Add(FileResult{Path: "c.yaml", Success: true, Strategy: "yaml-merge"}, false)
	r.Add(FileResult{Path: "d.md", Success: true, Strategy: "document-merge"}, true)
	r.Finalize()

	if r.ResolvedCount+r.FailedCount != r.TotalConflicts {
		t.Errorf("resolved %d + failed %d != total %d", r.ResolvedCount, r.FailedCount, r.TotalConflicts)
	}
	if r.TotalConflicts != 4 || r.ResolvedCount != 3 || r.FailedCount != 1 {
		t.Errorf("counts wrong: %+v", r)
	}
	if r.SuccessRatePercent != 75 {
		t.Errorf("success rate: %v", r.SuccessRatePercent)
	}
	if len(r.NeedsHuman) != 2 {
		t.Errorf("needsHuman: %v", r.NeedsHuman)
	}
	if r.Clean() {
		t.Error("run with failures and review items is not clean")
	}
	if r.FinishedAt.Before(r.StartedAt) {
		t.Error("finishedAt before startedAt")
	}
}

func TestEmptyRunIsOneHundredPercent(t *testing.T) {
	r := New("run-2")
	r.Finalize()
	if r.SuccessRatePercent != 100 {
		t.Errorf("empty run rate: %v", r.SuccessRatePercent)
	}
	if !r.Clean() {
		t.Error("empty run should be clean")
	}
}

func TestJSONFieldNames(t *testing.T) {
	r := New("run-3")
	r.Add(FileResult{Path: "x.json", Success: true, Strategy: "json-merge", Message: "ok", DurationMs: 12}, false)
	r.Finalize()

	var buf bytes.Buffer
	if err := r.Encode(&buf); err != nil {
		t.Fatal(err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatal(err)
	}

	for _, field := range []string{
		"startedAt", "finishedAt", "totalConflicts", "resolvedCount",
		"failedCount", "strategyTally", "perFile", "successRatePercent",
		"needsHuman",
	} {
		if _, ok := decoded[field]; !ok {
			t.Errorf("missing field %q", field)
		}
	}

	perFile := decoded["perFile"].([]any)[0].(map[string]any)
	for _, field := range []string{"path", "success", "strategy", "message", "durationMs"} {
		if _, ok := perFile[field]; !ok {
			t.Errorf("missing perFile field %q", field)
		}
	}
}

func TestWrite(t *testing.T) {
	r := New("run-4")
	r.Finalize()

	dir := t.TempDir()
	path, err := r.Write(dir)
	if err != nil {
		t.Fatalf("write failed: %v", err)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(content, &decoded); err != nil {
		t.Errorf("persisted report is not JSON: %v", err)
	}
	if decoded["runId"] != "run-4" {
		t.Errorf("runId: %v", decoded["runId"])
	}
}
