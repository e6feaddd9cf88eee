package resolve

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/remerge-cli/remerge/pkg/backup"
	"github.com/remerge-cli/remerge/pkg/git"
	"github.com/remerge-cli/remerge/pkg/scanner"
	"github.com/remerge-cli/remerge/pkg/strategy"
)

type fixture struct {
	root   string
	mock   *git.MockExecutor
	orch   *Orchestrator
	clock  *fakeClock
	runner *mockRunner
}

// newFixture builds an orchestrator over a temp repository containing
// the given conflicted files.
func newFixture(t *testing.T, files map[string]string, opts Options) *fixture {
	t.Helper()
	root := t.TempDir()

	var names []string
	for name, content := range files {
		path := filepath.Join(root, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
		names = append(names, name)
	}

	mock := git.NewMockExecutor()
	mock.SetResponse("diff", []byte(strings.Join(names, "\n")+"\n"), nil)

	backups, err := backup.NewManager(filepath.Join(root, ".remerge", "backups"))
	if err != nil {
		t.Fatal(err)
	}

	opts.Root = root
	if opts.MaxAttempts == 0 {
		opts.MaxAttempts = 3
	}
	if opts.Concurrency == 0 {
		opts.Concurrency = 2
	}

	orch := New(mock, backups, nil, opts)
	clock := newFakeClock()
	runner := &mockRunner{}
	orch.Clock = clock
	orch.Runner = runner

	return &fixture{root: root, mock: mock, orch: orch, clock: clock, runner: runner}
}

const jsonConflict = `<<<<<<< HEAD
{"server":{"port":8080,"tls":true}}
=======
{"server":{"port":9090}}
>>>>>>> theirs
`

func TestRunResolvesAndStages(t *testing.T) {
	f := newFixture(t, map[string]string{"config.json": jsonConflict}, Options{})

	rep, err := f.orch.Run(context.Background())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if rep.TotalConflicts != 1 || rep.ResolvedCount != 1 || rep.FailedCount != 0 {
		t.Errorf("report counts: %+v", rep)
	}
	if rep.SuccessRatePercent != 100 {
		t.Errorf("success rate: %v", rep.SuccessRatePercent)
	}
	if rep.StrategyTally["json-merge"] != 1 {
		t.Errorf("strategy tally: %v", rep.StrategyTally)
	}

	content, err := os.ReadFile(filepath.Join(f.root, "config.json"))
	if err != nil {
		t.Fatal(err)
	}
	if scanner.HasMarkers(string(content)) {
		t.Error("resolved file still has markers")
	}
	if !strings.Contains(string(content), "9090") {
		t.Errorf("theirs leaf lost:\n%s", content)
	}

	adds := f.mock.CallsTo("add")
	if len(adds) != 1 {
		t.Fatalf("expected 1 staging call, got %d", len(adds))
	}
}

func TestDryRunWritesNothing(t *testing.T) {
	f := newFixture(t, map[string]string{"config.json": jsonConflict}, Options{DryRun: true})

	rep, err := f.orch.Run(context.Background())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if !rep.DryRun || rep.ResolvedCount != 1 {
		t.Errorf("report: %+v", rep)
	}

	content, _ := os.ReadFile(filepath.Join(f.root, "config.json"))
	if string(content) != jsonConflict {
		t.Error("dry run mutated the working tree")
	}
	if len(f.mock.CallsTo("add")) != 0 {
		t.Error("dry run staged a file")
	}
}

func TestBoundedRetriesThenRollback(t *testing.T) {
	lock := "<<<<<<< HEAD\nlock a\n=======\nlock b\n>>>>>>> theirs\n"
	f := newFixture(t, map[string]string{"package-lock.json": lock}, Options{MaxAttempts: 3})
	f.runner.err = errors.New("npm install exploded")

	rep, err := f.orch.Run(context.Background())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	// exactly MaxAttempts resolving transitions, each invoking the
	// package manager once
	if len(f.runner.calls) != 3 {
		t.Errorf("expected 3 regenerate attempts, got %d", len(f.runner.calls))
	}
	// a delay between consecutive attempts, none before the first
	if len(f.clock.sleeps) != 2 {
		t.Errorf("expected 2 retry delays, got %d", len(f.clock.sleeps))
	}

	if rep.FailedCount != 1 || len(rep.NeedsHuman) != 1 {
		t.Errorf("report: %+v", rep)
	}

	// rolled back: the original conflicted content is restored
	content, err := os.ReadFile(filepath.Join(f.root, "package-lock.json"))
	if err != nil {
		t.Fatal(err)
	}
	if string(content) != lock {
		t.Errorf("rollback did not restore original:\n%q", content)
	}
}

func TestValidationFailureConsumesAllAttempts(t *testing.T) {
	// both edits are disjoint against the base so the merge succeeds,
	// but the spliced result has unbalanced parens and fails the
	// syntax check on every attempt
	code := "<<<<<<< HEAD\na = (\nb = 2\n||||||| base\na = 1\nb = 2\n=======\na = 1\nb = )\n>>>>>>> theirs\n"
	f := newFixture(t, map[string]string{"calc.js": code}, Options{MaxAttempts: 3})

	rep, err := f.orch.Run(context.Background())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if len(f.clock.sleeps) != 2 {
		t.Errorf("expected 2 retry delays for 3 attempts, got %d", len(f.clock.sleeps))
	}
	if rep.FailedCount != 1 || len(rep.NeedsHuman) != 1 {
		t.Errorf("report: %+v", rep)
	}
	if !strings.Contains(rep.PerFile[0].Message, "gave up after 3") {
		t.Errorf("message: %q", rep.PerFile[0].Message)
	}

	content, _ := os.ReadFile(filepath.Join(f.root, "calc.js"))
	if string(content) != code {
		t.Error("rollback did not restore the conflicted file")
	}
}

func TestLockfileRegeneration(t *testing.T) {
	lock := "<<<<<<< HEAD\nlock a\n=======\nlock b\n>>>>>>> theirs\n"
	f := newFixture(t, map[string]string{"package-lock.json": lock}, Options{})

	// simulate the package manager recreating the file
	f.orch.Runner = runnerFunc(func(ctx context.Context, dir string, argv []string) error {
		return os.WriteFile(filepath.Join(f.root, "package-lock.json"), []byte("{\"regenerated\":true}\n"), 0o644)
	})

	rep, err := f.orch.Run(context.Background())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if rep.ResolvedCount != 1 {
		t.Errorf("report: %+v", rep)
	}

	content, _ := os.ReadFile(filepath.Join(f.root, "package-lock.json"))
	if !strings.Contains(string(content), "regenerated") {
		t.Errorf("lockfile not regenerated: %q", content)
	}
	if len(f.mock.CallsTo("add")) != 1 {
		t.Error("regenerated lockfile not staged")
	}
}

type runnerFunc func(ctx context.Context, dir string, argv []string) error

func (f runnerFunc) Run(ctx context.Context, dir string, argv []string) error {
	return f(ctx, dir, argv)
}

func TestOverlappingCodeEscalates(t *testing.T) {
	code := "<<<<<<< HEAD\nours change\n||||||| base\noriginal\n=======\ntheirs change\n>>>>>>> theirs\n"
	f := newFixture(t, map[string]string{"main.go": code}, Options{})

	rep, err := f.orch.Run(context.Background())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if rep.ResolvedCount != 0 || len(rep.NeedsHuman) != 1 {
		t.Errorf("report: %+v", rep)
	}

	// escalation declines to guess once; no retry storm
	if len(f.clock.sleeps) != 0 {
		t.Errorf("manual-review escalation should not retry, slept %d times", len(f.clock.sleeps))
	}

	content, _ := os.ReadFile(filepath.Join(f.root, "main.go"))
	if string(content) != code {
		t.Error("escalated file was mutated")
	}
}

func TestDocumentConcatWrittenButNotStaged(t *testing.T) {
	doc := "<<<<<<< HEAD\nour wording\n=======\ntheir wording\n>>>>>>> theirs\n"
	f := newFixture(t, map[string]string{"README.md": doc}, Options{})

	rep, err := f.orch.Run(context.Background())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if len(rep.NeedsHuman) != 1 {
		t.Errorf("needsHuman: %v", rep.NeedsHuman)
	}

	content, _ := os.ReadFile(filepath.Join(f.root, "README.md"))
	if !strings.Contains(string(content), "our wording") || !strings.Contains(string(content), "their wording") {
		t.Errorf("concatenated prose not written:\n%s", content)
	}
	if scanner.HasMarkers(string(content)) {
		t.Error("markers remain in written prose")
	}
	if len(f.mock.CallsTo("add")) != 0 {
		t.Error("review-flagged file must not be staged")
	}
}

func TestSkippedFilesAreReported(t *testing.T) {
	f := newFixture(t, map[string]string{"clean.txt": "no markers here\n"}, Options{})

	rep, err := f.orch.Run(context.Background())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if rep.TotalConflicts != 1 || rep.FailedCount != 1 {
		t.Errorf("skipped file missing from report: %+v", rep)
	}
	if len(rep.NeedsHuman) != 1 || rep.NeedsHuman[0] != "clean.txt" {
		t.Errorf("needsHuman: %v", rep.NeedsHuman)
	}
}

func TestMixedRunArithmetic(t *testing.T) {
	files := map[string]string{
		"a/config.json": jsonConflict,
		"b/main.go":     "<<<<<<< HEAD\nx\n||||||| base\ny\n=======\nz\n>>>>>>> t\n",
		"c/notes.txt":   "<<<<<<< HEAD\nintro\n=======\nintro\nextra\n>>>>>>> t\n",
	}
	f := newFixture(t, files, Options{Concurrency: 3})

	rep, err := f.orch.Run(context.Background())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if rep.ResolvedCount+rep.FailedCount != rep.TotalConflicts {
		t.Errorf("arithmetic broken: %+v", rep)
	}
	if rep.TotalConflicts != 3 {
		t.Errorf("total: %d", rep.TotalConflicts)
	}
	// config.json merges, notes.txt superset-merges, main.go overlaps
	if rep.ResolvedCount != 2 || rep.FailedCount != 1 {
		t.Errorf("counts: resolved=%d failed=%d", rep.ResolvedCount, rep.FailedCount)
	}
}

func TestCancelledRunRollsBack(t *testing.T) {
	f := newFixture(t, map[string]string{"config.json": jsonConflict}, Options{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := f.orch.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}

	content, _ := os.ReadFile(filepath.Join(f.root, "config.json"))
	if string(content) != jsonConflict {
		t.Error("cancelled run left a mutation behind")
	}
}

func TestReportPersisted(t *testing.T) {
	reportDir := t.TempDir()
	f := newFixture(t, map[string]string{"config.json": jsonConflict}, Options{ReportDir: reportDir})

	if _, err := f.orch.Run(context.Background()); err != nil {
		t.Fatalf("run failed: %v", err)
	}

	entries, err := os.ReadDir(reportDir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || !strings.HasPrefix(entries[0].Name(), "remerge-report-") {
		t.Errorf("report file missing: %v", entries)
	}
}

func TestPreferOursOnOverlap(t *testing.T) {
	code := "<<<<<<< HEAD\nours change\n||||||| base\noriginal\n=======\ntheirs change\n>>>>>>> theirs\n"
	f := newFixture(t, map[string]string{"main.go": code}, Options{
		Strategy: strategy.Options{PreferOursOnOverlap: true},
	})

	rep, err := f.orch.Run(context.Background())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if rep.ResolvedCount != 1 {
		t.Errorf("report: %+v", rep)
	}
	content, _ := os.ReadFile(filepath.Join(f.root, "main.go"))
	if !strings.Contains(string(content), "ours change") || strings.Contains(string(content), "theirs change") {
		t.Errorf("ours fallback not applied:\n%s", content)
	}
	if d := rep.PerFile[0].DurationMs; d < 0 {
		t.Errorf("negative duration: %d", d)
	}
}
