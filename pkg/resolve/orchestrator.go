// Package resolve drives the per-file resolution pipeline: scan,
// backup, resolve, validate, stage or roll back, then aggregate a run
// report.
package resolve

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"golang.org/x/sync/errgroup"

	"github.com/remerge-cli/remerge/pkg/backup"
	"github.com/remerge-cli/remerge/pkg/git"
	"github.com/remerge-cli/remerge/pkg/logging"
	"github.com/remerge-cli/remerge/pkg/notify"
	"github.com/remerge-cli/remerge/pkg/report"
	"github.com/remerge-cli/remerge/pkg/scanner"
	"github.com/remerge-cli/remerge/pkg/strategy"
)

// Options configures one run.
type Options struct {
	Root           string // repository root
	DryRun         bool
	MaxAttempts    int
	Concurrency    int
	RetryDelay     time.Duration
	CommandTimeout time.Duration
	ReportDir      string
	NotifyChannel  string

	Strategy strategy.Options
}

// Orchestrator owns a run. The git index and the backup directory are
// the only shared mutable resources: index updates are serialized here,
// and the backup directory is touched only through the backup manager.
type Orchestrator struct {
	exec     git.Executor
	backups  *backup.Manager
	notifier notify.Notifier
	opts     Options

	// Clock and Runner are replaceable for tests.
	Clock  Clock
	Runner CommandRunner

	stageMu   sync.Mutex
	indexLock *flock.Flock
}

// New creates an orchestrator. notifier may be nil.
func New(exec git.Executor, backups *backup.Manager, notifier notify.Notifier, opts Options) *Orchestrator {
	if opts.MaxAttempts < 1 {
		opts.MaxAttempts = 3
	}
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	if opts.RetryDelay == 0 {
		opts.RetryDelay = 500 * time.Millisecond
	}
	return &Orchestrator{
		exec:     exec,
		backups:  backups,
		notifier: notifier,
		opts:     opts,
		Clock:    realClock{},
		Runner:   execRunner{timeout: opts.CommandTimeout},
		// advisory cross-process lock next to the run dirs, since
		// concurrent index updates are unsafe even across resolvers
		indexLock: flock.New(filepath.Join(filepath.Dir(backups.Dir()), "index.lock")),
	}
}

// Run scans for conflicts, fans out per-file pipelines bounded by the
// concurrency limit, joins on all of them, and finalizes the report.
// The returned error is reserved for run-aborting failures; per-file
// problems live in the report.
func (o *Orchestrator) Run(ctx context.Context) (*report.RunReport, error) {
	rep := report.New(o.backups.RunID())
	rep.DryRun = o.opts.DryRun

	files, skipped, err := scanner.Scan(ctx, o.exec, o.opts.Root)
	if err != nil {
		return nil, fmt.Errorf("scan: %w", err)
	}

	for _, s := range skipped {
		rep.Add(report.FileResult{
			Path:     s.Path,
			Success:  false,
			Strategy: strategy.Select(s.Path).String(),
			Message:  s.Reason,
		}, true)
	}

	outcomes := make([]outcome, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.opts.Concurrency)

	for i, file := range files {
		i, file := i, file
		g.Go(func() error {
			outcomes[i] = o.pipeline(gctx, file)
			return nil
		})
	}

	// join barrier: the report cannot finalize before the slowest
	// pipeline reaches a terminal state
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		// pipelines have rolled back; surface the cancellation
		return nil, err
	}

	for _, out := range outcomes {
		rep.Add(report.FileResult{
			Path:       out.path,
			Success:    out.success,
			Strategy:   out.strategy.String(),
			Message:    out.message,
			DurationMs: out.duration.Milliseconds(),
		}, out.needsHuman)
	}
	rep.Finalize()

	if o.opts.ReportDir != "" {
		path, err := rep.Write(o.opts.ReportDir)
		if err != nil {
			return rep, fmt.Errorf("persist report: %w", err)
		}
		logging.Info("report written", "path", path)
	}

	notify.Send(ctx, o.notifier, o.opts.NotifyChannel, rep)
	return rep, nil
}

// stage adds path to the index under both the in-process mutex and the
// cross-process advisory lock.
func (o *Orchestrator) stage(ctx context.Context, path string) error {
	o.stageMu.Lock()
	defer o.stageMu.Unlock()

	if err := o.indexLock.Lock(); err != nil {
		return fmt.Errorf("acquire index lock: %w", err)
	}
	defer o.indexLock.Unlock()

	return git.StageFile(ctx, o.exec, path)
}
