package resolve

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/remerge-cli/remerge/pkg/backup"
	"github.com/remerge-cli/remerge/pkg/logging"
	"github.com/remerge-cli/remerge/pkg/scanner"
	"github.com/remerge-cli/remerge/pkg/strategy"
	"github.com/remerge-cli/remerge/pkg/validate"
)

// outcome is one pipeline's terminal result.
type outcome struct {
	path       string
	success    bool
	strategy   strategy.Strategy
	message    string
	needsHuman bool
	duration   time.Duration
}

// pipeline runs one file through detection to a terminal state. All
// errors are recovered into the outcome; only the report surfaces them.
func (o *Orchestrator) pipeline(ctx context.Context, file *scanner.File) outcome {
	start := o.Clock.Now()
	strat := strategy.Select(file.Path)
	abs := filepath.Join(o.opts.Root, file.Path)
	status := StatusDetected
	mutated := false

	var rec backup.Record
	log := logging.With("path", file.Path, "strategy", strat.String())

	done := func(success, needsHuman bool, msg string) outcome {
		log.Debug("pipeline finished", "status", status.String(), "success", success)
		return outcome{
			path:       file.Path,
			success:    success,
			strategy:   strat,
			message:    msg,
			needsHuman: needsHuman,
			duration:   o.Clock.Now().Sub(start),
		}
	}

	rollback := func() {
		if !mutated {
			status = StatusRolledBack
			return
		}
		if err := o.backups.Restore(rec); err != nil {
			// the snapshot still exists on disk for manual recovery
			log.Error("rollback failed", "error", err)
		}
		status = StatusRolledBack
	}

	if !o.opts.DryRun {
		var err error
		rec, err = o.backups.Backup(abs)
		if err != nil {
			// fail closed: without a confirmed snapshot this file must
			// not be touched
			return done(false, true, err.Error())
		}
	}
	status = StatusBackedUp

	// a cancellation mid-mutation must not leave a partial write behind
	defer func() {
		if ctx.Err() != nil && !status.Terminal() {
			rollback()
		}
	}()

	var lastMsg string
	for attempt := 1; attempt <= o.opts.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			rollback()
			return done(false, true, "run cancelled")
		}
		if attempt > 1 {
			o.Clock.Sleep(ctx, o.opts.RetryDelay)
		}

		status = StatusResolving
		res := strategy.Resolve(file, strat, o.opts.Strategy)

		if !res.Success {
			status = StatusFailed
			lastMsg = res.Message
			if res.RequiresManualReview {
				// the resolver declined to guess; retrying the same
				// pure function cannot change its mind
				rollback()
				return done(false, true, res.Message)
			}
			log.Debug("resolve attempt failed", "attempt", attempt, "message", res.Message)
			continue
		}
		status = StatusResolved

		if len(res.Regenerate) > 0 {
			msg, err := o.regenerate(ctx, file.Path, abs, res, &mutated)
			if err != nil {
				status = StatusFailed
				lastMsg = err.Error()
				log.Warn("regeneration failed", "attempt", attempt, "error", err)
				continue
			}
			status = StatusValidated
			return done(true, false, msg)
		}

		if err := validate.Validate(file.Path, res.MergedContent, strat); err != nil {
			// content discarded, retry re-enters Resolving
			status = StatusFailed
			lastMsg = err.Error()
			log.Warn("validation rejected content", "attempt", attempt, "error", err)
			continue
		}

		if res.RequiresManualReview {
			// merged content is written so the human sees the
			// delimited result, but it is never staged
			if !o.opts.DryRun {
				if err := writeFileAtomic(abs, []byte(res.MergedContent)); err != nil {
					status = StatusFailed
					lastMsg = err.Error()
					continue
				}
				mutated = true
			}
			return done(false, true, res.Message)
		}

		if o.opts.DryRun {
			status = StatusValidated
			return done(true, false, res.Message+" (dry-run, not written)")
		}

		if err := writeFileAtomic(abs, []byte(res.MergedContent)); err != nil {
			status = StatusFailed
			lastMsg = err.Error()
			continue
		}
		mutated = true

		if err := o.stage(ctx, file.Path); err != nil {
			status = StatusFailed
			lastMsg = err.Error()
			log.Warn("staging failed", "attempt", attempt, "error", err)
			continue
		}

		status = StatusValidated
		return done(true, false, res.Message)
	}

	// attempts exhausted
	if !o.opts.DryRun {
		rollback()
	} else {
		status = StatusRolledBack
	}
	return done(false, true, fmt.Sprintf("gave up after %d attempt(s): %s", o.opts.MaxAttempts, lastMsg))
}

// regenerate deletes a lockfile and reruns the package manager, then
// stages the rebuilt file.
func (o *Orchestrator) regenerate(ctx context.Context, relPath, absPath string, res strategy.Result, mutated *bool) (string, error) {
	if o.opts.DryRun {
		return res.Message + " (dry-run, not executed)", nil
	}

	// a retry may find the lockfile already gone from a prior attempt
	if err := os.Remove(absPath); err != nil && !os.IsNotExist(err) {
		return "", fmt.Errorf("delete lockfile: %w", err)
	}
	*mutated = true

	if err := o.Runner.Run(ctx, o.opts.Root, res.Regenerate); err != nil {
		return "", err
	}

	content, err := os.ReadFile(absPath)
	if err != nil {
		return "", fmt.Errorf("lockfile not regenerated: %w", err)
	}
	if scanner.HasMarkers(string(content)) {
		return "", fmt.Errorf("regenerated lockfile still contains markers")
	}

	if err := o.stage(ctx, relPath); err != nil {
		return "", err
	}
	return res.Message, nil
}

// writeFileAtomic writes content via a temp file and rename in the
// target directory.
func writeFileAtomic(path string, content []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".remerge-*")
	if err != nil {
		return fmt.Errorf("create temp in %s: %w", dir, err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("rename over %s: %w", path, err)
	}
	return nil
}
