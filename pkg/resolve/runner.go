package resolve

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"
)

// ErrCommandTimeout indicates an external command (package-manager
// install) exceeded its budget. Treated as a failed attempt, never a
// crash.
var ErrCommandTimeout = errors.New("command timed out")

// CommandRunner executes external package-manager commands for
// lockfile regeneration.
type CommandRunner interface {
	Run(ctx context.Context, dir string, argv []string) error
}

// execRunner runs commands with exec.CommandContext under a timeout.
type execRunner struct {
	timeout time.Duration
}

func (r execRunner) Run(ctx context.Context, dir string, argv []string) error {
	if len(argv) == 0 {
		return errors.New("empty command")
	}
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("%w: %v", ErrCommandTimeout, argv)
		}
		return fmt.Errorf("%v: %w (output: %s)", argv, err, truncate(out, 400))
	}
	return nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}

// mockRunner records invocations for tests.
type mockRunner struct {
	calls [][]string
	err   error
}

func (m *mockRunner) Run(ctx context.Context, dir string, argv []string) error {
	m.calls = append(m.calls, argv)
	return m.err
}
