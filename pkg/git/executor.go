// Package git provides an abstraction layer for executing git commands
// with support for timeouts, context cancellation, and testing.
package git

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"time"
)

// DefaultTimeout is the default timeout for git operations.
const DefaultTimeout = 30 * time.Second

// Executor defines the interface for running git commands.
// This abstraction allows for testing and timeout support.
type Executor interface {
	// Run executes a git command and discards stdout/stderr.
	Run(ctx context.Context, args ...string) error

	// Output executes a git command and returns stdout.
	Output(ctx context.Context, args ...string) ([]byte, error)

	// RunWithStdio executes a git command with stdin/stdout/stderr
	// connected to the current process.
	RunWithStdio(ctx context.Context, args ...string) error
}

// DefaultExecutor implements Executor using exec.CommandContext.
type DefaultExecutor struct {
	Timeout time.Duration

	// Dir is the working directory for git commands. Empty means the
	// current directory.
	Dir string
}

// NewDefaultExecutor creates a DefaultExecutor with the default timeout.
func NewDefaultExecutor() *DefaultExecutor {
	return &DefaultExecutor{Timeout: DefaultTimeout}
}

// NewExecutorWithTimeout creates a DefaultExecutor with a custom timeout.
func NewExecutorWithTimeout(timeout time.Duration) *DefaultExecutor {
	return &DefaultExecutor{Timeout: timeout}
}

// Run executes a git command and discards stdout/stderr.
func (e *DefaultExecutor) Run(ctx context.Context, args ...string) error {
	ctx, cancel := e.contextWithTimeout(ctx)
	defer cancel()

	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = e.Dir
	return cmd.Run()
}

// Output executes a git command and returns stdout.
func (e *DefaultExecutor) Output(ctx context.Context, args ...string) ([]byte, error) {
	ctx, cancel := e.contextWithTimeout(ctx)
	defer cancel()

	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = e.Dir
	return cmd.Output()
}

// RunWithStdio executes a git command with stdin/stdout/stderr connected.
func (e *DefaultExecutor) RunWithStdio(ctx context.Context, args ...string) error {
	ctx, cancel := e.contextWithTimeout(ctx)
	defer cancel()

	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = e.Dir
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Stdin = os.Stdin
	return cmd.Run()
}

// contextWithTimeout applies the executor's timeout to ctx. A shorter
// deadline already present on ctx is preserved.
func (e *DefaultExecutor) contextWithTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if e.Timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, e.Timeout)
}

// IsTimeoutError checks if an error is due to context deadline exceeded.
func IsTimeoutError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ProcessState != nil && exitErr.ProcessState.ExitCode() == -1
	}
	return false
}
