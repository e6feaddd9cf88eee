package git

import (
	"context"
	"fmt"
	"strings"
)

// Index stages for a path during an unresolved merge, as understood by
// `git show :<stage>:<path>`.
const (
	StageBase   = 1
	StageOurs   = 2
	StageTheirs = 3
)

// IsRepo reports whether the executor's working directory is inside a
// git repository.
func IsRepo(ctx context.Context, e Executor) bool {
	return e.Run(ctx, "rev-parse", "--git-dir") == nil
}

// RepoRoot returns the top-level directory of the repository.
func RepoRoot(ctx context.Context, e Executor) (string, error) {
	out, err := e.Output(ctx, "rev-parse", "--show-toplevel")
	if err != nil {
		return "", fmt.Errorf("rev-parse --show-toplevel: %w", err)
	}
	return strings.TrimSpace(string(out)), nil
}

// ListUnmergedFiles returns the repository-relative paths currently in
// an unmerged state.
func ListUnmergedFiles(ctx context.Context, e Executor) ([]string, error) {
	out, err := e.Output(ctx, "diff", "--name-only", "--diff-filter=U")
	if err != nil {
		return nil, fmt.Errorf("list unmerged files: %w", err)
	}

	var files []string
	for _, line := range strings.Split(strings.TrimSpace(string(out)), "\n") {
		if line != "" {
			files = append(files, line)
		}
	}
	return files, nil
}

// ShowStage returns the content of path at the given index stage.
// During a merge, stage 1 is the common ancestor, 2 is ours, 3 is theirs.
func ShowStage(ctx context.Context, e Executor, path string, stage int) ([]byte, error) {
	out, err := e.Output(ctx, "show", fmt.Sprintf(":%d:%s", stage, path))
	if err != nil {
		return nil, fmt.Errorf("show stage %d of %s: %w", stage, path, err)
	}
	return out, nil
}

// StageFile adds path to the index. Callers are responsible for
// serializing concurrent index updates.
func StageFile(ctx context.Context, e Executor, path string) error {
	if err := e.Run(ctx, "add", "--", path); err != nil {
		return fmt.Errorf("stage %s: %w", path, err)
	}
	return nil
}

// RemoveFile removes path from the working tree and the index. Used for
// lockfiles that are regenerated rather than merged.
func RemoveFile(ctx context.Context, e Executor, path string) error {
	if err := e.Run(ctx, "rm", "-f", "--", path); err != nil {
		return fmt.Errorf("remove %s: %w", path, err)
	}
	return nil
}
