package strategy

import (
	"fmt"
	"path/filepath"

	"github.com/remerge-cli/remerge/pkg/scanner"
)

// defaultRegenerateCommands maps lockfile basenames to the package
// manager invocation that rebuilds them.
var defaultRegenerateCommands = map[string][]string{
	"package-lock.json":   {"npm", "install", "--package-lock-only"},
	"npm-shrinkwrap.json": {"npm", "install", "--package-lock-only"},
	"yarn.lock":           {"yarn", "install", "--mode", "update-lockfile"},
	"pnpm-lock.yaml":      {"pnpm", "install", "--lockfile-only"},
	"Cargo.lock":          {"cargo", "generate-lockfile"},
	"Gemfile.lock":        {"bundle", "lock"},
	"poetry.lock":         {"poetry", "lock", "--no-update"},
	"composer.lock":       {"composer", "update", "--lock"},
	"go.sum":              {"go", "mod", "tidy"},
}

// resolvePackageLock never merges lockfile text. Lockfiles are derived
// artifacts; the strictly correct resolution is to delete the file and
// let the package manager regenerate it.
func resolvePackageLock(file *scanner.File, opts Options) Result {
	base := filepath.Base(file.Path)

	cmd, ok := opts.RegenerateCommands[base]
	if !ok {
		cmd, ok = defaultRegenerateCommands[base]
	}
	if !ok {
		return Result{
			Strategy:             PackageLock,
			Message:              fmt.Sprintf("no regenerate command known for %s", base),
			RequiresManualReview: true,
		}
	}

	return Result{
		Success:    true,
		Strategy:   PackageLock,
		Message:    fmt.Sprintf("lockfile will be regenerated via %v", cmd),
		Regenerate: cmd,
	}
}
