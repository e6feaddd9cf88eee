// Package strategy maps conflicted files to resolution strategies and
// computes merged content. Resolvers are pure: they never touch the
// filesystem, which keeps them unit-testable in isolation.
package strategy

import (
	"errors"
	"path/filepath"
	"strings"

	"github.com/remerge-cli/remerge/pkg/scanner"
)

// ErrUnparseable indicates a resolver-internal failure, such as broken
// JSON in a file nominally tagged .json.
var ErrUnparseable = errors.New("content does not parse")

// Strategy identifies the resolution algorithm for a file.
type Strategy int

const (
	PackageLock Strategy = iota
	PackageJSON
	JSONMerge
	YAMLMerge
	CodeMerge
	DocumentMerge
	IntelligentMerge
)

// All lists every strategy, in selector precedence order.
var All = []Strategy{
	PackageLock, PackageJSON, JSONMerge, YAMLMerge,
	CodeMerge, DocumentMerge, IntelligentMerge,
}

func (s Strategy) String() string {
	switch s {
	case PackageLock:
		return "package-lock"
	case PackageJSON:
		return "package-json"
	case JSONMerge:
		return "json-merge"
	case YAMLMerge:
		return "yaml-merge"
	case CodeMerge:
		return "code-merge"
	case DocumentMerge:
		return "document-merge"
	case IntelligentMerge:
		return "intelligent-merge"
	default:
		return "unknown"
	}
}

// lockfileNames are derived artifacts: never merged textually, always
// regenerated by the package manager.
var lockfileNames = map[string]bool{
	"package-lock.json":  true,
	"npm-shrinkwrap.json": true,
	"yarn.lock":          true,
	"pnpm-lock.yaml":     true,
	"Cargo.lock":         true,
	"Gemfile.lock":       true,
	"poetry.lock":        true,
	"composer.lock":      true,
	"go.sum":             true,
}

// codeExtensions are source files handled by the line-range heuristic.
var codeExtensions = map[string]bool{
	".js": true, ".jsx": true, ".mjs": true, ".cjs": true,
	".ts": true, ".tsx": true,
	".go": true, ".py": true, ".rs": true, ".java": true,
	".c": true, ".h": true, ".cpp": true, ".hpp": true,
	".rb": true, ".php": true, ".cs": true, ".swift": true, ".kt": true,
}

// documentExtensions are prose files merged by concatenation.
var documentExtensions = map[string]bool{
	".md": true, ".rst": true, ".txt": true,
}

// Select maps a path to its resolution strategy. Pure and
// deterministic: same path in, same strategy out, no I/O.
func Select(path string) Strategy {
	base := filepath.Base(path)
	if lockfileNames[base] {
		return PackageLock
	}
	if base == "package.json" {
		return PackageJSON
	}

	switch ext := strings.ToLower(filepath.Ext(base)); {
	case ext == ".json":
		return JSONMerge
	case ext == ".yml" || ext == ".yaml":
		return YAMLMerge
	case codeExtensions[ext]:
		return CodeMerge
	case documentExtensions[ext]:
		return DocumentMerge
	default:
		return IntelligentMerge
	}
}

// Result is the outcome of one resolution attempt. Produced fresh per
// attempt and never mutated afterwards.
type Result struct {
	Success              bool
	MergedContent        string
	Strategy             Strategy
	Message              string
	RequiresManualReview bool

	// Regenerate, when non-empty, instructs the orchestrator to delete
	// the file and run this command instead of writing MergedContent.
	// Only PackageLock produces it.
	Regenerate []string
}

// Options tunes resolver behavior.
type Options struct {
	// PreferOursOnOverlap makes CodeMerge fall back to "ours" when
	// hunks overlap instead of escalating. Default off.
	PreferOursOnOverlap bool

	// RegenerateCommands overrides the package-manager command per
	// lockfile basename.
	RegenerateCommands map[string][]string
}

// Resolve dispatches file to the resolver for its strategy. The switch
// is exhaustive over the closed Strategy enum.
func Resolve(file *scanner.File, strat Strategy, opts Options) Result {
	switch strat {
	case PackageLock:
		return resolvePackageLock(file, opts)
	case PackageJSON:
		return resolvePackageJSON(file)
	case JSONMerge:
		return resolveJSON(file)
	case YAMLMerge:
		return resolveYAML(file)
	case CodeMerge:
		return resolveCode(file, opts)
	case DocumentMerge:
		return resolveDocument(file)
	case IntelligentMerge:
		return resolveIntelligent(file, opts)
	default:
		return Result{
			Strategy:             strat,
			Message:              "unknown strategy",
			RequiresManualReview: true,
		}
	}
}

// spliceSections rebuilds file content with each conflict block
// replaced by its merged lines. merged must be parallel to sections.
func spliceSections(content string, sections []scanner.Section, merged [][]string) string {
	lines := strings.Split(content, "\n")
	var out []string
	next := 0
	i := 0
	for i < len(lines) {
		if next < len(sections) && i+1 == sections[next].StartLine {
			out = append(out, merged[next]...)
			i = sections[next].EndLine
			next++
			continue
		}
		out = append(out, lines[i])
		i++
	}
	return strings.Join(out, "\n")
}
