package strategy

import (
	"encoding/json"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/remerge-cli/remerge/pkg/scanner"
)

// resolveIntelligent is the fallback for files with no recognized type.
// It retries the structural merges when the content parses as JSON or
// YAML, then the code heuristic, and escalates when nothing applies.
func resolveIntelligent(file *scanner.File, opts Options) Result {
	sides, err := scanner.SplitSides(string(file.Content))
	if err != nil {
		return Result{Strategy: IntelligentMerge, Message: err.Error(), RequiresManualReview: true}
	}

	if parsesAsJSON(sides.Ours) && parsesAsJSON(sides.Theirs) {
		res := resolveJSON(file)
		res.Strategy = IntelligentMerge
		if res.Success {
			res.Message = "content recognized as JSON: " + res.Message
			return res
		}
	}

	if parsesAsYAMLDocument(sides.Ours) && parsesAsYAMLDocument(sides.Theirs) {
		res := resolveYAML(file)
		res.Strategy = IntelligentMerge
		if res.Success {
			res.Message = "content recognized as YAML: " + res.Message
			return res
		}
	}

	// The code heuristic is format-agnostic; escalation happens below
	// rather than through its prefer-ours option.
	codeOpts := opts
	codeOpts.PreferOursOnOverlap = false
	res := resolveCode(file, codeOpts)
	if res.Success {
		res.Strategy = IntelligentMerge
		res.Message = "line-range heuristic: " + res.Message
		return res
	}

	return Result{
		Strategy:             IntelligentMerge,
		Message:              "no applicable merge strategy, deferring to a human",
		RequiresManualReview: true,
	}
}

func parsesAsJSON(content string) bool {
	var v any
	return json.Unmarshal([]byte(content), &v) == nil && strings.TrimSpace(content) != ""
}

// parsesAsYAMLDocument accepts only structured YAML. Nearly any text
// parses as a YAML scalar, which would make the check meaningless.
func parsesAsYAMLDocument(content string) bool {
	var v any
	if err := yaml.Unmarshal([]byte(content), &v); err != nil {
		return false
	}
	switch v.(type) {
	case map[string]any, map[any]any, []any:
		return true
	default:
		return false
	}
}
