package strategy

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/remerge-cli/remerge/pkg/scanner"
)

// resolveJSON deep-merges the ours and theirs sides as generic JSON
// values. Theirs takes priority on irreconcilable leaf conflicts; this
// is the documented leaf tie-break rule and mirrors the manifest
// strategy's asymmetry.
func resolveJSON(file *scanner.File) Result {
	sides, err := scanner.SplitSides(string(file.Content))
	if err != nil {
		return Result{Strategy: JSONMerge, Message: err.Error(), RequiresManualReview: true}
	}

	var ours, theirs any
	if err := json.Unmarshal([]byte(sides.Ours), &ours); err != nil {
		return Result{
			Strategy:             JSONMerge,
			Message:              fmt.Sprintf("ours side: %v: %v", ErrUnparseable, err),
			RequiresManualReview: true,
		}
	}
	if err := json.Unmarshal([]byte(sides.Theirs), &theirs); err != nil {
		return Result{
			Strategy:             JSONMerge,
			Message:              fmt.Sprintf("theirs side: %v: %v", ErrUnparseable, err),
			RequiresManualReview: true,
		}
	}

	out, err := marshalJSONIndented(deepMerge(ours, theirs))
	if err != nil {
		return Result{Strategy: JSONMerge, Message: err.Error(), RequiresManualReview: true}
	}

	return Result{
		Success:       true,
		Strategy:      JSONMerge,
		MergedContent: out,
		Message:       "structural merge, theirs preferred on leaf conflicts",
	}
}

// resolveYAML applies the same deep-merge semantics as resolveJSON
// after parsing both sides as YAML. The result is re-serialized with
// stable (sorted) key order.
func resolveYAML(file *scanner.File) Result {
	sides, err := scanner.SplitSides(string(file.Content))
	if err != nil {
		return Result{Strategy: YAMLMerge, Message: err.Error(), RequiresManualReview: true}
	}

	var ours, theirs any
	if err := yaml.Unmarshal([]byte(sides.Ours), &ours); err != nil {
		return Result{
			Strategy:             YAMLMerge,
			Message:              fmt.Sprintf("ours side: %v: %v", ErrUnparseable, err),
			RequiresManualReview: true,
		}
	}
	if err := yaml.Unmarshal([]byte(sides.Theirs), &theirs); err != nil {
		return Result{
			Strategy:             YAMLMerge,
			Message:              fmt.Sprintf("theirs side: %v: %v", ErrUnparseable, err),
			RequiresManualReview: true,
		}
	}

	out, err := yaml.Marshal(deepMerge(normalizeYAML(ours), normalizeYAML(theirs)))
	if err != nil {
		return Result{Strategy: YAMLMerge, Message: err.Error(), RequiresManualReview: true}
	}

	return Result{
		Success:       true,
		Strategy:      YAMLMerge,
		MergedContent: string(out),
		Message:       "structural merge, theirs preferred on leaf conflicts",
	}
}

// deepMerge merges two generic structures. Objects sharing a key
// recurse when both values are objects; otherwise theirs wins. Arrays
// are never merged element-wise: theirs wins whole-array.
func deepMerge(ours, theirs any) any {
	ourMap, ourOK := ours.(map[string]any)
	theirMap, theirOK := theirs.(map[string]any)
	if !ourOK || !theirOK {
		return theirs
	}

	merged := make(map[string]any, len(ourMap)+len(theirMap))
	for k, v := range ourMap {
		merged[k] = v
	}
	for k, theirV := range theirMap {
		if ourV, exists := merged[k]; exists {
			merged[k] = deepMerge(ourV, theirV)
		} else {
			merged[k] = theirV
		}
	}
	return merged
}

// normalizeYAML converts yaml.v3's map[any]any-style decodings into
// map[string]any so deepMerge sees one map shape.
func normalizeYAML(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, v := range val {
			out[k] = normalizeYAML(v)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(val))
		for k, v := range val {
			out[fmt.Sprint(k)] = normalizeYAML(v)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, v := range val {
			out[i] = normalizeYAML(v)
		}
		return out
	default:
		return v
	}
}
