package strategy

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/remerge-cli/remerge/pkg/scanner"
)

// dependencyKeys are the package.json maps merged with the
// "newer version wins" rule.
var dependencyKeys = []string{
	"dependencies",
	"devDependencies",
	"peerDependencies",
	"optionalDependencies",
}

// resolvePackageJSON performs a semantic merge of two package.json
// versions. Dependency maps are unioned with newer-wins on collision;
// script maps are unioned preferring ours; every other top-level key
// defaults to ours, falling back to theirs when ours lacks it.
func resolvePackageJSON(file *scanner.File) Result {
	sides, err := scanner.SplitSides(string(file.Content))
	if err != nil {
		return Result{Strategy: PackageJSON, Message: err.Error(), RequiresManualReview: true}
	}

	var ours, theirs map[string]any
	if err := json.Unmarshal([]byte(sides.Ours), &ours); err != nil {
		return Result{
			Strategy:             PackageJSON,
			Message:              fmt.Sprintf("ours side: %v: %v", ErrUnparseable, err),
			RequiresManualReview: true,
		}
	}
	if err := json.Unmarshal([]byte(sides.Theirs), &theirs); err != nil {
		return Result{
			Strategy:             PackageJSON,
			Message:              fmt.Sprintf("theirs side: %v: %v", ErrUnparseable, err),
			RequiresManualReview: true,
		}
	}

	merged := make(map[string]any, len(ours)+len(theirs))

	// ours wins non-dependency top-level keys; theirs fills gaps
	for k, v := range ours {
		merged[k] = v
	}
	for k, v := range theirs {
		if _, exists := merged[k]; !exists {
			merged[k] = v
		}
	}

	for _, key := range dependencyKeys {
		if deps := mergeDependencyMaps(asStringMap(ours[key]), asStringMap(theirs[key])); deps != nil {
			merged[key] = deps
		}
	}

	if scripts := mergeScriptMaps(asStringMap(ours["scripts"]), asStringMap(theirs["scripts"])); scripts != nil {
		merged["scripts"] = scripts
	}

	out, err := marshalJSONIndented(merged)
	if err != nil {
		return Result{Strategy: PackageJSON, Message: err.Error(), RequiresManualReview: true}
	}

	return Result{
		Success:       true,
		Strategy:      PackageJSON,
		MergedContent: out,
		Message:       "manifest merged: dependencies unioned, newer versions kept",
	}
}

// mergeDependencyMaps unions two name->version maps. On collision the
// newer version string wins.
func mergeDependencyMaps(ours, theirs map[string]string) map[string]string {
	if ours == nil && theirs == nil {
		return nil
	}
	merged := make(map[string]string, len(ours)+len(theirs))
	for name, v := range ours {
		merged[name] = v
	}
	for name, theirV := range theirs {
		ourV, exists := merged[name]
		if !exists || compareVersions(theirV, ourV) > 0 {
			merged[name] = theirV
		}
	}
	return merged
}

// mergeScriptMaps unions two script maps, preferring ours on collision.
func mergeScriptMaps(ours, theirs map[string]string) map[string]string {
	if ours == nil && theirs == nil {
		return nil
	}
	merged := make(map[string]string, len(ours)+len(theirs))
	for name, v := range theirs {
		merged[name] = v
	}
	for name, v := range ours {
		merged[name] = v
	}
	return merged
}

func asStringMap(v any) map[string]string {
	m, ok := v.(map[string]any)
	if !ok {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, val := range m {
		if s, ok := val.(string); ok {
			out[k] = s
		}
	}
	return out
}

// marshalJSONIndented renders JSON with two-space indentation and a
// trailing newline, without HTML escaping.
func marshalJSONIndented(v any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	return buf.String(), nil
}
