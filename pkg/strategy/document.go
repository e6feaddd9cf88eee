package strategy

import (
	"github.com/remerge-cli/remerge/pkg/scanner"
)

// resolveDocument merges prose by concatenation with deduplication.
// When one side's lines appear in order within the other, the superset
// wins outright. Otherwise both blocks are kept under delimited
// headers and a human confirms the result.
func resolveDocument(file *scanner.File) Result {
	merged := make([][]string, len(file.Sections))
	needsReview := false

	for i, section := range file.Sections {
		switch {
		case isLineSubsequence(section.OursLines, section.TheirsLines):
			merged[i] = section.TheirsLines
		case isLineSubsequence(section.TheirsLines, section.OursLines):
			merged[i] = section.OursLines
		default:
			needsReview = true
			block := make([]string, 0, len(section.OursLines)+len(section.TheirsLines)+4)
			block = append(block, "--- version A ("+labelOr(section.OursLabel, "ours")+") ---")
			block = append(block, section.OursLines...)
			block = append(block, "--- version B ("+labelOr(section.TheirsLabel, "theirs")+") ---")
			block = append(block, section.TheirsLines...)
			block = append(block, "--- end of merged versions ---")
			merged[i] = block
		}
	}

	msg := "prose merged by superset selection"
	if needsReview {
		msg = "divergent prose kept under delimited headers, confirm manually"
	}

	return Result{
		Success:              true,
		Strategy:             DocumentMerge,
		MergedContent:        spliceSections(string(file.Content), file.Sections, merged),
		Message:              msg,
		RequiresManualReview: needsReview,
	}
}

// isLineSubsequence reports whether sub's lines all appear within super
// in the same relative order.
func isLineSubsequence(sub, super []string) bool {
	if len(sub) > len(super) {
		return false
	}
	i := 0
	for _, line := range super {
		if i < len(sub) && sub[i] == line {
			i++
		}
	}
	return i == len(sub)
}

func labelOr(label, fallback string) string {
	if label != "" {
		return label
	}
	return fallback
}
