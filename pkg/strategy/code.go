package strategy

import (
	"fmt"

	"github.com/remerge-cli/remerge/pkg/scanner"
)

// resolveCode merges source files with a line-range heuristic. Per
// section: a side that matches the common ancestor yields to the other
// side, and edits provably touching disjoint line ranges of the
// ancestor are both kept in ancestor order. Overlapping edits cannot be
// proven safe, so the default is to escalate.
func resolveCode(file *scanner.File, opts Options) Result {
	merged := make([][]string, len(file.Sections))
	overlaps := 0

	for i, section := range file.Sections {
		lines, ok := mergeCodeSection(section)
		if !ok {
			if !opts.PreferOursOnOverlap {
				return Result{
					Strategy: CodeMerge,
					Message: fmt.Sprintf("overlapping hunks at lines %d-%d cannot be proven disjoint",
						section.StartLine, section.EndLine),
					RequiresManualReview: true,
				}
			}
			lines = section.OursLines
			overlaps++
		}
		merged[i] = lines
	}

	msg := "hunks merged by line-range analysis"
	if overlaps > 0 {
		msg = fmt.Sprintf("%d overlapping hunk(s) resolved as ours by configuration", overlaps)
	}

	return Result{
		Success:       true,
		Strategy:      CodeMerge,
		MergedContent: spliceSections(string(file.Content), file.Sections, merged),
		Message:       msg,
	}
}

// mergeCodeSection computes merged lines for one section, or reports
// that the hunks overlap.
func mergeCodeSection(s scanner.Section) ([]string, bool) {
	if equalLines(s.OursLines, s.TheirsLines) {
		return s.OursLines, true
	}

	if !s.HasBase() {
		// Without an ancestor, one empty side means the other side is
		// a pure insertion and can be kept whole.
		if len(s.OursLines) == 0 {
			return s.TheirsLines, true
		}
		if len(s.TheirsLines) == 0 {
			return s.OursLines, true
		}
		return nil, false
	}

	if equalLines(s.OursLines, s.BaseLines) {
		return s.TheirsLines, true
	}
	if equalLines(s.TheirsLines, s.BaseLines) {
		return s.OursLines, true
	}

	return mergeDisjointEdits(s.BaseLines, s.OursLines, s.TheirsLines)
}

// mergeDisjointEdits reconstructs both edits against the ancestor. Each
// side's change is located by trimming the common prefix and suffix
// against the base; if the two changed base ranges do not intersect,
// both edits are applied in base order.
func mergeDisjointEdits(base, ours, theirs []string) ([]string, bool) {
	oursStart, oursEnd, oursMid := editRegion(base, ours)
	theirsStart, theirsEnd, theirsMid := editRegion(base, theirs)

	var first, second struct {
		start, end int
		mid        []string
	}
	switch {
	case oursEnd <= theirsStart:
		first.start, first.end, first.mid = oursStart, oursEnd, oursMid
		second.start, second.end, second.mid = theirsStart, theirsEnd, theirsMid
	case theirsEnd <= oursStart:
		first.start, first.end, first.mid = theirsStart, theirsEnd, theirsMid
		second.start, second.end, second.mid = oursStart, oursEnd, oursMid
	default:
		return nil, false
	}

	var out []string
	out = append(out, base[:first.start]...)
	out = append(out, first.mid...)
	out = append(out, base[first.end:second.start]...)
	out = append(out, second.mid...)
	out = append(out, base[second.end:]...)
	return out, true
}

// editRegion returns the half-open range [start, end) of base lines
// replaced by side, along with side's replacement lines.
func editRegion(base, side []string) (start, end int, mid []string) {
	prefix := 0
	for prefix < len(base) && prefix < len(side) && base[prefix] == side[prefix] {
		prefix++
	}
	suffix := 0
	for suffix < len(base)-prefix && suffix < len(side)-prefix &&
		base[len(base)-1-suffix] == side[len(side)-1-suffix] {
		suffix++
	}
	return prefix, len(base) - suffix, side[prefix : len(side)-suffix]
}

func equalLines(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
