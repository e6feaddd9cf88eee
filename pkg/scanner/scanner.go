// Package scanner enumerates files in an unmerged state and parses
// their conflict markers into sections.
package scanner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/remerge-cli/remerge/pkg/git"
	"github.com/remerge-cli/remerge/pkg/logging"
)

// ErrMalformedMarkers indicates conflict markers that are present but
// structurally broken (wrong order, unterminated section).
var ErrMalformedMarkers = errors.New("malformed conflict markers")

// ErrNoMarkers indicates a file reported as unmerged that contains no
// conflict markers at all, typically a rename or binary conflict.
var ErrNoMarkers = errors.New("no conflict markers found")

// Section is one parsed conflict block.
//
// StartLine and EndLine are the 1-based offsets of the opening and
// closing marker lines in the original file.
type Section struct {
	OursLines   []string
	TheirsLines []string
	BaseLines   []string // nil unless the conflict uses diff3 markers
	StartLine   int
	EndLine     int

	// Labels captured from the marker lines, preserved so the original
	// marker layout can be re-synthesized exactly.
	OursLabel   string
	TheirsLabel string
	BaseLabel   string
}

// HasBase reports whether the section carries a common-ancestor block.
func (s *Section) HasBase() bool { return s.BaseLines != nil }

// Render reconstructs the section's marker layout. For any well-formed
// input, parsing followed by Render reproduces the marker lines
// byte-identically.
func (s *Section) Render() string {
	var b strings.Builder
	b.WriteString("<<<<<<<")
	if s.OursLabel != "" {
		b.WriteString(" " + s.OursLabel)
	}
	b.WriteString("\n")
	for _, l := range s.OursLines {
		b.WriteString(l + "\n")
	}
	if s.HasBase() {
		b.WriteString("|||||||")
		if s.BaseLabel != "" {
			b.WriteString(" " + s.BaseLabel)
		}
		b.WriteString("\n")
		for _, l := range s.BaseLines {
			b.WriteString(l + "\n")
		}
	}
	b.WriteString("=======\n")
	for _, l := range s.TheirsLines {
		b.WriteString(l + "\n")
	}
	b.WriteString(">>>>>>>")
	if s.TheirsLabel != "" {
		b.WriteString(" " + s.TheirsLabel)
	}
	return b.String()
}

// File is one conflicted file as produced by Scan.
type File struct {
	Path     string // repository-relative
	Content  []byte // working-tree content including markers
	Sections []Section
}

// Skipped describes an unmerged path the scanner excluded from
// automated processing. Skipped files always require manual review.
type Skipped struct {
	Path   string
	Reason string
}

// markerKind classifies a line during parsing.
type markerKind int

const (
	lineText markerKind = iota
	lineOursStart
	lineBaseStart
	lineSeparator
	lineTheirsEnd
)

// classifyLine detects conflict markers. A marker is the marker
// character repeated exactly seven times at the start of a line, with
// nothing else on the line except an optional trailing label after a
// space. This rule cannot match comparison or shift operators, which
// never open a line with seven identical marker characters.
func classifyLine(line string) (markerKind, string) {
	if line == "=======" {
		return lineSeparator, ""
	}
	if len(line) < 7 {
		return lineText, ""
	}
	switch line[0] {
	case '<':
		if isSevenMarker(line, '<') {
			return lineOursStart, strings.TrimSpace(line[7:])
		}
	case '|':
		if isSevenMarker(line, '|') {
			return lineBaseStart, strings.TrimSpace(line[7:])
		}
	case '>':
		if isSevenMarker(line, '>') {
			return lineTheirsEnd, strings.TrimSpace(line[7:])
		}
	}
	return lineText, ""
}

func isSevenMarker(line string, c byte) bool {
	if len(line) < 7 {
		return false
	}
	for i := 0; i < 7; i++ {
		if line[i] != c {
			return false
		}
	}
	// exactly seven: either end of line or a space before the label
	return len(line) == 7 || line[7] == ' '
}

// HasMarkers reports whether content contains any conflict marker line.
// The validator shares this rule to reject residual markers.
func HasMarkers(content string) bool {
	for _, line := range strings.Split(content, "\n") {
		if kind, _ := classifyLine(line); kind != lineText {
			return true
		}
	}
	return false
}

// IsBinary reports whether content looks binary (NUL byte in the first
// 8000 bytes).
func IsBinary(content []byte) bool {
	n := min(len(content), 8000)
	return bytes.IndexByte(content[:n], 0) >= 0
}

// parser state for ParseSections
type parseState int

const (
	stateOutside parseState = iota
	stateOurs
	stateBase
	stateTheirs
)

// ParseSections splits content into conflict sections. Marker triples
// must appear in strictly increasing order; anything else is an error,
// never a silently-ignored condition.
func ParseSections(content string) ([]Section, error) {
	lines := strings.Split(content, "\n")

	var (
		sections []Section
		cur      Section
		state    = stateOutside
	)

	for i, line := range lines {
		lineNo := i + 1
		kind, label := classifyLine(line)

		switch kind {
		case lineOursStart:
			if state != stateOutside {
				return nil, fmt.Errorf("%w: unexpected %q at line %d", ErrMalformedMarkers, "<<<<<<<", lineNo)
			}
			cur = Section{StartLine: lineNo, OursLabel: label, OursLines: []string{}}
			state = stateOurs

		case lineBaseStart:
			if state != stateOurs {
				return nil, fmt.Errorf("%w: unexpected %q at line %d", ErrMalformedMarkers, "|||||||", lineNo)
			}
			cur.BaseLabel = label
			cur.BaseLines = []string{}
			state = stateBase

		case lineSeparator:
			if state != stateOurs && state != stateBase {
				return nil, fmt.Errorf("%w: unexpected %q at line %d", ErrMalformedMarkers, "=======", lineNo)
			}
			cur.TheirsLines = []string{}
			state = stateTheirs

		case lineTheirsEnd:
			if state != stateTheirs {
				return nil, fmt.Errorf("%w: unexpected %q at line %d", ErrMalformedMarkers, ">>>>>>>", lineNo)
			}
			cur.TheirsLabel = label
			cur.EndLine = lineNo
			sections = append(sections, cur)
			state = stateOutside

		case lineText:
			switch state {
			case stateOurs:
				cur.OursLines = append(cur.OursLines, line)
			case stateBase:
				cur.BaseLines = append(cur.BaseLines, line)
			case stateTheirs:
				cur.TheirsLines = append(cur.TheirsLines, line)
			}
		}
	}

	if state != stateOutside {
		return nil, fmt.Errorf("%w: unterminated section starting at line %d", ErrMalformedMarkers, cur.StartLine)
	}
	return sections, nil
}

// SideSet holds the full ours/theirs reconstructions of a conflicted
// file, with every conflict block collapsed to one side. Base is only
// meaningful when HasBase is true, which requires diff3 markers on
// every section.
type SideSet struct {
	Ours    string
	Theirs  string
	Base    string
	HasBase bool
}

// SplitSides reconstructs complete ours and theirs versions of content.
func SplitSides(content string) (SideSet, error) {
	sections, err := ParseSections(content)
	if err != nil {
		return SideSet{}, err
	}

	set := SideSet{HasBase: len(sections) > 0}
	for _, s := range sections {
		if !s.HasBase() {
			set.HasBase = false
		}
	}

	var ours, theirs, base []string
	lines := strings.Split(content, "\n")
	next := 0 // index into sections
	i := 0
	for i < len(lines) {
		if next < len(sections) && i+1 == sections[next].StartLine {
			s := sections[next]
			ours = append(ours, s.OursLines...)
			theirs = append(theirs, s.TheirsLines...)
			if set.HasBase {
				base = append(base, s.BaseLines...)
			}
			i = s.EndLine
			next++
			continue
		}
		ours = append(ours, lines[i])
		theirs = append(theirs, lines[i])
		if set.HasBase {
			base = append(base, lines[i])
		}
		i++
	}

	set.Ours = strings.Join(ours, "\n")
	set.Theirs = strings.Join(theirs, "\n")
	set.Base = strings.Join(base, "\n")
	return set, nil
}

// Scan enumerates unmerged files under root and parses each into a
// File. Files that cannot be processed automatically (binary content,
// no markers, malformed markers) are returned as Skipped instead.
func Scan(ctx context.Context, exec git.Executor, root string) ([]*File, []Skipped, error) {
	paths, err := git.ListUnmergedFiles(ctx, exec)
	if err != nil {
		return nil, nil, err
	}

	var (
		files   []*File
		skipped []Skipped
	)
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}

		content, err := os.ReadFile(filepath.Join(root, path))
		if err != nil {
			logging.Warn("cannot read unmerged file", "path", path, "error", err)
			skipped = append(skipped, Skipped{Path: path, Reason: fmt.Sprintf("read failed: %v", err)})
			continue
		}

		if IsBinary(content) {
			skipped = append(skipped, Skipped{Path: path, Reason: "binary conflict"})
			continue
		}

		sections, err := ParseSections(string(content))
		if err != nil {
			skipped = append(skipped, Skipped{Path: path, Reason: err.Error()})
			continue
		}
		if len(sections) == 0 {
			// Reported unmerged but clean of markers: likely a rename
			// or mode conflict. Not ours to guess.
			skipped = append(skipped, Skipped{Path: path, Reason: ErrNoMarkers.Error()})
			continue
		}

		files = append(files, &File{Path: path, Content: content, Sections: sections})
	}

	logging.Debug("scan complete", "conflicted", len(files), "skipped", len(skipped))
	return files, skipped, nil
}
