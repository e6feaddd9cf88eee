package scanner

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/remerge-cli/remerge/pkg/git"
)

const simpleConflict = `line before
<<<<<<< HEAD
ours line 1
ours line 2
=======
theirs line 1
>>>>>>> feature/branch
line after`

const diff3Conflict = `<<<<<<< HEAD
ours
||||||| merged common ancestors
base
=======
theirs
>>>>>>> topic`

func TestParseSections(t *testing.T) {
	t.Run("two-way conflict", func(t *testing.T) {
		sections, err := ParseSections(simpleConflict)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(sections) != 1 {
			t.Fatalf("expected 1 section, got %d", len(sections))
		}
		s := sections[0]
		if s.StartLine != 2 || s.EndLine != 7 {
			t.Errorf("expected lines 2-7, got %d-%d", s.StartLine, s.EndLine)
		}
		if len(s.OursLines) != 2 || s.OursLines[0] != "ours line 1" {
			t.Errorf("unexpected ours lines: %v", s.OursLines)
		}
		if len(s.TheirsLines) != 1 || s.TheirsLines[0] != "theirs line 1" {
			t.Errorf("unexpected theirs lines: %v", s.TheirsLines)
		}
		if s.HasBase() {
			t.Error("two-way conflict should have no base")
		}
		if s.OursLabel != "HEAD" || s.TheirsLabel != "feature/branch" {
			t.Errorf("unexpected labels: %q / %q", s.OursLabel, s.TheirsLabel)
		}
	})

	t.Run("diff3 conflict populates base", func(t *testing.T) {
		sections, err := ParseSections(diff3Conflict)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		s := sections[0]
		if !s.HasBase() {
			t.Fatal("expected base block")
		}
		if len(s.BaseLines) != 1 || s.BaseLines[0] != "base" {
			t.Errorf("unexpected base lines: %v", s.BaseLines)
		}
		if s.BaseLabel != "merged common ancestors" {
			t.Errorf("unexpected base label: %q", s.BaseLabel)
		}
	})

	t.Run("multiple sections in order", func(t *testing.T) {
		content := simpleConflict + "\n" + simpleConflict
		sections, err := ParseSections(content)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(sections) != 2 {
			t.Fatalf("expected 2 sections, got %d", len(sections))
		}
		if sections[0].EndLine >= sections[1].StartLine {
			t.Error("sections should not overlap")
		}
	})

	t.Run("no markers yields no sections", func(t *testing.T) {
		sections, err := ParseSections("plain\ncontent\n")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(sections) != 0 {
			t.Errorf("expected no sections, got %d", len(sections))
		}
	})

	t.Run("malformed ordering is an error", func(t *testing.T) {
		cases := map[string]string{
			"separator first":    "=======\n>>>>>>> x",
			"end first":          ">>>>>>> x\n",
			"unterminated":       "<<<<<<< HEAD\nours\n=======\ntheirs\n",
			"double start":       "<<<<<<< a\n<<<<<<< b\n=======\n>>>>>>> c",
			"base after theirs":  "<<<<<<< a\n=======\n||||||| b\n>>>>>>> c",
		}
		for name, content := range cases {
			t.Run(name, func(t *testing.T) {
				if _, err := ParseSections(content); !errors.Is(err, ErrMalformedMarkers) {
					t.Errorf("expected ErrMalformedMarkers, got %v", err)
				}
			})
		}
	})
}

// Legitimate source operators must never be mistaken for markers.
func TestNoFalsePositivesOnOperators(t *testing.T) {
	code := strings.Join([]string{
		"if a << 7 > b {",
		"\tx := a <<< b // not even valid, still not a marker",
		"}",
		"y := a >>> b",
		"s := \"<<<<<<<<\" // eight, not seven",
		"t := \"<<<<<<<x\" // no space before label",
		"cmp := a <= b && c >= d",
	}, "\n")

	sections, err := ParseSections(code)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sections) != 0 {
		t.Errorf("expected zero sections, got %d", len(sections))
	}
	if HasMarkers(code) {
		t.Error("HasMarkers should not fire on operators")
	}
}

// Parsing then rendering a well-formed conflict reproduces the original
// marker layout byte for byte.
func TestMarkerRoundTrip(t *testing.T) {
	for _, content := range []string{simpleConflict, diff3Conflict} {
		sections, err := ParseSections(content)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		for _, s := range sections {
			rendered := s.Render()
			if !strings.Contains(content, rendered) {
				t.Errorf("rendered section not byte-identical to source:\n%s", rendered)
			}
		}
	}
}

func TestSplitSides(t *testing.T) {
	set, err := SplitSides(simpleConflict)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	wantOurs := "line before\nours line 1\nours line 2\nline after"
	wantTheirs := "line before\ntheirs line 1\nline after"
	if set.Ours != wantOurs {
		t.Errorf("ours:\n%q\nwant:\n%q", set.Ours, wantOurs)
	}
	if set.Theirs != wantTheirs {
		t.Errorf("theirs:\n%q\nwant:\n%q", set.Theirs, wantTheirs)
	}
	if set.HasBase {
		t.Error("two-way conflict should not report a base")
	}

	set, err = SplitSides(diff3Conflict)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !set.HasBase || set.Base != "base" {
		t.Errorf("expected base %q, got %q (hasBase=%v)", "base", set.Base, set.HasBase)
	}
}

func TestHasMarkers(t *testing.T) {
	if !HasMarkers(simpleConflict) {
		t.Error("expected markers in conflict text")
	}
	if HasMarkers("clean file\n") {
		t.Error("expected no markers in clean text")
	}
}

func TestIsBinary(t *testing.T) {
	if !IsBinary([]byte{0x89, 'P', 'N', 'G', 0x00, 0x01}) {
		t.Error("NUL bytes should be detected as binary")
	}
	if IsBinary([]byte("plain text")) {
		t.Error("text misdetected as binary")
	}
}

func TestScan(t *testing.T) {
	root := t.TempDir()

	write := func(name, content string) {
		t.Helper()
		path := filepath.Join(root, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	write("conflicted.txt", simpleConflict)
	write("clean.txt", "no markers here\n")
	write("image.bin", "abc\x00def")

	mock := git.NewMockExecutor()
	mock.SetResponse("diff", []byte("conflicted.txt\nclean.txt\nimage.bin\nmissing.txt\n"), nil)

	files, skipped, err := Scan(context.Background(), mock, root)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(files) != 1 || files[0].Path != "conflicted.txt" {
		t.Fatalf("expected only conflicted.txt, got %+v", files)
	}
	if len(files[0].Sections) != 1 {
		t.Errorf("expected 1 section, got %d", len(files[0].Sections))
	}

	if len(skipped) != 3 {
		t.Fatalf("expected 3 skipped, got %d: %+v", len(skipped), skipped)
	}
	reasons := make(map[string]string)
	for _, s := range skipped {
		reasons[s.Path] = s.Reason
	}
	if !strings.Contains(reasons["clean.txt"], "no conflict markers") {
		t.Errorf("clean.txt reason: %q", reasons["clean.txt"])
	}
	if reasons["image.bin"] != "binary conflict" {
		t.Errorf("image.bin reason: %q", reasons["image.bin"])
	}
	if !strings.Contains(reasons["missing.txt"], "read failed") {
		t.Errorf("missing.txt reason: %q", reasons["missing.txt"])
	}
}
