package git

import (
	"context"
	"errors"
	"testing"
)

func TestListUnmergedFiles(t *testing.T) {
	t.Run("parses newline separated paths", func(t *testing.T) {
		mock := NewMockExecutor()
		mock.SetResponse("diff", []byte("a/main.go\npackage.json\ndocs/readme.md\n"), nil)

		files, err := ListUnmergedFiles(context.Background(), mock)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := []string{"a/main.go", "package.json", "docs/readme.md"}
		if len(files) != len(want) {
			t.Fatalf("expected %d files, got %d: %v", len(want), len(files), files)
		}
		for i, f := range files {
			if f != want[i] {
				t.Errorf("file %d: expected %q, got %q", i, want[i], f)
			}
		}
	})

	t.Run("empty output yields no files", func(t *testing.T) {
		mock := NewMockExecutor()
		mock.SetResponse("diff", []byte("\n"), nil)

		files, err := ListUnmergedFiles(context.Background(), mock)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(files) != 0 {
			t.Errorf("expected no files, got %v", files)
		}
	})

	t.Run("propagates git failure", func(t *testing.T) {
		mock := NewMockExecutor()
		mock.SetResponse("diff", nil, ErrNotRepo)

		if _, err := ListUnmergedFiles(context.Background(), mock); !errors.Is(err, ErrNotRepo) {
			t.Errorf("expected ErrNotRepo, got %v", err)
		}
	})
}

func TestShowStage(t *testing.T) {
	mock := NewMockExecutor()
	mock.SetResponse("show", []byte("contents"), nil)

	out, err := ShowStage(context.Background(), mock, "a.txt", StageOurs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(out) != "contents" {
		t.Errorf("expected contents, got %q", out)
	}

	calls := mock.CallsTo("show")
	if len(calls) != 1 {
		t.Fatalf("expected 1 show call, got %d", len(calls))
	}
	if calls[0].Args[1] != ":2:a.txt" {
		t.Errorf("expected :2:a.txt spec, got %q", calls[0].Args[1])
	}
}

func TestStageFileUsesPathSeparator(t *testing.T) {
	mock := NewMockExecutor()

	if err := StageFile(context.Background(), mock, "--weird.txt"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	calls := mock.CallsTo("add")
	if len(calls) != 1 {
		t.Fatalf("expected 1 add call, got %d", len(calls))
	}
	// Paths must come after "--" so option-looking names cannot be
	// interpreted as flags.
	if calls[0].Args[1] != "--" || calls[0].Args[2] != "--weird.txt" {
		t.Errorf("unexpected add args: %v", calls[0].Args)
	}
}
