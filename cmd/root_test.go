package cmd

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/remerge-cli/remerge/pkg/config"
)

func TestResolveDir(t *testing.T) {
	tests := []struct {
		name string
		root string
		dir  string
		want string
	}{
		{"relative anchored at root", "/repo", ".remerge/backups", filepath.Join("/repo", ".remerge", "backups")},
		{"absolute passed through", "/repo", "/var/backups", "/var/backups"},
		{"empty stays empty", "/repo", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := resolveDir(tt.root, tt.dir); got != tt.want {
				t.Errorf("resolveDir(%q, %q) = %q, want %q", tt.root, tt.dir, got, tt.want)
			}
		})
	}
}

func TestApplyFlagsOverridesConfig(t *testing.T) {
	cfg := config.Default()
	cmd := rootCmd

	if err := cmd.Flags().Set("max-attempts", "5"); err != nil {
		t.Fatal(err)
	}
	if err := cmd.Flags().Set("timeout", "90s"); err != nil {
		t.Fatal(err)
	}

	applyFlags(cmd, &cfg)

	if cfg.MaxAttempts != 5 {
		t.Errorf("max attempts: %d", cfg.MaxAttempts)
	}
	if cfg.CommandTimeout.Duration != 90*time.Second {
		t.Errorf("timeout: %v", cfg.CommandTimeout.Duration)
	}
	// untouched flags leave config values alone
	if cfg.NotifyChannel != "ci" {
		t.Errorf("notify channel: %q", cfg.NotifyChannel)
	}
}
