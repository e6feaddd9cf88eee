// Package config loads resolver settings from .remerge.toml with CLI
// flags layered on top.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/BurntSushi/toml"
)

// FileName is the config file looked up in the repository root.
const FileName = ".remerge.toml"

// Duration wraps time.Duration for TOML string values like "2m".
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler for TOML.
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = parsed
	return nil
}

// Config holds all resolver settings.
type Config struct {
	BackupDir      string   `toml:"backup_dir"`
	ReportDir      string   `toml:"report_dir"`
	MaxAttempts    int      `toml:"max_attempts"`
	Concurrency    int      `toml:"concurrency"` // 0 means GOMAXPROCS
	CommandTimeout Duration `toml:"command_timeout"`
	NotifyURL      string   `toml:"notify_url"`
	NotifyChannel  string   `toml:"notify_channel"`

	Code struct {
		PreferOursOnOverlap bool `toml:"prefer_ours_on_overlap"`
	} `toml:"code"`

	// Regenerate overrides the package-manager command per lockfile
	// basename.
	Regenerate map[string][]string `toml:"regenerate"`
}

// Default returns the settings used when no config file exists.
func Default() Config {
	cfg := Config{
		BackupDir:      filepath.Join(".remerge", "backups"),
		ReportDir:      filepath.Join(".remerge", "reports"),
		MaxAttempts:    3,
		Concurrency:    runtime.NumCPU(),
		CommandTimeout: Duration{2 * time.Minute},
		NotifyChannel:  "ci",
	}
	return cfg
}

// Load reads the config file under root, falling back to defaults when
// the file is absent. A present-but-broken file is an error, never
// silently ignored.
func Load(root string) (Config, error) {
	cfg := Default()

	path := filepath.Join(root, FileName)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}

	if cfg.MaxAttempts < 1 {
		return cfg, fmt.Errorf("%s: max_attempts must be at least 1", path)
	}
	if cfg.Concurrency < 1 {
		cfg.Concurrency = runtime.NumCPU()
	}
	return cfg, nil
}
