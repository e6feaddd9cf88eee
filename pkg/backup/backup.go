// Package backup snapshots files before mutation and restores them on
// failure. It is the only package that touches the backup directory.
package backup

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/remerge-cli/remerge/pkg/logging"
)

// ErrBackup wraps snapshot and restore failures. A backup failure is
// fatal for the affected file: without a confirmed snapshot, mutation
// cannot be made safe.
var ErrBackup = errors.New("backup failed")

// Record identifies one snapshot.
type Record struct {
	OriginalPath string
	BackupPath   string
	CreatedAt    time.Time
}

// Manager owns one run-scoped directory under the backup root.
type Manager struct {
	root   string // backup root shared by all runs
	runDir string // this run's directory
	runID  string
}

// NewManager creates the run directory under root.
func NewManager(root string) (*Manager, error) {
	runID := uuid.NewString()
	runDir := filepath.Join(root, runID)
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: create run dir: %v", ErrBackup, err)
	}
	return &Manager{root: root, runDir: runDir, runID: runID}, nil
}

// RunID returns the identifier of this run's backup directory.
func (m *Manager) RunID() string { return m.runID }

// Dir returns this run's backup directory.
func (m *Manager) Dir() string { return m.runDir }

// Backup snapshots path into the run directory. The snapshot is synced
// to stable storage before Backup returns; only then is the caller
// permitted to mutate the original.
func (m *Manager) Backup(path string) (Record, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return Record{}, fmt.Errorf("%w: read %s: %v", ErrBackup, path, err)
	}

	name := flatten(path) + "." + uuid.NewString()[:8]
	backupPath := filepath.Join(m.runDir, name)

	f, err := os.OpenFile(backupPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return Record{}, fmt.Errorf("%w: create %s: %v", ErrBackup, backupPath, err)
	}
	if _, err := f.Write(content); err != nil {
		f.Close()
		return Record{}, fmt.Errorf("%w: write %s: %v", ErrBackup, backupPath, err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return Record{}, fmt.Errorf("%w: sync %s: %v", ErrBackup, backupPath, err)
	}
	if err := f.Close(); err != nil {
		return Record{}, fmt.Errorf("%w: close %s: %v", ErrBackup, backupPath, err)
	}
	if err := syncDir(m.runDir); err != nil {
		return Record{}, err
	}

	logging.Debug("backed up", "path", path, "backup", backupPath)
	return Record{OriginalPath: path, BackupPath: backupPath, CreatedAt: time.Now()}, nil
}

// Restore writes the snapshot back over the original. Idempotent: safe
// to call any number of times, including after a successful restore.
func (m *Manager) Restore(rec Record) error {
	content, err := os.ReadFile(rec.BackupPath)
	if err != nil {
		return fmt.Errorf("%w: read snapshot %s: %v", ErrBackup, rec.BackupPath, err)
	}

	// temp-then-rename in the target directory so a crash mid-restore
	// never leaves a truncated original
	dir := filepath.Dir(rec.OriginalPath)
	tmp, err := os.CreateTemp(dir, ".remerge-restore-*")
	if err != nil {
		return fmt.Errorf("%w: create temp in %s: %v", ErrBackup, dir, err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: write temp: %v", ErrBackup, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: close temp: %v", ErrBackup, err)
	}
	if err := os.Rename(tmpPath, rec.OriginalPath); err != nil {
		return fmt.Errorf("%w: rename over %s: %v", ErrBackup, rec.OriginalPath, err)
	}

	logging.Debug("restored", "path", rec.OriginalPath)
	return nil
}

// Purge removes this run's backup directory. Called only after the
// caller explicitly accepts the run.
func (m *Manager) Purge() error {
	return os.RemoveAll(m.runDir)
}

// PurgeAll removes every run directory under root.
func PurgeAll(root string) error {
	entries, err := os.ReadDir(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	for _, e := range entries {
		if err := os.RemoveAll(filepath.Join(root, e.Name())); err != nil {
			return err
		}
	}
	return nil
}

// flatten turns a repository-relative path into a flat file name.
func flatten(path string) string {
	return strings.NewReplacer("/", "__", "\\", "__").Replace(path)
}

func syncDir(dir string) error {
	d, err := os.Open(dir)
	if err != nil {
		return fmt.Errorf("%w: open dir %s: %v", ErrBackup, dir, err)
	}
	defer d.Close()
	if err := d.Sync(); err != nil {
		return fmt.Errorf("%w: sync dir %s: %v", ErrBackup, dir, err)
	}
	return nil
}
