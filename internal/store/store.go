// Package store persists the ledger document and its backups on disk.
package store

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/rxtech-lab/argo-ledger/internal/ledger"
	"github.com/rxtech-lab/argo-ledger/internal/logger"
	"github.com/rxtech-lab/argo-ledger/pkg/errors"
	"go.uber.org/zap"
)

// BackupTimeLayout is the timestamp layout inside backup file names.
const BackupTimeLayout = "2006-01-02_15-04-05"

// backupPattern matches stats_backup_<timestamp>[_<n>].txt.
var backupPattern = regexp.MustCompile(`^stats_backup_(\d{4}-\d{2}-\d{2}_\d{2}-\d{2}-\d{2})(?:_(\d+))?\.txt$`)

// Store reads and writes the ledger document.
type Store interface {
	// Read returns the whole ledger text.
	Read() (string, error)
	// Write replaces the ledger text.
	Write(text string) error
	// Backup copies the current ledger into the backup directory and returns the copy's path.
	Backup() (string, error)
	// EnsureTemplate creates a template ledger when none exists and reports whether it did.
	EnsureTemplate(marker, footer string) (bool, error)
}

// FileStore is a Store backed by a single text file.
// Backups are written to:
//
//	{backupDir}/stats_backup_{YYYY-MM-DD_HH-MM-SS}.txt
type FileStore struct {
	path      string
	backupDir string
	now       func() time.Time
	mu        sync.Mutex
	logger    *logger.Logger
}

// NewFileStore creates a store for the ledger at path.
// An empty backupDir keeps backups next to the ledger.
func NewFileStore(path, backupDir string, log *logger.Logger) *FileStore {
	if backupDir == "" {
		backupDir = filepath.Dir(path)
	}

	return &FileStore{
		path:      path,
		backupDir: backupDir,
		now:       time.Now,
		mu:        sync.Mutex{},
		logger:    log,
	}
}

// Path returns the ledger file path.
func (f *FileStore) Path() string {
	return f.path
}

// BackupDir returns the backup directory.
func (f *FileStore) BackupDir() string {
	return f.backupDir
}

func (f *FileStore) Read() (string, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return "", errors.Wrapf(errors.ErrCodeLedgerReadFailed, err, "failed to read ledger %s", f.path)
	}

	return string(data), nil
}

// Write replaces the ledger atomically through a temporary file in the same directory.
func (f *FileStore) Write(text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.write(text)
}

func (f *FileStore) write(text string) error {
	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.Wrapf(errors.ErrCodeLedgerWriteFailed, err, "failed to create ledger directory %s", dir)
	}

	tmp, err := os.CreateTemp(dir, ".ledger-*.tmp")
	if err != nil {
		return errors.Wrap(errors.ErrCodeLedgerWriteFailed, "failed to create temporary ledger file", err)
	}

	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	// CreateTemp uses 0600; keep the ledger's existing mode across the rename.
	mode := os.FileMode(0644)
	if info, err := os.Stat(f.path); err == nil {
		mode = info.Mode().Perm()
	}

	if err := tmp.Chmod(mode); err != nil {
		tmp.Close()
		return errors.Wrap(errors.ErrCodeLedgerWriteFailed, "failed to set mode on temporary ledger file", err)
	}

	if _, err := io.WriteString(tmp, text); err != nil {
		tmp.Close()
		return errors.Wrap(errors.ErrCodeLedgerWriteFailed, "failed to write temporary ledger file", err)
	}

	if err := tmp.Close(); err != nil {
		return errors.Wrap(errors.ErrCodeLedgerWriteFailed, "failed to close temporary ledger file", err)
	}

	if err := os.Rename(tmpPath, f.path); err != nil {
		return errors.Wrapf(errors.ErrCodeLedgerWriteFailed, err, "failed to replace ledger %s", f.path)
	}

	f.logger.Debug("Ledger written", zap.String("path", f.path), zap.Int("bytes", len(text)))

	return nil
}

// Backup copies the ledger to a new timestamped file.
// Backups taken within the same second get a numeric suffix.
func (f *FileStore) Backup() (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := os.ReadFile(f.path)
	if err != nil {
		return "", errors.Wrapf(errors.ErrCodeBackupFailed, err, "failed to read ledger %s for backup", f.path)
	}

	if err := os.MkdirAll(f.backupDir, 0755); err != nil {
		return "", errors.Wrapf(errors.ErrCodeBackupFailed, err, "failed to create backup directory %s", f.backupDir)
	}

	stamp := f.now().Format(BackupTimeLayout)

	for n := 1; ; n++ {
		name := fmt.Sprintf("stats_backup_%s.txt", stamp)
		if n > 1 {
			name = fmt.Sprintf("stats_backup_%s_%d.txt", stamp, n)
		}

		backupPath := filepath.Join(f.backupDir, name)

		file, err := os.OpenFile(backupPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
		if os.IsExist(err) {
			continue
		}

		if err != nil {
			return "", errors.Wrapf(errors.ErrCodeBackupFailed, err, "failed to create backup %s", backupPath)
		}

		if _, err := file.Write(data); err != nil {
			file.Close()
			return "", errors.Wrapf(errors.ErrCodeBackupFailed, err, "failed to write backup %s", backupPath)
		}

		if err := file.Close(); err != nil {
			return "", errors.Wrapf(errors.ErrCodeBackupFailed, err, "failed to close backup %s", backupPath)
		}

		f.logger.Info("Ledger backup created", zap.String("path", backupPath))

		return backupPath, nil
	}
}

// ListBackups returns backup file paths, oldest first.
func (f *FileStore) ListBackups() ([]string, error) {
	if _, err := os.Stat(f.backupDir); os.IsNotExist(err) {
		return []string{}, nil
	}

	entries, err := os.ReadDir(f.backupDir)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeBackupFailed, err, "failed to read backup directory %s", f.backupDir)
	}

	type backup struct {
		name   string
		stamp  string
		suffix int
	}

	var backups []backup

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		matches := backupPattern.FindStringSubmatch(entry.Name())
		if matches == nil {
			continue
		}

		suffix := 1
		if matches[2] != "" {
			if n, err := strconv.Atoi(matches[2]); err == nil {
				suffix = n
			}
		}

		backups = append(backups, backup{name: entry.Name(), stamp: matches[1], suffix: suffix})
	}

	sort.Slice(backups, func(i, j int) bool {
		if backups[i].stamp != backups[j].stamp {
			return backups[i].stamp < backups[j].stamp
		}

		return backups[i].suffix < backups[j].suffix
	})

	paths := make([]string, 0, len(backups))
	for _, b := range backups {
		paths = append(paths, filepath.Join(f.backupDir, b.name))
	}

	return paths, nil
}

// EnsureTemplate writes a template ledger when the file does not exist.
// An existing empty file is left alone and reported as a warning.
func (f *FileStore) EnsureTemplate(marker, footer string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	info, err := os.Stat(f.path)
	if err == nil {
		if info.Size() == 0 {
			f.logger.Warn("Ledger file is empty", zap.String("path", f.path))
		}

		return false, nil
	}

	if !os.IsNotExist(err) {
		return false, errors.Wrapf(errors.ErrCodeLedgerReadFailed, err, "failed to stat ledger %s", f.path)
	}

	if err := f.write(ledger.Template(marker, footer, f.now())); err != nil {
		return false, err
	}

	f.logger.Warn("Ledger file not found, created template", zap.String("path", f.path))

	return true, nil
}
