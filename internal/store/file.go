package store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/jo-room/job-scrape/internal/model"
)

var _ model.RunStore = (*FileStore)(nil)

// FileStore keeps the run record as a JSON document on disk.
type FileStore struct {
	path   string
	now    func() time.Time
	logger *slog.Logger
}

// NewFileStore returns a store backed by the JSON file at path.
func NewFileStore(path string, logger *slog.Logger) *FileStore {
	return &FileStore{path: path, now: time.Now, logger: logger}
}

// Path returns the destination regular saves overwrite.
func (s *FileStore) Path() string { return s.path }

// Load reads and decodes the record. A missing file yields ErrNotFound.
func (s *FileStore) Load(_ context.Context) (*model.RunRecord, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, s.path)
	}
	if err != nil {
		return nil, fmt.Errorf("read run record: %w", err)
	}
	return Decode(s.path, data)
}

// Save writes rec according to opts. Writes go through a temp file and a
// rename so a crash never leaves a half-written record behind.
func (s *FileStore) Save(_ context.Context, rec *model.RunRecord, opts model.SaveOptions) (string, error) {
	if opts.SkipWrite {
		s.logger.Info("skipping run record write", "path", s.path)
		return "", nil
	}

	data, err := Encode(rec)
	if err != nil {
		return "", err
	}

	dest := s.path
	if opts.NonDestructive {
		dest = TimestampPath(s.path, s.now())
	}

	if opts.BackupFirst && dest == s.path {
		backup := BackupPath(s.path)
		copied, err := copyFile(s.path, backup)
		if err != nil {
			return "", fmt.Errorf("backup run record: %w", err)
		}
		if copied {
			s.logger.Info("backed up run record", "from", s.path, "to", backup)
		}
	}

	if err := writeAtomic(dest, data); err != nil {
		return "", fmt.Errorf("write run record: %w", err)
	}
	s.logger.Info("wrote run record", "path", dest)
	return dest, nil
}

func writeAtomic(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// copyFile copies src to dst preserving the file mode. It reports false
// without error when src does not exist.
func copyFile(src, dst string) (bool, error) {
	in, err := os.Open(src)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return false, err
	}

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return false, err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return false, err
	}
	if err := out.Close(); err != nil {
		return false, err
	}
	return true, os.Chtimes(dst, info.ModTime(), info.ModTime())
}
