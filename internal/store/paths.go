package store

import (
	"path/filepath"
	"strings"
	"time"
)

// timestampLayout matches the on-disk names of earlier non-destructive runs,
// e.g. run_record_2024-03-01_09:15:02.123456.json.
const timestampLayout = "2006-01-02_15:04:05.000000"

// BackupPath returns the sibling path a record is copied to before being
// overwritten: run_record.json becomes run_record_backup.json.
func BackupPath(path string) string {
	return withSuffix(path, "_backup")
}

// TimestampPath returns the sibling path a non-destructive save writes to.
func TimestampPath(path string, now time.Time) string {
	return withSuffix(path, "_"+now.Format(timestampLayout))
}

func withSuffix(path, suffix string) string {
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + suffix + ext
}
