package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jo-room/job-scrape/internal/model"
)

const canonicalDoc = `{
    "existing_jobs": {
        "acme": [
            "https://acme.example/jobs/1",
            "https://acme.example/jobs/2"
        ]
    },
    "errors": [
        {
            "company_name": "globex",
            "jobs_page": "https://globex.example/careers?a=1&b=2",
            "message": "timeout",
            "is_new_this_run": true
        }
    ]
}`

func writeDoc(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "run_record.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestFileStore_RoundTripExact(t *testing.T) {
	path := writeDoc(t, canonicalDoc)
	s := NewFileStore(path, discardLogger())
	ctx := context.Background()

	rec, err := s.Load(ctx)
	require.NoError(t, err)

	_, err = s.Save(ctx, rec, model.SaveOptions{})
	require.NoError(t, err)

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, canonicalDoc, string(got))
}

func TestFileStore_LoadMissing(t *testing.T) {
	s := NewFileStore(filepath.Join(t.TempDir(), "none.json"), discardLogger())

	_, err := s.Load(context.Background())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFileStore_LoadInvalid(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"not json", `{"existing_jobs": [`},
		{"missing existing_jobs", `{"errors": []}`},
		{"missing errors", `{"existing_jobs": {}}`},
		{"error without company_name", `{"existing_jobs": {}, "errors": [{"message": "x"}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewFileStore(writeDoc(t, tt.doc), discardLogger())
			_, err := s.Load(context.Background())
			var decodeErr *DecodeError
			assert.True(t, errors.As(err, &decodeErr), "want DecodeError, got %v", err)
		})
	}
}

func TestFileStore_BackupFirst(t *testing.T) {
	path := writeDoc(t, canonicalDoc)
	s := NewFileStore(path, discardLogger())

	_, err := s.Save(context.Background(), model.NewRunRecord(), model.SaveOptions{BackupFirst: true})
	require.NoError(t, err)

	backup, err := os.ReadFile(filepath.Join(filepath.Dir(path), "run_record_backup.json"))
	require.NoError(t, err)
	assert.Equal(t, canonicalDoc, string(backup))

	current, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "{\n    \"existing_jobs\": {},\n    \"errors\": []\n}", string(current))
}

func TestFileStore_NonDestructiveSkipsBackup(t *testing.T) {
	path := writeDoc(t, canonicalDoc)
	s := NewFileStore(path, discardLogger())

	dest, err := s.Save(context.Background(), model.NewRunRecord(), model.SaveOptions{BackupFirst: true, NonDestructive: true})
	require.NoError(t, err)
	assert.NotEqual(t, path, dest)

	_, err = os.Stat(BackupPath(path))
	assert.True(t, errors.Is(err, os.ErrNotExist), "nothing was overwritten, so no backup is taken")
}

func TestFileStore_BackupWithoutExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run_record.json")
	s := NewFileStore(path, discardLogger())

	_, err := s.Save(context.Background(), model.NewRunRecord(), model.SaveOptions{BackupFirst: true})
	require.NoError(t, err)

	_, err = os.Stat(BackupPath(path))
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestFileStore_NonDestructive(t *testing.T) {
	path := writeDoc(t, canonicalDoc)
	s := NewFileStore(path, discardLogger())
	s.now = func() time.Time { return time.Date(2024, 3, 1, 9, 15, 2, 123456000, time.UTC) }

	dest, err := s.Save(context.Background(), model.NewRunRecord(), model.SaveOptions{NonDestructive: true})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(filepath.Dir(path), "run_record_2024-03-01_09:15:02.123456.json"), dest)

	original, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, canonicalDoc, string(original), "destination must be untouched")
}

func TestFileStore_SkipWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run_record.json")
	s := NewFileStore(path, discardLogger())

	dest, err := s.Save(context.Background(), model.NewRunRecord(), model.SaveOptions{SkipWrite: true})
	require.NoError(t, err)
	assert.Empty(t, dest)
	_, err = os.Stat(path)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestEncode_SortsWithoutMutating(t *testing.T) {
	rec := &model.RunRecord{SeenIDs: map[string][]string{"acme": {"b", "a"}}}

	data, err := Encode(rec)
	require.NoError(t, err)
	assert.Contains(t, string(data), "\"a\",\n            \"b\"")
	assert.Equal(t, []string{"b", "a"}, rec.SeenIDs["acme"])
	assert.Contains(t, string(data), `"errors": []`)
}

func TestPaths(t *testing.T) {
	assert.Equal(t, "data/run_record_backup.json", BackupPath("data/run_record.json"))
	assert.Equal(t, "record_backup", BackupPath("record"))
	ts := time.Date(2024, 12, 31, 23, 59, 59, 0, time.UTC)
	assert.Equal(t, "run_record_2024-12-31_23:59:59.000000.json", TimestampPath("run_record.json", ts))
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(nil)

	_, err := s.Load(ctx)
	require.ErrorIs(t, err, ErrNotFound)

	first := &model.RunRecord{SeenIDs: map[string][]string{"acme": {"a"}}}
	_, err = s.Save(ctx, first, model.SaveOptions{})
	require.NoError(t, err)

	first.SeenIDs["acme"][0] = "mutated"
	got, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, got.SeenIDs["acme"], "store must keep its own copy")

	_, err = s.Save(ctx, model.NewRunRecord(), model.SaveOptions{BackupFirst: true, NonDestructive: true})
	require.NoError(t, err)
	assert.Nil(t, s.Backup(), "non-destructive save takes no backup")
	assert.Len(t, s.Snapshots(), 1)

	_, err = s.Save(ctx, model.NewRunRecord(), model.SaveOptions{BackupFirst: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, s.Backup().SeenIDs["acme"])
	assert.Equal(t, 3, s.Saves())
}

func TestLock_Exclusive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run_record.json")

	unlock, err := Lock(path)
	require.NoError(t, err)

	_, err = Lock(path)
	assert.ErrorIs(t, err, ErrLocked)

	require.NoError(t, unlock())
	unlock2, err := Lock(path)
	require.NoError(t, err)
	require.NoError(t, unlock2())
}
