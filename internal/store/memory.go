package store

import (
	"context"
	"sync"

	"github.com/jo-room/job-scrape/internal/model"
)

var _ model.RunStore = (*MemoryStore)(nil)

// MemoryStore keeps the run record in process. It is used for dry runs and
// tests; non-destructive saves are kept as snapshots instead of replacing the
// current record.
type MemoryStore struct {
	mu        sync.Mutex
	current   *model.RunRecord
	backup    *model.RunRecord
	snapshots []*model.RunRecord
	saves     int
}

// NewMemoryStore returns a store holding rec. A nil rec makes Load return
// ErrNotFound until the first save.
func NewMemoryStore(rec *model.RunRecord) *MemoryStore {
	return &MemoryStore{current: cloneRecord(rec)}
}

func (s *MemoryStore) Load(_ context.Context) (*model.RunRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return nil, ErrNotFound
	}
	return cloneRecord(s.current), nil
}

func (s *MemoryStore) Save(_ context.Context, rec *model.RunRecord, opts model.SaveOptions) (string, error) {
	if opts.SkipWrite {
		return "", nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.saves++
	if opts.BackupFirst && !opts.NonDestructive && s.current != nil {
		s.backup = cloneRecord(s.current)
	}
	if opts.NonDestructive {
		s.snapshots = append(s.snapshots, cloneRecord(rec))
		return "memory:snapshot", nil
	}
	s.current = cloneRecord(rec)
	return "memory", nil
}

// Saves returns how many writes were performed.
func (s *MemoryStore) Saves() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}

// Backup returns the record copied aside by the last backup, if any.
func (s *MemoryStore) Backup() *model.RunRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneRecord(s.backup)
}

// Snapshots returns the records written by non-destructive saves.
func (s *MemoryStore) Snapshots() []*model.RunRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*model.RunRecord, len(s.snapshots))
	for i, r := range s.snapshots {
		out[i] = cloneRecord(r)
	}
	return out
}

func cloneRecord(rec *model.RunRecord) *model.RunRecord {
	if rec == nil {
		return nil
	}
	out := model.NewRunRecord()
	for name, ids := range rec.SeenIDs {
		out.SeenIDs[name] = append([]string(nil), ids...)
	}
	out.Errors = append(out.Errors, rec.Errors...)
	return out
}
