package inventory

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryStore is an in-memory Store for tests and examples.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]memoryRecord
	now     func() time.Time
}

type memoryRecord struct {
	snapshot Snapshot
	meta     Meta
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: map[string]memoryRecord{}, now: time.Now}
}

func (s *MemoryStore) Load(_ context.Context, id string) (Snapshot, Meta, bool, error) {
	s.mu.RLock()
	record, ok := s.records[id]
	s.mu.RUnlock()
	if !ok {
		return Snapshot{}, Meta{}, false, nil
	}
	return record.snapshot, CloneMeta(record.meta), true, nil
}

func (s *MemoryStore) Save(_ context.Context, snapshot Snapshot, meta Meta) (Meta, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, found := s.records[meta.SnapshotID]
	saved, err := PrepareSave(snapshot, meta, existing.meta, found, s.now())
	if err != nil {
		return saved, err
	}
	s.records[saved.SnapshotID] = memoryRecord{snapshot: snapshot, meta: saved}
	return CloneMeta(saved), nil
}

// List returns stored metadata, most recently updated first.
func (s *MemoryStore) List(_ context.Context) ([]Meta, error) {
	s.mu.RLock()
	out := make([]Meta, 0, len(s.records))
	for _, record := range s.records {
		out = append(out, CloneMeta(record.meta))
	}
	s.mu.RUnlock()
	sortMetas(out)
	return out, nil
}

func sortMetas(metas []Meta) {
	sort.Slice(metas, func(i, j int) bool {
		if !metas[i].UpdatedAt.Equal(metas[j].UpdatedAt) {
			return metas[i].UpdatedAt.After(metas[j].UpdatedAt)
		}
		return metas[i].SnapshotID > metas[j].SnapshotID
	})
}
