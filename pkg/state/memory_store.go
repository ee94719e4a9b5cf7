package state

import (
	"context"
	"fmt"
	"sync"

	entity "github.com/goliatone/go-entities"
)

// MemoryStore is an in-memory Store intended for tests and examples. It keys
// records by Ref.Identifier() and enforces ETags the same way FileStore does.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]memoryRecord
}

type memoryRecord struct {
	snapshot entity.Snapshot
	meta     Meta
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: map[string]memoryRecord{}}
}

func (s *MemoryStore) Load(_ context.Context, ref Ref) (entity.Snapshot, Meta, bool, error) {
	key, err := ref.Identifier()
	if err != nil {
		return entity.Snapshot{}, Meta{}, false, err
	}

	s.mu.RLock()
	record, ok := s.records[key]
	s.mu.RUnlock()
	if !ok {
		return entity.Snapshot{}, Meta{}, false, nil
	}
	return cloneSnapshot(record.snapshot), cloneMeta(record.meta), true, nil
}

func (s *MemoryStore) Save(_ context.Context, ref Ref, snapshot entity.Snapshot, meta Meta) (Meta, error) {
	key, err := ref.Identifier()
	if err != nil {
		return Meta{}, err
	}
	payload, err := encodeJSON(snapshot)
	if err != nil {
		return Meta{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if current, ok := s.records[key]; ok && meta.ETag != "" && meta.ETag != current.meta.ETag {
		return Meta{}, fmt.Errorf("%w: expected %q, got %q", ErrETagMismatch, meta.ETag, current.meta.ETag)
	}
	stored := cloneMeta(meta)
	stored.ETag = digest(payload)
	s.records[key] = memoryRecord{snapshot: cloneSnapshot(snapshot), meta: stored}
	return cloneMeta(stored), nil
}

// Delete drops the record stored under ref.
func (s *MemoryStore) Delete(_ context.Context, ref Ref) error {
	key, err := ref.Identifier()
	if err != nil {
		return err
	}
	s.mu.Lock()
	delete(s.records, key)
	s.mu.Unlock()
	return nil
}

func cloneMeta(meta Meta) Meta {
	out := meta
	if meta.Extra == nil {
		return out
	}
	out.Extra = make(map[string]string, len(meta.Extra))
	for k, v := range meta.Extra {
		out.Extra[k] = v
	}
	return out
}

func cloneSnapshot(snapshot entity.Snapshot) entity.Snapshot {
	out := snapshot
	if snapshot.Descriptor != nil {
		out.Descriptor = append([]byte(nil), snapshot.Descriptor...)
	}
	return out
}
