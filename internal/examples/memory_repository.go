package examples

import (
	"context"
	"errors"
	"sync"

	"github.com/goliatone/go-postembed/pkg/interfaces"
)

// MemoryRepository stores examples in-memory.
type MemoryRepository struct {
	mu      sync.RWMutex
	records map[int64]*interfaces.ExampleRecord
	nextID  int64
}

// NewMemoryRepository constructs an in-memory repository seeded with records.
// Nil seeds are skipped and seeds without an ID get the next free one.
func NewMemoryRepository(seed ...*interfaces.ExampleRecord) *MemoryRepository {
	repo := &MemoryRepository{records: make(map[int64]*interfaces.ExampleRecord)}
	for _, record := range seed {
		if record != nil {
			repo.store(record)
		}
	}
	return repo
}

// GetByID returns the example or a NotFoundError.
func (r *MemoryRepository) GetByID(ctx context.Context, id int64) (*interfaces.ExampleRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	record, ok := r.records[id]
	if !ok {
		return nil, &NotFoundError{ID: id}
	}
	return cloneRecord(record), nil
}

// Save inserts or replaces a record. A zero ID is assigned the next free value.
func (r *MemoryRepository) Save(_ context.Context, record *interfaces.ExampleRecord) (*interfaces.ExampleRecord, error) {
	if record == nil {
		return nil, errors.New("examples: record is required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return cloneRecord(r.store(record)), nil
}

// store must be called with the write lock held or before the repository is shared.
func (r *MemoryRepository) store(record *interfaces.ExampleRecord) *interfaces.ExampleRecord {
	stored := cloneRecord(record)
	if stored.ID == 0 {
		r.nextID++
		stored.ID = r.nextID
	}
	if stored.ID > r.nextID {
		r.nextID = stored.ID
	}
	r.records[stored.ID] = stored
	return stored
}

// Delete removes a record.
func (r *MemoryRepository) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.records[id]; !ok {
		return &NotFoundError{ID: id}
	}
	delete(r.records, id)
	return nil
}
