package documents

import (
	"context"
	"sync"
	"time"

	"github.com/goliatone/go-postembed/internal/markdown"
	"github.com/goliatone/go-postembed/pkg/interfaces"
)

type memoryEntry struct {
	source    []byte
	updatedAt time.Time
}

// MemoryRepository keeps post sources in-memory.
type MemoryRepository struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	now     func() time.Time
}

// NewMemoryRepository constructs an empty in-memory repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		entries: make(map[string]memoryEntry),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Get splits the stored source for site/slug.
func (r *MemoryRepository) Get(ctx context.Context, site, slugValue string) (*interfaces.RawDocument, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	site, key, err := NormalizeKey(site, slugValue)
	if err != nil {
		return nil, err
	}
	r.mu.RLock()
	entry, ok := r.entries[memoryKey(site, key)]
	r.mu.RUnlock()
	if !ok {
		return nil, &NotFoundError{Site: site, Slug: key}
	}
	return markdown.BuildDocument(site, key, entry.source, entry.updatedAt)
}

// Put stores source under site/slug, replacing any previous version.
func (r *MemoryRepository) Put(ctx context.Context, site, slugValue string, source []byte) (*interfaces.RawDocument, error) {
	site, key, err := NormalizeKey(site, slugValue)
	if err != nil {
		return nil, err
	}
	doc, err := markdown.BuildDocument(site, key, source, r.now())
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	r.entries[memoryKey(site, key)] = memoryEntry{
		source:    append([]byte(nil), source...),
		updatedAt: doc.UpdatedAt,
	}
	r.mu.Unlock()
	return doc, nil
}

// Delete removes the post stored under site/slug.
func (r *MemoryRepository) Delete(_ context.Context, site, slugValue string) error {
	site, key, err := NormalizeKey(site, slugValue)
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entries[memoryKey(site, key)]; !ok {
		return &NotFoundError{Site: site, Slug: key}
	}
	delete(r.entries, memoryKey(site, key))
	return nil
}

func memoryKey(site, slugValue string) string {
	return site + "\x00" + slugValue
}
