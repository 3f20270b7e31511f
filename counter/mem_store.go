package counter

import (
	"context"
	"sync"
	"time"
)

// MemStore 内存中的Store,只能用于单个进程
type MemStore struct {
	mu      sync.RWMutex
	entries map[string]*Entry
	now     func() time.Time
}

// NewMemStore create MemStore
func NewMemStore() *MemStore {
	return &MemStore{
		entries: map[string]*Entry{},
		now:     Now,
	}
}

// Fetch implements Store.Fetch
func (p *MemStore) Fetch(ctx context.Context, id string) (*Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, newError(KindTransient, "fetch", id, err)
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	entry, ok := p.entries[id]
	if !ok {
		return nil, newError(KindNotFound, "fetch", id, nil)
	}
	copied := *entry
	return &copied, nil
}

// IncrementOrCreate implements Store.IncrementOrCreate
func (p *MemStore) IncrementOrCreate(ctx context.Context, id string) (*Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, newError(KindTransient, "increment", id, err)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	now := p.now()
	entry, ok := p.entries[id]
	if !ok {
		entry = &Entry{ID: id}
		p.entries[id] = entry
	}
	entry.Count++
	if now.After(entry.ModifiedAt) {
		entry.ModifiedAt = now
	}
	copied := *entry
	return &copied, nil
}

// Len returns the number of entries
func (p *MemStore) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.entries)
}
