package database

import (
	"context"
	"time"

	"github.com/ds124wfegd/icongen/internal/entity"
)

func NewMemoryOutputRepository() *MemoryOutputRepository {
	return &MemoryOutputRepository{
		now:     time.Now,
		entries: make(map[string]memoryEntry),
	}
}

func (r *MemoryOutputRepository) Save(_ context.Context, output *entity.Output, ttl time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := *output
	stored.Data = append([]byte(nil), output.Data...)
	r.entries[output.Token] = memoryEntry{output: stored, expiresAt: r.now().Add(ttl)}
	return nil
}

func (r *MemoryOutputRepository) Get(_ context.Context, token string) (*entity.Output, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.entries[token]
	if !ok || !r.now().Before(entry.expiresAt) {
		delete(r.entries, token)
		return nil, entity.ErrOutputNotFound
	}
	out := entry.output
	return &out, nil
}

func (r *MemoryOutputRepository) Delete(_ context.Context, token string) error {
	r.mu.Lock()
	delete(r.entries, token)
	r.mu.Unlock()
	return nil
}

// Purge drops expired entries and returns how many were removed.
func (r *MemoryOutputRepository) Purge() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	removed := 0
	for token, entry := range r.entries {
		if !now.Before(entry.expiresAt) {
			delete(r.entries, token)
			removed++
		}
	}
	return removed
}
