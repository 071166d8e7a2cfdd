package deduplication

import (
	"context"
	"strings"
	"sync"
	"time"
)

type Repository interface {
	SetNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error)
	DeleteIfValue(ctx context.Context, key, value string) (bool, error)
	GetCacheSize(ctx context.Context, prefix string) (int, error)
}

type memoryEntry struct {
	value     string
	expiresAt time.Time
}

// MemoryRepository is a process-local expiring key set. Expired entries are
// ignored on lookup and physically removed by Sweep.
type MemoryRepository struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	clock   Clock
}

func NewMemoryRepository(clock Clock) *MemoryRepository {
	if clock == nil {
		clock = SystemClock()
	}
	return &MemoryRepository{
		entries: make(map[string]memoryEntry),
		clock:   clock,
	}
}

// SetNX stores key only if no live entry exists and reports whether it did.
func (r *MemoryRepository) SetNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	now := r.clock.Now()

	r.mu.Lock()
	defer r.mu.Unlock()

	if entry, ok := r.entries[key]; ok && now.Before(entry.expiresAt) {
		return false, nil
	}

	r.entries[key] = memoryEntry{
		value:     value,
		expiresAt: now.Add(ttl),
	}
	return true, nil
}

// DeleteIfValue removes key only while it is live and still holds value,
// and reports whether it did.
func (r *MemoryRepository) DeleteIfValue(ctx context.Context, key, value string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	now := r.clock.Now()

	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.entries[key]
	if !ok || !now.Before(entry.expiresAt) || entry.value != value {
		return false, nil
	}
	delete(r.entries, key)
	return true, nil
}

// GetCacheSize counts live entries whose key starts with prefix.
func (r *MemoryRepository) GetCacheSize(ctx context.Context, prefix string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	now := r.clock.Now()

	r.mu.Lock()
	defer r.mu.Unlock()

	count := 0
	for key, entry := range r.entries {
		if strings.HasPrefix(key, prefix) && now.Before(entry.expiresAt) {
			count++
		}
	}
	return count, nil
}

// Sweep removes expired entries and returns how many were dropped.
func (r *MemoryRepository) Sweep() int {
	now := r.clock.Now()

	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for key, entry := range r.entries {
		if !now.Before(entry.expiresAt) {
			delete(r.entries, key)
			removed++
		}
	}
	return removed
}
