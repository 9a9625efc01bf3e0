package chaincache

import (
	"context"
	"sync"
	"time"

	"proofstamp/internal/domain"
	"proofstamp/internal/usecase"
)

// Cache holds chain lookup results in memory. Entries expire by TTL; a zero
// TTL pins the entry until process exit.
type Cache struct {
	mu      sync.Mutex
	entries map[string]cacheEntry
}

type cacheEntry struct {
	record    domain.ChainRecord
	expiresAt time.Time
	hasExpiry bool
}

func New() *Cache {
	return &Cache{
		entries: make(map[string]cacheEntry),
	}
}

func (c *Cache) Get(ctx context.Context, hash string) (*domain.ChainRecord, bool, error) {
	if c == nil {
		return nil, false, nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[hash]
	if !ok {
		return nil, false, nil
	}
	if entry.hasExpiry && time.Now().After(entry.expiresAt) {
		delete(c.entries, hash)
		return nil, false, nil
	}
	record := entry.record
	return &record, true, nil
}

func (c *Cache) Put(ctx context.Context, hash string, record domain.ChainRecord, ttl time.Duration) error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	entry := cacheEntry{record: record}
	if ttl > 0 {
		entry.hasExpiry = true
		entry.expiresAt = time.Now().Add(ttl)
	}
	c.entries[hash] = entry
	return nil
}

var _ usecase.VerifyCache = (*Cache)(nil)
