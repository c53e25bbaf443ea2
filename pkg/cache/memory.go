package cache

import (
	"context"
	"filescanner/pkg/domain"
	"sync"
	"time"
)

type entry struct {
	result     domain.ScanResult
	insertedAt time.Time
}

// MemoryOptions configure a Memory cache.
type MemoryOptions struct {
	// TTL defaults to DefaultTTL.
	TTL time.Duration
	// Now defaults to time.Now.
	Now func() time.Time
}

// Memory is a process-local Cache. Expired entries are dropped lazily on
// lookup, or eagerly by Purge.
type Memory struct {
	mu      sync.RWMutex
	entries map[domain.FileDigest]entry
	ttl     time.Duration
	now     func() time.Time
}

// NewMemory creates an empty Memory cache.
func NewMemory(opts MemoryOptions) *Memory {
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Memory{
		entries: make(map[domain.FileDigest]entry),
		ttl:     opts.TTL,
		now:     opts.Now,
	}
}

func (m *Memory) Lookup(_ context.Context, digest domain.FileDigest) (*domain.ScanResult, bool, error) {
	m.mu.RLock()
	e, ok := m.entries[digest]
	m.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}

	if m.now().Sub(e.insertedAt) >= m.ttl {
		m.mu.Lock()
		// a concurrent Store may have refreshed it in between
		if cur, ok := m.entries[digest]; ok && cur.insertedAt.Equal(e.insertedAt) {
			delete(m.entries, digest)
		}
		m.mu.Unlock()

		return nil, false, nil
	}

	res := e.result

	return &res, true, nil
}

func (m *Memory) Store(_ context.Context, digest domain.FileDigest, result domain.ScanResult) error {
	now := m.now()

	m.mu.Lock()
	m.entries[digest] = entry{result: result, insertedAt: now}
	m.mu.Unlock()

	return nil
}

// Purge removes every expired entry and returns how many were removed.
func (m *Memory) Purge() int {
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for digest, e := range m.entries {
		if now.Sub(e.insertedAt) >= m.ttl {
			delete(m.entries, digest)
			removed++
		}
	}

	return removed
}

// Len returns the number of entries, expired ones included.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.entries)
}

// Run purges expired entries every interval until ctx is done.
func (m *Memory) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Purge()
		}
	}
}

var _ Cache = (*Memory)(nil)
