// Package history keeps the bounded, ordered record of completed scans.
package history

import (
	"context"
	"filescanner/pkg/domain"
	"filescanner/pkg/logger"
	"filescanner/pkg/metrics"
	"filescanner/pkg/storage"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// DefaultLimit is the capacity used when none is configured.
const DefaultLimit = 1000

// Options configure a History.
type Options struct {
	// Limit is the maximum number of kept entries; DefaultLimit when not positive.
	Limit int
	// Storage optionally mirrors every change to disk.
	Storage storage.HistoryStorage
	Metrics *metrics.Metrics
}

// History is a FIFO of scan results capped at a limit: once full, appending
// evicts exactly the oldest entry. It is safe for concurrent use. Storage is
// written outside of mu, under persistMu, so writes reach it in the same order
// as they were applied in memory.
type History struct {
	persistMu sync.Mutex
	mu        sync.RWMutex
	limit     int
	entries   []domain.ScanResult

	store   storage.HistoryStorage
	metrics *metrics.Metrics
}

// New creates an empty History.
func New(opts Options) *History {
	if opts.Limit <= 0 {
		opts.Limit = DefaultLimit
	}

	return &History{
		limit:   opts.Limit,
		store:   opts.Storage,
		metrics: opts.Metrics,
	}
}

// Load replaces the in-memory entries with the persisted ones, keeping the
// newest Limit entries.
func (h *History) Load(ctx context.Context) error {
	if h.store == nil {
		return nil
	}
	h.persistMu.Lock()
	defer h.persistMu.Unlock()

	scans, err := h.store.Scans(ctx)
	if err != nil {
		return fmt.Errorf("could not load history: %w", err)
	}

	h.mu.Lock()
	h.entries = tail(scans, h.limit)
	n := len(h.entries)
	h.mu.Unlock()
	h.metrics.HistorySize(n)

	return nil
}

func tail(rs []domain.ScanResult, n int) []domain.ScanResult {
	if len(rs) > n {
		rs = rs[len(rs)-n:]
	}

	return append([]domain.ScanResult(nil), rs...)
}

// Append records result as the newest entry. The in-memory append always
// happens; the returned error only reports a persistence failure.
func (h *History) Append(ctx context.Context, result domain.ScanResult) error {
	h.persistMu.Lock()
	defer h.persistMu.Unlock()

	h.mu.Lock()
	if len(h.entries) >= h.limit {
		evict := len(h.entries) - h.limit + 1
		h.entries = append(h.entries[:0:0], h.entries[evict:]...)
	}
	h.entries = append(h.entries, result)
	limit, n := h.limit, len(h.entries)
	h.mu.Unlock()
	h.metrics.HistorySize(n)

	if h.store == nil {
		return nil
	}
	if err := h.store.AppendScan(ctx, result, limit); err != nil {
		return fmt.Errorf("could not persist history entry: %w", err)
	}

	return nil
}

// Entries returns a copy of every entry, oldest first.
func (h *History) Entries() []domain.ScanResult {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return append([]domain.ScanResult(nil), h.entries...)
}

// Recent returns up to n entries, newest first. A non-positive n returns all.
func (h *History) Recent(n int) []domain.ScanResult {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if n <= 0 || n > len(h.entries) {
		n = len(h.entries)
	}
	out := make([]domain.ScanResult, 0, n)
	for i := len(h.entries) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, h.entries[i])
	}

	return out
}

// LastScanned returns the scan date of the newest entry for path.
func (h *History) LastScanned(path string) (time.Time, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for i := len(h.entries) - 1; i >= 0; i-- {
		if h.entries[i].FilePath == path {
			return h.entries[i].ScanDate, true
		}
	}

	return time.Time{}, false
}

// Len returns the number of entries.
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.entries)
}

// Limit returns the current capacity.
func (h *History) Limit() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return h.limit
}

// SetLimit changes the capacity, evicting the oldest entries when it shrinks.
func (h *History) SetLimit(ctx context.Context, limit int) {
	if limit <= 0 {
		limit = DefaultLimit
	}

	h.persistMu.Lock()
	defer h.persistMu.Unlock()

	h.mu.Lock()
	if limit == h.limit {
		h.mu.Unlock()

		return
	}
	h.limit = limit
	trimmed := len(h.entries) > limit
	if trimmed {
		h.entries = tail(h.entries, limit)
	}
	snapshot := append([]domain.ScanResult(nil), h.entries...)
	h.mu.Unlock()
	h.metrics.HistorySize(len(snapshot))

	if trimmed && h.store != nil {
		if err := h.store.ReplaceScans(ctx, snapshot); err != nil {
			logger.Warn(ctx, "could not persist trimmed history", zap.Error(err))
		}
	}
}

// Replace swaps every entry for results (oldest first), keeping the newest
// Limit of them. It is used to import exported history.
func (h *History) Replace(ctx context.Context, results []domain.ScanResult) error {
	h.persistMu.Lock()
	defer h.persistMu.Unlock()

	h.mu.Lock()
	h.entries = tail(results, h.limit)
	snapshot := append([]domain.ScanResult(nil), h.entries...)
	h.mu.Unlock()
	h.metrics.HistorySize(len(snapshot))

	if h.store == nil {
		return nil
	}
	if err := h.store.ReplaceScans(ctx, snapshot); err != nil {
		return fmt.Errorf("could not persist imported history: %w", err)
	}

	return nil
}

// Clear removes every entry.
func (h *History) Clear(ctx context.Context) error {
	h.persistMu.Lock()
	defer h.persistMu.Unlock()

	h.mu.Lock()
	h.entries = nil
	h.mu.Unlock()
	h.metrics.HistorySize(0)

	if h.store == nil {
		return nil
	}
	if err := h.store.ClearScans(ctx); err != nil {
		return fmt.Errorf("could not clear persisted history: %w", err)
	}

	return nil
}
