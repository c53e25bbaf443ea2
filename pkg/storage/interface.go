// Package storage defines how the scan history outlives the process. The
// in-memory history stays authoritative while running; storage only mirrors
// it so that a restart (or the history CLI) sees the same records.
//
//go:generate mockgen -package mockstorage -source=interface.go -destination=mock/mockstorage.go *
package storage

import (
	"context"
	"filescanner/pkg/domain"
)

// HistoryStorage persists scan results in insertion order.
type HistoryStorage interface {
	// AppendScan stores result as the newest record and drops the oldest
	// records beyond limit. A non-positive limit keeps everything.
	AppendScan(ctx context.Context, result domain.ScanResult, limit int) error
	// Scans returns every stored record, oldest first.
	Scans(ctx context.Context) ([]domain.ScanResult, error)
	// ReplaceScans atomically swaps the stored records for results (oldest first).
	ReplaceScans(ctx context.Context, results []domain.ScanResult) error
	// ClearScans removes every record.
	ClearScans(ctx context.Context) error
	// Close releases the underlying resources.
	Close() error
}
