// Package cache keeps recent scan results keyed by file digest, so unchanged
// files are not uploaded again within the expiration window.
package cache

import (
	"context"
	"filescanner/pkg/domain"
	"time"
)

// DefaultTTL is the expiration window of cached results.
const DefaultTTL = 24 * time.Hour

// Cache maps file digests to scan results. Implementations must be safe for
// concurrent use and must never return an entry older than their TTL.
type Cache interface {
	// Lookup returns the cached result for digest. ok is false on a miss or
	// when the entry has expired.
	Lookup(ctx context.Context, digest domain.FileDigest) (result *domain.ScanResult, ok bool, err error)
	// Store inserts or overwrites the result for digest, stamped with the current time.
	Store(ctx context.Context, digest domain.FileDigest, result domain.ScanResult) error
}
