package scanner

import (
	"context"
	"filescanner/pkg/domain"
)

// Scanner produces the verdict of a single local file.
//
//go:generate mockgen -package mockscanner -source=interface.go -destination=mock/mockscanner.go *
type Scanner interface {
	// Scan hashes the file, serves a cached verdict when one exists and
	// otherwise uploads the file and polls its analysis until it completes.
	Scan(ctx context.Context, path string) (*domain.ScanResult, error)
	// CheckAPIKey verifies the remote service accepts the configured key.
	CheckAPIKey(ctx context.Context) error
}
