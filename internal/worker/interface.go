package worker

import (
	"context"
	"filescanner/pkg/domain"

	"github.com/google/uuid"
)

// Pipeline is the single path every scan takes, on demand or in the
// background: retry around permit-bounded attempts, then history and
// notifications.
//
//go:generate mockgen -package mockworker -source=interface.go -destination=mock/mockworker.go *
type Pipeline interface {
	// Scan runs the scan in the caller's goroutine.
	Scan(ctx context.Context, path string) (*domain.ScanResult, error)
	// Submit starts the scan in the background and returns its event ID.
	Submit(path string) uuid.UUID
	// Wait blocks until every submitted scan has returned.
	Wait()
}
