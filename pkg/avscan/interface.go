// Package avscan defines the client abstraction for remote multi-engine
// malware scanning services: upload a file, then poll its analysis.
package avscan

import (
	"context"
	"filescanner/pkg/domain"
)

// AnalysisStatus is the remote state of an analysis.
type AnalysisStatus string

const (
	AnalysisQueued     AnalysisStatus = "queued"
	AnalysisInProgress AnalysisStatus = "in-progress"
	AnalysisCompleted  AnalysisStatus = "completed"
)

// ScanStatus maps the remote state onto the transient domain statuses.
func (s AnalysisStatus) ScanStatus() domain.ScanStatus {
	switch s {
	case AnalysisCompleted:
		return domain.ScanStatusCompleted
	case AnalysisInProgress:
		return domain.ScanStatusInProgress
	default:
		return domain.ScanStatusPending
	}
}

// MaxDirectUpload is the largest file the default upload endpoint accepts.
// Bigger files are sent to a one-off URL obtained with Client.UploadURL.
const MaxDirectUpload = 32 << 20

// UploadRes is the response of a successful upload.
type UploadRes struct {
	// AnalysisID identifies the analysis to poll.
	AnalysisID string
}

// Stats are the per-category engine counts of an analysis.
type Stats struct {
	Malicious  int
	Suspicious int
	Undetected int
	Harmless   int
	// Total is the number of engines that took part.
	Total int
}

// Analysis is one poll result.
type Analysis struct {
	Status AnalysisStatus
	// Stats and Engines are only meaningful once Status is AnalysisCompleted.
	Stats   Stats
	Engines map[string]domain.EngineVerdict
}

// Client talks to the remote scanning service. Implementations classify
// failures with serrors kinds: ErrAuth for rejected keys, ErrUpload and
// ErrAnalysis for failed requests, ErrProtocol for malformed responses and
// failed key checks.
//
//go:generate mockgen -package mockavscan -source=interface.go -destination=mock/mockavscan.go *
type Client interface {
	// UploadURL requests a one-off upload URL for a file larger than
	// MaxDirectUpload. It is a remote call of its own.
	UploadURL(ctx context.Context) (string, error)
	// UploadFile uploads the file at path for analysis. An empty target
	// selects the default upload endpoint.
	UploadFile(ctx context.Context, path, target string) (UploadRes, error)
	// Analysis fetches the current state of an analysis.
	Analysis(ctx context.Context, analysisID string) (*Analysis, error)
	// CheckAPIKey verifies the configured key is accepted.
	CheckAPIKey(ctx context.Context) error
	// Permalink returns the human-facing report URL of a file.
	Permalink(digest domain.FileDigest) string
}
