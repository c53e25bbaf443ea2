package domain

import (
	"time"

	"github.com/google/uuid"
)

// FileDigest is the lowercase hex SHA-256 of a file's contents. It keys the
// result cache and identifies the file on the remote service.
type FileDigest string

// ScanStatus is the lifecycle state or final verdict of a scan.
type ScanStatus string

const (
	// ScanStatusPending indicates the remote analysis is queued.
	ScanStatusPending ScanStatus = "PENDING"
	// ScanStatusInProgress indicates the remote analysis is running.
	ScanStatusInProgress ScanStatus = "IN_PROGRESS"
	// ScanStatusCompleted indicates the remote analysis finished but has not been classified yet.
	ScanStatusCompleted ScanStatus = "COMPLETED"
	// ScanStatusFailed indicates the scan ended with an error.
	ScanStatusFailed ScanStatus = "FAILED"
	// ScanStatusClean indicates no engine flagged the file.
	ScanStatusClean ScanStatus = "CLEAN"
	// ScanStatusSuspicious indicates at least one engine found the file suspicious and none malicious.
	ScanStatusSuspicious ScanStatus = "SUSPICIOUS"
	// ScanStatusMalicious indicates at least one engine flagged the file as malicious.
	ScanStatusMalicious ScanStatus = "MALICIOUS"
)

// IsVerdict reports whether s is one of the final classifications.
func (s ScanStatus) IsVerdict() bool {
	return s == ScanStatusClean || s == ScanStatusSuspicious || s == ScanStatusMalicious
}

// Classify resolves the detection counts of a completed analysis into a verdict.
func Classify(malicious, suspicious int) ScanStatus {
	switch {
	case malicious > 0:
		return ScanStatusMalicious
	case suspicious > 0:
		return ScanStatusSuspicious
	default:
		return ScanStatusClean
	}
}

// EngineVerdict is the outcome reported by a single engine of the remote service.
type EngineVerdict struct {
	EngineName    string `json:"engineName"`
	Category      string `json:"category"`
	Result        string `json:"result,omitempty"`
	EngineVersion string `json:"engineVersion,omitempty"`
	EngineUpdate  string `json:"engineUpdate,omitempty"`
	// Detected is true when the engine categorized the file as malicious.
	Detected bool `json:"detected"`
}

// ScanResult is the classified outcome of scanning one file. Values are never
// mutated after they are produced; the cache and the history keep copies.
type ScanResult struct {
	FilePath string     `json:"filePath"`
	FileName string     `json:"fileName"`
	FileSize int64      `json:"fileSize"`
	Digest   FileDigest `json:"digest"`
	// ScanDate is the time the result was produced by the remote service.
	ScanDate time.Time  `json:"scanDate"`
	Status   ScanStatus `json:"status"`
	// DetectionCount is the sum of malicious and suspicious engine verdicts.
	DetectionCount int    `json:"detectionCount"`
	TotalEngines   int    `json:"totalEngines"`
	Permalink      string `json:"permalink"`

	Engines map[string]EngineVerdict `json:"engines,omitempty"`
}

// ScanEventKind tells what happened in a ScanEvent.
type ScanEventKind string

const (
	ScanEventStarted   ScanEventKind = "STARTED"
	ScanEventCompleted ScanEventKind = "COMPLETED"
	ScanEventFailed    ScanEventKind = "FAILED"
)

// ScanEvent is published to notification sinks for every scan request: one
// STARTED event followed by exactly one COMPLETED or FAILED event carrying the
// same ID.
type ScanEvent struct {
	ID   uuid.UUID     `json:"id"`
	Kind ScanEventKind `json:"kind"`
	Path string        `json:"path"`
	// Result is set for COMPLETED events.
	Result *ScanResult `json:"result,omitempty"`
	// Error is set for FAILED events.
	Error string    `json:"error,omitempty"`
	At    time.Time `json:"at"`
}
