// Package notify delivers scan events to the log and to external services.
package notify

import (
	"context"
	"filescanner/pkg/domain"
	"filescanner/pkg/logger"
	"fmt"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"
)

// Sink receives scan events. Delivery failures are handled by the sink
// itself and never reach the scan pipeline.
type Sink interface {
	Notify(ctx context.Context, event domain.ScanEvent)
}

// Fanout forwards every event to each sink in order.
type Fanout []Sink

func (f Fanout) Notify(ctx context.Context, event domain.ScanEvent) {
	for _, s := range f {
		s.Notify(ctx, event)
	}
}

// Log writes events to the context logger.
type Log struct{}

func (Log) Notify(ctx context.Context, event domain.ScanEvent) {
	fields := []zap.Field{
		zap.Stringer("eventID", event.ID),
		zap.String("kind", string(event.Kind)),
		zap.String("path", event.Path),
	}

	switch event.Kind {
	case domain.ScanEventStarted:
		logger.Debug(ctx, "scan started", fields...)
	case domain.ScanEventCompleted:
		if r := event.Result; r != nil {
			fields = append(fields,
				zap.String("status", string(r.Status)),
				zap.Int("detections", r.DetectionCount),
				zap.Int("engines", r.TotalEngines),
				zap.String("permalink", r.Permalink))
		}
		logger.Info(ctx, "scan completed", fields...)
	case domain.ScanEventFailed:
		logger.Error(ctx, "scan failed", append(fields, zap.String("error", event.Error))...)
	}
}

// Title is a one-line headline for an event.
func Title(event domain.ScanEvent) string {
	switch event.Kind {
	case domain.ScanEventCompleted:
		if event.Result != nil {
			return fmt.Sprintf("%s: %s", event.Result.FileName, event.Result.Status)
		}

		return "scan completed"
	case domain.ScanEventFailed:
		return "scan failed"
	default:
		return "scan started"
	}
}

// Message is the human readable body of an event, e.g.
// "eicar.com: MALICIOUS (3/70 engines)".
func Message(event domain.ScanEvent) string {
	switch event.Kind {
	case domain.ScanEventCompleted:
		r := event.Result
		if r == nil {
			return event.Path
		}
		msg := fmt.Sprintf("%s: %s (%d/%d engines)", r.FileName, r.Status, r.DetectionCount, r.TotalEngines)
		msg += fmt.Sprintf("\n%s, %s", r.FilePath, humanize.Bytes(uint64(max(r.FileSize, 0)))) //nolint: gosec
		if r.Permalink != "" {
			msg += "\n" + r.Permalink
		}

		return msg
	case domain.ScanEventFailed:
		return fmt.Sprintf("%s: %s", event.Path, event.Error)
	default:
		return event.Path
	}
}
