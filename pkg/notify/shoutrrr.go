package notify

import (
	"context"
	"filescanner/pkg/domain"
	"filescanner/pkg/logger"
	"fmt"
	"slices"

	"github.com/containrrr/shoutrrr/pkg/router"
	"github.com/containrrr/shoutrrr/pkg/types"
	"go.uber.org/zap"
)

// Sender sends a message to one or more services. *router.ServiceRouter
// implements it.
type Sender interface {
	Send(message string, params *types.Params) []error
}

// ShoutrrrOptions select which events are delivered.
type ShoutrrrOptions struct {
	// Events defaults to COMPLETED and FAILED.
	Events []domain.ScanEventKind
	// DetectionsOnly drops COMPLETED events with a CLEAN verdict.
	DetectionsOnly bool
}

// Shoutrrr delivers events through shoutrrr service URLs.
type Shoutrrr struct {
	sender  Sender
	options ShoutrrrOptions
}

// NewShoutrrr builds a router for the given service URLs.
func NewShoutrrr(urls []string, options ShoutrrrOptions) (*Shoutrrr, error) {
	sr, err := router.New(nil, urls...)
	if err != nil {
		return nil, fmt.Errorf("could not create notification router: %w", err)
	}

	return NewShoutrrrWithSender(sr, options), nil
}

// NewShoutrrrWithSender wraps an existing Sender.
func NewShoutrrrWithSender(sender Sender, options ShoutrrrOptions) *Shoutrrr {
	if len(options.Events) == 0 {
		options.Events = []domain.ScanEventKind{domain.ScanEventCompleted, domain.ScanEventFailed}
	}

	return &Shoutrrr{sender: sender, options: options}
}

func (s *Shoutrrr) wants(event domain.ScanEvent) bool {
	if !slices.Contains(s.options.Events, event.Kind) {
		return false
	}
	if s.options.DetectionsOnly && event.Kind == domain.ScanEventCompleted {
		return event.Result != nil && event.Result.Status != domain.ScanStatusClean
	}

	return true
}

func (s *Shoutrrr) Notify(ctx context.Context, event domain.ScanEvent) {
	if !s.wants(event) {
		return
	}

	params := types.Params{
		"title": Title(event),
	}
	for _, err := range s.sender.Send(Message(event), &params) {
		if err != nil {
			logger.Error(ctx, "could not send notification", zap.Error(err), zap.String("path", event.Path))
		}
	}
}
