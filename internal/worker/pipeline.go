package worker

import (
	"context"
	"errors"
	"filescanner/internal/config"
	"filescanner/internal/scanner"
	"filescanner/pkg/domain"
	"filescanner/pkg/logger"
	"filescanner/pkg/metrics"
	"filescanner/pkg/notify"
	"filescanner/pkg/retry"
	"filescanner/pkg/serrors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// PipelineOptions configure the retry budget of a scan.
type PipelineOptions struct {
	Retry retry.Policy
}

// NewPipelineOptions constructs a PipelineOptions value from the provided
// application config. The config is expected to be validated.
func NewPipelineOptions(cfg *config.Config) PipelineOptions {
	strategy, _ := retry.ParseStrategy(cfg.Scanner.RetryBackoff)

	return PipelineOptions{
		Retry: retry.Policy{
			Retries:  cfg.Scanner.RetryAttempts,
			Delay:    cfg.Scanner.RetryDelay,
			Strategy: strategy,
		},
	}
}

// Permits bound the number of attempts running at once.
type Permits interface {
	Acquire(ctx context.Context) error
	Release()
}

// Recorder keeps successful results.
type Recorder interface {
	Append(ctx context.Context, result domain.ScanResult) error
}

// PipelineDeps are the collaborators of a Pipeline.
type PipelineDeps struct {
	Scanner scanner.Scanner
	Permits Permits
	History Recorder
	// Sink defaults to notify.Log. The pipeline does not log outcomes itself;
	// include notify.Log in the sink to keep them in the log.
	Sink notify.Sink
	// Metrics is optional.
	Metrics *metrics.Metrics
}

type pipeline struct {
	ctx     context.Context //nolint: containedctx
	deps    PipelineDeps
	options PipelineOptions
	wg      sync.WaitGroup
}

// NewPipeline creates a Pipeline. Scans started by Submit run under ctx and
// stop when it is cancelled.
func NewPipeline(ctx context.Context, deps PipelineDeps, options PipelineOptions) Pipeline {
	if deps.Sink == nil {
		deps.Sink = notify.Log{}
	}

	return &pipeline{
		ctx:     ctx,
		deps:    deps,
		options: options,
	}
}

func (p *pipeline) Scan(ctx context.Context, path string) (*domain.ScanResult, error) {
	return p.scan(ctx, uuid.New(), path)
}

func (p *pipeline) Submit(path string) uuid.UUID {
	id := uuid.New()
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		_, _ = p.scan(p.ctx, id, path)
	}()

	return id
}

func (p *pipeline) Wait() {
	p.wg.Wait()
}

// scan emits exactly one STARTED and one COMPLETED or FAILED event per call.
// Outcomes are logged by the sink.
func (p *pipeline) scan(ctx context.Context, id uuid.UUID, path string) (*domain.ScanResult, error) {
	ctx = logger.WithFields(ctx, zap.Stringer("scanID", id), zap.String("path", path))
	start := time.Now()
	p.deps.Sink.Notify(ctx, domain.ScanEvent{ID: id, Kind: domain.ScanEventStarted, Path: path, At: start})

	policy := p.options.Retry
	policy.OnRetry = func(err error, attempt int, next time.Duration) {
		p.deps.Metrics.Retry()
		logger.Warn(ctx, "scan attempt failed, retrying",
			zap.Error(err), zap.Int("attempt", attempt), zap.Duration("retryIn", next))
	}

	res, err := retry.Do(ctx, policy, func(ctx context.Context, attempt int) (*domain.ScanResult, error) {
		if err := p.deps.Permits.Acquire(ctx); err != nil {
			return nil, err //nolint: wrapcheck
		}
		defer p.deps.Permits.Release()

		logger.Debug(ctx, "scan attempt started", zap.Int("attempt", attempt))

		return p.deps.Scanner.Scan(ctx, path) //nolint: wrapcheck
	})
	if err != nil {
		p.deps.Metrics.ScanFinished(failureLabel(err), 0)
		p.deps.Sink.Notify(ctx, domain.ScanEvent{
			ID: id, Kind: domain.ScanEventFailed, Path: path, Error: err.Error(), At: time.Now(),
		})

		return nil, err
	}

	if err := p.deps.History.Append(ctx, *res); err != nil {
		logger.Warn(ctx, "could not persist scan history", zap.Error(err))
	}
	p.deps.Metrics.ScanFinished(string(res.Status), time.Since(start))
	p.deps.Sink.Notify(ctx, domain.ScanEvent{
		ID: id, Kind: domain.ScanEventCompleted, Path: path, Result: res, At: time.Now(),
	})

	return res, nil
}

// failureLabel names a failure for metrics.
func failureLabel(err error) string {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return "CANCELED"
	}
	if k := serrors.KindOf(err); k != nil {
		return k.Error()
	}

	return string(domain.ScanStatusFailed)
}
