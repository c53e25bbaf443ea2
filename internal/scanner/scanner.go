package scanner

import (
	"context"
	"errors"
	"filescanner/internal/config"
	"filescanner/pkg/avscan"
	"filescanner/pkg/cache"
	"filescanner/pkg/domain"
	"filescanner/pkg/logger"
	"filescanner/pkg/metrics"
	"filescanner/pkg/serrors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Options configure how an analysis is polled.
// These settings are typically derived from application configuration.
type Options struct {
	// PollAttempts is the maximum number of analysis polls before the scan
	// fails with a timeout.
	PollAttempts int
	// PollInterval is the delay between two polls of a pending analysis.
	PollInterval time.Duration
}

// NewOptions constructs an Options value from the provided application config.
func NewOptions(cfg *config.Config) Options {
	return Options{
		PollAttempts: cfg.Scanner.PollAttempts,
		PollInterval: cfg.Scanner.PollInterval,
	}
}

// Limiter spaces outbound requests. It is shared by every scan.
type Limiter interface {
	Wait(ctx context.Context) error
}

// Hasher computes the digest of a file.
type Hasher interface {
	Hash(path string) (domain.FileDigest, error)
}

// Deps are the collaborators of a Scanner.
type Deps struct {
	Client  avscan.Client
	Cache   cache.Cache
	Limiter Limiter
	Hasher  Hasher
	// Metrics is optional.
	Metrics *metrics.Metrics
	// Tracer defaults to the global tracer provider.
	Tracer trace.Tracer
	// Now defaults to time.Now.
	Now func() time.Time
}

// scanner is the concrete implementation of the Scanner interface.
type scanner struct {
	options Options
	deps    Deps
}

// New creates a new Scanner with the given collaborators and options.
func New(deps Deps, options Options) Scanner {
	if deps.Tracer == nil {
		deps.Tracer = otel.Tracer("filescanner/internal/scanner")
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if options.PollAttempts < 1 {
		options.PollAttempts = 1
	}

	return &scanner{
		options: options,
		deps:    deps,
	}
}

// Scan runs the whole state machine of a single file inside a trace span.
// Every returned error carries a serrors kind, or is a context error.
func (s *scanner) Scan(ctx context.Context, path string) (*domain.ScanResult, error) {
	ctx, span := s.deps.Tracer.Start(ctx, "scanner.Scan", trace.WithAttributes(attribute.String("file.path", path)))
	defer span.End()

	res, err := s.scan(ctx, path)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())

		return nil, err
	}
	span.SetAttributes(
		attribute.String("file.digest", string(res.Digest)),
		attribute.String("scan.status", string(res.Status)),
	)

	return res, nil
}

func (s *scanner) scan(ctx context.Context, path string) (*domain.ScanResult, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, serrors.Wrap(serrors.ErrNotFound, err, "file not found")
		}

		return nil, serrors.Wrap(serrors.ErrIO, err, "could not stat file")
	}
	if info.IsDir() {
		return nil, serrors.With(serrors.ErrIO, "%s is a directory", path)
	}

	digest, err := s.deps.Hasher.Hash(path)
	if err != nil {
		return nil, fmt.Errorf("could not hash file: %w", err)
	}
	ctx = logger.WithFields(ctx, zap.String("digest", string(digest)))

	if cached := s.lookup(ctx, digest); cached != nil {
		// the same content may live under another path
		res := *cached
		res.FilePath = path
		res.FileName = filepath.Base(path)
		res.FileSize = info.Size()
		logger.Debug(ctx, "serving verdict from cache", zap.String("status", string(res.Status)))

		return &res, nil
	}

	var target string
	if info.Size() > avscan.MaxDirectUpload {
		if err := s.deps.Limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("could not wait for rate limiter: %w", err)
		}
		if target, err = s.deps.Client.UploadURL(ctx); err != nil {
			return nil, fmt.Errorf("could not get upload url: %w", err)
		}
	}

	if err := s.deps.Limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("could not wait for rate limiter: %w", err)
	}
	upload, err := s.deps.Client.UploadFile(ctx, path, target)
	if err != nil {
		return nil, fmt.Errorf("could not upload file: %w", err)
	}
	ctx = logger.WithFields(ctx, zap.String("analysisID", upload.AnalysisID))
	logger.Debug(ctx, "file uploaded")

	analysis, err := s.poll(ctx, upload.AnalysisID)
	if err != nil {
		return nil, err
	}

	result := domain.ScanResult{
		FilePath:       path,
		FileName:       filepath.Base(path),
		FileSize:       info.Size(),
		Digest:         digest,
		ScanDate:       s.deps.Now().UTC(),
		Status:         domain.Classify(analysis.Stats.Malicious, analysis.Stats.Suspicious),
		DetectionCount: analysis.Stats.Malicious + analysis.Stats.Suspicious,
		TotalEngines:   analysis.Stats.Total,
		Permalink:      s.deps.Client.Permalink(digest),
		Engines:        analysis.Engines,
	}

	if err := s.deps.Cache.Store(ctx, digest, result); err != nil {
		logger.Warn(ctx, "could not cache verdict", zap.Error(err))
	}

	return &result, nil
}

// lookup treats cache failures as misses.
func (s *scanner) lookup(ctx context.Context, digest domain.FileDigest) *domain.ScanResult {
	res, ok, err := s.deps.Cache.Lookup(ctx, digest)
	switch {
	case err != nil:
		s.deps.Metrics.CacheLookup("error")
		logger.Warn(ctx, "could not look up cached verdict", zap.Error(err))

		return nil
	case !ok:
		s.deps.Metrics.CacheLookup("miss")

		return nil
	default:
		s.deps.Metrics.CacheLookup("hit")

		return res
	}
}

// poll fetches the analysis until it completes. Each poll goes through the
// rate limiter; polls of a pending analysis are also PollInterval apart.
func (s *scanner) poll(ctx context.Context, analysisID string) (*avscan.Analysis, error) {
	for attempt := 1; attempt <= s.options.PollAttempts; attempt++ {
		if attempt > 1 {
			if err := sleep(ctx, s.options.PollInterval); err != nil {
				return nil, err
			}
		}

		if err := s.deps.Limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("could not wait for rate limiter: %w", err)
		}
		analysis, err := s.deps.Client.Analysis(ctx, analysisID)
		if err != nil {
			return nil, fmt.Errorf("could not poll analysis: %w", err)
		}

		logger.Debug(ctx, "polled analysis",
			zap.Int("attempt", attempt),
			zap.String("status", string(analysis.Status.ScanStatus())))
		if analysis.Status == avscan.AnalysisCompleted {
			return analysis, nil
		}
	}

	return nil, serrors.With(serrors.ErrTimeout,
		"analysis %s did not complete after %d polls", analysisID, s.options.PollAttempts)
}

// CheckAPIKey goes through the rate limiter like any other request.
func (s *scanner) CheckAPIKey(ctx context.Context) error {
	if err := s.deps.Limiter.Wait(ctx); err != nil {
		return fmt.Errorf("could not wait for rate limiter: %w", err)
	}
	if err := s.deps.Client.CheckAPIKey(ctx); err != nil {
		return fmt.Errorf("could not validate api key: %w", err)
	}

	return nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
