package worker

import (
	"context"
	"filescanner/internal/config"
	"filescanner/pkg/logger"
	"filescanner/pkg/metrics"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// RescanSettings are loaded at the start of every scheduler cycle.
type RescanSettings struct {
	// Enabled is false when no rescan interval is configured.
	Enabled bool
	// Interval is the minimum age of the latest scan before a file is rescanned.
	Interval time.Duration
	// HistoryLimit is applied to the history before candidates are selected;
	// zero keeps the current limit.
	HistoryLimit int
}

// SettingsSource loads the current rescan settings.
type SettingsSource interface {
	RescanSettings(ctx context.Context) (RescanSettings, error)
}

// CandidateSource lists the files the scheduler may rescan.
type CandidateSource interface {
	TrackedFiles(ctx context.Context) ([]string, error)
}

// HistoryIndex answers when a file was last scanned.
type HistoryIndex interface {
	LastScanned(path string) (time.Time, bool)
	SetLimit(ctx context.Context, limit int)
}

// SchedulerOptions configure the cycle timing and batch size.
type SchedulerOptions struct {
	// BatchSize is the number of files scanned concurrently; batches run one
	// after another.
	BatchSize int
	// CycleInterval is the pause after a completed cycle.
	CycleInterval time.Duration
	// SettingsRetryInterval is the pause after a failed or disabled settings load.
	SettingsRetryInterval time.Duration
}

// NewSchedulerOptions constructs a SchedulerOptions value from the provided application config.
func NewSchedulerOptions(cfg *config.Config) SchedulerOptions {
	return SchedulerOptions{
		BatchSize:             cfg.Scanner.ScanBatchSize,
		CycleInterval:         cfg.Scanner.CycleInterval,
		SettingsRetryInterval: cfg.Scanner.SettingsRetryInterval,
	}
}

// SchedulerDeps are the collaborators of a Scheduler.
type SchedulerDeps struct {
	Pipeline   Pipeline
	Settings   SettingsSource
	Candidates CandidateSource
	History    HistoryIndex
	// Metrics is optional.
	Metrics *metrics.Metrics
	// Now defaults to time.Now.
	Now func() time.Time
}

// Cycle outcomes.
const (
	CycleCompleted     = "completed"
	CycleDisabled      = "disabled"
	CycleSettingsError = "settings_error"
	CycleSourceError   = "source_error"
	CycleStopped       = "stopped"
)

// CycleReport summarizes one scheduler cycle.
type CycleReport struct {
	Outcome    string
	Candidates int
	Scanned    int
	Failed     int
}

// Scheduler periodically rescans tracked files whose latest scan is too old.
type Scheduler struct {
	deps    SchedulerDeps
	options SchedulerOptions
}

// NewScheduler creates a Scheduler.
func NewScheduler(deps SchedulerDeps, options SchedulerOptions) *Scheduler {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if options.BatchSize < 1 {
		options.BatchSize = 1
	}

	return &Scheduler{
		deps:    deps,
		options: options,
	}
}

// Run executes cycles until ctx is cancelled. Cancellation is observed
// between cycles and between batches; scans already running are cancelled
// through ctx.
func (s *Scheduler) Run(ctx context.Context) {
	ctx = logger.Named(ctx, "scheduler")
	logger.Info(ctx, "background scheduler started")

	for {
		report := s.RunCycle(ctx)

		pause := s.options.CycleInterval
		switch report.Outcome {
		case CycleStopped:
			logger.Info(ctx, "background scheduler stopped")

			return
		case CycleDisabled, CycleSettingsError, CycleSourceError:
			pause = s.options.SettingsRetryInterval
		}

		t := time.NewTimer(pause)
		select {
		case <-ctx.Done():
			t.Stop()
			logger.Info(ctx, "background scheduler stopped")

			return
		case <-t.C:
		}
	}
}

// RunCycle loads the settings, selects candidates and scans them in batches.
// Scan failures are logged and counted; they never abort the cycle.
func (s *Scheduler) RunCycle(ctx context.Context) CycleReport {
	report := s.runCycle(ctx)
	s.deps.Metrics.Cycle(report.Outcome, report.Candidates)

	return report
}

func (s *Scheduler) runCycle(ctx context.Context) CycleReport {
	if ctx.Err() != nil {
		return CycleReport{Outcome: CycleStopped}
	}

	settings, err := s.deps.Settings.RescanSettings(ctx)
	if err != nil {
		logger.Error(ctx, "could not load rescan settings", zap.Error(err))

		return CycleReport{Outcome: CycleSettingsError}
	}
	if !settings.Enabled {
		logger.Debug(ctx, "background rescans are disabled")

		return CycleReport{Outcome: CycleDisabled}
	}
	if settings.HistoryLimit > 0 {
		s.deps.History.SetLimit(ctx, settings.HistoryLimit)
	}

	files, err := s.deps.Candidates.TrackedFiles(ctx)
	if err != nil {
		logger.Error(ctx, "could not list tracked files", zap.Error(err))

		return CycleReport{Outcome: CycleSourceError}
	}

	candidates := SelectCandidates(files, s.deps.History.LastScanned, settings.Interval, s.deps.Now())
	report := CycleReport{Outcome: CycleCompleted, Candidates: len(candidates)}
	logger.Info(ctx, "rescan cycle started",
		zap.Int("tracked", len(files)),
		zap.Int("candidates", len(candidates)),
		zap.Duration("interval", settings.Interval))

	var failed atomic.Int64
	for _, batch := range Batches(candidates, s.options.BatchSize) {
		if ctx.Err() != nil {
			report.Outcome = CycleStopped

			break
		}

		var g errgroup.Group
		for _, path := range batch {
			g.Go(func() error {
				if _, err := s.deps.Pipeline.Scan(ctx, path); err != nil {
					failed.Add(1)
				}

				return nil
			})
		}
		_ = g.Wait()
		report.Scanned += len(batch)
	}
	report.Failed = int(failed.Load())

	logger.Info(ctx, "rescan cycle finished",
		zap.String("outcome", report.Outcome),
		zap.Int("scanned", report.Scanned),
		zap.Int("failed", report.Failed))

	return report
}

// SelectCandidates returns the paths never scanned or last scanned at least
// interval before now, in input order.
func SelectCandidates(
	paths []string,
	lastScanned func(path string) (time.Time, bool),
	interval time.Duration,
	now time.Time) []string {
	var out []string
	for _, p := range paths {
		last, ok := lastScanned(p)
		if !ok || now.Sub(last) >= interval {
			out = append(out, p)
		}
	}

	return out
}

// Batches partitions paths into consecutive slices of at most size elements.
func Batches(paths []string, size int) [][]string {
	if size < 1 {
		size = 1
	}
	var out [][]string
	for len(paths) > 0 {
		n := min(size, len(paths))
		out = append(out, paths[:n])
		paths = paths[n:]
	}

	return out
}
