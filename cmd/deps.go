package main

import (
	"context"
	"filescanner/internal/config"
	"filescanner/internal/scanner"
	"filescanner/internal/worker"
	"filescanner/pkg/avscan/virustotal"
	"filescanner/pkg/cache"
	"filescanner/pkg/domain"
	"filescanner/pkg/hasher"
	"filescanner/pkg/history"
	"filescanner/pkg/logger"
	"filescanner/pkg/metrics"
	"filescanner/pkg/notify"
	"filescanner/pkg/permit"
	"filescanner/pkg/ratelimit"
	"filescanner/pkg/storage/bolt"
	"filescanner/pkg/tracked"
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// getMetrics registers the scanner collectors with the default registry.
func getMetrics(ctx context.Context) *metrics.Metrics {
	m, err := metrics.New(prometheus.DefaultRegisterer)
	if err != nil {
		logger.Fatal(ctx, "could not register metrics", zap.Error(err))
	}

	return m
}

// getHistory opens the bbolt history database and loads its entries. The
// returned function closes the database.
func getHistory(ctx context.Context, cfg *config.Config, m *metrics.Metrics) (*history.History, func()) {
	strg, err := bolt.New(bolt.Options{
		Path:        cfg.History.Path,
		OpenTimeout: cfg.History.OpenTimeout,
	})
	if err != nil {
		logger.Fatal(ctx, "could not open history storage", zap.Error(err))
	}

	h := history.New(history.Options{
		Limit:   cfg.Scanner.ScanHistoryLimit,
		Storage: strg,
		Metrics: m,
	})
	if err := h.Load(ctx); err != nil {
		logger.Fatal(ctx, "could not load scan history", zap.Error(err))
	}

	return h, func() {
		logger.Info(ctx, "closing history storage...")
		if err := strg.Close(); err != nil {
			logger.Warn(ctx, "could not close history storage", zap.Error(err))
		}
	}
}

// getCache creates the configured result cache. The in-memory cache is also
// returned on its own so the caller can run its purge loop; it is nil for redis.
func getCache(ctx context.Context, cfg *config.Config) (cache.Cache, *cache.Memory, func()) {
	if cfg.Cache.Backend == "redis" {
		r, err := cache.DialRedis(ctx, cfg.Cache.Redis.Addr, cfg.Cache.Redis.Password, cfg.Cache.Redis.DB,
			cache.RedisOptions{
				TTL:       cfg.Cache.TTL,
				KeyPrefix: cfg.Cache.Redis.KeyPrefix,
			})
		if err != nil {
			logger.Fatal(ctx, "could not connect to redis cache", zap.Error(err))
		}

		return r, nil, func() {
			logger.Info(ctx, "closing redis client...")
			if err := r.Close(); err != nil {
				logger.Warn(ctx, "could not close redis client", zap.Error(err))
			}
		}
	}

	mem := cache.NewMemory(cache.MemoryOptions{TTL: cfg.Cache.TTL})

	return mem, mem, func() {}
}

// getSink returns the log sink, fanned out to the configured shoutrrr URLs.
func getSink(ctx context.Context, cfg *config.Config) notify.Sink {
	sinks := notify.Fanout{notify.Log{}}
	if len(cfg.Notify.URLs) == 0 {
		return sinks
	}

	events := make([]domain.ScanEventKind, 0, len(cfg.Notify.Events))
	for _, e := range cfg.Notify.Events {
		events = append(events, domain.ScanEventKind(strings.ToUpper(strings.TrimSpace(e))))
	}
	sh, err := notify.NewShoutrrr(cfg.Notify.URLs, notify.ShoutrrrOptions{
		Events:         events,
		DetectionsOnly: cfg.Notify.DetectionsOnly,
	})
	if err != nil {
		logger.Fatal(ctx, "could not create notifier", zap.Error(err))
	}

	return append(sinks, sh)
}

// getTracked creates the tracked file registry with the monitor filter.
func getTracked(ctx context.Context, cfg *config.Config) *tracked.Registry {
	minSize, maxSize, err := cfg.FileSizeBounds()
	if err != nil {
		logger.Fatal(ctx, "invalid monitor size bounds", zap.Error(err))
	}
	filter, err := tracked.NewFilter(tracked.FilterOptions{
		Extensions: cfg.Monitor.Extensions,
		Exclude:    cfg.Monitor.Exclude,
		MinSize:    minSize,
		MaxSize:    maxSize,
		MaxDepth:   cfg.Monitor.MaxDepth,
	})
	if err != nil {
		logger.Fatal(ctx, "invalid monitor filter", zap.Error(err))
	}

	return tracked.NewRegistry(filter)
}

// getScanner wires the VirusTotal client, the shared request limiter, the
// hasher and the cache into a Scanner.
func getScanner(cfg *config.Config, c cache.Cache, m *metrics.Metrics) scanner.Scanner {
	bufSize, _ := cfg.HashBufferSize()
	client := virustotal.New(&http.Client{Timeout: cfg.VirusTotal.RequestTimeout}, virustotal.Options{
		APIKey:  cfg.VirusTotal.APIKey,
		BaseURL: cfg.VirusTotal.BaseURL,
		GUIURL:  cfg.VirusTotal.GUIURL,
		Metrics: m,
	})

	return scanner.New(scanner.Deps{
		Client:  client,
		Cache:   c,
		Limiter: ratelimit.New(cfg.VirusTotal.RequestInterval, m),
		Hasher:  hasher.New(bufSize),
		Metrics: m,
	}, scanner.NewOptions(cfg))
}

// getPipeline creates the scan pipeline; submitted scans stop with ctx.
func getPipeline(
	ctx context.Context,
	cfg *config.Config,
	s scanner.Scanner,
	h *history.History,
	m *metrics.Metrics) worker.Pipeline {
	return worker.NewPipeline(ctx, worker.PipelineDeps{
		Scanner: s,
		Permits: permit.New(cfg.Scanner.MaxConcurrentScans, m),
		History: h,
		Sink:    getSink(ctx, cfg),
		Metrics: m,
	}, worker.NewPipelineOptions(cfg))
}

// checkAPIKey fails fast on a rejected key unless the check is disabled.
func checkAPIKey(ctx context.Context, cfg *config.Config, s scanner.Scanner) {
	if cfg.VirusTotal.SkipAPIKeyCheck {
		return
	}
	if cfg.VirusTotal.APIKey == "" {
		logger.Fatal(ctx, "virusTotal.apiKey is not configured")
	}

	logger.Info(ctx, "validating VirusTotal API key...")
	if err := s.CheckAPIKey(ctx); err != nil {
		logger.Fatal(ctx, "VirusTotal API key check failed", zap.Error(err))
	}
}
