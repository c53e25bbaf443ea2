package main

import (
	"context"
	"errors"
	"filescanner/internal/api"
	"filescanner/internal/api/handler/v1handler"
	"filescanner/internal/config"
	"filescanner/internal/worker"
	"filescanner/pkg/logger"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func setupServer(ctx context.Context, cfg *config.Config, deps api.Deps) func(ctx context.Context) {
	server, err := api.NewServer(deps, api.NewOptions(cfg))
	if err != nil {
		logger.Fatal(ctx, "could not create webserver", zap.Error(err))
	}

	go func() {
		logger.Info(ctx, "starting webserver...", zap.String("addr", cfg.HTTP.Addr))
		if err := server.ListenAndServe(); err != nil {
			if !errors.Is(err, http.ErrServerClosed) {
				logger.Error(ctx, "could not start webserver", zap.Error(err))
			}
		}
	}()

	return func(ctx context.Context) {
		logger.Info(ctx, "stopping webserver...")
		if err := server.Shutdown(ctx); err != nil {
			logger.Error(ctx, "could not stop webserver", zap.Error(err))
		}
	}
}

// serveCommand constructs the 'serve' subcommand running the API server and
// the background rescan scheduler until interrupted. The rescan settings are
// re-read from configPath on every scheduler cycle.
func serveCommand(cfg *config.Config, configPath string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Starts API server and background rescans",
		Run: func(cmd *cobra.Command, args []string) {
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			m := getMetrics(ctx)

			hist, closeHistory := getHistory(ctx, cfg, m)
			defer closeHistory()

			resultCache, memCache, closeCache := getCache(ctx, cfg)
			defer closeCache()
			if memCache != nil {
				go memCache.Run(ctx, cfg.Cache.PurgeInterval)
			}

			s := getScanner(cfg, resultCache, m)
			checkAPIKey(ctx, cfg, s)

			registry := getTracked(ctx, cfg)
			if len(cfg.Monitor.Roots) > 0 {
				n, err := registry.Discover(ctx, cfg.Monitor.Roots)
				if err != nil {
					logger.Warn(ctx, "could not discover every tracked file", zap.Error(err))
				}
				logger.Info(ctx, "tracked files discovered", zap.Int("count", n))
			}

			pipeline := getPipeline(ctx, cfg, s, hist, m)

			stopWebserver := setupServer(ctx, cfg, api.Deps{Deps: v1handler.Deps{
				Pipeline: pipeline,
				History:  hist,
				Tracked:  registry,
			}})

			scheduler := worker.NewScheduler(worker.SchedulerDeps{
				Pipeline:   pipeline,
				Settings:   worker.ConfigFileSettings{Path: configPath},
				Candidates: registry,
				History:    hist,
				Metrics:    m,
			}, worker.NewSchedulerOptions(cfg))
			schedulerDone := make(chan struct{})
			go func() {
				defer close(schedulerDone)
				scheduler.Run(ctx)
			}()

			// wait for interrupt
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.GracefulShutdownTimeout)
			defer cancel()

			stopWebserver(shutdownCtx)

			logger.Info(shutdownCtx, "waiting for running scans...")
			<-schedulerDone
			pipeline.Wait()
		},
	}

	return cmd
}
