package main

import (
	"context"
	"encoding/json"
	"filescanner/internal/config"
	"filescanner/internal/scanner"
	"filescanner/pkg/domain"
	"filescanner/pkg/logger"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// scanOutput is one line of the scan command output.
type scanOutput struct {
	Path   string             `json:"path"`
	Result *domain.ScanResult `json:"result,omitempty"`
	Error  string             `json:"error,omitempty"`
}

// scanCommand constructs the 'scan' subcommand scanning the given files in
// the foreground. Each outcome is printed to stdout as one JSON object; the
// command fails when any scan fails.
func scanCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan <path>...",
		Short: "Scans files and prints their verdicts as JSON",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			m := getMetrics(ctx)

			hist, closeHistory := getHistory(ctx, cfg, m)
			defer closeHistory()

			resultCache, _, closeCache := getCache(ctx, cfg)
			defer closeCache()

			s := getScanner(cfg, resultCache, m)
			pipeline := getPipeline(ctx, cfg, s, hist, m)

			outputs := make([]scanOutput, len(args))
			// the pipeline bounds concurrency with its permits
			var g errgroup.Group
			for i, raw := range args {
				g.Go(func() error {
					path, err := scanner.NormalizePath(raw)
					if err != nil {
						outputs[i] = scanOutput{Path: raw, Error: err.Error()}

						return err //nolint: wrapcheck
					}
					res, err := pipeline.Scan(ctx, path)
					if err != nil {
						outputs[i] = scanOutput{Path: path, Error: err.Error()}

						return err //nolint: wrapcheck
					}
					outputs[i] = scanOutput{Path: path, Result: res}

					return nil
				})
			}
			scanErr := g.Wait()

			enc := json.NewEncoder(cmd.OutOrStdout())
			for _, o := range outputs {
				if err := enc.Encode(o); err != nil {
					logger.Error(ctx, "could not write scan output", zap.Error(err))
				}
			}

			return scanErr //nolint: wrapcheck
		},
	}
	cmd.SilenceUsage = true

	return cmd
}
