package main

import (
	"context"
	"encoding/json"
	"filescanner/internal/config"
	"filescanner/pkg/domain"
	"filescanner/pkg/history"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

// historyCommand constructs the 'history' subcommand group operating on the
// persisted scan history.
func historyCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Lists, clears, exports or imports the scan history",
	}
	withHistory := func(fn func(ctx context.Context, cmd *cobra.Command, h *history.History, args []string) error) func(
		*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			h, closeHistory := getHistory(ctx, cfg, nil)
			defer closeHistory()

			return fn(ctx, cmd, h, args)
		}
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "Prints the most recent scans, newest first",
		RunE: withHistory(func(_ context.Context, cmd *cobra.Command, h *history.History, _ []string) error {
			limit, _ := cmd.Flags().GetInt("limit")
			asJSON, _ := cmd.Flags().GetBool("json")

			entries := h.Recent(limit)
			if asJSON {
				return writeResults(cmd.OutOrStdout(), entries)
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			_, _ = fmt.Fprintln(tw, "SCANNED\tSTATUS\tDETECTIONS\tSIZE\tPATH")
			for _, r := range entries {
				_, _ = fmt.Fprintf(tw, "%s\t%s\t%d/%d\t%s\t%s\n",
					humanize.Time(r.ScanDate), r.Status, r.DetectionCount, r.TotalEngines,
					humanize.Bytes(uint64(max(r.FileSize, 0))), r.FilePath) //nolint: gosec
			}

			return tw.Flush() //nolint: wrapcheck
		}),
	}
	list.Flags().IntP("limit", "n", 20, "Number of entries; 0 prints every entry")
	list.Flags().Bool("json", false, "Print JSON instead of a table")

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Removes every history entry",
		RunE: withHistory(func(ctx context.Context, cmd *cobra.Command, h *history.History, _ []string) error {
			n := h.Len()
			if err := h.Clear(ctx); err != nil {
				return err //nolint: wrapcheck
			}
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "removed %d entries\n", n)

			return nil
		}),
	}

	export := &cobra.Command{
		Use:   "export",
		Short: "Writes the history as a JSON array, oldest first",
		RunE: withHistory(func(_ context.Context, cmd *cobra.Command, h *history.History, _ []string) error {
			output, _ := cmd.Flags().GetString("output")
			if output == "" || output == "-" {
				return writeResults(cmd.OutOrStdout(), h.Entries())
			}

			f, err := os.Create(output)
			if err != nil {
				return fmt.Errorf("could not create export file: %w", err)
			}
			if err := writeResults(f, h.Entries()); err != nil {
				_ = f.Close()

				return err
			}

			return f.Close() //nolint: wrapcheck
		}),
	}
	export.Flags().StringP("output", "o", "-", "Output file; - writes to stdout")

	imp := &cobra.Command{
		Use:   "import <file>",
		Short: "Replaces the history with an exported JSON array",
		Args:  cobra.ExactArgs(1),
		RunE: withHistory(func(ctx context.Context, cmd *cobra.Command, h *history.History, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("could not read import file: %w", err)
			}
			var results []domain.ScanResult
			if err := json.Unmarshal(data, &results); err != nil {
				return fmt.Errorf("could not decode import file: %w", err)
			}
			if err := h.Replace(ctx, results); err != nil {
				return err //nolint: wrapcheck
			}
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "imported %d of %d entries\n", h.Len(), len(results))

			return nil
		}),
	}

	cmd.AddCommand(list, clearCmd, export, imp)

	return cmd
}

func writeResults(w io.Writer, results []domain.ScanResult) error {
	if results == nil {
		results = []domain.ScanResult{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	return enc.Encode(results) //nolint: wrapcheck
}
