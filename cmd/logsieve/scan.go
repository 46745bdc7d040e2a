package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"logsieve/internal/scan"

	"github.com/spf13/cobra"
)

func newScanCmd(logger *slog.Logger) *cobra.Command {
	var (
		filters  filterFlags
		output   outputFlags
		config   string
		indexOut string
		follow   bool
	)

	cmd := &cobra.Command{
		Use:   "scan [flags] FILE...",
		Short: "Scan log files into filtered, context-windowed records",
		Long: `Scan parses each file into multi-line records, applies the filter
criteria, and prints matches with their context. Arguments may be file
paths, glob patterns (** crosses directories), or "-" for stdin. Each
file is an independent pass; context windows never span files.

With --index-out the pass also writes every parsed record to an index
file that 'query' reads later without re-parsing the source.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			criteria, err := filters.criteria()
			if err != nil {
				return err
			}
			before, after := filters.window(cmd)

			classifier, err := buildClassifier(config)
			if err != nil {
				return err
			}

			paths, err := expandArgs(args)
			if err != nil {
				return err
			}

			single := len(paths) == 1 && paths[0] != "-"
			if indexOut != "" {
				if follow {
					return fmt.Errorf("--index-out cannot be combined with --follow")
				}
				if !single {
					return fmt.Errorf("--index-out requires exactly one file argument")
				}
			}
			if follow && !single {
				return fmt.Errorf("--follow requires exactly one file argument")
			}

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
			defer cancel()

			// Followed output must appear as records arrive; batch
			// passes buffer and flush once.
			out := io.Writer(os.Stdout)
			flush := func() error { return nil }
			if !follow {
				bw := bufio.NewWriter(os.Stdout)
				out = bw
				flush = bw.Flush
			}

			printer, err := output.printer(out)
			if err != nil {
				return err
			}

			opts := scan.Options{
				Classifier: classifier,
				Criteria:   criteria,
				Before:     before,
				After:      after,
				Printer:    printer,
				IndexPath:  indexOut,
				Follow:     follow,
				Logger:     logger,
			}

			for _, path := range paths {
				if path == "-" {
					if _, err := scan.Stream(ctx, os.Stdin, opts); err != nil {
						return err
					}
					continue
				}
				if _, err := scan.File(ctx, path, opts); err != nil {
					return err
				}
			}

			if err := flush(); err != nil && !scan.BrokenPipe(err) {
				return fmt.Errorf("write output: %w", err)
			}
			return nil
		},
	}

	filters.register(cmd)
	output.register(cmd)
	cmd.Flags().StringVar(&config, "config", "", "parser configuration file (json or yaml)")
	cmd.Flags().StringVar(&indexOut, "index-out", "", "write parsed records to this index file (.ndjson, .zst, .gz, .br)")
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "keep scanning as the file grows")

	return cmd
}
