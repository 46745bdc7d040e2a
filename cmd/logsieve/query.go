package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"logsieve/internal/scan"

	"github.com/spf13/cobra"
)

func newQueryCmd(logger *slog.Logger) *cobra.Command {
	var (
		filters filterFlags
		output  outputFlags
		source  string
	)

	cmd := &cobra.Command{
		Use:   "query [flags] INDEX",
		Short: "Query a previously written index",
		Long: `Query reads records from an index written by 'scan --index-out' and
applies the same filter and context flags scan does, without re-parsing
the original log file. When the source file changed since the index was
written, results still print but a staleness warning is logged.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			criteria, err := filters.criteria()
			if err != nil {
				return err
			}
			before, after := filters.window(cmd)

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
			defer cancel()

			bw := bufio.NewWriter(os.Stdout)
			printer, err := output.printer(bw)
			if err != nil {
				return err
			}

			opts := scan.Options{
				Criteria: criteria,
				Before:   before,
				After:    after,
				Printer:  printer,
				Logger:   logger,
			}
			if _, err := scan.Index(ctx, args[0], source, opts); err != nil {
				return err
			}

			if err := bw.Flush(); err != nil && !scan.BrokenPipe(err) {
				return fmt.Errorf("write output: %w", err)
			}
			return nil
		},
	}

	filters.register(cmd)
	output.register(cmd)
	cmd.Flags().StringVar(&source, "source", "", "source file for the staleness check (default: the path recorded in the index)")

	return cmd
}
