package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"logsieve/internal/index"
	"logsieve/internal/parse"
	"logsieve/internal/scan"

	"github.com/spf13/cobra"
)

func newStatsCmd(logger *slog.Logger) *cobra.Command {
	var (
		fromIndex bool
		config    string
	)

	cmd := &cobra.Command{
		Use:   "stats [flags] FILE",
		Short: "Record, level, and time span tallies for a file or index",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sum := scan.NewSummary()

			if fromIndex {
				if err := summarizeIndex(args[0], sum); err != nil {
					return err
				}
			} else {
				if err := summarizeFile(args[0], config, sum); err != nil {
					return err
				}
			}

			logger.With("component", "stats").Debug("summary complete",
				"file", args[0], "records", sum.Records, "lines", sum.Lines)
			fmt.Print(sum.String())
			return nil
		},
	}

	cmd.Flags().BoolVar(&fromIndex, "index", false, "treat FILE as an index instead of a log file")
	cmd.Flags().StringVar(&config, "config", "", "parser configuration file (json or yaml)")

	return cmd
}

func summarizeIndex(path string, sum *scan.Summary) error {
	idx, err := index.Open(path)
	if err != nil {
		return err
	}
	defer func() { _ = idx.Close() }()

	for rec, err := range idx.Records() {
		if err != nil {
			return err
		}
		sum.Add(rec)
	}
	return nil
}

func summarizeFile(path, config string, sum *scan.Summary) error {
	classifier, err := buildClassifier(config)
	if err != nil {
		return err
	}

	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("open source: %w", err)
	}
	defer func() { _ = f.Close() }()

	for rec, err := range parse.Records(f, classifier) {
		if err != nil {
			return err
		}
		sum.Add(rec)
	}
	return nil
}
