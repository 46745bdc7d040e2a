package main

import (
	"log/slog"
	"os"

	"logsieve/internal/repl"

	"github.com/spf13/cobra"
)

func newREPLCmd(logger *slog.Logger) *cobra.Command {
	var color string

	cmd := &cobra.Command{
		Use:   "repl INDEX",
		Short: "Interactively query a loaded index",
		Long: `Repl loads the index into memory once and starts an interactive loop:
set filter criteria, re-run them, and page through the results without
re-reading the index between runs.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := outputFlags{color: color}
			useColor, err := output.useColor()
			if err != nil {
				return err
			}

			r, err := repl.New(args[0], os.Stdin, os.Stdout, useColor, logger)
			if err != nil {
				return err
			}
			return r.Run()
		},
	}

	cmd.Flags().StringVar(&color, "color", "auto", "color output: auto, always, or never")

	return cmd
}
