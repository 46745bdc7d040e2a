// Command logsieve filters multi-line application logs into records,
// optionally writing an index that later queries read instead of
// re-parsing the source file.
//
// Logging:
//   - Base logger is created here with output format and level
//   - Logger is passed to all components via dependency injection
//   - No global slog configuration (no slog.SetDefault)
//   - Components scope loggers with their own attributes
package main

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"logsieve/internal/logging"

	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	// Diagnostics go to stderr so stdout stays pipeable. The filter
	// handler decides what gets through; the base handler passes all
	// levels.
	baseHandler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	})
	filter := logging.NewComponentFilterHandler(baseHandler, slog.LevelInfo)
	logger := slog.New(filter)

	// A closed downstream pipe must surface as a write error, not kill
	// the process, so a pass can stop cleanly mid-stream.
	signal.Ignore(syscall.SIGPIPE)

	rootCmd := &cobra.Command{
		Use:   "logsieve",
		Short: "Filter and index multi-line application logs",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
				filter.SetDefaultLevel(slog.LevelDebug)
			}
			components, _ := cmd.Flags().GetStringSlice("debug")
			for _, component := range components {
				filter.SetLevel(component, slog.LevelDebug)
			}
		},
	}

	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "debug logging for all components")
	rootCmd.PersistentFlags().StringSlice("debug", nil, "components to log at debug level (scan, query, repl, stats)")

	rootCmd.AddCommand(
		newScanCmd(logger),
		newQueryCmd(logger),
		newStatsCmd(logger),
		newREPLCmd(logger),
		newVersionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
