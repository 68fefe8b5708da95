package main

import (
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "uelog",
	Short: "Parse and monitor Unreal Engine log files",
	Long: `uelog parses Unreal Engine log files into structured records.

A record is one log message: a header line of the form
[<date>][<verbosity>]<category>: <body> plus any continuation lines
(stack traces, multi-line dumps) that follow it.

Use "uelog parse" for existing files, "uelog tail" to follow a live
log, and "uelog summary" for per-category statistics.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"Enable verbose logging to stderr")
}

// newLogger builds the CLI's diagnostic logger. Diagnostics go to
// stderr so they never mix with record output on stdout.
func newLogger() *slog.Logger {
	if !verbose {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
}
