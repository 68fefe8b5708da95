package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/uelog/uelog-go/pkg/uelog"
)

var (
	tailLogDir        string
	tailFormat        string
	tailCategories    []string
	tailVerbosities   []string
	tailReplayLast    int
	tailReplaySince   string
	tailWaitForLogs   bool
	tailPollInterval  time.Duration
	tailPatternFiles  []string
	tailPluginFiles   []string
	tailPluginTimeout time.Duration
)

var tailCmd = &cobra.Command{
	Use:   "tail",
	Short: "Follow a live UE log and output records",
	Long: `Follow the newest Unreal Engine log file and output records as
they are written. Log rotation (a new file appearing in the directory)
is detected automatically.

Records are output as JSON Lines by default (one JSON object per line).

Examples:
  # Follow the newest log (auto-detect log directory)
  uelog tail

  # Specify the log directory
  uelog tail --log-dir MyProject/Saved/Logs

  # Only errors and warnings
  uelog tail --verbosities Error,Warning

  # Human-readable output
  uelog tail --format pretty

  # Replay the last 100 lines, then keep following
  uelog tail --replay-last 100

  # Replay from the start of the file
  uelog tail --replay-last 0

  # Pipe to jq for filtering
  uelog tail | jq 'select(.category == "LogNet")'`,
	RunE: runTail,
}

func init() {
	tailCmd.Flags().StringVarP(&tailLogDir, "log-dir", "d", "",
		"UE log directory (auto-detected if not specified)")
	tailCmd.Flags().StringVarP(&tailFormat, "format", "f", "jsonl",
		"Output format: jsonl, pretty, raw")
	tailCmd.Flags().StringSliceVarP(&tailCategories, "categories", "c", nil,
		"Only show records from these categories (comma-separated)")
	tailCmd.Flags().StringSliceVar(&tailVerbosities, "verbosities", nil,
		"Only show records with these verbosities")
	tailCmd.Flags().BoolVar(&tailWaitForLogs, "wait", false,
		"Wait for a log file to appear instead of failing")
	tailCmd.Flags().DurationVar(&tailPollInterval, "poll-interval", 2*time.Second,
		"How often to check for log rotation")
	tailCmd.Flags().StringSliceVar(&tailPatternFiles, "patterns", nil,
		"YAML pattern files with custom header grammars")
	tailCmd.Flags().StringSliceVar(&tailPluginFiles, "plugins", nil,
		"Wasm parser plugin files")
	tailCmd.Flags().DurationVar(&tailPluginTimeout, "plugin-timeout", 0,
		"Per-line execution timeout for Wasm plugins (0 = default)")

	tailCmd.Flags().IntVar(&tailReplayLast, "replay-last", -1,
		"Replay last N lines before tailing (-1 = disabled, 0 = from start)")
	tailCmd.Flags().StringVar(&tailReplaySince, "replay-since", "",
		"Replay records since timestamp (RFC3339 format, e.g., 2024-01-15T12:00:00Z)")

	rootCmd.AddCommand(tailCmd)
}

func runTail(cmd *cobra.Command, args []string) error {
	if !ValidFormats[tailFormat] {
		return fmt.Errorf("unknown format: %s", tailFormat)
	}

	ctx, stop := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger := newLogger()

	replay := uelog.ReplayConfig{}
	if tailReplayLast >= 0 {
		if tailReplayLast == 0 {
			replay.Mode = uelog.ReplayFromStart
		} else {
			replay.Mode = uelog.ReplayLastN
			replay.LastN = tailReplayLast
		}
	} else if tailReplaySince != "" {
		t, err := time.Parse(time.RFC3339, tailReplaySince)
		if err != nil {
			return fmt.Errorf("invalid --replay-since format: %w", err)
		}
		replay.Mode = uelog.ReplaySinceTime
		replay.Since = t
	}

	opts := []uelog.WatchOption{
		uelog.WithLogDir(tailLogDir),
		uelog.WithPollInterval(tailPollInterval),
		uelog.WithWaitForLogs(tailWaitForLogs),
		uelog.WithReplay(replay),
		uelog.WithLogger(logger),
		uelog.WithIncludeCategories(tailCategories...),
		uelog.WithIncludeVerbosities(toVerbosities(tailVerbosities)...),
	}

	p, cleanup, err := buildParser(ctx, tailPatternFiles, tailPluginFiles, tailPluginTimeout, logger)
	if err != nil {
		return err
	}
	defer cleanup()
	if p != nil {
		opts = append(opts, uelog.WithParser(p))
	}

	watcher, err := uelog.NewWatcherWithOptions(opts...)
	if err != nil {
		return err
	}
	defer watcher.Close()

	records, errs, err := watcher.Watch(ctx)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for {
		select {
		case rec, ok := <-records:
			if !ok {
				return nil
			}
			if err := OutputRecord(tailFormat, rec, out); err != nil {
				return fmt.Errorf("output error: %w", err)
			}
		case err, ok := <-errs:
			if !ok {
				return nil
			}
			if verbose {
				fmt.Fprintf(os.Stderr, "warning: %v\n", err)
			}
		case <-ctx.Done():
			return nil
		}
	}
}
