package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"
	"github.com/uelog/uelog-go/internal/logfinder"
	"github.com/uelog/uelog-go/pkg/uelog"
	"github.com/uelog/uelog-go/pkg/uelog/record"
)

var (
	parseFormat        string
	parseCategories    []string
	parseExcludeCats   []string
	parseVerbosities   []string
	parseExcludeVerbs  []string
	parseSince         string
	parseUntil         string
	parsePatternFiles  []string
	parsePluginFiles   []string
	parsePluginTimeout time.Duration
	parseStopOnError   bool
	parseLogDir        string
)

var parseCmd = &cobra.Command{
	Use:   "parse [files...]",
	Short: "Parse UE log files and output records",
	Long: `Parse Unreal Engine log files and output structured records.

Records are output as JSON Lines by default (one JSON object per line),
which makes it easy to process with tools like jq.

With no file arguments, the newest *.log file in the log directory is
parsed (auto-detected, or set with --log-dir / UELOG_LOGDIR).

Examples:
  # Parse a specific log file
  uelog parse Saved/Logs/MyGame.log

  # Parse the newest log in the project's Saved/Logs
  uelog parse

  # Only errors and warnings from the net stack
  uelog parse MyGame.log --categories LogNet --verbosities Error,Warning

  # Records in a time window
  uelog parse MyGame.log --since 2024-01-15T12:00:00Z --until 2024-01-15T13:00:00Z

  # Custom header grammar
  uelog parse MyGame.log --patterns mybuild.yaml

  # Pipe to jq
  uelog parse MyGame.log | jq 'select(.verbosity == "Error")'`,
	RunE: runParse,
}

func init() {
	parseCmd.Flags().StringVarP(&parseFormat, "format", "f", "jsonl",
		"Output format: jsonl, pretty, raw")
	parseCmd.Flags().StringSliceVarP(&parseCategories, "categories", "c", nil,
		"Only show records from these categories (comma-separated)")
	parseCmd.Flags().StringSliceVar(&parseExcludeCats, "exclude-categories", nil,
		"Hide records from these categories")
	parseCmd.Flags().StringSliceVar(&parseVerbosities, "verbosities", nil,
		"Only show records with these verbosities")
	parseCmd.Flags().StringSliceVar(&parseExcludeVerbs, "exclude-verbosities", nil,
		"Hide records with these verbosities")
	parseCmd.Flags().StringVar(&parseSince, "since", "",
		"Only show records at or after this time (RFC3339)")
	parseCmd.Flags().StringVar(&parseUntil, "until", "",
		"Only show records before this time (RFC3339)")
	parseCmd.Flags().StringSliceVar(&parsePatternFiles, "patterns", nil,
		"YAML pattern files with custom header grammars")
	parseCmd.Flags().StringSliceVar(&parsePluginFiles, "plugins", nil,
		"Wasm parser plugin files")
	parseCmd.Flags().DurationVar(&parsePluginTimeout, "plugin-timeout", 0,
		"Per-line execution timeout for Wasm plugins (0 = default)")
	parseCmd.Flags().BoolVar(&parseStopOnError, "stop-on-error", false,
		"Stop at the first parser error instead of skipping the line")
	parseCmd.Flags().StringVarP(&parseLogDir, "log-dir", "d", "",
		"UE log directory used when no files are given")

	rootCmd.AddCommand(parseCmd)
}

func runParse(cmd *cobra.Command, args []string) error {
	if !ValidFormats[parseFormat] {
		return fmt.Errorf("unknown format: %s", parseFormat)
	}

	ctx := cmd.Context()
	logger := newLogger()

	files := args
	if len(files) == 0 {
		dir, err := logfinder.FindLogDir(parseLogDir)
		if err != nil {
			return err
		}
		latest, err := logfinder.FindLatestLogFile(dir)
		if err != nil {
			return err
		}
		logger.Debug("parsing latest log file", "path", latest)
		files = []string{latest}
	}

	opts, err := buildParseOptions(ctx, logger)
	if err != nil {
		return err
	}
	defer opts.cleanup()

	out := cmd.OutOrStdout()
	for _, path := range files {
		for rec, err := range uelog.ParseFile(ctx, path, opts.parse...) {
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			if err := OutputRecord(parseFormat, rec, out); err != nil {
				return fmt.Errorf("output error: %w", err)
			}
		}
	}

	return nil
}

// parseCmdOptions bundles parse options with the plugin cleanup func.
type parseCmdOptions struct {
	parse   []uelog.ParseOption
	cleanup func()
}

func buildParseOptions(ctx context.Context, logger *slog.Logger) (*parseCmdOptions, error) {
	opts := []uelog.ParseOption{
		uelog.WithParseIncludeCategories(parseCategories...),
		uelog.WithParseExcludeCategories(parseExcludeCats...),
		uelog.WithParseIncludeVerbosities(toVerbosities(parseVerbosities)...),
		uelog.WithParseExcludeVerbosities(toVerbosities(parseExcludeVerbs)...),
		uelog.WithParseStopOnError(parseStopOnError),
	}

	if parseSince != "" {
		t, err := time.Parse(time.RFC3339, parseSince)
		if err != nil {
			return nil, fmt.Errorf("invalid --since format: %w", err)
		}
		opts = append(opts, uelog.WithParseSince(t))
	}
	if parseUntil != "" {
		t, err := time.Parse(time.RFC3339, parseUntil)
		if err != nil {
			return nil, fmt.Errorf("invalid --until format: %w", err)
		}
		opts = append(opts, uelog.WithParseUntil(t))
	}

	p, cleanup, err := buildParser(ctx, parsePatternFiles, parsePluginFiles, parsePluginTimeout, logger)
	if err != nil {
		return nil, err
	}
	if p != nil {
		opts = append(opts, uelog.WithParseParser(p))
	}

	return &parseCmdOptions{parse: opts, cleanup: cleanup}, nil
}

// toVerbosities converts flag strings to verbosity values.
func toVerbosities(values []string) []record.Verbosity {
	verbs := make([]record.Verbosity, 0, len(values))
	for _, v := range values {
		verbs = append(verbs, record.Verbosity(v))
	}
	return verbs
}
