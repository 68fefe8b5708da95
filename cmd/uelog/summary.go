package main

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"
	"github.com/uelog/uelog-go/internal/logfinder"
	"github.com/uelog/uelog-go/pkg/uelog"
	"github.com/uelog/uelog-go/pkg/uelog/record"
)

var (
	summaryLogDir string
	summaryTop    int
)

var summaryCmd = &cobra.Command{
	Use:   "summary [files...]",
	Short: "Show per-category statistics for UE log files",
	Long: `Parse Unreal Engine log files and print a table of record counts
per category, broken down by verbosity.

With no file arguments, the newest *.log file in the log directory is
summarized.

Examples:
  # Summarize the newest log
  uelog summary

  # Summarize specific files
  uelog summary MyGame.log MyGame-backup.log

  # Only the 10 most frequent categories
  uelog summary MyGame.log --top 10`,
	RunE: runSummary,
}

func init() {
	summaryCmd.Flags().StringVarP(&summaryLogDir, "log-dir", "d", "",
		"UE log directory used when no files are given")
	summaryCmd.Flags().IntVar(&summaryTop, "top", 0,
		"Show only the N most frequent categories (0 = all)")

	rootCmd.AddCommand(summaryCmd)
}

// categoryStats accumulates record counts for one category.
type categoryStats struct {
	category string
	total    int
	errors   int
	warnings int
	lines    int
}

func runSummary(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	logger := newLogger()

	files := args
	if len(files) == 0 {
		dir, err := logfinder.FindLogDir(summaryLogDir)
		if err != nil {
			return err
		}
		latest, err := logfinder.FindLatestLogFile(dir)
		if err != nil {
			return err
		}
		logger.Debug("summarizing latest log file", "path", latest)
		files = []string{latest}
	}

	out := cmd.OutOrStdout()
	for _, path := range files {
		stats, total, err := collectStats(ctx, path)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}

		fmt.Fprintf(out, "%s: %d records\n", path, total)
		fmt.Fprintln(out, renderSummaryTable(stats))
	}
	return nil
}

// collectStats parses one file and aggregates counts per category.
func collectStats(ctx context.Context, path string) ([]*categoryStats, int, error) {
	byCategory := make(map[string]*categoryStats)
	total := 0

	for rec, err := range uelog.ParseFile(ctx, path) {
		if err != nil {
			return nil, 0, err
		}
		total++

		s := byCategory[rec.Category]
		if s == nil {
			s = &categoryStats{category: rec.Category}
			byCategory[rec.Category] = s
		}
		s.total++
		s.lines += countLines(rec)
		switch severity(rec) {
		case record.VerbosityError:
			s.errors++
		case record.VerbosityWarning:
			s.warnings++
		}
	}

	stats := make([]*categoryStats, 0, len(byCategory))
	for _, s := range byCategory {
		stats = append(stats, s)
	}
	// Most frequent first; ties by name for stable output
	sort.Slice(stats, func(i, j int) bool {
		if stats[i].total != stats[j].total {
			return stats[i].total > stats[j].total
		}
		return stats[i].category < stats[j].category
	})

	if summaryTop > 0 && len(stats) > summaryTop {
		stats = stats[:summaryTop]
	}
	return stats, total, nil
}

// severity classifies a record as Error or Warning. Stock engine logs
// carry the level as a body prefix ("Error: ...") while the bracketed
// verbosity tag holds the frame counter, so both places are checked.
func severity(rec *record.Record) record.Verbosity {
	switch rec.Verbosity {
	case record.VerbosityError, record.VerbosityFatal:
		return record.VerbosityError
	case record.VerbosityWarning:
		return record.VerbosityWarning
	}
	switch {
	case strings.HasPrefix(rec.LogBody, "Error: "),
		strings.HasPrefix(rec.LogBody, "Fatal: "),
		strings.HasPrefix(rec.LogBody, "Fatal error"):
		return record.VerbosityError
	case strings.HasPrefix(rec.LogBody, "Warning: "):
		return record.VerbosityWarning
	}
	return ""
}

func countLines(rec *record.Record) int {
	n := 1
	for _, c := range rec.Log {
		if c == '\n' {
			n++
		}
	}
	return n
}

func renderSummaryTable(stats []*categoryStats) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"Category", "Records", "Errors", "Warnings", "Lines"})

	for _, s := range stats {
		tw.AppendRow(table.Row{s.category, s.total, s.errors, s.warnings, s.lines})
	}

	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignLeft, AlignHeader: text.AlignLeft},
		{Number: 2, Align: text.AlignRight, AlignHeader: text.AlignLeft},
		{Number: 3, Align: text.AlignRight, AlignHeader: text.AlignLeft},
		{Number: 4, Align: text.AlignRight, AlignHeader: text.AlignLeft},
		{Number: 5, Align: text.AlignRight, AlignHeader: text.AlignLeft},
	})

	return tw.Render()
}
