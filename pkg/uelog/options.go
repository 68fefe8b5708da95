package uelog

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/uelog/uelog-go/pkg/uelog/record"
)

// WatchOption configures Watch behavior using the functional options pattern.
type WatchOption func(*watchConfig)

// watchConfig holds internal configuration for the watcher.
type watchConfig struct {
	logDir             string
	pollInterval       time.Duration
	replay             ReplayConfig
	maxReplayLines     int
	maxReplayBytes     int  // Maximum total bytes for replay (0 = unlimited)
	maxReplayLineBytes int  // Maximum bytes per line for replay (0 = unlimited)
	waitForLogs        bool // Wait for log files to appear if directory exists but is empty
	logger             *slog.Logger
	filter             *compiledFilter
	parser             Parser
}

// defaultWatchConfig returns a watchConfig with sensible defaults.
func defaultWatchConfig() *watchConfig {
	return &watchConfig{
		pollInterval:       2 * time.Second,
		maxReplayLines:     DefaultMaxReplayLastN,
		maxReplayBytes:     10 * 1024 * 1024, // 10MB default
		maxReplayLineBytes: 512 * 1024,       // 512KB default
		parser:             DefaultParser{},
	}
}

// applyWatchOptions applies functional options to a watchConfig.
func applyWatchOptions(opts []WatchOption) *watchConfig {
	cfg := defaultWatchConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(cfg)
		}
	}
	return cfg
}

// validate checks for invalid option combinations.
func (c *watchConfig) validate() error {
	if c.replay.Mode == ReplayLastN && c.replay.LastN < 0 {
		return fmt.Errorf("replay LastN must be non-negative, got %d", c.replay.LastN)
	}

	if c.replay.Mode == ReplayLastN {
		maxLines := c.maxReplayLines
		if maxLines == 0 {
			maxLines = DefaultMaxReplayLastN
		}
		if maxLines > 0 && c.replay.LastN > maxLines {
			return fmt.Errorf("replay LastN (%d) exceeds maximum of %d", c.replay.LastN, maxLines)
		}
	}

	if c.replay.Mode == ReplaySinceTime && c.replay.Since.IsZero() {
		return fmt.Errorf("replay Since must be set when mode is ReplaySinceTime")
	}

	if c.pollInterval <= 0 {
		return fmt.Errorf("poll interval must be positive, got %v", c.pollInterval)
	}

	if c.maxReplayBytes < 0 {
		return fmt.Errorf("maxReplayBytes must be non-negative, got %d", c.maxReplayBytes)
	}

	if c.maxReplayLineBytes < 0 {
		return fmt.Errorf("maxReplayLineBytes must be non-negative, got %d", c.maxReplayLineBytes)
	}

	return nil
}

// WithLogDir sets the UE log directory (usually <project>/Saved/Logs).
// If not set, auto-detects from the UELOG_LOGDIR environment variable
// and the working directory's Saved/Logs.
func WithLogDir(dir string) WatchOption {
	return func(c *watchConfig) {
		c.logDir = dir
	}
}

// WithPollInterval sets how often to check for new/rotated log files.
// Default: 2 seconds.
func WithPollInterval(interval time.Duration) WatchOption {
	return func(c *watchConfig) {
		c.pollInterval = interval
	}
}

// WithWaitForLogs configures whether to wait for log files to appear.
// When true, if the log directory exists but has no log files yet,
// the watcher will poll at pollInterval until logs appear (useful for
// starting the watcher before the game launches).
// When false (default), ErrNoLogFiles is returned immediately if no logs exist.
func WithWaitForLogs(wait bool) WatchOption {
	return func(c *watchConfig) {
		c.waitForLogs = wait
	}
}

// WithReplay configures replay behavior for existing log lines.
// Default: ReplayNone (only new lines).
func WithReplay(config ReplayConfig) WatchOption {
	return func(c *watchConfig) {
		c.replay = config
	}
}

// WithReplayFromStart reads from the beginning of the log file.
func WithReplayFromStart() WatchOption {
	return func(c *watchConfig) {
		c.replay = ReplayConfig{Mode: ReplayFromStart}
	}
}

// WithReplayLastN reads the last N non-empty lines before tailing.
// Empty lines are skipped and not counted towards N.
func WithReplayLastN(n int) WatchOption {
	return func(c *watchConfig) {
		c.replay = ReplayConfig{Mode: ReplayLastN, LastN: n}
	}
}

// WithReplaySinceTime reads records since a specific timestamp.
// Records whose date cannot be parsed are always delivered.
func WithReplaySinceTime(since time.Time) WatchOption {
	return func(c *watchConfig) {
		c.replay = ReplayConfig{Mode: ReplaySinceTime, Since: since}
	}
}

// WithMaxReplayLines sets the maximum lines for ReplayLastN mode.
// 0 uses default (10000). Set to -1 for unlimited (not recommended).
func WithMaxReplayLines(max int) WatchOption {
	return func(c *watchConfig) {
		c.maxReplayLines = max
	}
}

// WithMaxReplayBytes sets the maximum total bytes to read during replay.
// Default is 10MB. Set to 0 for unlimited (not recommended).
// If the limit is exceeded during ReplayLastN, ErrReplayLimitExceeded is returned.
func WithMaxReplayBytes(max int) WatchOption {
	return func(c *watchConfig) {
		c.maxReplayBytes = max
	}
}

// WithMaxReplayLineBytes sets the maximum bytes per line during replay.
// Default is 512KB. Set to 0 for unlimited (not recommended).
// If a single line exceeds this limit, ErrReplayLimitExceeded is returned.
func WithMaxReplayLineBytes(max int) WatchOption {
	return func(c *watchConfig) {
		c.maxReplayLineBytes = max
	}
}

// WithLogger sets a custom logger for debug output.
// If logger is nil, logging is disabled (default behavior).
func WithLogger(logger *slog.Logger) WatchOption {
	return func(c *watchConfig) {
		c.logger = logger
	}
}

// WithParser sets a custom parser for header recognition.
// If p is nil, this option has no effect (the default parser remains active).
func WithParser(p Parser) WatchOption {
	return func(c *watchConfig) {
		if p != nil {
			c.parser = p
		}
	}
}

// WithParsers combines multiple parsers using ChainFirst mode.
// At least one parser is required.
func WithParsers(parsers ...Parser) WatchOption {
	return func(c *watchConfig) {
		if len(parsers) > 0 {
			c.parser = &ParserChain{
				Mode:    ChainFirst,
				Parsers: parsers,
			}
		}
	}
}

// WithIncludeCategories filters records to only include the given categories.
// If called multiple times, only the last call takes effect.
func WithIncludeCategories(categories ...string) WatchOption {
	return func(c *watchConfig) {
		if c.filter == nil {
			c.filter = &compiledFilter{}
		}
		c.filter.setIncludeCategories(categories)
	}
}

// WithExcludeCategories filters out records of the given categories.
// Exclude takes precedence over include.
func WithExcludeCategories(categories ...string) WatchOption {
	return func(c *watchConfig) {
		if c.filter == nil {
			c.filter = &compiledFilter{}
		}
		c.filter.setExcludeCategories(categories)
	}
}

// WithIncludeVerbosities filters records to only include the given verbosities.
func WithIncludeVerbosities(verbosities ...record.Verbosity) WatchOption {
	return func(c *watchConfig) {
		if c.filter == nil {
			c.filter = &compiledFilter{}
		}
		c.filter.setIncludeVerbosities(verbosities)
	}
}

// WithExcludeVerbosities filters out records of the given verbosities.
// Exclude takes precedence over include.
func WithExcludeVerbosities(verbosities ...record.Verbosity) WatchOption {
	return func(c *watchConfig) {
		if c.filter == nil {
			c.filter = &compiledFilter{}
		}
		c.filter.setExcludeVerbosities(verbosities)
	}
}

// WithFilter sets all include and exclude filters at once.
// Exclude takes precedence over include.
func WithFilter(includeCats, excludeCats []string, includeVerbs, excludeVerbs []record.Verbosity) WatchOption {
	return func(c *watchConfig) {
		c.filter = newCompiledFilter(includeCats, excludeCats, includeVerbs, excludeVerbs)
	}
}

// ParseOption configures NewReader/ParseFile/ParseDir behavior.
type ParseOption func(*parseConfig)

// parseConfig holds internal configuration for parsing.
type parseConfig struct {
	filter      *compiledFilter
	since       time.Time
	until       time.Time
	stopOnError bool
	parser      Parser
}

// defaultParseConfig returns a parseConfig with sensible defaults.
func defaultParseConfig() *parseConfig {
	return &parseConfig{
		parser: DefaultParser{},
	}
}

// applyParseOptions applies functional options to a parseConfig.
func applyParseOptions(opts []ParseOption) *parseConfig {
	cfg := defaultParseConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(cfg)
		}
	}
	return cfg
}

// WithParseIncludeCategories filters records to the given categories.
func WithParseIncludeCategories(categories ...string) ParseOption {
	return func(c *parseConfig) {
		if c.filter == nil {
			c.filter = &compiledFilter{}
		}
		c.filter.setIncludeCategories(categories)
	}
}

// WithParseExcludeCategories filters out records of the given categories.
func WithParseExcludeCategories(categories ...string) ParseOption {
	return func(c *parseConfig) {
		if c.filter == nil {
			c.filter = &compiledFilter{}
		}
		c.filter.setExcludeCategories(categories)
	}
}

// WithParseIncludeVerbosities filters records to the given verbosities.
func WithParseIncludeVerbosities(verbosities ...record.Verbosity) ParseOption {
	return func(c *parseConfig) {
		if c.filter == nil {
			c.filter = &compiledFilter{}
		}
		c.filter.setIncludeVerbosities(verbosities)
	}
}

// WithParseExcludeVerbosities filters out records of the given verbosities.
func WithParseExcludeVerbosities(verbosities ...record.Verbosity) ParseOption {
	return func(c *parseConfig) {
		if c.filter == nil {
			c.filter = &compiledFilter{}
		}
		c.filter.setExcludeVerbosities(verbosities)
	}
}

// WithParseTimeRange filters records to those within the time range.
// since is inclusive, until is exclusive. Zero values are ignored.
// Records without a parseable date always pass.
func WithParseTimeRange(since, until time.Time) ParseOption {
	return func(c *parseConfig) {
		c.since = since
		c.until = until
	}
}

// WithParseSince filters records to those at or after the given time.
func WithParseSince(since time.Time) ParseOption {
	return func(c *parseConfig) {
		c.since = since
	}
}

// WithParseUntil filters records to those before the given time.
func WithParseUntil(until time.Time) ParseOption {
	return func(c *parseConfig) {
		c.until = until
	}
}

// WithParseParser sets a custom parser for header recognition.
// If p is nil, this option has no effect (the default parser remains active).
func WithParseParser(p Parser) ParseOption {
	return func(c *parseConfig) {
		if p != nil {
			c.parser = p
		}
	}
}

// WithParseStopOnError stops reading on the first parser error instead
// of skipping the offending line. Default: false. The built-in grammar
// never errors; this only matters with custom parsers.
func WithParseStopOnError(stop bool) ParseOption {
	return func(c *parseConfig) {
		c.stopOnError = stop
	}
}
