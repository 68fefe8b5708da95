package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/uelog/uelog-go/internal/wasm"
	"github.com/uelog/uelog-go/pkg/uelog"
	"github.com/uelog/uelog-go/pkg/uelog/pattern"
)

// buildParser builds a Parser from pattern file paths and plugin file paths.
// Returns nil parser if no patterns/plugins are specified (use default parser).
// Returns a cleanup function that must be called to release resources (use defer).
// The cleanup function is always non-nil, even on error.
// If pluginTimeout is > 0, it will be applied to all loaded plugins.
func buildParser(ctx context.Context, patternFiles, pluginFiles []string, pluginTimeout time.Duration, logger *slog.Logger) (uelog.Parser, func(), error) {
	noop := func() {}

	if len(patternFiles) == 0 && len(pluginFiles) == 0 {
		return nil, noop, nil
	}

	// Custom grammars take precedence, the stock grammar is the fallback.
	var parsers []uelog.Parser
	var cleanups []func()

	for i, path := range patternFiles {
		rp, err := pattern.NewRegexParserFromFile(path)
		if err != nil {
			return nil, noop, fmt.Errorf("pattern file %d: %w", i+1, err)
		}
		parsers = append(parsers, rp)
	}

	for i, path := range pluginFiles {
		wp, err := wasm.Load(ctx, path, logger)
		if err != nil {
			// Cleanup already-loaded plugins before returning error
			for _, cleanup := range cleanups {
				cleanup()
			}
			return nil, noop, fmt.Errorf("plugin file %d: %w", i+1, err)
		}
		if pluginTimeout > 0 {
			wp.SetTimeout(pluginTimeout)
		}
		parsers = append(parsers, wp)
		cleanups = append(cleanups, func() { wp.Close() })
	}

	parsers = append(parsers, uelog.DefaultParser{})

	cleanup := func() {
		for _, c := range cleanups {
			c()
		}
	}

	return &uelog.ParserChain{
		Mode:    uelog.ChainFirst,
		Parsers: parsers,
	}, cleanup, nil
}
