package uelog

import (
	"context"
	"errors"

	"github.com/uelog/uelog-go/pkg/uelog/record"
)

// ParseResult represents the result of classifying a single log line.
type ParseResult struct {
	// Record is the new pending record opened by this line.
	// Set only when Matched is true.
	Record *record.Record

	// Matched indicates the line is a message header. When false the
	// line is a continuation of the previous message.
	Matched bool
}

// Parser is the interface for log line classifiers.
// Implementations include DefaultParser (the stock UE header grammar),
// pattern.RegexParser (YAML-defined grammars) and Wasm plugin parsers.
type Parser interface {
	// ParseLine classifies a single log line.
	// Returns ParseResult with Matched=true and a new Record when the
	// line opens a new message. Returns error only for unexpected
	// failures; an unrecognized line is a continuation, not an error.
	ParseLine(ctx context.Context, line string) (ParseResult, error)
}

// ParserFunc is an adapter to allow ordinary functions to be used as Parsers.
type ParserFunc func(ctx context.Context, line string) (ParseResult, error)

// ParseLine implements the Parser interface.
func (f ParserFunc) ParseLine(ctx context.Context, line string) (ParseResult, error) {
	return f(ctx, line)
}

// ChainMode specifies how ParserChain executes parsers.
type ChainMode int

const (
	// ChainFirst stops at the first parser that recognizes the line as a
	// header (default). Only one grammar can open a record for a given
	// line, so first match wins.
	ChainFirst ChainMode = iota

	// ChainContinueOnError skips parsers that return errors and keeps
	// trying the rest. Collected errors are returned together alongside
	// whatever result was found.
	ChainContinueOnError
)

// ParserChain combines multiple parsers. The zero value is an empty
// chain in ChainFirst mode that matches nothing.
type ParserChain struct {
	Mode    ChainMode
	Parsers []Parser
}

// ParseLine implements the Parser interface.
//
// If the context is cancelled during execution, ParseLine returns
// immediately with the context error.
func (c *ParserChain) ParseLine(ctx context.Context, line string) (ParseResult, error) {
	var errs []error

	for _, p := range c.Parsers {
		if err := ctx.Err(); err != nil {
			return ParseResult{}, err
		}
		if p == nil {
			continue
		}

		result, err := p.ParseLine(ctx, line)
		if err != nil {
			if c.Mode == ChainContinueOnError {
				errs = append(errs, err)
				continue
			}
			return ParseResult{}, err
		}
		if result.Matched {
			// First match wins; report earlier errors alongside it in
			// ChainContinueOnError mode so they are not silently lost.
			return result, errors.Join(errs...)
		}
	}

	return ParseResult{}, errors.Join(errs...)
}
