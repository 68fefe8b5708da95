package uelog

import (
	"context"

	"github.com/uelog/uelog-go/internal/parser"
	"github.com/uelog/uelog-go/pkg/uelog/record"
)

// DefaultParser recognizes the stock Unreal Engine header grammar
// "[date][verbosity]category: body" with an optional date bracket.
type DefaultParser struct{}

// ParseLine implements the Parser interface.
// The context parameter is for interface symmetry; the stock grammar is
// a single regexp match and cannot block.
func (DefaultParser) ParseLine(ctx context.Context, line string) (ParseResult, error) {
	rec := parser.Parse(line)
	if rec == nil {
		return ParseResult{Matched: false}, nil
	}
	return ParseResult{Record: rec, Matched: true}, nil
}

// ParseLine classifies a single line with the stock UE grammar.
//
// Return values:
//   - (*record.Record, true): the line is a message header
//   - (nil, false): the line is a continuation of the previous message
//
// There is no error case: anything not conclusively a header is a
// continuation.
func ParseLine(line string) (*record.Record, bool) {
	rec := parser.Parse(line)
	return rec, rec != nil
}

// Ensure DefaultParser implements Parser.
var _ Parser = DefaultParser{}
