package pattern

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/uelog/uelog-go/pkg/uelog"
	"github.com/uelog/uelog-go/pkg/uelog/record"
)

// Named capture groups recognized in pattern regexes.
const (
	GroupDate      = "date"
	GroupVerbosity = "verbosity"
	GroupCategory  = "category"
	GroupBody      = "body"
)

// RegexParser is a Parser implementation that recognizes header lines
// using user-defined regular expressions from a YAML file.
//
// The named capture groups date, verbosity, category and body populate
// the record's fields; the raw line (CR-trimmed) becomes Record.Log.
// Patterns are tried in file order and the first match wins, matching
// the chain semantics of uelog.ChainFirst.
//
// RegexParser is safe for concurrent use by multiple goroutines.
type RegexParser struct {
	patterns []*compiledPattern
}

// compiledPattern represents a single compiled pattern with its metadata.
type compiledPattern struct {
	id    string
	regex *regexp.Regexp
	// Submatch indexes for the recognized groups; 0 when the group is absent.
	dateIdx, verbosityIdx, categoryIdx, bodyIdx int
}

// NewRegexParser creates a RegexParser from a PatternFile.
// All regular expressions are compiled here; an invalid regex or a
// pattern without any recognized capture group is an error.
func NewRegexParser(pf *PatternFile) (*RegexParser, error) {
	if pf == nil {
		return nil, fmt.Errorf("pattern file is nil")
	}

	patterns := make([]*compiledPattern, 0, len(pf.Patterns))
	for i, p := range pf.Patterns {
		re, err := regexp.Compile(p.Regex)
		if err != nil {
			return nil, &PatternError{
				Index:   i,
				ID:      p.ID,
				Field:   "regex",
				Message: fmt.Sprintf("invalid regular expression: %v", err),
				Cause:   err,
			}
		}

		cp := &compiledPattern{id: p.ID, regex: re}
		for j, name := range re.SubexpNames() {
			switch name {
			case GroupDate:
				cp.dateIdx = j
			case GroupVerbosity:
				cp.verbosityIdx = j
			case GroupCategory:
				cp.categoryIdx = j
			case GroupBody:
				cp.bodyIdx = j
			}
		}
		if cp.dateIdx == 0 && cp.verbosityIdx == 0 && cp.categoryIdx == 0 && cp.bodyIdx == 0 {
			return nil, &PatternError{
				Index:   i,
				ID:      p.ID,
				Field:   "regex",
				Message: "no recognized capture groups (expected date, verbosity, category or body)",
			}
		}

		patterns = append(patterns, cp)
	}

	return &RegexParser{patterns: patterns}, nil
}

// NewRegexParserFromFile loads a pattern file and creates a RegexParser
// in one step.
//
// Example:
//
//	parser, err := pattern.NewRegexParserFromFile("patterns.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	r := uelog.NewReader(f, uelog.WithParseParser(parser))
func NewRegexParserFromFile(path string) (*RegexParser, error) {
	pf, err := Load(path)
	if err != nil {
		return nil, err
	}
	return NewRegexParser(pf)
}

// ParseLine implements the uelog.Parser interface.
// It tries each pattern in file order; the first match opens a record.
// A line matching no pattern is a continuation (Matched=false), never
// an error.
func (p *RegexParser) ParseLine(ctx context.Context, line string) (uelog.ParseResult, error) {
	trimmed := strings.TrimRight(line, "\r")

	for _, cp := range p.patterns {
		matches := cp.regex.FindStringSubmatch(trimmed)
		if matches == nil {
			continue
		}

		rec := &record.Record{Log: trimmed}
		if cp.dateIdx > 0 && cp.dateIdx < len(matches) {
			rec.Date = matches[cp.dateIdx]
		}
		if cp.verbosityIdx > 0 && cp.verbosityIdx < len(matches) {
			rec.Verbosity = record.Verbosity(strings.TrimSpace(matches[cp.verbosityIdx]))
		}
		if cp.categoryIdx > 0 && cp.categoryIdx < len(matches) {
			rec.Category = matches[cp.categoryIdx]
		}
		if cp.bodyIdx > 0 && cp.bodyIdx < len(matches) {
			rec.LogBody = matches[cp.bodyIdx]
		}

		return uelog.ParseResult{Record: rec, Matched: true}, nil
	}

	return uelog.ParseResult{Matched: false}, nil
}

// Ensure RegexParser implements uelog.Parser.
var _ uelog.Parser = (*RegexParser)(nil)
