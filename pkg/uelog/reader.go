package uelog

import (
	"bufio"
	"context"
	"io"
	"strings"
	"time"

	"github.com/uelog/uelog-go/internal/parser"
	"github.com/uelog/uelog-go/pkg/uelog/record"
)

// maxLineBytes is the scanner buffer limit for a single log line (1MB).
const maxLineBytes = 1 * 1024 * 1024

// accumulator is the message-boundary state machine shared by Reader
// and Watcher. It holds at most one pending record; continuation lines
// are folded into it and a new header seals it.
type accumulator struct {
	parser  Parser
	pending *record.Record
	loc     *time.Location
}

// feed processes one raw line. It returns the sealed record when the
// line closes the previous message, or nil.
//
// A line can both seal a record and return an error when a ParserChain
// in ChainContinueOnError mode recovers a match after a failing parser;
// callers should deliver the record and surface the error.
func (a *accumulator) feed(ctx context.Context, line string) (*record.Record, error) {
	if a.loc == nil {
		if loc, ok := parser.DetectTimeZone(line); ok {
			a.loc = loc
		}
	}

	result, err := a.parser.ParseLine(ctx, line)
	if result.Matched && result.Record != nil {
		sealed := a.pending
		a.pending = result.Record
		if err != nil {
			err = &ParseError{Line: line, Err: err}
		}
		return sealed, err
	}
	if err != nil {
		return nil, &ParseError{Line: line, Err: err}
	}

	// Continuation: fold into the pending record. A continuation with no
	// pending record cannot be attributed to any message and is dropped.
	if a.pending != nil {
		a.pending.Append(strings.TrimRight(line, "\r"))
	}
	return nil, nil
}

// flush seals and returns the pending record at end of input, or nil.
func (a *accumulator) flush() *record.Record {
	sealed := a.pending
	a.pending = nil
	return sealed
}

// Reader reads Unreal Engine log records from a line stream.
//
// A record spans one header line plus any continuation lines that
// follow it, so Reader keeps a single pending record and seals it when
// the next header appears or the stream ends. Reader is not safe for
// concurrent use; parse independent streams with independent Readers.
type Reader struct {
	scanner   *bufio.Scanner
	acc       accumulator
	cfg       *parseConfig
	firstLine bool
	done      bool
	err       error

	// stashed holds a stop-on-error parse error whose line also sealed
	// a record; the record is returned first, the error on the next call.
	stashed error
}

// NewReader creates a Reader over r.
// Input must already be decoded text; a leading UTF-8 BOM is stripped.
func NewReader(r io.Reader, opts ...ParseOption) *Reader {
	cfg := applyParseOptions(opts)
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	return &Reader{
		scanner:   scanner,
		acc:       accumulator{parser: cfg.parser},
		cfg:       cfg,
		firstLine: true,
	}
}

// Read returns the next sealed record.
//
// It pulls lines from the stream until a message boundary is found:
// either the next header line (which becomes the new pending record) or
// end of input (which flushes whatever is pending). At end of stream it
// returns io.EOF. I/O errors from the underlying reader propagate
// unchanged.
//
// Classification is heuristic by necessity: a continuation line whose
// text coincidentally matches the header grammar starts a new record
// (first match wins).
func (r *Reader) Read(ctx context.Context) (*record.Record, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if r.stashed != nil {
			err := r.stashed
			r.stashed = nil
			return nil, err
		}

		if r.done {
			if rec := r.acc.flush(); rec != nil && r.allows(rec) {
				return rec, nil
			}
			if r.err != nil {
				return nil, r.err
			}
			return nil, io.EOF
		}

		if !r.scanner.Scan() {
			r.done = true
			r.err = r.scanner.Err()
			continue
		}

		line := r.scanner.Text()
		if r.firstLine {
			line = strings.TrimPrefix(line, "\uFEFF")
			r.firstLine = false
		}

		sealed, err := r.acc.feed(ctx, line)
		if err != nil && r.cfg.stopOnError {
			if sealed != nil && r.allows(sealed) {
				r.stashed = err
				return sealed, nil
			}
			return nil, err
		}
		if sealed != nil && r.allows(sealed) {
			return sealed, nil
		}
	}
}

// ReadAll reads records until end of stream.
func (r *Reader) ReadAll(ctx context.Context) ([]*record.Record, error) {
	var records []*record.Record
	for {
		rec, err := r.Read(ctx)
		if err == io.EOF {
			return records, nil
		}
		if err != nil {
			return records, err
		}
		records = append(records, rec)
	}
}

// Location returns the timezone detected from the log's ICU preamble
// line, or nil if it has not been seen yet. Pass it to Record.Time to
// interpret header timestamps correctly.
func (r *Reader) Location() *time.Location {
	return r.acc.loc
}

// allows applies the configured category/verbosity and time-range filters.
func (r *Reader) allows(rec *record.Record) bool {
	if !r.cfg.filter.Allows(rec) {
		return false
	}
	if r.cfg.since.IsZero() && r.cfg.until.IsZero() {
		return true
	}
	t, err := rec.Time(r.acc.loc)
	if err != nil {
		// Records without a parseable date always pass time filters.
		return true
	}
	if !r.cfg.since.IsZero() && t.Before(r.cfg.since) {
		return false
	}
	if !r.cfg.until.IsZero() && !t.Before(r.cfg.until) {
		return false
	}
	return true
}
