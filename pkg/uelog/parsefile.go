package uelog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"path/filepath"
	"sort"

	"github.com/uelog/uelog-go/internal/safefile"
	"github.com/uelog/uelog-go/pkg/uelog/record"
)

// ParseFile parses a UE log file and yields records in order.
//
// The returned iterator is single-use. Errors (I/O failures, context
// cancellation, custom-parser errors under WithParseStopOnError) are
// yielded with a nil record and terminate iteration.
//
// Example:
//
//	for rec, err := range uelog.ParseFile(ctx, "Saved/Logs/MyGame.log") {
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    fmt.Println(rec.Category, rec.LogBody)
//	}
func ParseFile(ctx context.Context, path string, opts ...ParseOption) iter.Seq2[*record.Record, error] {
	return func(yield func(*record.Record, error) bool) {
		f, _, err := safefile.OpenRegular(path)
		if err != nil {
			yield(nil, fmt.Errorf("opening log file: %w", err))
			return
		}
		defer f.Close()

		r := NewReader(f, opts...)
		for {
			rec, err := r.Read(ctx)
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				yield(nil, err)
				return
			}
			if !yield(rec, nil) {
				return
			}
		}
	}
}

// ParseFileAll parses a UE log file and returns all records at once.
// Prefer ParseFile for large files.
func ParseFileAll(ctx context.Context, path string, opts ...ParseOption) ([]*record.Record, error) {
	var records []*record.Record
	for rec, err := range ParseFile(ctx, path, opts...) {
		if err != nil {
			return records, err
		}
		records = append(records, rec)
	}
	return records, nil
}

// ParseDir parses every *.log file in dir, in lexical filename order,
// and yields records file by file. Each file is parsed independently;
// records are never merged or reordered across files.
func ParseDir(ctx context.Context, dir string, opts ...ParseOption) iter.Seq2[*record.Record, error] {
	return func(yield func(*record.Record, error) bool) {
		matches, err := filepath.Glob(filepath.Join(dir, "*.log"))
		if err != nil {
			yield(nil, fmt.Errorf("globbing log files: %w", err))
			return
		}
		if len(matches) == 0 {
			yield(nil, ErrNoLogFiles)
			return
		}
		sort.Strings(matches)

		for _, path := range matches {
			for rec, err := range ParseFile(ctx, path, opts...) {
				if !yield(rec, err) {
					return
				}
				if err != nil {
					return
				}
			}
		}
	}
}
