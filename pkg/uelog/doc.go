// Package uelog provides parsing and monitoring of Unreal Engine log files.
//
// This package allows you to:
//   - Parse UE log output into structured records (date, verbosity,
//     category, message body), with multi-line messages folded into a
//     single record
//   - Monitor a project's Saved/Logs directory in real-time
//   - Define custom header grammars via YAML configuration
//   - Build tools that filter, search, or re-render engine logs
//
// # Basic Usage
//
// To parse an existing log file:
//
//	for rec, err := range uelog.ParseFile(ctx, "Saved/Logs/MyGame.log") {
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    fmt.Printf("%s %s: %s\n", rec.Verbosity, rec.Category, rec.LogBody)
//	}
//
// To monitor logs in real-time:
//
//	ctx, cancel := context.WithCancel(context.Background())
//	defer cancel()
//
//	records, errs, err := uelog.WatchWithOptions(ctx,
//	    uelog.WithIncludeVerbosities(record.VerbosityError, record.VerbosityWarning),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	for {
//	    select {
//	    case rec, ok := <-records:
//	        if !ok {
//	            return
//	        }
//	        fmt.Printf("%s: %s\n", rec.Category, rec.LogBody)
//	    case err, ok := <-errs:
//	        if !ok {
//	            return
//	        }
//	        log.Printf("error: %v", err)
//	    }
//	}
//
// # Record Accumulation
//
// UE messages can span multiple lines: only the first line carries the
// "[date][verbosity]category:" header, and following lines belong to
// the same message. Reader keeps one pending record and seals it when
// the next header line arrives or the input ends. Use [NewReader] and
// [Reader.Read] for pull-style iteration over any io.Reader.
//
// # Custom Parsers
//
// Implement the [Parser] interface to recognize custom header formats:
//
//	type Parser interface {
//	    ParseLine(ctx context.Context, line string) (ParseResult, error)
//	}
//
// Use [ParserChain] to combine multiple grammars (first match wins):
//
//	chain := &uelog.ParserChain{
//	    Mode:    uelog.ChainFirst,
//	    Parsers: []uelog.Parser{customParser, uelog.DefaultParser{}},
//	}
//
// # YAML Pattern Files
//
// For pattern-based grammars without code, use the [pattern] subpackage:
//
//	import "github.com/uelog/uelog-go/pkg/uelog/pattern"
//
//	parser, err := pattern.NewRegexParserFromFile("patterns.yaml")
//
// # Timestamps
//
// UE header timestamps carry no zone information. The engine prints an
// ICU timezone preamble early in each log; [Reader.Location] exposes
// the detected zone for use with [record.Record.Time].
package uelog
