package uelog_test

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/uelog/uelog-go/pkg/uelog"
	"github.com/uelog/uelog-go/pkg/uelog/record"
)

// ExampleParseLine demonstrates classifying a single log line.
func ExampleParseLine() {
	line := "[2024.01.15-23.59.59:123][  0]LogTemp: Display: Hello"

	rec, ok := uelog.ParseLine(line)
	if !ok {
		// Line is a continuation, not a message header
		fmt.Println("not a header")
		return
	}

	fmt.Printf("Category: %s\n", rec.Category)
	fmt.Printf("Verbosity: %s\n", rec.Verbosity)
	fmt.Printf("Body: %s\n", rec.LogBody)
	// Output:
	// Category: LogTemp
	// Verbosity: 0
	// Body: Display: Hello
}

// ExampleNewReader demonstrates reading records from a stream.
func ExampleNewReader() {
	input := "[2024.01.15-10.00.00:000][  0]LogInit: engine started\n" +
		"[2024.01.15-10.00.01:000][  1]LogWindows: Error: crash\n" +
		"Fatal error!\n" +
		"Unhandled Exception: EXCEPTION_ACCESS_VIOLATION\n"

	r := uelog.NewReader(strings.NewReader(input))
	records, err := r.ReadAll(context.Background())
	if err != nil {
		log.Fatal(err)
	}

	for _, rec := range records {
		fmt.Printf("%s (%d lines)\n", rec.Category, strings.Count(rec.Log, "\n")+1)
	}
	// Output:
	// LogInit (1 lines)
	// LogWindows (3 lines)
}

// ExampleParseFile demonstrates iterating over a log file's records.
func ExampleParseFile() {
	ctx := context.Background()

	for rec, err := range uelog.ParseFile(ctx, "Saved/Logs/MyGame.log",
		uelog.WithParseIncludeCategories("LogNet"),
	) {
		if err != nil {
			log.Fatal(err)
		}
		fmt.Println(rec.LogBody)
	}
}

// ExampleWatchWithOptions demonstrates the convenience watch function.
func ExampleWatchWithOptions() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Start watching with functional options (auto-detect log directory)
	records, errs, err := uelog.WatchWithOptions(ctx,
		uelog.WithIncludeVerbosities(record.VerbosityError, record.VerbosityWarning),
	)
	if err != nil {
		log.Fatal(err)
	}

	for {
		select {
		case rec, ok := <-records:
			if !ok {
				return
			}
			fmt.Printf("%s: %s\n", rec.Category, rec.LogBody)
		case err, ok := <-errs:
			if !ok {
				return
			}
			log.Printf("error: %v", err)
		case <-ctx.Done():
			return
		}
	}
}

// ExampleNewWatcherWithOptions demonstrates explicit Watcher control.
func ExampleNewWatcherWithOptions() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	watcher, err := uelog.NewWatcherWithOptions(
		// LogDir auto-detected if not specified
		uelog.WithPollInterval(5*time.Second),
		uelog.WithReplayLastN(100),
	)
	if err != nil {
		log.Fatal(err)
	}
	defer watcher.Close()

	records, errs, err := watcher.Watch(ctx)
	if err != nil {
		log.Fatal(err)
	}

	for {
		select {
		case rec, ok := <-records:
			if !ok {
				return
			}
			fmt.Printf("[%s][%s]%s: %s\n", rec.Date, rec.Verbosity, rec.Category, rec.LogBody)
		case err, ok := <-errs:
			if !ok {
				return
			}
			log.Printf("error: %v", err)
		case <-ctx.Done():
			return
		}
	}
}

// ExampleRecord_Time demonstrates interpreting a header timestamp in the
// timezone detected from the log preamble.
func ExampleRecord_Time() {
	input := "[  0]LogICUInternationalization: ICU TimeZone Detection - Raw Offset: +9:00\n" +
		"[2024.01.15-10.00.00:500][  0]LogTemp: hello\n"

	r := uelog.NewReader(strings.NewReader(input))
	records, err := r.ReadAll(context.Background())
	if err != nil {
		log.Fatal(err)
	}

	t, err := records[1].Time(r.Location())
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(t.UTC().Format(time.RFC3339Nano))
	// Output:
	// 2024-01-15T01:00:00.5Z
}
