// Package record defines the parsed log record type shared across uelog-go.
package record

import (
	"errors"
	"strconv"
	"strings"
	"time"
)

// Verbosity is an Unreal Engine log verbosity level.
// Engine builds can define custom levels, so this is an open-ended
// string type rather than an enumeration. The stock levels are
// provided as constants for convenience.
type Verbosity string

// Stock UE verbosity levels.
const (
	VerbosityFatal       Verbosity = "Fatal"
	VerbosityError       Verbosity = "Error"
	VerbosityWarning     Verbosity = "Warning"
	VerbosityDisplay     Verbosity = "Display"
	VerbosityLog         Verbosity = "Log"
	VerbosityVerbose     Verbosity = "Verbose"
	VerbosityVeryVerbose Verbosity = "VeryVerbose"
)

// Record is a single parsed Unreal Engine log message.
//
// A record spans one header line plus any continuation lines that
// followed it. Log holds the raw text; LogBody holds the text after the
// "[date][verbosity]category: " header prefix. Both fold continuation
// lines with "\n" separators.
type Record struct {
	// Date is the timestamp string from the header's leading bracket,
	// e.g. "2020.12.13-02.11.01:195". Empty when the engine was run
	// without timestamp logging; empty is valid.
	Date string `json:"date,omitempty"`

	// Verbosity is the bracketed severity tag, surrounding spaces trimmed.
	Verbosity Verbosity `json:"verbosity"`

	// Category is the subsystem tag that emitted the line, e.g. "LogTemp".
	Category string `json:"category"`

	// Log is the complete raw header line plus folded continuation lines.
	Log string `json:"log"`

	// LogBody is Log with the header prefix stripped from its first line.
	LogBody string `json:"log_body"`
}

// ErrNoDate is returned by Time when the record has no date field.
var ErrNoDate = errors.New("record has no date")

// dateLayout matches the UE header timestamp up to seconds.
// Milliseconds follow after a colon and are parsed separately because
// Go time layouts cannot express a ':'-separated fraction.
const dateLayout = "2006.01.02-15.04.05"

// Time parses the record's Date field in the given location.
// UE timestamps carry no zone information; pass the location detected
// from the log preamble (see uelog.Reader.Location), or nil for
// time.Local. Returns ErrNoDate when Date is empty.
func (r *Record) Time(loc *time.Location) (time.Time, error) {
	if r.Date == "" {
		return time.Time{}, ErrNoDate
	}
	if loc == nil {
		loc = time.Local
	}

	base := r.Date
	ms := 0
	if i := strings.LastIndexByte(base, ':'); i >= 0 {
		n, err := strconv.Atoi(base[i+1:])
		if err != nil {
			return time.Time{}, err
		}
		ms = n
		base = base[:i]
	}

	t, err := time.ParseInLocation(dateLayout, base, loc)
	if err != nil {
		return time.Time{}, err
	}
	return t.Add(time.Duration(ms) * time.Millisecond), nil
}

// Append folds a continuation line into the record.
// The line is joined with a "\n" separator to both Log and LogBody.
func (r *Record) Append(line string) {
	r.Log += "\n" + line
	r.LogBody += "\n" + line
}
