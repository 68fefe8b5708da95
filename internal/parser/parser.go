// Package parser recognizes the Unreal Engine log header grammar.
package parser

import (
	"strconv"
	"strings"
	"time"

	"github.com/uelog/uelog-go/pkg/uelog/record"
)

// Parse classifies a single log line.
//
// Returns a new Record when the line matches the header grammar
// "[date][verbosity]category: body" (date optional), or nil when it
// does not. Anything not conclusively a header is a continuation of
// the previous message, so "not a header" is an expected outcome, not
// an error.
func Parse(line string) *record.Record {
	// Trim trailing CR for Windows CRLF compatibility
	line = strings.TrimRight(line, "\r")

	match := headerPattern.FindStringSubmatch(line)
	if match == nil {
		return nil
	}

	return &record.Record{
		Date:      match[1],
		Verbosity: record.Verbosity(strings.TrimSpace(match[2])),
		Category:  match[3],
		Log:       line,
		LogBody:   match[4],
	}
}

// IsHeader reports whether the line matches the header grammar.
func IsHeader(line string) bool {
	return headerPattern.MatchString(strings.TrimRight(line, "\r"))
}

// DetectTimeZone extracts the log's UTC offset from the ICU timezone
// preamble line the engine prints before regular logging starts:
//
//	LogICUInternationalization: ICU TimeZone Detection - Raw Offset: +9:00, Platform Override: ''
//
// Returns (nil, false) for any other line. UE header timestamps carry
// no zone information, so this is the only way to interpret them
// correctly.
func DetectTimeZone(line string) (*time.Location, bool) {
	if !strings.Contains(line, timeZoneMarker) {
		return nil, false
	}
	match := timeZonePattern.FindStringSubmatch(line)
	if match == nil {
		return nil, false
	}

	hours, err := strconv.Atoi(match[1])
	if err != nil {
		return nil, false
	}
	minutes, err := strconv.Atoi(match[2])
	if err != nil {
		return nil, false
	}
	if hours < 0 || strings.HasPrefix(match[1], "-") {
		minutes = -minutes
	}

	offset := hours*3600 + minutes*60
	return time.FixedZone("", offset), true
}
