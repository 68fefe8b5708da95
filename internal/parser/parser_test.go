package parser

import (
	"testing"
	"time"

	"github.com/uelog/uelog-go/pkg/uelog/record"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  *record.Record
	}{
		{
			name:  "full header with date and frame counter",
			input: "[2020.12.13-02.11.01:195][404]LogTemp: Error: LogTemp Verbosity:Error",
			want: &record.Record{
				Date:      "2020.12.13-02.11.01:195",
				Verbosity: "404",
				Category:  "LogTemp",
				Log:       "[2020.12.13-02.11.01:195][404]LogTemp: Error: LogTemp Verbosity:Error",
				LogBody:   "Error: LogTemp Verbosity:Error",
			},
		},
		{
			name:  "frame counter with padding spaces",
			input: "[2020.01.01-00.00.00:000][  0]LogTemp: Display: Hello",
			want: &record.Record{
				Date:      "2020.01.01-00.00.00:000",
				Verbosity: "0",
				Category:  "LogTemp",
				Log:       "[2020.01.01-00.00.00:000][  0]LogTemp: Display: Hello",
				LogBody:   "Display: Hello",
			},
		},
		{
			name:  "date absent",
			input: "[Warning]LogNet: connection closed",
			want: &record.Record{
				Date:      "",
				Verbosity: "Warning",
				Category:  "LogNet",
				Log:       "[Warning]LogNet: connection closed",
				LogBody:   "connection closed",
			},
		},
		{
			name:  "crlf trimmed",
			input: "[Display]LogInit: Build: ++UE5\r",
			want: &record.Record{
				Verbosity: "Display",
				Category:  "LogInit",
				Log:       "[Display]LogInit: Build: ++UE5",
				LogBody:   "Build: ++UE5",
			},
		},
		{
			name:  "empty body",
			input: "[2020.01.01-00.00.00:000][  7]LogExit: ",
			want: &record.Record{
				Date:      "2020.01.01-00.00.00:000",
				Verbosity: "7",
				Category:  "LogExit",
				Log:       "[2020.01.01-00.00.00:000][  7]LogExit: ",
				LogBody:   "",
			},
		},
		{
			name:  "body keeps extra leading spaces beyond the first",
			input: "[  1]LogTemp:   indented",
			want: &record.Record{
				Verbosity: "1",
				Category:  "LogTemp",
				Log:       "[  1]LogTemp:   indented",
				LogBody:   "  indented",
			},
		},
		{
			name:  "custom verbosity tag",
			input: "[2021.03.04-10.20.30:001][ 12]LogMyGame: ChattyDebug: spawned actor",
			want: &record.Record{
				Date:      "2021.03.04-10.20.30:001",
				Verbosity: "12",
				Category:  "LogMyGame",
				Log:       "[2021.03.04-10.20.30:001][ 12]LogMyGame: ChattyDebug: spawned actor",
				LogBody:   "ChattyDebug: spawned actor",
			},
		},

		// Not headers: continuations.
		{
			name:  "no brackets",
			input: "LogTemp: Display: Hello",
			want:  nil,
		},
		{
			name:  "plain text",
			input: "second line of a multiline message",
			want:  nil,
		},
		{
			name:  "empty line",
			input: "",
			want:  nil,
		},
		{
			name:  "bracket without category colon",
			input: "[404] stack trace follows",
			want:  nil,
		},
		{
			name:  "category starting with digit",
			input: "[404]9Lives: meow",
			want:  nil,
		},
		{
			name:  "unterminated bracket",
			input: "[2020.12.13-02.11.01:195",
			want:  nil,
		},
		{
			name:  "shutdown footer without brackets",
			input: "Log file closed, 12/13/20 11:11:01",
			want:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Parse(tt.input)
			if tt.want == nil {
				if got != nil {
					t.Fatalf("Parse(%q) = %+v, want nil", tt.input, got)
				}
				return
			}
			if got == nil {
				t.Fatalf("Parse(%q) = nil, want %+v", tt.input, tt.want)
			}
			if *got != *tt.want {
				t.Errorf("Parse(%q) = %+v, want %+v", tt.input, got, tt.want)
			}
		})
	}
}

func TestIsHeader(t *testing.T) {
	if !IsHeader("[2020.01.01-00.00.00:000][  0]LogTemp: Display: Hello") {
		t.Error("IsHeader() = false for a header line")
	}
	if IsHeader("continuation text") {
		t.Error("IsHeader() = true for a continuation line")
	}
}

func TestDetectTimeZone(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		wantOffset int // seconds
		wantOK     bool
	}{
		{
			name:       "positive offset",
			input:      "LogICUInternationalization: ICU TimeZone Detection - Raw Offset: +9:00, Platform Override: ''",
			wantOffset: 9 * 3600,
			wantOK:     true,
		},
		{
			name:       "negative offset with minutes",
			input:      "LogICUInternationalization: ICU TimeZone Detection - Raw Offset: -5:30, Platform Override: ''",
			wantOffset: -(5*3600 + 30*60),
			wantOK:     true,
		},
		{
			name:       "zero offset",
			input:      "LogICUInternationalization: ICU TimeZone Detection - Raw Offset: +0:00, Platform Override: ''",
			wantOffset: 0,
			wantOK:     true,
		},
		{
			name:   "unrelated line",
			input:  "[  0]LogTemp: Display: Hello",
			wantOK: false,
		},
		{
			name:   "marker without offset",
			input:  "LogFoo: TimeZone Detection failed",
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loc, ok := DetectTimeZone(tt.input)
			if ok != tt.wantOK {
				t.Fatalf("DetectTimeZone(%q) ok = %v, want %v", tt.input, ok, tt.wantOK)
			}
			if !ok {
				return
			}
			_, offset := time.Date(2020, 1, 1, 0, 0, 0, 0, loc).Zone()
			if offset != tt.wantOffset {
				t.Errorf("offset = %d, want %d", offset, tt.wantOffset)
			}
		})
	}
}

func FuzzParse(f *testing.F) {
	f.Add("[2020.01.01-00.00.00:000][  0]LogTemp: Display: Hello")
	f.Add("[Warning]LogNet: closed")
	f.Add("plain continuation")
	f.Add("[[]]::")
	f.Add("")

	f.Fuzz(func(t *testing.T, line string) {
		// Must never panic, and a parsed record must round-trip its
		// raw line (modulo the trailing CR the grammar strips).
		rec := Parse(line)
		if rec == nil {
			return
		}
		trimmed := line
		for len(trimmed) > 0 && trimmed[len(trimmed)-1] == '\r' {
			trimmed = trimmed[:len(trimmed)-1]
		}
		if rec.Log != trimmed {
			t.Errorf("Log = %q, want raw line %q", rec.Log, trimmed)
		}
	})
}
