package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/uelog/uelog-go/pkg/uelog/record"
)

// ValidFormats lists all valid output formats.
var ValidFormats = map[string]bool{
	"jsonl":  true,
	"pretty": true,
	"raw":    true,
}

// OutputRecord writes a record in the specified format to the writer.
func OutputRecord(format string, rec *record.Record, out io.Writer) error {
	switch format {
	case "jsonl":
		return OutputJSON(rec, out)
	case "pretty":
		return OutputPretty(rec, out)
	case "raw":
		return OutputRaw(rec, out)
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

// OutputJSON writes a record as JSON Lines format.
func OutputJSON(rec *record.Record, out io.Writer) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, string(data))
	return err
}

// OutputPretty writes a record in human-readable format. Continuation
// lines are indented under the header line.
func OutputPretty(rec *record.Record, out io.Writer) error {
	var sb strings.Builder

	if rec.Date != "" {
		sb.WriteByte('[')
		sb.WriteString(rec.Date)
		sb.WriteString("] ")
	}
	sb.WriteString(rec.Category)
	if rec.Verbosity != "" {
		sb.WriteByte('(')
		sb.WriteString(string(rec.Verbosity))
		sb.WriteByte(')')
	}
	sb.WriteString(": ")

	lines := strings.Split(rec.LogBody, "\n")
	sb.WriteString(lines[0])
	for _, line := range lines[1:] {
		sb.WriteString("\n    ")
		sb.WriteString(line)
	}

	_, err := fmt.Fprintln(out, sb.String())
	return err
}

// OutputRaw writes the record's raw text exactly as it appeared in the
// log file.
func OutputRaw(rec *record.Record, out io.Writer) error {
	_, err := fmt.Fprintln(out, rec.Log)
	return err
}
