// Package pattern provides custom header grammars for Unreal Engine log
// parsing. It allows users to define their own header recognition rules
// via YAML configuration files with regular expression patterns, for
// engine builds whose log format differs from the stock one.
package pattern

// PatternFile represents the structure of a YAML pattern file.
//
// Each pattern's regex recognizes a header line and uses the named
// capture groups "date", "verbosity", "category" and "body" to populate
// the record. Groups may be omitted; an omitted group leaves the
// corresponding field empty.
//
// Example YAML file:
//
//	version: 1
//	patterns:
//	  - id: stock_header
//	    regex: '^\[(?P<date>[\d.:-]+)\]\[(?P<verbosity>[^\]]+)\](?P<category>\w+): ?(?P<body>.*)$'
//	  - id: bare_header
//	    regex: '^(?P<category>Log\w+): (?P<body>.*)$'
type PatternFile struct {
	// Version is the pattern file format version. Currently only version 1 is supported.
	Version int `yaml:"version"`

	// Patterns is the list of pattern definitions.
	Patterns []Pattern `yaml:"patterns"`
}

// Pattern represents a single header grammar definition.
type Pattern struct {
	// ID is a unique identifier for this pattern (e.g. "bare_header").
	// IDs must be unique within a pattern file.
	ID string `yaml:"id"`

	// Regex is the regular expression matched against log lines.
	// The named capture groups date, verbosity, category and body are
	// extracted into the record's fields.
	Regex string `yaml:"regex"`
}
