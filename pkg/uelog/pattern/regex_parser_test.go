package pattern_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uelog/uelog-go/pkg/uelog/pattern"
	"github.com/uelog/uelog-go/pkg/uelog/record"
)

func mustParser(t *testing.T, yaml string) *pattern.RegexParser {
	t.Helper()
	pf, err := pattern.LoadBytes([]byte(yaml))
	require.NoError(t, err)
	p, err := pattern.NewRegexParser(pf)
	require.NoError(t, err)
	return p
}

func TestRegexParser_AllGroups(t *testing.T) {
	p := mustParser(t, `version: 1
patterns:
  - id: stock
    regex: '^\[(?P<date>[\d.:-]+)\]\[(?P<verbosity>[^\]]+)\](?P<category>\w+): ?(?P<body>.*)$'
`)

	result, err := p.ParseLine(context.Background(),
		"[2024.01.15-10.00.00:000][  3]LogNet: connection closed")
	require.NoError(t, err)
	require.True(t, result.Matched)
	rec := result.Record
	assert.Equal(t, "2024.01.15-10.00.00:000", rec.Date)
	assert.Equal(t, record.Verbosity("3"), rec.Verbosity)
	assert.Equal(t, "LogNet", rec.Category)
	assert.Equal(t, "connection closed", rec.LogBody)
	assert.Equal(t, "[2024.01.15-10.00.00:000][  3]LogNet: connection closed", rec.Log)
}

func TestRegexParser_PartialGroups(t *testing.T) {
	p := mustParser(t, `version: 1
patterns:
  - id: bare
    regex: '^(?P<category>Log\w+): (?P<body>.*)$'
`)

	result, err := p.ParseLine(context.Background(), "LogTemp: no brackets here")
	require.NoError(t, err)
	require.True(t, result.Matched)
	assert.Empty(t, result.Record.Date)
	assert.Empty(t, result.Record.Verbosity)
	assert.Equal(t, "LogTemp", result.Record.Category)
	assert.Equal(t, "no brackets here", result.Record.LogBody)
}

func TestRegexParser_FirstPatternWins(t *testing.T) {
	p := mustParser(t, `version: 1
patterns:
  - id: first
    regex: '^(?P<category>Log\w+): (?P<body>.*)$'
  - id: second
    regex: '^(?P<body>.*)$'
`)

	result, err := p.ParseLine(context.Background(), "LogTemp: hello")
	require.NoError(t, err)
	require.True(t, result.Matched)
	// The first pattern captured a category; the catch-all would not have
	assert.Equal(t, "LogTemp", result.Record.Category)
}

func TestRegexParser_NoMatch(t *testing.T) {
	p := mustParser(t, `version: 1
patterns:
  - id: bare
    regex: '^(?P<category>Log\w+): (?P<body>.*)$'
`)

	result, err := p.ParseLine(context.Background(), "  stack frame detail")
	require.NoError(t, err)
	assert.False(t, result.Matched)
	assert.Nil(t, result.Record)
}

func TestRegexParser_VerbosityTrimmed(t *testing.T) {
	p := mustParser(t, `version: 1
patterns:
  - id: stock
    regex: '^\[(?P<verbosity>[^\]]+)\](?P<category>\w+): (?P<body>.*)$'
`)

	result, err := p.ParseLine(context.Background(), "[  42]LogCore: tick")
	require.NoError(t, err)
	require.True(t, result.Matched)
	assert.Equal(t, record.Verbosity("42"), result.Record.Verbosity)
}

func TestRegexParser_CRStripped(t *testing.T) {
	p := mustParser(t, `version: 1
patterns:
  - id: bare
    regex: '^(?P<category>Log\w+): (?P<body>.*)$'
`)

	result, err := p.ParseLine(context.Background(), "LogTemp: windows line\r")
	require.NoError(t, err)
	require.True(t, result.Matched)
	assert.Equal(t, "LogTemp: windows line", result.Record.Log)
	assert.Equal(t, "windows line", result.Record.LogBody)
}

func TestNewRegexParser_InvalidRegex(t *testing.T) {
	pf, err := pattern.Load("testdata/invalid_regex.yaml")
	require.NoError(t, err)

	_, err = pattern.NewRegexParser(pf)
	require.Error(t, err)
	var patErr *pattern.PatternError
	require.True(t, errors.As(err, &patErr))
	assert.Equal(t, "broken", patErr.ID)
	assert.NotNil(t, patErr.Unwrap())
}

func TestNewRegexParser_NoRecognizedGroups(t *testing.T) {
	pf, err := pattern.Load("testdata/no_groups.yaml")
	require.NoError(t, err)

	_, err = pattern.NewRegexParser(pf)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no recognized capture groups")
}

func TestNewRegexParser_Nil(t *testing.T) {
	_, err := pattern.NewRegexParser(nil)
	require.Error(t, err)
}

func TestNewRegexParserFromFile(t *testing.T) {
	p, err := pattern.NewRegexParserFromFile("testdata/valid.yaml")
	require.NoError(t, err)

	result, err := p.ParseLine(context.Background(),
		"[2024.01.15-10.00.00:000][  0]LogTemp: hi")
	require.NoError(t, err)
	assert.True(t, result.Matched)
}
