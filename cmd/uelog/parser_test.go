package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestBuildParser_NoFiles(t *testing.T) {
	parser, cleanup, err := buildParser(context.Background(), nil, nil, 0, nil)
	defer cleanup()
	if err != nil {
		t.Fatalf("buildParser() error = %v", err)
	}
	if parser != nil {
		t.Errorf("buildParser() = %v, want nil", parser)
	}
}

func TestBuildParser_ValidPattern(t *testing.T) {
	dir := t.TempDir()
	patternFile := filepath.Join(dir, "patterns.yaml")
	content := `version: 1
patterns:
  - id: bare_header
    regex: '^(?P<category>Log\w+): (?P<body>.*)$'
`
	if err := os.WriteFile(patternFile, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	parser, cleanup, err := buildParser(context.Background(), []string{patternFile}, nil, 0, nil)
	defer cleanup()
	if err != nil {
		t.Fatalf("buildParser() error = %v", err)
	}
	if parser == nil {
		t.Fatal("buildParser() = nil, want non-nil")
	}

	// The custom grammar is tried first, the stock grammar still works
	result, err := parser.ParseLine(context.Background(), "LogTemp: bare line")
	if err != nil {
		t.Fatalf("ParseLine() error = %v", err)
	}
	if !result.Matched {
		t.Error("custom pattern should match bare header")
	}

	result, err = parser.ParseLine(context.Background(), "[  0]LogInit: stock header")
	if err != nil {
		t.Fatalf("ParseLine() error = %v", err)
	}
	if !result.Matched {
		t.Error("stock grammar should still match")
	}
}

func TestBuildParser_PatternFileNotFound(t *testing.T) {
	_, cleanup, err := buildParser(context.Background(),
		[]string{"/nonexistent/patterns.yaml"}, nil, 0, nil)
	defer cleanup()
	if err == nil {
		t.Fatal("buildParser() expected error for nonexistent file")
	}
	// Error message must not leak the path
	errStr := err.Error()
	if strings.Contains(errStr, "/nonexistent") {
		t.Errorf("error message should not contain path: %s", errStr)
	}
	if strings.Contains(errStr, "patterns.yaml") {
		t.Errorf("error message should not contain filename: %s", errStr)
	}
}

func TestBuildParser_InvalidRegex(t *testing.T) {
	dir := t.TempDir()
	patternFile := filepath.Join(dir, "bad.yaml")
	content := `version: 1
patterns:
  - id: broken
    regex: '(?P<category>[unclosed'
`
	if err := os.WriteFile(patternFile, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	_, cleanup, err := buildParser(context.Background(), []string{patternFile}, nil, 0, nil)
	defer cleanup()
	if err == nil {
		t.Fatal("buildParser() expected error for invalid regex")
	}
}

func TestBuildParser_PluginNotFound(t *testing.T) {
	_, cleanup, err := buildParser(context.Background(),
		nil, []string{filepath.Join(t.TempDir(), "missing.wasm")}, 0, nil)
	defer cleanup()
	if err == nil {
		t.Fatal("buildParser() expected error for missing plugin")
	}
}

func TestToVerbosities(t *testing.T) {
	verbs := toVerbosities([]string{"Error", "Warning"})
	if len(verbs) != 2 {
		t.Fatalf("got %d verbosities, want 2", len(verbs))
	}
	if string(verbs[0]) != "Error" || string(verbs[1]) != "Warning" {
		t.Errorf("got %v", verbs)
	}
}
