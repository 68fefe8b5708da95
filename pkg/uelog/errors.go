package uelog

import (
	"fmt"

	"github.com/uelog/uelog-go/internal/logfinder"
)

// Sentinel errors.
var (
	// ErrLogDirNotFound indicates no UE log directory could be located.
	ErrLogDirNotFound = logfinder.ErrLogDirNotFound

	// ErrNoLogFiles indicates the log directory contains no log files.
	ErrNoLogFiles = logfinder.ErrNoLogFiles

	// ErrWatcherClosed is returned by Watch after Close has been called.
	ErrWatcherClosed = errorString("watcher is closed")

	// ErrAlreadyWatching is returned by Watch when it has already been called.
	ErrAlreadyWatching = errorString("watcher is already watching")

	// ErrReplayLimitExceeded indicates replay hit a byte or line-size limit.
	ErrReplayLimitExceeded = errorString("replay limit exceeded")
)

// errorString is a trivial constant-friendly error type.
type errorString string

func (e errorString) Error() string { return string(e) }

// WatchOp identifies the watcher operation that failed.
type WatchOp string

// Watcher operations.
const (
	WatchOpFindLatest WatchOp = "find_latest"
	WatchOpTail       WatchOp = "tail"
	WatchOpRotation   WatchOp = "rotation"
	WatchOpReplay     WatchOp = "replay"
)

// WatchError wraps an error that occurred while watching log files.
type WatchError struct {
	Op   WatchOp
	Path string
	Err  error
}

func (e *WatchError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("watch %s %s: %v", e.Op, e.Path, e.Err)
	}
	return fmt.Sprintf("watch %s: %v", e.Op, e.Err)
}

func (e *WatchError) Unwrap() error { return e.Err }

// ParseError wraps an error returned by a custom Parser for a specific line.
// The built-in grammar never produces it: lines that do not match the
// header grammar are continuations, not errors.
type ParseError struct {
	Line string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parsing line %q: %v", e.Line, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }
