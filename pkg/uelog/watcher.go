package uelog

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/uelog/uelog-go/internal/logfinder"
	"github.com/uelog/uelog-go/internal/tailer"
	"github.com/uelog/uelog-go/pkg/uelog/record"
)

// ReplayMode specifies how to handle existing log lines.
type ReplayMode int

const (
	// ReplayNone only watches for new lines (default, tail -f behavior).
	ReplayNone ReplayMode = iota
	// ReplayFromStart reads from the beginning of the file.
	ReplayFromStart
	// ReplayLastN reads the last N lines before tailing.
	ReplayLastN
	// ReplaySinceTime delivers records dated at or after a specific time.
	ReplaySinceTime
)

// DefaultMaxReplayLastN is the default maximum lines for ReplayLastN mode.
const DefaultMaxReplayLastN = 10000

// watcherErrBuffer is the buffer size for the error channel.
// A small buffer prevents error loss during brief moments when the
// consumer is busy, while keeping memory usage minimal.
const watcherErrBuffer = 16

// ReplayConfig configures replay behavior.
// Only one mode can be active at a time (mutually exclusive).
type ReplayConfig struct {
	Mode  ReplayMode
	LastN int       // For ReplayLastN
	Since time.Time // For ReplaySinceTime
}

// Watcher monitors UE log files and delivers sealed records.
type Watcher struct {
	cfg    watchConfig // internal configuration (immutable after creation)
	logDir string
	log    *slog.Logger

	mu       sync.Mutex
	closed   bool
	cancel   context.CancelFunc // cancel func to stop the goroutine
	doneCh   chan struct{}      // signals when goroutine has exited
	watching bool               // true if Watch() has been called
}

// discardLogger returns a logger that discards all output.
var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// Watch starts watching and returns channels.
// When ctx is cancelled, channels are closed automatically; the pending
// record, if any, is flushed to the record channel first.
// Watch can only be called once per Watcher instance.
//
// Returns ErrWatcherClosed if the watcher has been closed.
// Returns ErrAlreadyWatching if Watch() has already been called.
func (w *Watcher) Watch(ctx context.Context) (<-chan *record.Record, <-chan error, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil, nil, ErrWatcherClosed
	}
	if w.watching {
		return nil, nil, ErrAlreadyWatching
	}
	w.watching = true

	ctx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	w.doneCh = make(chan struct{})

	recordCh := make(chan *record.Record)
	errCh := make(chan error, watcherErrBuffer)

	go w.run(ctx, recordCh, errCh)

	return recordCh, errCh, nil
}

// Close stops the watcher and releases resources.
// Safe to call multiple times.
// Blocks until the goroutine has exited.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true

	if w.cancel != nil {
		w.cancel()
	}
	doneCh := w.doneCh
	w.mu.Unlock()

	if doneCh != nil {
		<-doneCh
	}
	return nil
}

func (w *Watcher) run(ctx context.Context, recordCh chan<- *record.Record, errCh chan<- error) {
	defer close(w.doneCh) // Signal that goroutine has exited
	defer close(recordCh)
	defer close(errCh)

	acc := &accumulator{parser: w.cfg.parser}
	// Flush the in-progress message on shutdown so it is not lost.
	defer func() { w.emit(ctx, acc, acc.flush(), recordCh) }()

	logFile, err := w.findLogFileWithWait(ctx, errCh)
	if err != nil {
		// Error already sent to errCh by findLogFileWithWait
		return
	}
	w.log.Debug("found latest log file", "path", logFile)

	cfg := tailer.DefaultConfig()
	// For ReplayFromStart and ReplaySinceTime, read from start.
	// ReplayLastN is handled specially below.
	cfg.FromStart = w.cfg.replay.Mode == ReplayFromStart || w.cfg.replay.Mode == ReplaySinceTime

	if w.cfg.replay.Mode == ReplayLastN && w.cfg.replay.LastN > 0 {
		w.log.Debug("replaying last N lines", "n", w.cfg.replay.LastN, "path", logFile)
		if err := w.replayLastN(ctx, logFile, acc, recordCh, errCh); err != nil {
			sendError(ctx, errCh, &WatchError{Op: WatchOpReplay, Path: logFile, Err: err})
		}
		cfg.FromStart = false // Continue from end after replay
	}

	t, err := tailer.New(ctx, logFile, cfg)
	if err != nil {
		sendError(ctx, errCh, &WatchError{Op: WatchOpTail, Path: logFile, Err: err})
		return
	}
	w.log.Debug("started tailing", "path", logFile, "from_start", cfg.FromStart)

	rotationTicker := time.NewTicker(w.cfg.pollInterval)
	defer rotationTicker.Stop()
	defer func() { _ = t.Stop() }()

	currentFile := logFile

	for {
		select {
		case <-ctx.Done():
			return
		case line, ok := <-t.Lines():
			if !ok {
				return
			}
			w.feedLine(ctx, acc, line, recordCh, errCh)
		case err, ok := <-t.Errors():
			if !ok {
				return
			}
			sendError(ctx, errCh, err)
		case <-rotationTicker.C:
			// Check for new log file (log rotation)
			newFile, err := logfinder.FindLatestLogFile(w.logDir)
			if err != nil {
				sendError(ctx, errCh, &WatchError{Op: WatchOpRotation, Err: err})
				continue
			}
			if newFile != currentFile {
				w.log.Debug("log rotation detected", "from", currentFile, "to", newFile)
				_ = t.Stop()

				// A rotated file never gets more continuation lines;
				// flush the pending record before switching.
				w.emit(ctx, acc, acc.flush(), recordCh)

				cfg := tailer.DefaultConfig()
				cfg.FromStart = true // Read new file from start
				newTailer, err := tailer.New(ctx, newFile, cfg)
				if err != nil {
					sendError(ctx, errCh, &WatchError{Op: WatchOpTail, Path: newFile, Err: err})
					continue
				}
				t = newTailer
				currentFile = newFile
			}
		}
	}
}

// findLogFileWithWait finds the latest log file, optionally waiting if none exist yet.
// Returns the log file path or an error (error is also sent to errCh).
func (w *Watcher) findLogFileWithWait(ctx context.Context, errCh chan<- error) (string, error) {
	logFile, err := logfinder.FindLatestLogFile(w.logDir)
	if err == nil {
		return logFile, nil
	}
	if err != ErrNoLogFiles {
		sendError(ctx, errCh, &WatchError{Op: WatchOpFindLatest, Err: err})
		return "", err
	}

	if !w.cfg.waitForLogs {
		sendError(ctx, errCh, &WatchError{Op: WatchOpFindLatest, Err: err})
		return "", err
	}

	w.log.Debug("no log files found, waiting for logs to appear", "poll_interval", w.cfg.pollInterval)
	ticker := time.NewTicker(w.cfg.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			err := ctx.Err()
			select {
			case errCh <- &WatchError{Op: WatchOpFindLatest, Err: err}:
			default:
				// Channel buffer full; non-fatal during shutdown
			}
			return "", err
		case <-ticker.C:
			logFile, err := logfinder.FindLatestLogFile(w.logDir)
			if err == nil {
				w.log.Debug("log file appeared", "path", logFile)
				return logFile, nil
			}
			if err != ErrNoLogFiles {
				sendError(ctx, errCh, &WatchError{Op: WatchOpFindLatest, Err: err})
				return "", err
			}
			// Still no log files, continue waiting
		}
	}
}

// feedLine runs one line through the accumulator and delivers whatever
// record it seals.
func (w *Watcher) feedLine(ctx context.Context, acc *accumulator, line string, recordCh chan<- *record.Record, errCh chan<- error) {
	sealed, err := acc.feed(ctx, line)
	if err != nil {
		// A chain in ChainContinueOnError mode can seal a record and
		// report errors for the same line; deliver both.
		sendError(ctx, errCh, err)
	}
	w.emit(ctx, acc, sealed, recordCh)
}

// emit applies the configured filters and sends the record.
func (w *Watcher) emit(ctx context.Context, acc *accumulator, rec *record.Record, recordCh chan<- *record.Record) {
	if rec == nil {
		return
	}
	if w.cfg.replay.Mode == ReplaySinceTime {
		if t, err := rec.Time(acc.loc); err == nil && t.Before(w.cfg.replay.Since) {
			return
		}
	}
	if !w.cfg.filter.Allows(rec) {
		return
	}
	select {
	case recordCh <- rec:
	case <-ctx.Done():
	}
}

// replayLastN reads and processes the last N lines from the log file.
func (w *Watcher) replayLastN(ctx context.Context, logFile string, acc *accumulator, recordCh chan<- *record.Record, errCh chan<- error) error {
	lines, err := readLastNLines(logFile, w.cfg.replay.LastN, w.cfg.maxReplayBytes, w.cfg.maxReplayLineBytes)
	if err != nil {
		return err
	}

	for _, line := range lines {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			w.feedLine(ctx, acc, line, recordCh, errCh)
		}
	}
	return nil
}

// readLastNLines reads the last N non-empty lines from a file using backward
// chunk scanning. Returns lines in order (oldest first).
//
// Memory limits:
//   - maxBytes: Maximum total bytes to read (0 = unlimited)
//   - maxLineBytes: Maximum bytes per single line (0 = unlimited)
//
// Returns ErrReplayLimitExceeded if limits are exceeded.
func readLastNLines(filepath string, n int, maxBytes int, maxLineBytes int) ([]string, error) {
	file, err := os.Open(filepath)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return nil, err
	}
	fileSize := stat.Size()
	if fileSize == 0 {
		return nil, nil
	}

	lines := make([]string, 0, n)

	const chunkSize = 4096
	offset := fileSize
	carry := []byte{} // Incomplete line from previous chunk
	totalBytes := 0

	for len(lines) < n && offset > 0 {
		readSize := int64(chunkSize)
		if offset < readSize {
			readSize = offset
		}
		offset -= readSize

		if maxBytes > 0 && totalBytes+int(readSize)+len(carry) > maxBytes {
			return nil, ErrReplayLimitExceeded
		}

		chunk := make([]byte, readSize)
		if _, err := file.ReadAt(chunk, offset); err != nil {
			return nil, err
		}
		totalBytes += int(readSize)

		// Carry comes after the chunk in file order
		chunk = append(chunk, carry...)

		newLines, newCarry := extractLinesBackward(chunk, n-len(lines), maxLineBytes)
		if newCarry == nil && maxLineBytes > 0 && len(chunk) > maxLineBytes {
			// No newline found and chunk exceeds line limit
			return nil, ErrReplayLimitExceeded
		}

		if len(newLines) > 0 {
			lines = append(newLines, lines...)
		}
		carry = newCarry
	}

	// Handle final carry (line at beginning of file without leading newline)
	if offset == 0 && len(carry) > 0 {
		if maxLineBytes > 0 && len(carry) > maxLineBytes {
			return nil, ErrReplayLimitExceeded
		}
		line := string(carry)
		if len(line) > 0 && line[len(line)-1] == '\r' {
			line = line[:len(line)-1]
		}
		if line != "" {
			lines = append([]string{line}, lines...)
			if len(lines) > n {
				lines = lines[len(lines)-n:]
			}
		}
	}

	return lines, nil
}

// extractLinesBackward extracts complete lines from a buffer by scanning
// backwards. Returns lines in order (oldest first) and the carry (the
// incomplete line at the buffer start). If maxLineBytes > 0 and a line
// exceeds it, the carry is nil to signal the error.
func extractLinesBackward(buffer []byte, maxLines int, maxLineBytes int) ([]string, []byte) {
	var lines []string
	end := len(buffer)

	for i := len(buffer) - 1; i >= 0; i-- {
		if buffer[i] != '\n' {
			continue
		}
		lineBytes := buffer[i+1 : end]

		if maxLineBytes > 0 && len(lineBytes) > maxLineBytes {
			return lines, nil
		}

		line := string(lineBytes)
		if len(line) > 0 && line[len(line)-1] == '\r' {
			line = line[:len(line)-1]
		}
		// Skip empty lines
		if line != "" {
			lines = append([]string{line}, lines...)
		}
		end = i
	}

	if len(lines) > maxLines {
		lines = lines[len(lines)-maxLines:]
	}

	carry := buffer[:end]
	return lines, carry
}

// sendError sends an error to the error channel.
// With a buffered channel, errors are only dropped if the buffer is full.
// The context case ensures we don't block during shutdown.
func sendError(ctx context.Context, errCh chan<- error, err error) {
	if err == nil {
		return
	}
	select {
	case errCh <- err:
	case <-ctx.Done():
		// Don't block during shutdown
	default:
		// Drop error only if buffer is full (rare with buffer size 16)
	}
}

// WatchWithOptions creates a watcher using functional options and starts
// watching. This is the preferred way to create and start a watcher.
//
// Note: This function does not return the underlying Watcher, so callers
// cannot call Close() for synchronous shutdown. The watcher stops when
// the context is cancelled. For more control, use NewWatcherWithOptions
// and Watcher.Watch directly.
//
// Example:
//
//	records, errs, err := uelog.WatchWithOptions(ctx,
//	    uelog.WithIncludeVerbosities(record.VerbosityError, record.VerbosityWarning),
//	    uelog.WithLogger(logger),
//	)
func WatchWithOptions(ctx context.Context, opts ...WatchOption) (<-chan *record.Record, <-chan error, error) {
	w, err := NewWatcherWithOptions(opts...)
	if err != nil {
		return nil, nil, err
	}
	return w.Watch(ctx)
}

// NewWatcherWithOptions creates a watcher using functional options.
// Validates options and checks log directory existence.
// Does NOT start goroutines (cheap to call).
// Returns an error for invalid options or a missing log directory.
//
// Example:
//
//	watcher, err := uelog.NewWatcherWithOptions(
//	    uelog.WithLogDir("/project/Saved/Logs"),
//	    uelog.WithIncludeCategories("LogNet"),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	records, errs, err := watcher.Watch(ctx)
func NewWatcherWithOptions(opts ...WatchOption) (*Watcher, error) {
	cfg := applyWatchOptions(opts)

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	logDir, err := logfinder.FindLogDir(cfg.logDir)
	if err != nil {
		return nil, fmt.Errorf("finding log directory: %w", err)
	}

	log := cfg.logger
	if log == nil {
		log = discardLogger
	}

	return &Watcher{
		cfg:    *cfg, // copy to ensure immutability
		logDir: logDir,
		log:    log,
	}, nil
}
