// Package tailer wraps nxadm/tail with a channel interface suited to
// watching a single live log file.
package tailer

import (
	"context"
	"io"
	"strings"

	"github.com/nxadm/tail"
)

// lineBuffer is the buffer size for the line channel. It smooths bursts
// (UE flushes many lines at once on level load) without letting the
// tailer run far ahead of the consumer.
const lineBuffer = 64

// Config controls how the file is tailed.
type Config struct {
	// FromStart reads the file from the beginning instead of seeking to
	// the end before following.
	FromStart bool

	// Poll uses polling instead of inotify. Needed on filesystems
	// without notification support (network shares, some containers).
	Poll bool
}

// DefaultConfig returns a Config that follows from the end of the file.
func DefaultConfig() Config {
	return Config{}
}

// Tailer follows a single file and delivers its lines.
type Tailer struct {
	t     *tail.Tail
	lines chan string
	errs  chan error
}

// New starts tailing the file at path. The file must exist.
// Both channels close when the tailer stops or ctx is cancelled.
func New(ctx context.Context, path string, cfg Config) (*Tailer, error) {
	var location *tail.SeekInfo
	if !cfg.FromStart {
		location = &tail.SeekInfo{Whence: io.SeekEnd}
	}

	t, err := tail.TailFile(path, tail.Config{
		Follow:    true,
		ReOpen:    true,
		MustExist: true,
		Poll:      cfg.Poll,
		Location:  location,
		Logger:    tail.DiscardingLogger,
	})
	if err != nil {
		return nil, err
	}

	tr := &Tailer{
		t:     t,
		lines: make(chan string, lineBuffer),
		errs:  make(chan error, 1),
	}
	go tr.run(ctx)
	return tr, nil
}

// Lines returns the channel of tailed lines, trailing separators removed.
func (tr *Tailer) Lines() <-chan string { return tr.lines }

// Errors returns the channel of tailing errors.
func (tr *Tailer) Errors() <-chan error { return tr.errs }

// Stop stops tailing and releases inotify watches.
// The line and error channels close shortly after.
func (tr *Tailer) Stop() error {
	err := tr.t.Stop()
	tr.t.Cleanup()
	return err
}

func (tr *Tailer) run(ctx context.Context) {
	defer close(tr.lines)
	defer close(tr.errs)

	for {
		select {
		case <-ctx.Done():
			_ = tr.t.Stop()
			tr.t.Cleanup()
			return
		case line, ok := <-tr.t.Lines:
			if !ok {
				// Tail goroutine died; surface the reason, if any.
				if err := tr.t.Wait(); err != nil {
					select {
					case tr.errs <- err:
					case <-ctx.Done():
					}
				}
				return
			}
			if line.Err != nil {
				select {
				case tr.errs <- line.Err:
				case <-ctx.Done():
				}
				continue
			}
			select {
			case tr.lines <- strings.TrimRight(line.Text, "\r"):
			case <-ctx.Done():
			}
		}
	}
}
