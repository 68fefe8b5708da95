package uelog_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/uelog/uelog-go/pkg/uelog"
)

// TestWatcher_LogRotation tests that the watcher detects log rotation
// and switches to the new log file.
func TestWatcher_LogRotation(t *testing.T) {
	dir := t.TempDir()

	oldLogFile := filepath.Join(dir, "MyGame.log")
	f1, err := os.Create(oldLogFile)
	if err != nil {
		t.Fatal(err)
	}
	defer f1.Close()

	watcher, err := uelog.NewWatcherWithOptions(
		uelog.WithLogDir(dir),
		uelog.WithPollInterval(100*time.Millisecond),
	)
	if err != nil {
		t.Fatal(err)
	}
	defer watcher.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	records, errs, err := watcher.Watch(ctx)
	if err != nil {
		t.Fatalf("Watch() error = %v", err)
	}

	// Give watcher time to start
	time.Sleep(200 * time.Millisecond)

	// A record is sealed by the next header, so write two headers to
	// deliver the first one. The second stays pending.
	f1.WriteString("[2024.01.15-10.00.01:000][  0]LogTemp: first\n")
	f1.WriteString("[2024.01.15-10.00.02:000][  0]LogTemp: second\n")
	f1.Sync()

	select {
	case rec := <-records:
		if rec.LogBody != "first" {
			t.Errorf("initial record: got body %q, want %q", rec.LogBody, "first")
		}
	case err := <-errs:
		t.Fatalf("unexpected error before rotation: %v", err)
	case <-ctx.Done():
		t.Fatal("timeout waiting for initial record")
	}

	// Simulate log rotation: the engine renames the old log and starts a
	// fresh one, which shows up as a newer file in the directory.
	newLogFile := filepath.Join(dir, "MyGame_2.log")
	f2, err := os.Create(newLogFile)
	if err != nil {
		t.Fatal(err)
	}
	defer f2.Close()

	f2.WriteString("[2024.01.15-12.00.01:000][  0]LogTemp: third\n")
	f2.WriteString("[2024.01.15-12.00.02:000][  0]LogTemp: fourth\n")
	f2.Sync()

	f1.Close()

	// Rotation flushes the record left pending in the old file
	select {
	case rec := <-records:
		if rec.LogBody != "second" {
			t.Errorf("flushed record: got body %q, want %q", rec.LogBody, "second")
		}
	case err := <-errs:
		t.Fatalf("unexpected error during rotation: %v", err)
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for flushed record")
	}

	// The new file is read from the start
	select {
	case rec := <-records:
		if rec.LogBody != "third" {
			t.Errorf("rotated record: got body %q, want %q", rec.LogBody, "third")
		}
	case err := <-errs:
		t.Fatalf("unexpected error after rotation: %v", err)
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for record from rotated log file")
	}

	// Confirm the watcher keeps following the new file
	f2.WriteString("[2024.01.15-12.00.03:000][  0]LogTemp: fifth\n")
	f2.Sync()

	select {
	case rec := <-records:
		if rec.LogBody != "fourth" {
			t.Errorf("followup record: got body %q, want %q", rec.LogBody, "fourth")
		}
	case err := <-errs:
		t.Fatalf("unexpected error for followup record: %v", err)
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for followup record")
	}
}

// TestWatcher_LogRotationWithReplay tests that replay works correctly
// when starting on an older log file.
func TestWatcher_LogRotationWithReplay(t *testing.T) {
	dir := t.TempDir()

	oldLogFile := filepath.Join(dir, "MyGame.log")
	f1, err := os.Create(oldLogFile)
	if err != nil {
		t.Fatal(err)
	}

	f1.WriteString("[2024.01.15-10.00.01:000][  0]LogTemp: one\n")
	f1.WriteString("[2024.01.15-10.00.02:000][  0]LogTemp: two\n")
	f1.Sync()
	f1.Close()

	watcher, err := uelog.NewWatcherWithOptions(
		uelog.WithLogDir(dir),
		uelog.WithPollInterval(100*time.Millisecond),
		uelog.WithReplayFromStart(),
	)
	if err != nil {
		t.Fatal(err)
	}
	defer watcher.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	records, errs, err := watcher.Watch(ctx)
	if err != nil {
		t.Fatalf("Watch() error = %v", err)
	}

	// Only the first record is sealed during replay; the second header
	// stays pending until more input or rotation.
	select {
	case rec := <-records:
		if rec.LogBody != "one" {
			t.Errorf("replayed record: got body %q, want %q", rec.LogBody, "one")
		}
	case err := <-errs:
		t.Fatalf("unexpected error during replay: %v", err)
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for replayed record")
	}

	// Create a newer log file to trigger rotation
	newLogFile := filepath.Join(dir, "MyGame_2.log")
	f2, err := os.Create(newLogFile)
	if err != nil {
		t.Fatal(err)
	}
	defer f2.Close()

	f2.WriteString("[2024.01.15-12.00.01:000][  0]LogTemp: three\n")
	f2.WriteString("[2024.01.15-12.00.02:000][  0]LogTemp: four\n")
	f2.Sync()

	// Pending record from the old file is flushed on rotation
	select {
	case rec := <-records:
		if rec.LogBody != "two" {
			t.Errorf("flushed record: got body %q, want %q", rec.LogBody, "two")
		}
	case err := <-errs:
		t.Fatalf("unexpected error after rotation: %v", err)
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for flushed record")
	}

	select {
	case rec := <-records:
		if rec.LogBody != "three" {
			t.Errorf("new file record: got body %q, want %q", rec.LogBody, "three")
		}
	case err := <-errs:
		t.Fatalf("unexpected error from new file: %v", err)
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for record from new file")
	}
}
