// Package logfinder provides Unreal Engine log directory and file detection.
package logfinder

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// EnvLogDir is the environment variable name for specifying the log directory.
const EnvLogDir = "UELOG_LOGDIR"

// Sentinel errors.
var (
	ErrLogDirNotFound = errors.New("log directory not found")
	ErrNoLogFiles     = errors.New("no log files found")
)

// DefaultLogDirs returns candidate UE log directories in priority order.
// Editor and in-tree builds write to <project>/Saved/Logs; a packaged
// Windows game writes to %LOCALAPPDATA%\<game>\Saved\Logs, which cannot
// be guessed without the game name, so only project-relative candidates
// are returned. Use the explicit directory or UELOG_LOGDIR for anything
// else.
func DefaultLogDirs() []string {
	wd, err := os.Getwd()
	if err != nil {
		return nil
	}
	return []string{
		filepath.Join(wd, "Saved", "Logs"),
		filepath.Join(wd, "..", "Saved", "Logs"),
	}
}

// FindLogDir returns the UE log directory.
//
// Priority:
//  1. explicit (if non-empty)
//  2. UELOG_LOGDIR environment variable
//  3. Auto-detect from DefaultLogDirs()
//
// An explicit or UELOG_LOGDIR directory only needs to exist: it may be
// empty, so a watcher can be started before the game launches and wait
// for the first log file. Auto-detected candidates must already contain
// a *.log file, otherwise any stray Saved/Logs directory would match.
//
// Returns ErrLogDirNotFound if no valid directory is found.
// The returned path has symlinks resolved for consistency.
func FindLogDir(explicit string) (string, error) {
	if explicit != "" {
		if resolved := resolveDir(explicit); resolved != "" {
			return resolved, nil
		}
		return "", fmt.Errorf("%w: specified directory does not exist", ErrLogDirNotFound)
	}

	if envDir := os.Getenv(EnvLogDir); envDir != "" {
		if resolved := resolveDir(envDir); resolved != "" {
			return resolved, nil
		}
		return "", fmt.Errorf("%w: %s environment variable points to invalid directory", ErrLogDirNotFound, EnvLogDir)
	}

	for _, dir := range DefaultLogDirs() {
		if resolved := resolveAndValidateLogDir(dir); resolved != "" {
			return resolved, nil
		}
	}

	return "", ErrLogDirNotFound
}

// logCandidate holds a log file path and its cached modification time.
// This avoids race conditions where files are deleted between stat and sort.
type logCandidate struct {
	path    string
	modTime int64
}

// FindLatestLogFile returns the path to the most recently modified
// *.log file in the given directory.
//
// Returns ErrNoLogFiles if no log files are found.
func FindLatestLogFile(dir string) (string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*.log"))
	if err != nil {
		return "", fmt.Errorf("globbing log files: %w", err)
	}
	if len(matches) == 0 {
		return "", ErrNoLogFiles
	}

	// Stat files once and cache results to avoid race conditions
	candidates := make([]logCandidate, 0, len(matches))
	for _, m := range matches {
		info, err := os.Lstat(m)
		if err != nil {
			// Skip files that can't be stat'd (deleted, permission issues, etc.)
			continue
		}
		if !info.Mode().IsRegular() {
			continue
		}
		candidates = append(candidates, logCandidate{
			path:    m,
			modTime: info.ModTime().UnixNano(),
		})
	}

	if len(candidates) == 0 {
		return "", ErrNoLogFiles
	}

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].modTime > candidates[j].modTime
	})

	return candidates[0].path, nil
}

// resolveDir resolves symlinks and verifies the path is an existing
// directory. Returns the resolved path, or empty string.
func resolveDir(dir string) string {
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return ""
	}

	resolved, err := filepath.EvalSymlinks(dir)
	if err != nil {
		return ""
	}
	return resolved
}

// resolveAndValidateLogDir additionally requires at least one *.log
// file, which is how auto-detection tells a live log directory from an
// unrelated one.
func resolveAndValidateLogDir(dir string) string {
	resolved := resolveDir(dir)
	if resolved == "" {
		return ""
	}

	matches, err := filepath.Glob(filepath.Join(resolved, "*.log"))
	if err != nil || len(matches) == 0 {
		return ""
	}

	return resolved
}
