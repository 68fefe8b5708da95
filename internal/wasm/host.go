package wasm

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/tetratelabs/wazero/api"
	"golang.org/x/time/rate"
)

const (
	// MaxLogSize is the maximum size of a single plugin log message (256 bytes).
	MaxLogSize = 256

	// LogRateLimit is the maximum number of plugin log calls per second.
	LogRateLimit = 10

	// RegexTimeout is the maximum time allowed for a regex host call.
	RegexTimeout = 5 * time.Millisecond
)

// hostFunctions provides host functions callable by Wasm plugins.
type hostFunctions struct {
	cache       *regexCache
	logger      *slog.Logger
	rateLimiter *rate.Limiter
}

// newHostFunctions creates a new host functions provider.
func newHostFunctions(logger *slog.Logger) *hostFunctions {
	return &hostFunctions{
		cache:       newRegexCache(DefaultRegexCacheSize),
		logger:      logger,
		rateLimiter: rate.NewLimiter(LogRateLimit, LogRateLimit),
	}
}

// regexMatch implements the regex_match host function.
// Signature: (str_ptr, str_len, re_ptr, re_len) -> i32
// Returns 1 if match, 0 if no match or error.
func (h *hostFunctions) regexMatch(ctx context.Context, m api.Module, strPtr, strLen, rePtr, reLen uint32) uint32 {
	strBytes, ok := m.Memory().Read(strPtr, strLen)
	if !ok {
		return 0
	}
	str := string(strBytes)

	reBytes, ok := m.Memory().Read(rePtr, reLen)
	if !ok {
		return 0
	}
	pattern := string(reBytes)

	re, err := h.cache.Get("regex_match", pattern)
	if err != nil {
		if h.logger != nil {
			h.logger.Warn("regex compilation failed",
				"pattern", pattern,
				"error", err)
		}
		return 0
	}

	// Go's regexp cannot be cancelled mid-match; the goroutine may
	// outlive the timeout. RE2 semantics guarantee linear time and
	// MaxPatternLength bounds complexity, so the leak is short-lived.
	ctx, cancel := context.WithTimeout(ctx, RegexTimeout)
	defer cancel()

	resultCh := make(chan bool, 1)
	go func() {
		resultCh <- re.MatchString(str)
	}()

	select {
	case matched := <-resultCh:
		if matched {
			return 1
		}
		return 0
	case <-ctx.Done():
		if h.logger != nil {
			h.logger.Warn("regex match timeout",
				"pattern", pattern,
				"str_len", len(str))
		}
		return 0
	}
}

// regexFindSubmatch implements the regex_find_submatch host function.
// Signature: (str_ptr, str_len, re_ptr, re_len, out_buf_ptr, out_buf_len) -> i32
// Writes the submatches as a JSON array. Returns the number of bytes
// written, 0 if no match, 0xFFFFFFFF if the buffer is too small.
func (h *hostFunctions) regexFindSubmatch(ctx context.Context, m api.Module, strPtr, strLen, rePtr, reLen, outBufPtr, outBufLen uint32) uint32 {
	strBytes, ok := m.Memory().Read(strPtr, strLen)
	if !ok {
		return 0
	}
	str := string(strBytes)

	reBytes, ok := m.Memory().Read(rePtr, reLen)
	if !ok {
		return 0
	}
	pattern := string(reBytes)

	re, err := h.cache.Get("regex_find_submatch", pattern)
	if err != nil {
		if h.logger != nil {
			h.logger.Warn("regex compilation failed",
				"pattern", pattern,
				"error", err)
		}
		return 0
	}

	// Same timeout/goroutine caveats as regexMatch.
	ctx, cancel := context.WithTimeout(ctx, RegexTimeout)
	defer cancel()

	resultCh := make(chan []string, 1)
	go func() {
		resultCh <- re.FindStringSubmatch(str)
	}()

	var matches []string
	select {
	case matches = <-resultCh:
	case <-ctx.Done():
		if h.logger != nil {
			h.logger.Warn("regex find submatch timeout",
				"pattern", pattern,
				"str_len", len(str))
		}
		return 0
	}

	if matches == nil {
		return 0
	}

	jsonBytes, err := json.Marshal(matches)
	if err != nil {
		if h.logger != nil {
			h.logger.Error("failed to marshal submatch results", "error", err)
		}
		return 0
	}

	if uint32(len(jsonBytes)) > outBufLen {
		return 0xFFFFFFFF
	}

	if !m.Memory().Write(outBufPtr, jsonBytes) {
		return 0
	}

	return uint32(len(jsonBytes))
}

// log implements the log host function.
// Signature: (level, ptr, len)
// Levels: 0=debug, 1=info, 2=warn, 3=error
func (h *hostFunctions) log(ctx context.Context, m api.Module, level, ptr, msgLen uint32) {
	if !h.rateLimiter.Allow() {
		// Silently drop log message if rate limit exceeded
		return
	}

	truncated := false
	if msgLen > MaxLogSize {
		truncated = true
		msgLen = MaxLogSize
	}

	msgBytes, ok := m.Memory().Read(ptr, msgLen)
	if !ok {
		return
	}

	msg := strings.ToValidUTF8(string(msgBytes), "�")
	if truncated {
		msg += " [truncated]"
	}

	if h.logger == nil {
		return
	}

	switch level {
	case 0:
		h.logger.Debug("[plugin] " + msg)
	case 1:
		h.logger.Info("[plugin] " + msg)
	case 2:
		h.logger.Warn("[plugin] " + msg)
	case 3:
		h.logger.Error("[plugin] " + msg)
	default:
		h.logger.Info(fmt.Sprintf("[plugin] (level=%d) %s", level, msg))
	}
}

// nowMs implements the now_ms host function.
// Signature: () -> i64
// Returns current Unix time in milliseconds.
func (h *hostFunctions) nowMs() int64 {
	return time.Now().UnixMilli()
}
