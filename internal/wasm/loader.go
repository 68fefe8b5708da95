package wasm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"
	"github.com/uelog/uelog-go/internal/safefile"
)

const (
	// MaxWasmFileSize is the maximum size of a Wasm file (10MB).
	MaxWasmFileSize = 10 * 1024 * 1024

	// ExpectedABIVersion is the plugin ABI version this host supports.
	ExpectedABIVersion = 1

	// inputRegion is the fixed memory offset where the host writes input
	// data. 64KB keeps clear of TinyGo's heap start.
	inputRegion = 0x10000

	// inputRegionSize is the size of the input region (8KB).
	inputRegionSize = 8192
)

// CompiledWasm represents a compiled Wasm module ready for instantiation.
type CompiledWasm struct {
	runtime       wazero.Runtime
	compiled      wazero.CompiledModule
	cache         wazero.CompilationCache
	hostFunctions *hostFunctions
}

// Close releases resources held by the compiled Wasm.
// Resources are closed in reverse order of creation: cache, compiled
// module, runtime. Safe to call multiple times.
func (c *CompiledWasm) Close(ctx context.Context) error {
	var firstErr error

	if c.cache != nil {
		if err := c.cache.Close(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
		c.cache = nil
	}

	if c.compiled != nil {
		if err := c.compiled.Close(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
		c.compiled = nil
	}

	if c.runtime != nil {
		if err := c.runtime.Close(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
		c.runtime = nil
	}

	return firstErr
}

// LoadWasm loads and compiles a Wasm plugin file.
func LoadWasm(ctx context.Context, path string, logger *slog.Logger) (*CompiledWasm, error) {
	// Open file with TOCTOU and symlink protection
	f, info, err := safefile.OpenRegular(path)
	if err != nil {
		if errors.Is(err, safefile.ErrNotRegularFile) {
			return nil, fmt.Errorf("wasm path is not a regular file: %w", err)
		}
		return nil, fmt.Errorf("failed to open wasm file: %w", err)
	}
	defer f.Close()

	if info.Size() > MaxWasmFileSize {
		return nil, ErrFileTooLarge
	}

	// Size-limited read guards against the file growing after stat
	wasmBytes, err := io.ReadAll(io.LimitReader(f, MaxWasmFileSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read wasm file: %w", err)
	}
	if int64(len(wasmBytes)) > MaxWasmFileSize {
		return nil, ErrFileTooLarge
	}

	rtConfig := wazero.NewRuntimeConfig().
		WithCloseOnContextDone(true) // Enable context-based timeout

	// Setup disk compilation cache
	cacheDir, err := getCacheDir()
	var cache wazero.CompilationCache
	if err == nil {
		cache, err = wazero.NewCompilationCacheWithDir(cacheDir)
		if err == nil {
			rtConfig = rtConfig.WithCompilationCache(cache)
			if logger != nil {
				logger.Debug("using wasm compilation cache", "dir", cacheDir)
			}
		} else if logger != nil {
			logger.Warn("failed to create compilation cache, continuing without cache", "error", err)
		}
	}

	rt := wazero.NewRuntimeWithConfig(ctx, rtConfig)

	cleanup := func() {
		cleanupCtx := context.Background()
		rt.Close(cleanupCtx)
		if cache != nil {
			cache.Close(cleanupCtx)
		}
	}

	if _, err := wasi_snapshot_preview1.Instantiate(ctx, rt); err != nil {
		cleanup()
		return nil, &RuntimeError{Operation: "wasi instantiation", Err: err}
	}

	hf := newHostFunctions(logger)

	envBuilder := rt.NewHostModuleBuilder("env")

	// regex_match: (str_ptr, str_len, re_ptr, re_len) -> i32
	envBuilder = envBuilder.NewFunctionBuilder().
		WithFunc(func(ctx context.Context, m api.Module, strPtr, strLen, rePtr, reLen uint32) uint32 {
			return hf.regexMatch(ctx, m, strPtr, strLen, rePtr, reLen)
		}).
		Export("regex_match")

	// regex_find_submatch: (str_ptr, str_len, re_ptr, re_len, out_buf_ptr, out_buf_len) -> i32
	envBuilder = envBuilder.NewFunctionBuilder().
		WithFunc(func(ctx context.Context, m api.Module, strPtr, strLen, rePtr, reLen, outBufPtr, outBufLen uint32) uint32 {
			return hf.regexFindSubmatch(ctx, m, strPtr, strLen, rePtr, reLen, outBufPtr, outBufLen)
		}).
		Export("regex_find_submatch")

	// log: (level, ptr, len) -> void
	envBuilder = envBuilder.NewFunctionBuilder().
		WithFunc(func(ctx context.Context, m api.Module, level, ptr, msgLen uint32) {
			hf.log(ctx, m, level, ptr, msgLen)
		}).
		Export("log")

	// now_ms: () -> i64
	envBuilder = envBuilder.NewFunctionBuilder().
		WithFunc(func() int64 {
			return hf.nowMs()
		}).
		Export("now_ms")

	if _, err := envBuilder.Instantiate(ctx); err != nil {
		cleanup()
		return nil, &RuntimeError{Operation: "host functions registration", Err: err}
	}

	compiled, err := rt.CompileModule(ctx, wasmBytes)
	if err != nil {
		cleanup()
		return nil, &RuntimeError{Operation: "wasm compilation", Err: err}
	}

	if err := validateABI(compiled); err != nil {
		compiled.Close(context.Background())
		cleanup()
		return nil, err
	}

	return &CompiledWasm{
		runtime:       rt,
		compiled:      compiled,
		cache:         cache,
		hostFunctions: hf,
	}, nil
}

// validateABI checks that the Wasm module exports the required functions.
// Only existence is checked here; the ABI version value is validated in
// Load by calling abi_version().
func validateABI(compiled wazero.CompiledModule) error {
	requiredExports := []string{"abi_version", "alloc", "free", "parse_line"}

	exported := compiled.ExportedFunctions()
	for _, name := range requiredExports {
		if _, ok := exported[name]; !ok {
			return &ABIError{
				Function: name,
				Reason:   "missing required export",
			}
		}
	}

	return nil
}

// getCacheDir returns the wazero compilation cache directory,
// following the XDG Base Directory specification.
func getCacheDir() (string, error) {
	cacheHome := os.Getenv("XDG_CACHE_HOME")
	if cacheHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		cacheHome = filepath.Join(home, ".cache")
	}
	dir := filepath.Join(cacheHome, "uelog", "wasm")

	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", err
	}

	return dir, nil
}
