package wasm

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/tetratelabs/wazero"
	"github.com/uelog/uelog-go/pkg/uelog"
	"github.com/uelog/uelog-go/pkg/uelog/record"
)

const (
	// DefaultTimeout is the default timeout for parse_line execution.
	DefaultTimeout = 50 * time.Millisecond

	// MaxOutputSize is the maximum size of output from parse_line (1MB).
	// This prevents memory exhaustion from malicious plugins.
	MaxOutputSize = 1 * 1024 * 1024
)

// Parser implements uelog.Parser using a WebAssembly plugin.
// It is goroutine-safe: each ParseLine call creates a new module instance.
type Parser struct {
	compiled      *CompiledWasm
	timeout       atomic.Int64 // Timeout in nanoseconds
	logger        *slog.Logger
	abiVersion    uint32        // Cached ABI version (validated at load time)
	moduleCounter atomic.Uint64 // Counter for unique module names
}

var _ uelog.Parser = (*Parser)(nil)

// Load loads a Wasm plugin from the given file path.
func Load(ctx context.Context, path string, logger *slog.Logger) (*Parser, error) {
	compiled, err := LoadWasm(ctx, path, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to load wasm: %w", err)
	}

	// Validate ABI version by instantiating once
	modConfig := wazero.NewModuleConfig().WithName("plugin-init")
	mod, err := compiled.runtime.InstantiateModule(ctx, compiled.compiled, modConfig)
	if err != nil {
		compiled.Close(context.Background())
		return nil, &RuntimeError{Operation: "initial module instantiation", Err: err}
	}

	abiVersionFn := mod.ExportedFunction("abi_version")
	if abiVersionFn == nil {
		cleanupCtx := context.Background()
		mod.Close(cleanupCtx)
		compiled.Close(cleanupCtx)
		return nil, &ABIError{Function: "abi_version", Reason: "not exported"}
	}

	results, err := abiVersionFn.Call(ctx)
	mod.Close(ctx) // Close init instance immediately
	if err != nil {
		compiled.Close(context.Background())
		return nil, &RuntimeError{Operation: "abi_version call", Err: err}
	}
	if len(results) == 0 {
		compiled.Close(context.Background())
		return nil, &ABIError{Function: "abi_version", Reason: "no return value"}
	}

	abiVersion := uint32(results[0])
	if abiVersion != ExpectedABIVersion {
		compiled.Close(context.Background())
		return nil, ErrABIVersionMismatch
	}

	p := &Parser{
		compiled:   compiled,
		logger:     logger,
		abiVersion: abiVersion,
	}
	p.timeout.Store(int64(DefaultTimeout))
	return p, nil
}

// pluginRecord is the record shape plugins return over the ABI.
type pluginRecord struct {
	Date      string `json:"date,omitempty"`
	Verbosity string `json:"verbosity"`
	Category  string `json:"category"`
	Log       string `json:"log"`
	LogBody   string `json:"log_body"`
}

// ParseLine parses a single log line using the Wasm plugin.
// This method is goroutine-safe.
func (p *Parser) ParseLine(ctx context.Context, line string) (uelog.ParseResult, error) {
	if p.compiled == nil {
		return uelog.ParseResult{}, ErrParserClosed
	}

	// Apply timeout (load atomically for thread-safety)
	timeout := time.Duration(p.timeout.Load())
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	// Instantiate a fresh module per call for goroutine safety.
	// Use a unique module name to avoid conflicts in concurrent calls.
	name := fmt.Sprintf("plugin-%d", p.moduleCounter.Add(1))
	modConfig := wazero.NewModuleConfig().WithName(name)
	mod, err := p.compiled.runtime.InstantiateModule(ctx, p.compiled.compiled, modConfig)
	if err != nil {
		return uelog.ParseResult{}, &RuntimeError{Operation: "module instantiation", Err: err}
	}
	defer mod.Close(context.Background())

	type inputData struct {
		Line string `json:"line"`
	}
	inputJSON, err := json.Marshal(inputData{Line: line})
	if err != nil {
		return uelog.ParseResult{}, fmt.Errorf("failed to marshal input: %w", err)
	}

	if len(inputJSON) > inputRegionSize {
		return uelog.ParseResult{}, fmt.Errorf("input too large: %d bytes (max %d)", len(inputJSON), inputRegionSize)
	}

	// Verify the input region is within memory bounds
	memSize := mod.Memory().Size()
	requiredSize := inputRegion + uint32(len(inputJSON))
	if requiredSize > memSize {
		return uelog.ParseResult{}, fmt.Errorf("input region (0x%x) + input size (%d) exceeds wasm memory size (%d bytes); plugin may need larger initial memory", inputRegion, len(inputJSON), memSize)
	}

	if !mod.Memory().Write(inputRegion, inputJSON) {
		return uelog.ParseResult{}, fmt.Errorf("failed to write input to wasm memory")
	}

	parseLineFn := mod.ExportedFunction("parse_line")
	if parseLineFn == nil {
		return uelog.ParseResult{}, &ABIError{Function: "parse_line", Reason: "not exported"}
	}

	results, err := parseLineFn.Call(ctx, uint64(inputRegion), uint64(len(inputJSON)))
	if err != nil {
		if ctx.Err() != nil {
			if ctx.Err() == context.DeadlineExceeded {
				return uelog.ParseResult{}, ErrTimeout
			}
			return uelog.ParseResult{}, ctx.Err()
		}
		return uelog.ParseResult{}, &RuntimeError{Operation: "parse_line call", Err: err}
	}

	if len(results) == 0 {
		return uelog.ParseResult{}, &ABIError{Function: "parse_line", Reason: "no return value"}
	}

	// Decode return value: (out_len << 32) | out_ptr
	packed := results[0]
	outPtr := uint32(packed & 0xFFFFFFFF)
	outLen := uint32(packed >> 32)

	if outLen > MaxOutputSize {
		return uelog.ParseResult{}, fmt.Errorf("plugin output too large: %d bytes (max %d)", outLen, MaxOutputSize)
	}

	outBytes, ok := mod.Memory().Read(outPtr, outLen)
	if !ok {
		return uelog.ParseResult{}, fmt.Errorf("failed to read output from wasm memory")
	}

	// Memory().Read() returns a view, not a copy. After free(), the
	// plugin may overwrite this region, so copy before freeing.
	outBytesCopy := make([]byte, len(outBytes))
	copy(outBytesCopy, outBytes)

	freeFn := mod.ExportedFunction("free")
	if freeFn != nil {
		// Cleanup only; we already hold our own copy of the data.
		_, _ = freeFn.Call(ctx, uint64(outPtr), uint64(outLen))
	}

	type outputData struct {
		Ok      bool          `json:"ok"`
		Matched bool          `json:"matched"`
		Record  *pluginRecord `json:"record,omitempty"`
		Error   *string       `json:"error,omitempty"`
		Code    *string       `json:"code,omitempty"`
	}

	var output outputData
	if err := json.Unmarshal(outBytesCopy, &output); err != nil {
		return uelog.ParseResult{}, fmt.Errorf("failed to unmarshal output: %w", err)
	}

	if !output.Ok {
		errMsg := "unknown error"
		if output.Error != nil {
			errMsg = *output.Error
		}
		code := ""
		if output.Code != nil {
			code = *output.Code
		}
		return uelog.ParseResult{}, &PluginError{Code: code, Message: errMsg}
	}

	if !output.Matched || output.Record == nil {
		return uelog.ParseResult{Matched: false}, nil
	}

	rec := &record.Record{
		Date:      output.Record.Date,
		Verbosity: record.Verbosity(output.Record.Verbosity),
		Category:  output.Record.Category,
		Log:       output.Record.Log,
		LogBody:   output.Record.LogBody,
	}
	return uelog.ParseResult{Record: rec, Matched: true}, nil
}

// Close releases resources held by the parser.
// Implements io.Closer. Safe to call multiple times.
func (p *Parser) Close() error {
	if p.compiled == nil {
		return nil
	}
	err := p.compiled.Close(context.Background())
	p.compiled = nil
	return err
}

// SetTimeout sets the parse_line execution timeout.
// This method is goroutine-safe.
func (p *Parser) SetTimeout(timeout time.Duration) {
	p.timeout.Store(int64(timeout))
}
