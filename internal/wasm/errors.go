// Package wasm provides WebAssembly plugin support for custom header
// grammars.
package wasm

import (
	"errors"
	"fmt"
)

var (
	// ErrABIVersionMismatch indicates the plugin's ABI version is incompatible.
	ErrABIVersionMismatch = errors.New("abi version mismatch")

	// ErrTimeout indicates the plugin exceeded the execution timeout.
	ErrTimeout = errors.New("plugin timeout")

	// ErrFileTooLarge indicates the Wasm file exceeds the size limit.
	ErrFileTooLarge = errors.New("wasm file too large")

	// ErrParserClosed indicates ParseLine was called after Close.
	ErrParserClosed = errors.New("parser is closed")
)

// ABIError represents an error related to ABI validation.
type ABIError struct {
	Function string
	Reason   string
}

func (e *ABIError) Error() string {
	return fmt.Sprintf("abi error in %s: %s", e.Function, e.Reason)
}

// PluginError represents an error returned by the plugin itself.
type PluginError struct {
	Code    string
	Message string
}

func (e *PluginError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("plugin error %s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("plugin error: %s", e.Message)
}

// RuntimeError represents a wazero runtime error.
type RuntimeError struct {
	Operation string
	Err       error
}

func (e *RuntimeError) Error() string {
	return fmt.Sprintf("wasm runtime error during %s: %v", e.Operation, e.Err)
}

func (e *RuntimeError) Unwrap() error {
	return e.Err
}
