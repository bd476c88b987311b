package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/greentic-ai-org/greentic-types/internal/canonical"
	"github.com/greentic-ai-org/greentic-types/internal/compiler"
	"github.com/greentic-ai-org/greentic-types/internal/envelope"
	"github.com/greentic-ai-org/greentic-types/internal/pack"
	"github.com/greentic-ai-org/greentic-types/internal/schemair"
	"github.com/greentic-ai-org/greentic-types/internal/store"
	"github.com/greentic-ai-org/greentic-types/internal/wizard"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // Validation failure (mismatch, non-canonical bytes, failed vectors)
	ExitCommandError = 2 // Command error (bad paths, compile errors, missing database)
)

// Error codes reported in CLI output.
const (
	ErrCodeGeneric      = "E001" // Generic/unknown error
	ErrCodeNotFound     = "E002" // Path not found
	ErrCodeWriteFailed  = "E003" // File write error
	ErrCodeCompile      = "E004" // Authoring source failed to compile
	ErrCodeEncode       = "E005" // Value has no canonical encoding
	ErrCodeDecode       = "E006" // Bytes do not decode
	ErrCodeNotCanonical = "E007" // Bytes decode but are not canonical
	ErrCodeFingerprint  = "E008" // Published fingerprint does not match
	ErrCodeStore        = "E009" // Registry failure
	ErrCodeNoEnvelope   = "E010" // Envelope id not in the registry
	ErrCodeConformance  = "E011" // Conformance vectors failed
	ErrCodeSchema       = "E012" // Envelope names another schema
	ErrCodeUsage        = "E013" // Missing or invalid flag
	ErrCodeRule         = "E014" // Payload decodes but breaks a contract rule
)

// ruleErrors are contract rule violations in otherwise well-formed payloads.
var ruleErrors = []error{
	pack.ErrUnsupportedVersion,
	pack.ErrMissingSetup,
	pack.ErrInvalidSetupQaRef,
	pack.ErrMissingInline,
	pack.ErrUnexpectedInline,
	pack.ErrInlineShape,
	wizard.ErrUnknownTarget,
	wizard.ErrUnknownMode,
	wizard.ErrUnknownStep,
	wizard.ErrNoAction,
}

func isRuleError(err error) bool {
	for _, target := range ruleErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// ExitError represents an error with a specific exit code.
// Use this to return errors with meaningful exit codes from CLI commands.
type ExitError struct {
	Code    int    // Exit code (use ExitFailure or ExitCommandError)
	Message string // Error message
	Err     error  // Underlying error (optional)
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError creates a new ExitError with the given code and message.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError wraps an existing error with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error.
// Returns ExitCommandError (2) if the error is not an ExitError; cobra's
// own argument and flag errors land there.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitCommandError
}

// classifyError picks the output code and exit code for a domain error.
// Bad input data is a validation failure; anything that stops the command
// from looking at the data is a command error.
func classifyError(err error) (string, int) {
	var (
		mismatch *canonical.MismatchError
		encErr   *canonical.EncodeError
		decErr   *canonical.DecodeError
		compErr  *compiler.CompileError
	)
	switch {
	case errors.As(err, &mismatch):
		return ErrCodeNotCanonical, ExitFailure
	case errors.Is(err, schemair.ErrFingerprintMismatch):
		return ErrCodeFingerprint, ExitFailure
	case errors.Is(err, envelope.ErrSchemaMismatch):
		return ErrCodeSchema, ExitFailure
	case isRuleError(err):
		return ErrCodeRule, ExitFailure
	case errors.Is(err, store.ErrCorrupt):
		return ErrCodeStore, ExitFailure
	case errors.Is(err, store.ErrNotFound):
		return ErrCodeNoEnvelope, ExitCommandError
	case errors.As(err, &encErr):
		return ErrCodeEncode, ExitFailure
	case errors.As(err, &decErr):
		return ErrCodeDecode, ExitFailure
	case errors.As(err, &compErr):
		return ErrCodeCompile, ExitCommandError
	case errors.Is(err, os.ErrNotExist):
		return ErrCodeNotFound, ExitCommandError
	}
	return ErrCodeGeneric, ExitCommandError
}

// errorDetails returns structured context for JSON output, or nil.
func errorDetails(err error) any {
	var mismatch *canonical.MismatchError
	if errors.As(err, &mismatch) {
		return map[string]int{
			"offset":        mismatch.Offset,
			"stored_len":    mismatch.StoredLen,
			"canonical_len": mismatch.CanonicalLen,
		}
	}
	var compErr *compiler.CompileError
	if errors.As(err, &compErr) && compErr.Pos.IsValid() {
		return map[string]any{
			"file":   compErr.Pos.Filename(),
			"line":   compErr.Pos.Line(),
			"column": compErr.Pos.Column(),
			"field":  compErr.Field,
		}
	}
	return nil
}

// fail reports err through the formatter and returns the ExitError that
// carries its exit code.
func fail(f *OutputFormatter, err error) error {
	code, exit := classifyError(err)
	_ = f.Error(code, err.Error(), errorDetails(err))
	return WrapExitError(exit, code, err)
}

// OutputFormatter handles JSON vs text output for CLI commands.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer // Separate writer for verbose/diagnostic output (defaults to Writer)
	Verbose   bool
}

// CLIResponse is the standard JSON response format for CLI output.
type CLIResponse struct {
	Status string    `json:"status"`          // "ok" or "error"
	Data   any       `json:"data,omitempty"`  // success payload
	Error  *CLIError `json:"error,omitempty"` // error details
}

// CLIError is the error structure for CLI responses.
type CLIError struct {
	Code    string `json:"code"`              // "E001", "E002", etc.
	Message string `json:"message"`           // human-readable message
	Details any    `json:"details,omitempty"` // additional context
}

// Success outputs a successful result in the configured format.
func (f *OutputFormatter) Success(data any) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "ok",
			Data:   data,
		})
	}

	fmt.Fprintln(f.Writer, data)
	return nil
}

// Result writes data as JSON, or calls text to render it for humans.
func (f *OutputFormatter) Result(data any, text func(w io.Writer)) error {
	if f.Format == "json" {
		return f.Success(data)
	}
	text(f.Writer)
	return nil
}

// Error outputs an error in the configured format.
func (f *OutputFormatter) Error(code, message string, details any) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "error",
			Error: &CLIError{
				Code:    code,
				Message: message,
				Details: details,
			},
		})
	}

	fmt.Fprintf(f.Writer, "Error [%s]: %s\n", code, message)
	if f.Verbose && details != nil {
		fmt.Fprintf(f.Writer, "Details: %v\n", details)
	}
	return nil
}

// VerboseLog outputs a message only if verbose mode is enabled.
// Uses ErrWriter if set, otherwise falls back to Writer.
// When format is JSON, verbose logs go to ErrWriter to avoid corrupting JSON output.
func (f *OutputFormatter) VerboseLog(format string, args ...any) {
	if !f.Verbose {
		return
	}
	fmt.Fprintf(f.GetErrWriter(), format+"\n", args...)
}

// GetErrWriter returns the appropriate writer for diagnostic output.
// Returns ErrWriter if set, otherwise Writer.
func (f *OutputFormatter) GetErrWriter() io.Writer {
	if f.ErrWriter != nil {
		return f.ErrWriter
	}
	return f.Writer
}
