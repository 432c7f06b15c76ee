package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/unicode/norm"

	"github.com/roach88/storecart/internal/cart"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // Scenario failure, journal mismatch
	ExitCommandError = 2 // Bad flags, unreadable config, store cannot be opened
)

// Error codes reported in JSON error responses.
const (
	CodeConfig  = "E001" // configuration invalid
	CodeStore   = "E002" // local store unavailable
	CodeInput   = "E003" // malformed command input
	CodeReplay  = "E004" // journal does not reproduce the stored cart
	CodeRemote  = "E005" // remote mirror unavailable
	CodeUnknown = "E999"
)

// ExitError carries the process exit code for a failed command.
type ExitError struct {
	Code    int // ExitFailure or ExitCommandError
	Message string
	Err     error // optional cause
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
// Returns ExitFailure (1) if the error is not an ExitError.
func GetExitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// OutputFormatter handles JSON vs text output for CLI commands.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer // diagnostics; falls back to Writer
	Verbose   bool
}

// CLIResponse is the JSON envelope for every command.
type CLIResponse struct {
	Status string    `json:"status"` // "ok" or "error"
	Data   any       `json:"data,omitempty"`
	Error  *CLIError `json:"error,omitempty"`
}

// CLIError is the error structure for CLI responses.
type CLIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// Success outputs a successful result in the configured format.
// In text mode data is printed with fmt, so types implementing fmt.Stringer
// control their own rendering.
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
// It writes to ErrWriter so JSON output on Writer stays parseable.
func (f *OutputFormatter) VerboseLog(format string, args ...any) {
	if !f.Verbose {
		return
	}
	fmt.Fprintf(f.GetErrWriter(), format+"\n", args...)
}

// GetErrWriter returns ErrWriter if set, otherwise Writer.
func (f *OutputFormatter) GetErrWriter() io.Writer {
	if f.ErrWriter != nil {
		return f.ErrWriter
	}
	return f.Writer
}

// CartView is the rendered state of the cart after a command.
type CartView struct {
	Items     cart.Cart `json:"items"`
	Total     string    `json:"total"`
	ItemCount int       `json:"item_count"`
	CanUndo   bool      `json:"can_undo"`
	RemoteID  string    `json:"remote_id,omitempty"`
}

// String renders the cart as a plain table. Prices use English digit
// grouping.
func (v CartView) String() string {
	p := message.NewPrinter(language.English)
	var b strings.Builder
	if len(v.Items) == 0 {
		b.WriteString("Cart is empty.\n")
	}
	for _, it := range v.Items {
		label := it.Name
		if label == "" {
			label = it.ProductID
		}
		if it.VariantTitle != "" {
			label += " (" + it.VariantTitle + ")"
		}
		p.Fprintf(&b, "%-24s %-32s x%-4d %12.2f\n", it.ProductID, label, it.Quantity, it.Price)
	}
	fmt.Fprintf(&b, "items=%d total=%s", v.ItemCount, v.Total)
	if v.CanUndo {
		b.WriteString(" (undo available)")
	}
	return b.String()
}

// normalizeID puts a product id typed on the command line into NFC, so the
// same visible id always selects the same cart line.
func normalizeID(id string) string {
	return norm.NFC.String(strings.TrimSpace(id))
}
