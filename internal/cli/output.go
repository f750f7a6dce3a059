package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/mattn/go-isatty"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // Query failure
	ExitCommandError = 2 // Invalid flags, config or bookmark
)

// ExitError is an error carrying the process exit code.
type ExitError struct {
	Code    int
	Message string
	Err     error
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
// Returns ExitFailure if the error is not an ExitError.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// CLIResponse is the JSON envelope of command output.
type CLIResponse struct {
	Status string `json:"status"`
	Data   any    `json:"data,omitempty"`
}

// PageView is the printable form of a page.
type PageView struct {
	Columns  []string         `json:"columns"`
	Rows     []map[string]any `json:"rows"`
	Next     string           `json:"next,omitempty"`
	Previous string           `json:"previous,omitempty"`
}

// OutputFormatter writes command results as JSON or as a text table.
type OutputFormatter struct {
	Format string
	Writer io.Writer
}

// resolveFormat picks text for terminals and JSON otherwise when the format
// is "auto".
func resolveFormat(format string, w io.Writer) string {
	if format != formatAuto {
		return format
	}

	if f, ok := w.(*os.File); ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())) {
		return formatText
	}
	return formatJSON
}

// Page writes a page.
func (f *OutputFormatter) Page(view *PageView) error {
	if resolveFormat(f.Format, f.Writer) == formatJSON {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{Status: "ok", Data: view})
	}

	tw := tabwriter.NewWriter(f.Writer, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.ToUpper(strings.Join(view.Columns, "\t")))
	for _, row := range view.Rows {
		cells := make([]string, 0, len(view.Columns))
		for _, c := range view.Columns {
			cells = append(cells, formatCell(row[c]))
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if view.Next != "" {
		fmt.Fprintf(f.Writer, "next: %s\n", view.Next)
	}
	if view.Previous != "" {
		fmt.Fprintf(f.Writer, "previous: %s\n", view.Previous)
	}
	return nil
}

func formatCell(v any) string {
	switch v := v.(type) {
	case nil:
		return "NULL"
	case []byte:
		return string(v)
	default:
		return fmt.Sprint(v)
	}
}
