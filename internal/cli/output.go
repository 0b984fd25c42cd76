package cli

import (
	"errors"
	"fmt"
	"io"
	"slices"

	"github.com/goccy/go-json"
)

// Exit codes of both binaries.
const (
	ExitSuccess      = 0
	ExitFailure      = 1 // the operation ran and failed (sync failed, data invalid)
	ExitCommandError = 2 // bad flags, configuration or unreadable input
)

// ExitError carries the exit code a command wants the process to end with.
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

func failure(message string, err error) *ExitError {
	return &ExitError{Code: ExitFailure, Message: message, Err: err}
}

func commandError(message string, err error) *ExitError {
	return &ExitError{Code: ExitCommandError, Message: message, Err: err}
}

// GetExitCode extracts the exit code from err. Errors that are not
// [ExitError] come from cobra itself (unknown flags, bad args).
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

const (
	formatText = "text"
	formatJSON = "json"
)

var validFormats = []string{formatText, formatJSON}

func isValidFormat(format string) bool {
	return slices.Contains(validFormats, format)
}

// printer writes command results either as indented JSON or through a text
// renderer.
type printer struct {
	format string
	w      io.Writer
}

func (p printer) print(v any, text func(w io.Writer)) error {
	if p.format == formatJSON {
		enc := json.NewEncoder(p.w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	text(p.w)
	return nil
}
