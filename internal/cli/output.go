package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/bytedance/sonic"
	"gopkg.in/yaml.v3"

	"github.com/chepyr/go-task-board/internal/auth"
	"github.com/chepyr/go-task-board/internal/board"
	"github.com/chepyr/go-task-board/internal/db"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0
	ExitFailure      = 1 // the board operation failed
	ExitCommandError = 2 // bad flags, configuration or identity
)

// ExitError carries the exit code a failed command should end the process with.
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

// GetExitCode extracts the exit code from an error.
// Returns ExitFailure if the error is not an ExitError.
func GetExitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// Response is the envelope every command prints.
type Response struct {
	Status string         `json:"status" yaml:"status"`
	Data   any            `json:"data,omitempty" yaml:"data,omitempty"`
	Error  *ResponseError `json:"error,omitempty" yaml:"error,omitempty"`
}

type ResponseError struct {
	Code    string `json:"code" yaml:"code"`
	Message string `json:"message" yaml:"message"`
}

// OutputFormatter writes responses as JSON or YAML.
type OutputFormatter struct {
	Format string
	Writer io.Writer
}

func (f *OutputFormatter) Success(data any) error {
	return f.write(Response{Status: "ok", Data: data})
}

// Fail prints err as an error response and returns the ExitError the
// command should report.
func (f *OutputFormatter) Fail(err error) error {
	code := errorCode(err)
	if werr := f.write(Response{Status: "error", Error: &ResponseError{Code: code, Message: err.Error()}}); werr != nil {
		return werr
	}
	exit := ExitFailure
	if code == codeUnauthenticated || code == codeUsage {
		exit = ExitCommandError
	}
	return &ExitError{Code: exit, Message: code, Err: err}
}

func (f *OutputFormatter) write(resp Response) error {
	if f.Format == "yaml" {
		// round-trip through JSON so YAML keys match the JSON field names
		raw, err := sonic.ConfigStd.Marshal(resp)
		if err != nil {
			return err
		}
		var generic any
		if err := yaml.Unmarshal(raw, &generic); err != nil {
			return err
		}
		enc := yaml.NewEncoder(f.Writer)
		enc.SetIndent(2)
		if err := enc.Encode(generic); err != nil {
			return err
		}
		return enc.Close()
	}
	enc := sonic.ConfigStd.NewEncoder(f.Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(resp)
}

const (
	codeUnauthenticated = "UNAUTHENTICATED"
	codeUsage           = "USAGE"
	codeConflict        = "CONFLICT"
	codeInternal        = "INTERNAL"
)

// usageError marks a failure caused by how the command was invoked.
type usageError struct {
	msg string
}

func (e *usageError) Error() string { return e.msg }

func usagef(format string, args ...any) error {
	return &usageError{msg: fmt.Sprintf(format, args...)}
}

func errorCode(err error) string {
	var boardErr *board.Error
	var usageErr *usageError
	switch {
	case errors.As(err, &boardErr):
		return string(boardErr.Kind)
	case errors.As(err, &usageErr):
		return codeUsage
	case errors.Is(err, auth.ErrMissingToken), errors.Is(err, auth.ErrInvalidToken), errors.Is(err, auth.ErrInvalidClaims):
		return codeUnauthenticated
	case errors.Is(err, db.ErrConflict):
		return codeConflict
	default:
		return codeInternal
	}
}
