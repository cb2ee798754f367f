package cli

import (
	"errors"
	"fmt"

	"github.com/arnavshah/callup-allocator-go/pkg/models"
)

// Exit codes
const (
	ExitOK         = 0
	ExitInputError = 1 // input file could not be read
	ExitFailure    = 2 // validation, allocation or output failure
)

// ExitError carries the process exit code for a failed command
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

// WrapExitError wraps err with an exit code
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode maps an error to the process exit code
func GetExitCode(err error) int {
	if err == nil {
		return ExitOK
	}

	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	var readErr *models.InputReadError
	if errors.As(err, &readErr) {
		return ExitInputError
	}
	return ExitFailure
}

// classify attaches the exit code an error deserves
func classify(message string, err error) *ExitError {
	var readErr *models.InputReadError
	if errors.As(err, &readErr) {
		return WrapExitError(ExitInputError, message, err)
	}
	return WrapExitError(ExitFailure, message, err)
}
