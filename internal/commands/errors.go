package commands

import (
	"context"
	"errors"

	goerrors "github.com/goliatone/go-errors"
)

const (
	CodeValidationFailed = "COMMAND_VALIDATION_FAILED"
	CodeContextCanceled  = "COMMAND_CONTEXT_CANCELED"
	CodeContextTimeout   = "COMMAND_CONTEXT_TIMEOUT"
	CodeExecutionFailed  = "COMMAND_EXECUTION_FAILED"
)

func wrapValidationError(err error) error {
	if goerrors.IsWrapped(err) {
		return err
	}
	return goerrors.Wrap(err, goerrors.CategoryValidation, "command validation failed").
		WithTextCode(CodeValidationFailed)
}

func wrapContextError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return goerrors.Wrap(err, goerrors.CategoryCommand, "command execution deadline exceeded").
			WithTextCode(CodeContextTimeout)
	}
	return goerrors.Wrap(err, goerrors.CategoryCommand, "command execution cancelled").
		WithTextCode(CodeContextCanceled)
}

// wrapExecuteError keeps categories assigned further down, such as the api
// not found and upstream errors.
func wrapExecuteError(err error) error {
	if goerrors.IsWrapped(err) {
		return err
	}
	return goerrors.Wrap(err, goerrors.CategoryCommand, "command execution failed").
		WithTextCode(CodeExecutionFailed)
}
