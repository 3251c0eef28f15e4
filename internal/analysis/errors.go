package analysis

import (
	"errors"
	"fmt"
)

// InvalidInputError indicates the caller supplied missing or malformed data
type InvalidInputError struct {
	Message string
}

func (e *InvalidInputError) Error() string {
	return e.Message
}

// NewInvalidInputError creates a new invalid input error
func NewInvalidInputError(message string) *InvalidInputError {
	return &InvalidInputError{Message: message}
}

// IsInvalidInput checks if an error is an invalid input error
func IsInvalidInput(err error) bool {
	var invalidErr *InvalidInputError
	return errors.As(err, &invalidErr)
}

// PipelineError wraps a stage failure with the stage it occurred in
type PipelineError struct {
	Task    Task
	Stage   string
	Message string
	Cause   error
}

func (e *PipelineError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("pipeline %s (%s): %s: %v", e.Task, e.Stage, e.Message, e.Cause)
	}
	return fmt.Sprintf("pipeline %s (%s): %s", e.Task, e.Stage, e.Message)
}

func (e *PipelineError) Unwrap() error {
	return e.Cause
}

// NewPipelineError creates a new pipeline error
func NewPipelineError(task Task, stage, message string, cause error) *PipelineError {
	return &PipelineError{
		Task:    task,
		Stage:   stage,
		Message: message,
		Cause:   cause,
	}
}
