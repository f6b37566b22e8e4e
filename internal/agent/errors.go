// Package agent provides the conversational orchestration core.
// This file contains the error taxonomy of a turn.

package agent

import (
	"errors"
	"fmt"
	"strings"
)

// ModelUnavailableError indicates a transport or auth failure talking to the
// generation model. It is fatal for the turn and never retried.
type ModelUnavailableError struct {
	Err error
}

func (e *ModelUnavailableError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("model unavailable: %v", e.Err)
	}
	return "model unavailable"
}

func (e *ModelUnavailableError) Unwrap() error {
	return e.Err
}

// WrapModelError wraps a provider error as a ModelUnavailableError.
func WrapModelError(err error) error {
	if err == nil {
		return nil
	}
	var unavailable *ModelUnavailableError
	if errors.As(err, &unavailable) {
		return err
	}
	return &ModelUnavailableError{Err: err}
}

// IsModelUnavailable checks if an error is a ModelUnavailableError.
func IsModelUnavailable(err error) bool {
	var unavailable *ModelUnavailableError
	return errors.As(err, &unavailable)
}

// StepBudgetError indicates the state machine exceeded its hard step cap.
// This is a defensive safety valve and must never happen in normal operation.
type StepBudgetError struct {
	Steps int
	Node  Node
}

func (e *StepBudgetError) Error() string {
	return fmt.Sprintf("step budget exceeded after %d steps (at node %s)", e.Steps, e.Node)
}

// IsStepBudgetExceeded checks if an error is a StepBudgetError.
func IsStepBudgetExceeded(err error) bool {
	var budget *StepBudgetError
	return errors.As(err, &budget)
}

// ToolValidationError indicates that tool arguments failed JSON schema validation.
type ToolValidationError struct {
	ToolName string
	Errors   []string
}

func (e *ToolValidationError) Error() string {
	return fmt.Sprintf("tool %s validation failed: %s", e.ToolName, strings.Join(e.Errors, "; "))
}
