package domain

import "errors"

var (
	// ErrNotFound indicates a missing record.
	ErrNotFound = errors.New("procurement: not found")
	// ErrValidation indicates invalid input.
	ErrValidation = errors.New("procurement: invalid input")
	// ErrInvalidTransition occurs when a purchase order status change violates the workflow.
	ErrInvalidTransition = errors.New("procurement: invalid status transition")
)
