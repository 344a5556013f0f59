package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrSessionNotFound signals a missing or expired filter session.
	ErrSessionNotFound = errors.New("session not found")
	// ErrUnknownCategory signals a category that is not part of the schema.
	ErrUnknownCategory = errors.New("unknown category")
	// ErrInvalidSchema signals an invalid category schema.
	ErrInvalidSchema = errors.New("invalid schema")
	// ErrInvalidDataset signals a malformed metadata table.
	ErrInvalidDataset = errors.New("invalid dataset")
	// ErrInvalidRange signals a range request on a category that is not an interval.
	ErrInvalidRange = errors.New("invalid range")
	// ErrIndexNotReady signals that no dataset has been loaded yet.
	ErrIndexNotReady = errors.New("index not ready")
)

// CategoryError wraps ErrUnknownCategory with the offending category key.
type CategoryError struct {
	Category string
}

func (e *CategoryError) Error() string {
	return fmt.Sprintf("%s: %q", ErrUnknownCategory.Error(), e.Category)
}

func (e *CategoryError) Unwrap() error { return ErrUnknownCategory }

// NewUnknownCategory creates an unknown category error.
func NewUnknownCategory(category string) error {
	return &CategoryError{Category: category}
}
