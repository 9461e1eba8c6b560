package model

import (
	"errors"
	"fmt"
)

// ErrorKind categorizes a rejected tree operation
type ErrorKind string

const (
	KindRootAlreadyExists ErrorKind = "root_already_exists"
	KindEmptyLabel        ErrorKind = "empty_label"
	KindMissingParent     ErrorKind = "missing_parent"
	KindParentNotFound    ErrorKind = "parent_not_found"
	KindNodeNotFound      ErrorKind = "node_not_found"
)

// IsValid returns true if the kind is a recognized value
func (k ErrorKind) IsValid() bool {
	switch k {
	case KindRootAlreadyExists, KindEmptyLabel, KindMissingParent,
		KindParentNotFound, KindNodeNotFound:
		return true
	}
	return false
}

// Sentinel errors, one per kind. A ValidationError matches the sentinel of
// its kind under errors.Is.
var (
	ErrRootAlreadyExists = errors.New("tree already has a root")
	ErrEmptyLabel        = errors.New("label is required")
	ErrMissingParent     = errors.New("a parent node must be selected")
	ErrParentNotFound    = errors.New("parent node does not exist")
	ErrNodeNotFound      = errors.New("node does not exist")
)

var sentinels = map[ErrorKind]error{
	KindRootAlreadyExists: ErrRootAlreadyExists,
	KindEmptyLabel:        ErrEmptyLabel,
	KindMissingParent:     ErrMissingParent,
	KindParentNotFound:    ErrParentNotFound,
	KindNodeNotFound:      ErrNodeNotFound,
}

// ValidationError reports why a tree operation was declined.
type ValidationError struct {
	Kind  ErrorKind
	Field string // "label", "parent_id", "id" or "" when the tree state itself is the cause
	Value string // Offending value, if any
}

// NewValidationError constructs a ValidationError for kind
func NewValidationError(kind ErrorKind, field, value string) *ValidationError {
	return &ValidationError{Kind: kind, Field: field, Value: value}
}

func (e *ValidationError) Error() string {
	base := sentinels[e.Kind]
	if base == nil {
		return fmt.Sprintf("invalid operation: %s", e.Kind)
	}
	if e.Value != "" {
		return fmt.Sprintf("%s: %q", base, e.Value)
	}
	return base.Error()
}

// Unwrap returns the sentinel for the error kind
func (e *ValidationError) Unwrap() error {
	return sentinels[e.Kind]
}

// KindOf extracts the ErrorKind from err, or "" if err is not a validation error.
func KindOf(err error) ErrorKind {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Kind
	}
	for kind, sentinel := range sentinels {
		if errors.Is(err, sentinel) {
			return kind
		}
	}
	return ""
}
