package models

import (
	"encoding/json"
	"errors"
	"fmt"
)

var (
	// ErrMissingIndexID is returned when the index header is absent or malformed.
	ErrMissingIndexID = errors.New(`invalid or missing header "X-Lupa-Index-ID"`)
	// ErrIndexIDMismatch is returned when the index header does not match the configured index.
	ErrIndexIDMismatch = errors.New(`header "X-Lupa-Index-ID" does not match the configured product index`)
)

// AuthorizationError rejects a request before any data access.
type AuthorizationError struct {
	Err error
}

func (e *AuthorizationError) Error() string { return e.Err.Error() }
func (e *AuthorizationError) Unwrap() error { return e.Err }

// ValidationError reports a malformed request parameter.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// SchemaIntegrityError means a storage row lacks a column the exporter
// depends on, or holds a value of the wrong shape. It is never retried.
type SchemaIntegrityError struct {
	Field  string
	Reason string
	Row    Row
}

func (e *SchemaIntegrityError) Error() string {
	row, err := json.Marshal(e.Row)
	if err != nil {
		row = []byte(fmt.Sprintf("%v", map[string]any(e.Row)))
	}
	if e.Reason != "" {
		return fmt.Sprintf("attribute key '%s' %s in row: %s", e.Field, e.Reason, row)
	}
	return fmt.Sprintf("attribute key '%s' is not found within the given row: %s", e.Field, row)
}

// StorageError wraps a failed catalog query.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string { return fmt.Sprintf("%s: %v", e.Op, e.Err) }
func (e *StorageError) Unwrap() error { return e.Err }

// ExtensionError describes a hook listener whose contribution was dropped.
type ExtensionError struct {
	Listener string
	Err      error
}

func (e *ExtensionError) Error() string {
	return fmt.Sprintf("listener %s: %v", e.Listener, e.Err)
}
func (e *ExtensionError) Unwrap() error { return e.Err }
