package form

import "errors"

var (
	// ErrNoFields is returned for definitions without fields.
	ErrNoFields = errors.New("form: definition has no fields")
	// ErrUnknownFormat is returned when a file extension or format name is
	// not one of yaml, json or toml.
	ErrUnknownFormat = errors.New("form: unknown format")
	// ErrUnknownField is returned when a value targets a field the form does
	// not declare.
	ErrUnknownField = errors.New("form: unknown field")
	// ErrOperationNotFound is returned by FromOpenAPI when no operation
	// matches the requested id.
	ErrOperationNotFound = errors.New("form: openapi operation not found")
	// ErrCycleInProgress is returned by LoadValues when it is called from
	// inside a refresh or restore cycle, where the restore would be skipped.
	ErrCycleInProgress = errors.New("form: refresh cycle in progress")
)
