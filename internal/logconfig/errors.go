package logconfig

import "errors"

var (
	// ErrInvalidDocument is returned when a document fails to parse or validate.
	ErrInvalidDocument = errors.New("logconfig: invalid document")

	// ErrEmptyPath is returned when Load is called without a path.
	ErrEmptyPath = errors.New("logconfig: empty path")
)
