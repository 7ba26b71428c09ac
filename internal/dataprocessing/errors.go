package dataprocessing

import "errors"

// Structural failures. They are returned wrapped in an *errors.AppError, so
// compare with errors.Is.
var (
	ErrEmptyInput        = errors.New("input is empty")
	ErrUnsupportedFormat = errors.New("unsupported file format")
	ErrNoColumns         = errors.New("table has no columns")
	ErrNoUsableColumns   = errors.New("no column maps to the registration schema")
	ErrColumnCollision   = errors.New("several columns map to the same field")
)
