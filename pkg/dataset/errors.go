package dataset

import (
	"errors"
	"fmt"
)

var (
	// ErrColumnNotFound is returned when an operation references a column the table
	// does not have.
	ErrColumnNotFound = errors.New("column not found")
	// ErrFileNotFound is returned by loaders when the dataset file does not exist.
	ErrFileNotFound = errors.New("dataset file not found")
	// ErrUnsupportedFormat is returned by loaders for extensions they cannot read.
	ErrUnsupportedFormat = errors.New("unsupported dataset format")
)

// ColumnError identifies the missing column.
type ColumnError struct {
	Column string
}

func (e *ColumnError) Error() string {
	return fmt.Sprintf("column %q not found", e.Column)
}

func (e *ColumnError) Unwrap() error {
	return ErrColumnNotFound
}
