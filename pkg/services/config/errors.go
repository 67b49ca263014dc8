package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/de-tools/tlf-atlas/pkg/models/domain"
)

var (
	ErrConfigNotFound = errors.New("configuration file not found")
	ErrConfigSyntax   = errors.New("configuration syntax error")
	ErrInheritance    = errors.New("configuration inheritance error")
	ErrInvalidConfig  = errors.New("invalid configuration")
)

// InheritanceError reports a parent configuration that could not be resolved from a
// child. It matches ErrInheritance and unwraps to the underlying cause.
type InheritanceError struct {
	Child  string
	Parent string
	Err    error
}

func (e *InheritanceError) Error() string {
	return fmt.Sprintf("%s inherits from %q: %v", e.Child, e.Parent, e.Err)
}

func (e *InheritanceError) Is(target error) bool {
	return target == ErrInheritance
}

func (e *InheritanceError) Unwrap() error {
	return e.Err
}

// ValidationError carries every field-level problem found in a configuration.
type ValidationError struct {
	Path   string
	Fields []domain.FieldError
}

func (e *ValidationError) Error() string {
	lines := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		lines[i] = f.String()
	}
	return fmt.Sprintf("%s: %d validation error(s): %s", e.Path, len(e.Fields), strings.Join(lines, "; "))
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidConfig
}
