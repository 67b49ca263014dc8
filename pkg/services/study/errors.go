package study

import (
	"errors"
	"fmt"

	"github.com/de-tools/tlf-atlas/pkg/models/domain"
)

var (
	ErrKeywordNotFound = errors.New("keyword not found")
	ErrDatasetNotFound = errors.New("dataset not found")
)

// KeywordNotFoundError names both the registry and the unresolved keyword.
type KeywordNotFoundError struct {
	Category domain.KeywordCategory
	Name     string
}

func (e *KeywordNotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found in study configuration", e.Category, e.Name)
}

func (e *KeywordNotFoundError) Unwrap() error {
	return ErrKeywordNotFound
}

type DatasetNotFoundError struct {
	Name string
}

func (e *DatasetNotFoundError) Error() string {
	return fmt.Sprintf("dataset %q is not configured for this study", e.Name)
}

func (e *DatasetNotFoundError) Unwrap() error {
	return ErrDatasetNotFound
}
