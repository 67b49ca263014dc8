package domain

import "strings"

// KeywordCategory names the registry a keyword lives in.
type KeywordCategory string

const (
	CategoryPopulation  KeywordCategory = "population"
	CategoryObservation KeywordCategory = "observation"
	CategoryParameter   KeywordCategory = "parameter"
	CategoryGroup       KeywordCategory = "group"
)

// Keyword is a named population, observation window or parameter. An empty Filter
// means no restriction.
type Keyword struct {
	Name   string `yaml:"name" json:"name"`
	Label  string `yaml:"label,omitempty" json:"label,omitempty"`
	Filter string `yaml:"filter,omitempty" json:"filter,omitempty"`
}

// DisplayLabel falls back to the name when no label is configured.
func (k Keyword) DisplayLabel() string {
	if k.Label != "" {
		return k.Label
	}
	return k.Name
}

// Group binds a treatment-group keyword to a dataset column.
type Group struct {
	Name string `yaml:"name" json:"name"`
	// Variable is a dataset-qualified column reference such as "adsl:trt01a".
	Variable string `yaml:"variable" json:"variable"`
	// Label is the header shown above the group columns.
	Label string `yaml:"label,omitempty" json:"label,omitempty"`
	// Levels lists group values in display order.
	Levels []string `yaml:"group_label,omitempty" json:"group_label,omitempty"`
}

// Column splits Variable into its dataset and upper-cased column name. A reference
// without a dataset prefix returns an empty dataset.
func (g Group) Column() (dataset string, column string) {
	ref := strings.TrimSpace(g.Variable)
	if i := strings.Index(ref, ":"); i >= 0 {
		return strings.ToLower(strings.TrimSpace(ref[:i])), strings.ToUpper(strings.TrimSpace(ref[i+1:]))
	}
	return "", strings.ToUpper(ref)
}
