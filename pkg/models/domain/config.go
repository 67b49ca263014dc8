package domain

import (
	"fmt"
	"sort"
	"strings"
)

// StudyConfig is a fully merged study configuration: keyword registries, dataset
// locations and condensed plans.
type StudyConfig struct {
	Study        StudyInfo         `yaml:"study" json:"study"`
	InheritsFrom string            `yaml:"inherits_from,omitempty" json:"inherits_from,omitempty"`
	Data         map[string]string `yaml:"data,omitempty" json:"data,omitempty"`
	Populations  []Keyword         `yaml:"population,omitempty" json:"population,omitempty"`
	Observations []Keyword         `yaml:"observation,omitempty" json:"observation,omitempty"`
	Parameters   []Keyword         `yaml:"parameter,omitempty" json:"parameter,omitempty"`
	Groups       []Group           `yaml:"group,omitempty" json:"group,omitempty"`
	Plans        []CondensedPlan   `yaml:"plans,omitempty" json:"plans,omitempty"`
}

type StudyInfo struct {
	Name     string `yaml:"name" json:"name"`
	Title    string `yaml:"title,omitempty" json:"title,omitempty"`
	Template string `yaml:"template,omitempty" json:"template,omitempty"`
}

// Validate checks required fields and keyword uniqueness and returns every problem
// found.
func (c *StudyConfig) Validate() []FieldError {
	var errs []FieldError
	if strings.TrimSpace(c.Study.Name) == "" {
		errs = append(errs, FieldError{Field: "study.name", Msg: "is required"})
	}
	errs = append(errs, validateKeywords("population", c.Populations)...)
	errs = append(errs, validateKeywords("observation", c.Observations)...)
	errs = append(errs, validateKeywords("parameter", c.Parameters)...)

	seen := map[string]bool{}
	for i, g := range c.Groups {
		field := fmt.Sprintf("group[%d]", i)
		if g.Name == "" {
			errs = append(errs, FieldError{Field: field + ".name", Msg: "is required"})
		} else if seen[g.Name] {
			errs = append(errs, FieldError{Field: field + ".name", Msg: fmt.Sprintf("duplicate group %q", g.Name)})
		}
		seen[g.Name] = true
		if _, col := g.Column(); col == "" {
			errs = append(errs, FieldError{Field: field + ".variable", Msg: "is required"})
		}
	}

	names := make([]string, 0, len(c.Data))
	for name := range c.Data {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if strings.TrimSpace(c.Data[name]) == "" {
			errs = append(errs, FieldError{Field: "data." + name, Msg: "path is required"})
		}
	}

	for i, p := range c.Plans {
		errs = append(errs, p.Validate(fmt.Sprintf("plans[%d]", i))...)
	}
	return errs
}

func validateKeywords(category string, keywords []Keyword) []FieldError {
	var errs []FieldError
	seen := map[string]bool{}
	for i, k := range keywords {
		field := fmt.Sprintf("%s[%d].name", category, i)
		switch {
		case strings.TrimSpace(k.Name) == "":
			errs = append(errs, FieldError{Field: field, Msg: "is required"})
		case seen[k.Name]:
			errs = append(errs, FieldError{Field: field, Msg: fmt.Sprintf("duplicate %s %q", category, k.Name)})
		}
		seen[k.Name] = true
	}
	return errs
}

// FieldError is one load-time validation failure.
type FieldError struct {
	Field string
	Msg   string
}

func (e FieldError) String() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Msg)
}
