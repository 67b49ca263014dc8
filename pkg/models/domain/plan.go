package domain

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// StringList decodes from either a YAML scalar or a sequence.
type StringList []string

func (l *StringList) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		if value.Tag == "!!null" {
			*l = nil
			return nil
		}
		*l = StringList{value.Value}
		return nil
	case yaml.SequenceNode:
		var items []string
		if err := value.Decode(&items); err != nil {
			return err
		}
		*l = append(StringList{}, items...)
		return nil
	}
	return fmt.Errorf("line %d: expected a string or a list of strings", value.Line)
}

// ParameterList decodes from a semicolon-joined scalar ("any;rel;ser") or a sequence.
// Sequence elements are kept as written, so an element may itself carry several
// semicolon-joined parameters that one analysis tabulates together.
type ParameterList []string

func (l *ParameterList) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		if value.Tag == "!!null" {
			*l = nil
			return nil
		}
		*l = SplitParameters(value.Value)
		return nil
	case yaml.SequenceNode:
		var items []string
		if err := value.Decode(&items); err != nil {
			return err
		}
		*l = append(ParameterList{}, items...)
		return nil
	}
	return fmt.Errorf("line %d: expected a parameter string or a list of parameters", value.Line)
}

// SplitParameters splits a semicolon-joined parameter string, trimming blanks.
func SplitParameters(s string) []string {
	parts := strings.Split(s, ";")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// CondensedPlan declares many analyses at once: the Cartesian product of its
// populations, observations and parameters.
type CondensedPlan struct {
	Analysis    string        `yaml:"analysis" json:"analysis"`
	Population  StringList    `yaml:"population" json:"population"`
	Observation StringList    `yaml:"observation,omitempty" json:"observation,omitempty"`
	Parameter   ParameterList `yaml:"parameter,omitempty" json:"parameter,omitempty"`
	Group       string        `yaml:"group,omitempty" json:"group,omitempty"`
}

// Validate returns one FieldError per violated constraint. Absent optional lists are
// fine; present ones must not be empty.
func (p CondensedPlan) Validate(field string) []FieldError {
	var errs []FieldError
	if strings.TrimSpace(p.Analysis) == "" {
		errs = append(errs, FieldError{Field: field + ".analysis", Msg: "is required"})
	}
	if len(p.Population) == 0 {
		errs = append(errs, FieldError{Field: field + ".population", Msg: "must list at least one population"})
	}
	if p.Observation != nil && len(p.Observation) == 0 {
		errs = append(errs, FieldError{Field: field + ".observation", Msg: "must not be empty when present"})
	}
	if p.Parameter != nil && len(p.Parameter) == 0 {
		errs = append(errs, FieldError{Field: field + ".parameter", Msg: "must not be empty when present"})
	}
	for i, name := range p.Population {
		if strings.TrimSpace(name) == "" {
			errs = append(errs, FieldError{Field: fmt.Sprintf("%s.population[%d]", field, i), Msg: "is blank"})
		}
	}
	return errs
}

// Expand enumerates population x observation x parameter, population outermost and
// parameter innermost. A missing observation or parameter list contributes a single
// absent slot.
func (p CondensedPlan) Expand() []IndividualPlan {
	observations := []string{""}
	if len(p.Observation) > 0 {
		observations = p.Observation
	}
	parameters := []string{""}
	if len(p.Parameter) > 0 {
		parameters = p.Parameter
	}

	plans := make([]IndividualPlan, 0, p.CountCombinations())
	for _, pop := range p.Population {
		for _, obs := range observations {
			for _, param := range parameters {
				plans = append(plans, IndividualPlan{
					Analysis:    p.Analysis,
					Population:  pop,
					Observation: obs,
					Parameter:   param,
					Group:       p.Group,
				})
			}
		}
	}
	return plans
}

func (p CondensedPlan) CountCombinations() int {
	return len(p.Population) * max(1, len(p.Observation)) * max(1, len(p.Parameter))
}

// IndividualPlan is one concrete analysis. Empty Observation or Parameter means absent.
type IndividualPlan struct {
	Analysis    string `json:"analysis"`
	Population  string `json:"population"`
	Observation string `json:"observation,omitempty"`
	Parameter   string `json:"parameter,omitempty"`
	Group       string `json:"group,omitempty"`
}

// ID joins analysis, population, observation and parameter with underscores, skipping
// absent parts.
func (p IndividualPlan) ID() string {
	parts := []string{p.Analysis, p.Population}
	if p.Observation != "" {
		parts = append(parts, p.Observation)
	}
	if p.Parameter != "" {
		parts = append(parts, p.Parameter)
	}
	return strings.Join(parts, "_")
}

func (p IndividualPlan) Filename() string {
	return strings.ReplaceAll(p.ID(), ";", "_") + ".rtf"
}

// Parameters splits the plan's parameter into its individual names.
func (p IndividualPlan) Parameters() []string {
	return SplitParameters(p.Parameter)
}

func (p IndividualPlan) String() string {
	return p.ID()
}
