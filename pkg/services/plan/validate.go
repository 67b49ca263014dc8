package plan

import (
	"fmt"

	"github.com/de-tools/tlf-atlas/pkg/models/domain"
)

// References are the names a plan may refer to. A nil list disables the check for
// that category.
type References struct {
	Analyses     []string
	Populations  []string
	Observations []string
	Parameters   []string
	Groups       []string
}

// ReferencesFor collects the keyword names defined by a study configuration.
func ReferencesFor(cfg *domain.StudyConfig, analyses []string) References {
	refs := References{
		Analyses:     analyses,
		Populations:  []string{},
		Observations: []string{},
		Parameters:   []string{},
		Groups:       []string{},
	}
	for _, k := range cfg.Populations {
		refs.Populations = append(refs.Populations, k.Name)
	}
	for _, k := range cfg.Observations {
		refs.Observations = append(refs.Observations, k.Name)
	}
	for _, k := range cfg.Parameters {
		refs.Parameters = append(refs.Parameters, k.Name)
	}
	for _, g := range cfg.Groups {
		refs.Groups = append(refs.Groups, g.Name)
	}
	return refs
}

// Validate lists every unresolved reference as "plan_<n>: <name>", n counting from 1. It never fails;
// callers decide whether a non-empty report is fatal.
func Validate(plans []domain.CondensedPlan, refs References) domain.ValidationReport {
	report := domain.ValidationReport{
		Analyses:     []string{},
		Populations:  []string{},
		Observations: []string{},
		Parameters:   []string{},
		Groups:       []string{},
	}

	check := func(known []string, dst *[]string, i int, names ...string) {
		if known == nil {
			return
		}
		set := make(map[string]bool, len(known))
		for _, k := range known {
			set[k] = true
		}
		reported := map[string]bool{}
		for _, n := range names {
			if n == "" || set[n] || reported[n] {
				continue
			}
			reported[n] = true
			*dst = append(*dst, fmt.Sprintf("plan_%d: %s", i+1, n))
		}
	}

	for i, p := range plans {
		check(refs.Analyses, &report.Analyses, i, p.Analysis)
		check(refs.Populations, &report.Populations, i, p.Population...)
		check(refs.Observations, &report.Observations, i, p.Observation...)
		var params []string
		for _, entry := range p.Parameter {
			params = append(params, domain.SplitParameters(entry)...)
		}
		check(refs.Parameters, &report.Parameters, i, params...)
		check(refs.Groups, &report.Groups, i, p.Group)
	}
	return report
}
