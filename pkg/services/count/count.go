package count

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/de-tools/tlf-atlas/pkg/dataset"
)

// MissingGroup decides what happens to subjects without a group value.
type MissingGroup string

const (
	MissingError  MissingGroup = "error"
	MissingIgnore MissingGroup = "ignore"
	MissingFill   MissingGroup = "fill"
)

const (
	DefaultID    = "USUBJID"
	MissingLabel = "Missing"
	TotalLabel   = "Total"
	OverallLabel = "Overall"
)

var ErrMissingGroup = errors.New("subjects with missing group value")

type Options struct {
	// ID is the subject identifier column. Defaults to USUBJID.
	ID string
	// Group is the grouping column. Empty means one Overall group.
	Group string
	// Levels lists known group values in display order.
	Levels []string
	// Total appends a synthetic Total group over all counted subjects.
	Total        bool
	MissingGroup MissingGroup
}

func (o Options) id() string {
	if o.ID == "" {
		return DefaultID
	}
	return o.ID
}

func (o Options) policy() MissingGroup {
	if o.MissingGroup == "" {
		return MissingError
	}
	return o.MissingGroup
}

type GroupCount struct {
	Group string
	N     int
}

// ObservationCount is the number of distinct subjects in Group with at least one
// observation carrying Value.
type ObservationCount struct {
	Group       string
	Value       string
	N           int
	Denominator int
	Pct         float64
	Formatted   string
}

// assignment maps each counted subject to its group and records the group order.
type assignment struct {
	groups   []string
	subjects map[string]string
	total    bool
}

func assign(pop *dataset.Table, opts Options) (*assignment, error) {
	ids, err := pop.Column(opts.id())
	if err != nil {
		return nil, err
	}

	var groups []any
	if opts.Group != "" {
		if groups, err = pop.Column(opts.Group); err != nil {
			return nil, err
		}
	}

	a := &assignment{subjects: make(map[string]string), total: opts.Total && opts.Group != ""}
	var missing []string
	seen := map[string]bool{}
	for i, id := range ids {
		if id == nil {
			continue
		}
		subject := dataset.Format(id)
		if seen[subject] {
			continue
		}
		seen[subject] = true

		if opts.Group == "" {
			a.subjects[subject] = OverallLabel
			continue
		}

		g := strings.TrimSpace(dataset.Format(groups[i]))
		if g == "" {
			switch opts.policy() {
			case MissingError:
				missing = append(missing, subject)
				continue
			case MissingIgnore:
				continue
			case MissingFill:
				g = MissingLabel
			default:
				return nil, fmt.Errorf("unknown missing group policy %q", opts.MissingGroup)
			}
		}
		a.subjects[subject] = g
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: column %s is empty for %d subject(s), first %s",
			ErrMissingGroup, opts.Group, len(missing), missing[0])
	}

	a.groups = order(opts, a.subjects)
	return a, nil
}

// order returns configured levels, then other values lexically, then Missing.
func order(opts Options, subjects map[string]string) []string {
	if opts.Group == "" {
		return []string{OverallLabel}
	}

	out := append([]string(nil), opts.Levels...)
	known := map[string]bool{}
	for _, l := range opts.Levels {
		known[l] = true
	}

	var extra []string
	hasMissing := false
	for _, g := range subjects {
		switch {
		case known[g]:
		case g == MissingLabel:
			hasMissing = true
		default:
			known[g] = true
			extra = append(extra, g)
		}
	}
	sort.Strings(extra)
	out = append(out, extra...)
	if hasMissing {
		out = append(out, MissingLabel)
	}
	return out
}

// Groups returns the group order that Subjects would produce, including Total.
func Groups(pop *dataset.Table, opts Options) ([]string, error) {
	a, err := assign(pop, opts)
	if err != nil {
		return nil, err
	}
	return a.columns(), nil
}

func (a *assignment) columns() []string {
	if a.total {
		return append(append([]string(nil), a.groups...), TotalLabel)
	}
	return a.groups
}

// Subjects counts distinct subjects per group. Groups come in the order configured
// levels, other values lexically, Missing, Total.
func Subjects(pop *dataset.Table, opts Options) ([]GroupCount, error) {
	a, err := assign(pop, opts)
	if err != nil {
		return nil, err
	}
	return a.denominators(), nil
}

func (a *assignment) denominators() []GroupCount {
	n := make(map[string]int, len(a.groups))
	for _, g := range a.subjects {
		n[g]++
	}
	out := make([]GroupCount, 0, len(a.groups)+1)
	for _, g := range a.groups {
		out = append(out, GroupCount{Group: g, N: n[g]})
	}
	if a.total {
		out = append(out, GroupCount{Group: TotalLabel, N: len(a.subjects)})
	}
	return out
}

// SubjectsWithObservation counts, for every value of variable in obs, the distinct
// subjects per group having at least one row with that value. Subjects count once
// per value however many rows they have, and their group comes from pop. Every
// (group, value) pair is reported, zero-filled, values in lexical order.
func SubjectsWithObservation(pop, obs *dataset.Table, opts Options, variable string) ([]ObservationCount, error) {
	values, err := obs.Column(variable)
	if err != nil {
		return nil, err
	}
	return countBy(pop, obs, opts, func(i int) (string, bool) {
		if values[i] == nil {
			return "", false
		}
		return dataset.Format(values[i]), true
	})
}

// SubjectsWithAny counts distinct subjects per group having at least one row in obs.
// The single value of every returned count is label.
func SubjectsWithAny(pop, obs *dataset.Table, opts Options, label string) ([]ObservationCount, error) {
	return countBy(pop, obs, opts, func(int) (string, bool) {
		return label, true
	})
}

func countBy(pop, obs *dataset.Table, opts Options, valueOf func(i int) (string, bool)) ([]ObservationCount, error) {
	a, err := assign(pop, opts)
	if err != nil {
		return nil, err
	}
	ids, err := obs.Column(opts.id())
	if err != nil {
		return nil, err
	}

	type key struct{ group, value string }
	counted := map[[2]string]bool{}
	n := map[key]int{}
	valueSet := map[string]bool{}

	for i, id := range ids {
		if id == nil {
			continue
		}
		subject := dataset.Format(id)
		group, ok := a.subjects[subject]
		if !ok {
			continue
		}
		value, ok := valueOf(i)
		if !ok {
			continue
		}
		valueSet[value] = true
		if counted[[2]string{subject, value}] {
			continue
		}
		counted[[2]string{subject, value}] = true
		n[key{group, value}]++
		if a.total {
			n[key{TotalLabel, value}]++
		}
	}

	values := make([]string, 0, len(valueSet))
	for v := range valueSet {
		values = append(values, v)
	}
	sort.Strings(values)

	denoms := a.denominators()
	out := make([]ObservationCount, 0, len(values)*len(denoms))
	for _, v := range values {
		for _, d := range denoms {
			c := n[key{d.Group, v}]
			pct := Percent(c, d.N)
			out = append(out, ObservationCount{
				Group:       d.Group,
				Value:       v,
				N:           c,
				Denominator: d.N,
				Pct:         pct,
				Formatted:   FormatNPct(c, pct),
			})
		}
	}
	return out, nil
}

// Percent is 100*n/denominator, or 0 when the denominator is zero.
func Percent(n, denominator int) float64 {
	if denominator == 0 {
		return 0
	}
	return 100 * float64(n) / float64(denominator)
}

// FormatNPct renders "n (pct)" with one decimal place.
func FormatNPct(n int, pct float64) string {
	return fmt.Sprintf("%d (%.1f)", n, pct)
}
