package plan

import (
	"fmt"

	"github.com/de-tools/tlf-atlas/pkg/models/domain"
)

// ExpandAll concatenates the expansion of each condensed plan in declaration order.
func ExpandAll(plans []domain.CondensedPlan) []domain.IndividualPlan {
	var out []domain.IndividualPlan
	for _, p := range plans {
		out = append(out, p.Expand()...)
	}
	return out
}

// Summarize reports how many analyses each condensed plan expands to. Plans are
// numbered from 1 in declaration order.
func Summarize(plans []domain.CondensedPlan) domain.PlanSummary {
	summary := domain.PlanSummary{Condensed: len(plans)}
	for i, p := range plans {
		n := p.CountCombinations()
		summary.Individual += n
		summary.Breakdown = append(summary.Breakdown, domain.PlanBreakdown{
			Key:   fmt.Sprintf("plan_%d_%s", i+1, p.Analysis),
			Count: n,
		})
	}
	for _, ip := range ExpandAll(plans) {
		summary.IDs = append(summary.IDs, ip.ID())
	}
	return summary
}

// Deduplicate drops individual plans whose ID was already seen, keeping the first.
func Deduplicate(plans []domain.IndividualPlan) []domain.IndividualPlan {
	seen := make(map[string]bool, len(plans))
	out := make([]domain.IndividualPlan, 0, len(plans))
	for _, p := range plans {
		id := p.ID()
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, p)
	}
	return out
}

// Find returns the individual plan with the given ID.
func Find(plans []domain.CondensedPlan, id string) (domain.IndividualPlan, bool) {
	for _, p := range ExpandAll(plans) {
		if p.ID() == id {
			return p, true
		}
	}
	return domain.IndividualPlan{}, false
}

// Select returns the plans with the given IDs in the order the IDs are listed. No IDs
// selects every plan.
func Select(plans []domain.IndividualPlan, ids []string) ([]domain.IndividualPlan, error) {
	if len(ids) == 0 {
		return plans, nil
	}
	byID := make(map[string]domain.IndividualPlan, len(plans))
	for _, p := range plans {
		byID[p.ID()] = p
	}
	out := make([]domain.IndividualPlan, 0, len(ids))
	for _, id := range ids {
		p, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("unknown analysis id %q", id)
		}
		out = append(out, p)
	}
	return out, nil
}
