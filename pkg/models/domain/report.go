package domain

// ValidationReport lists plan references that do not resolve, formatted
// "plan_<n>: <name>", n counting condensed plans from 1.
type ValidationReport struct {
	Analyses     []string `json:"analyses"`
	Populations  []string `json:"populations"`
	Observations []string `json:"observations"`
	Parameters   []string `json:"parameters"`
	Groups       []string `json:"groups"`
}

func (r ValidationReport) Valid() bool {
	return len(r.Analyses)+len(r.Populations)+len(r.Observations)+len(r.Parameters)+len(r.Groups) == 0
}

// Issues flattens the report into "<category> <entry>" lines.
func (r ValidationReport) Issues() []string {
	var out []string
	add := func(category string, entries []string) {
		for _, e := range entries {
			out = append(out, category+" "+e)
		}
	}
	add("analysis", r.Analyses)
	add("population", r.Populations)
	add("observation", r.Observations)
	add("parameter", r.Parameters)
	add("group", r.Groups)
	return out
}

// PlanSummary describes a study plan's expansion.
type PlanSummary struct {
	Condensed  int             `json:"condensed_plans"`
	Individual int             `json:"individual_analyses"`
	Breakdown  []PlanBreakdown `json:"breakdown"`
	IDs        []string        `json:"ids"`
}

// PlanBreakdown is the expansion size of one condensed plan, keyed "plan_<n>_<analysis>".
type PlanBreakdown struct {
	Key   string `json:"key"`
	Count int    `json:"count"`
}
