package domain

import "sort"

// ARDRow is one (row label, group) cell of Analysis Results Data.
type ARDRow struct {
	Index string `json:"__index__"`
	Group string `json:"__group__"`
	Value string `json:"__value__"`
}

// ARD is long-format Analysis Results Data. Categories is the declared order of the
// row-label axis and Groups the declared order of the group axis; neither is ever
// re-sorted lexically. Labels maps a category key to its display text when the two
// differ, such as a preferred term nested under several system organ classes.
type ARD struct {
	Categories []string          `json:"categories"`
	Groups     []string          `json:"groups"`
	Rows       []ARDRow          `json:"rows"`
	Labels     map[string]string `json:"labels,omitempty"`
}

// NewARD returns an empty ARD with the given axis orders. Duplicate categories or
// groups are kept once.
func NewARD(categories, groups []string) *ARD {
	a := &ARD{}
	for _, c := range categories {
		a.AddCategory(c)
	}
	for _, g := range groups {
		a.AddGroup(g)
	}
	return a
}

func (a *ARD) AddCategory(category string) {
	for _, c := range a.Categories {
		if c == category {
			return
		}
	}
	a.Categories = append(a.Categories, category)
}

func (a *ARD) AddGroup(group string) {
	for _, g := range a.Groups {
		if g == group {
			return
		}
	}
	a.Groups = append(a.Groups, group)
}

// SetLabel sets the display text of a category key.
func (a *ARD) SetLabel(category, label string) {
	if a.Labels == nil {
		a.Labels = map[string]string{}
	}
	a.Labels[category] = label
}

// Label returns the display text of a category key, the key itself by default.
func (a *ARD) Label(category string) string {
	if l, ok := a.Labels[category]; ok {
		return l
	}
	return category
}

// Add appends a row.
func (a *ARD) Add(index, group, value string) {
	a.Rows = append(a.Rows, ARDRow{Index: index, Group: group, Value: value})
}

func (a *ARD) Len() int {
	return len(a.Rows)
}

// Sort orders rows by category rank, then group rank. Rows whose category or group is
// not declared go last in insertion order. The sort is stable.
func (a *ARD) Sort() {
	catRank := rank(a.Categories)
	grpRank := rank(a.Groups)
	sort.SliceStable(a.Rows, func(i, j int) bool {
		ci, cj := lookup(catRank, a.Rows[i].Index), lookup(catRank, a.Rows[j].Index)
		if ci != cj {
			return ci < cj
		}
		return lookup(grpRank, a.Rows[i].Group) < lookup(grpRank, a.Rows[j].Group)
	})
}

// Cell returns the value for a (category, group) pair.
func (a *ARD) Cell(index, group string) (string, bool) {
	for _, r := range a.Rows {
		if r.Index == index && r.Group == group {
			return r.Value, true
		}
	}
	return "", false
}

func rank(values []string) map[string]int {
	m := make(map[string]int, len(values))
	for i, v := range values {
		m[v] = i
	}
	return m
}

func lookup(m map[string]int, key string) int {
	if r, ok := m[key]; ok {
		return r
	}
	return len(m)
}
