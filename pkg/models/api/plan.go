package api

// Plan is an individual analysis as listed by the API.
type Plan struct {
	ID          string `json:"id"`
	Analysis    string `json:"analysis"`
	Population  string `json:"population"`
	Observation string `json:"observation,omitempty"`
	Parameter   string `json:"parameter,omitempty"`
	Group       string `json:"group,omitempty"`
	Filename    string `json:"filename"`
}

type ARDRow struct {
	Index string `json:"index"`
	Group string `json:"group"`
	Value string `json:"value"`
}

type ARD struct {
	PlanID     string            `json:"plan_id"`
	Categories []string          `json:"categories"`
	Groups     []string          `json:"groups"`
	Rows       []ARDRow          `json:"rows"`
	Labels     map[string]string `json:"labels,omitempty"`
}

// Display is the rendered view of an artifact: titles, column headers and the text
// cells, without layout details.
type Display struct {
	PlanID    string     `json:"plan_id"`
	Kind      string     `json:"kind"`
	Titles    []string   `json:"titles"`
	Columns   []string   `json:"columns"`
	Rows      [][]string `json:"rows"`
	Footnotes []string   `json:"footnotes,omitempty"`
}

type Error struct {
	Error string `json:"error"`
}
