package domain

// DisplayTable is the wide table handed to renderers. Columns[0] is the row-label
// header; every row has len(Columns) cells.
type DisplayTable struct {
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

func (d *DisplayTable) Len() int {
	return len(d.Rows)
}

// Column returns the cells of the named column.
func (d *DisplayTable) Column(name string) ([]string, bool) {
	for j, c := range d.Columns {
		if c != name {
			continue
		}
		out := make([]string, len(d.Rows))
		for i, r := range d.Rows {
			out[i] = r[j]
		}
		return out, true
	}
	return nil, false
}
