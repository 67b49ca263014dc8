package export

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"unicode/utf16"

	"github.com/de-tools/tlf-atlas/pkg/models/domain"
)

const (
	twipsPerInch = 1440
	letterShort  = 12240
	letterLong   = 15840
	margin       = twipsPerInch
	fontSize     = 18 // half-points
)

// RTFWriter renders table and listing artifacts as RTF 1.x documents.
type RTFWriter struct{}

func NewRTFWriter() *RTFWriter {
	return &RTFWriter{}
}

func (rw *RTFWriter) Render(w io.Writer, art domain.Artifact) error {
	switch a := art.(type) {
	case *domain.TableArtifact:
		if a.Display == nil {
			return fmt.Errorf("table %s has no display data", a.ID)
		}
		return rw.write(w, a.Render, a.Display, false)
	case *domain.ListingArtifact:
		if a.Data == nil {
			return fmt.Errorf("listing %s has no data", a.ID)
		}
		return rw.write(w, a.Render, a.Data, len(a.Render.PageBy) > 0)
	case *domain.FigureArtifact:
		return fmt.Errorf("%s: %w", a.ID, domain.ErrFigureNotSupported)
	}
	return fmt.Errorf("unsupported artifact %T", art)
}

type page struct {
	label string
	rows  [][]string
}

func (rw *RTFWriter) write(w io.Writer, spec domain.RenderSpec, data *domain.DisplayTable, paged bool) error {
	bw := bufio.NewWriter(w)
	width, height := letterLong, letterShort
	orient := `\landscape`
	if spec.Orientation == domain.Portrait {
		width, height = letterShort, letterLong
		orient = ""
	}

	bw.WriteString(`{\rtf1\ansi\deff0{\fonttbl{\f0\froman Times New Roman;}}` + "\n")
	fmt.Fprintf(bw, `\paperw%d\paperh%d%s\margl%d\margr%d\margt%d\margb%d\fs%d`+"\n",
		width, height, orient, margin, margin, margin, margin, fontSize)

	columns := data.Columns
	pages := []page{{rows: data.Rows}}
	if paged {
		columns = data.Columns[1:]
		pages = splitPages(data.Rows)
	}
	cells := cellEdges(spec.ColumnWidths, len(columns), width-2*margin)
	justify := justification(spec.Justify, len(columns))
	groupBy := columnPositions(columns, spec.GroupBy)

	for i, p := range pages {
		if i > 0 {
			bw.WriteString(`\page` + "\n")
		}
		for _, t := range spec.Titles {
			fmt.Fprintf(bw, `{\pard\qc %s\par}`+"\n", escape(t))
		}
		if p.label != "" {
			fmt.Fprintf(bw, `{\pard\ql %s\par}`+"\n", escape(p.label))
		}
		bw.WriteString(`{\pard\par}` + "\n")

		headers := spec.ColumnHeaders
		if len(headers) == 0 {
			headers = [][]string{columns}
		}
		for j, h := range headers {
			writeRow(bw, spreadHeader(h, len(columns)), cells, nil, j == 0, j == len(headers)-1)
		}

		var prev []string
		for k, r := range p.rows {
			if paged {
				r = r[1:]
			}
			shown := append([]string(nil), r...)
			for _, pos := range groupBy {
				if prev != nil && pos < len(prev) && prev[pos] == r[pos] {
					shown[pos] = ""
				}
			}
			prev = r
			writeRow(bw, shown, cells, justify, false, k == len(p.rows)-1)
		}

		for _, f := range spec.Footnotes {
			fmt.Fprintf(bw, `{\pard\ql\fs16 %s\par}`+"\n", escape(f))
		}
		for _, s := range spec.Sources {
			fmt.Fprintf(bw, `{\pard\ql\fs16 %s\par}`+"\n", escape(s))
		}
	}

	bw.WriteString("}\n")
	return bw.Flush()
}

// splitPages groups consecutive rows by their first cell, the page label.
func splitPages(rows [][]string) []page {
	var pages []page
	for _, r := range rows {
		if len(pages) == 0 || pages[len(pages)-1].label != r[0] {
			pages = append(pages, page{label: r[0]})
		}
		pages[len(pages)-1].rows = append(pages[len(pages)-1].rows, r)
	}
	if len(pages) == 0 {
		pages = append(pages, page{})
	}
	return pages
}

// writeRow writes one table row. A nil justify centers every cell, as for headers.
func writeRow(w *bufio.Writer, values []string, edges []int, justify []domain.Justification, top, bottom bool) {
	w.WriteString(`\trowd\trgaph108\trleft0`)
	for _, edge := range edges {
		if top {
			w.WriteString(`\clbrdrt\brdrs\brdrw10`)
		}
		if bottom {
			w.WriteString(`\clbrdrb\brdrs\brdrw10`)
		}
		fmt.Fprintf(w, `\cellx%d`, edge)
	}
	w.WriteString("\n")
	for i := range edges {
		align := `\qc`
		if justify != nil {
			align = alignment(justify, i)
		}
		v := ""
		if i < len(values) {
			v = values[i]
		}
		fmt.Fprintf(w, `\pard\intbl%s %s\cell`, align, escape(v))
	}
	w.WriteString(`\row` + "\n")
}

func alignment(justify []domain.Justification, i int) string {
	if i >= len(justify) {
		return `\ql`
	}
	switch justify[i] {
	case domain.JustifyCenter:
		return `\qc`
	case domain.JustifyRight:
		return `\qr`
	}
	return `\ql`
}

// cellEdges converts relative widths into cumulative right edges in twips.
func cellEdges(widths []float64, n, total int) []int {
	rel := make([]float64, n)
	sum := 0.0
	for i := range rel {
		rel[i] = 1
		if i < len(widths) && widths[i] > 0 {
			rel[i] = widths[i]
		}
		sum += rel[i]
	}
	edges := make([]int, n)
	acc := 0.0
	for i, r := range rel {
		acc += r
		edges[i] = int(float64(total) * acc / sum)
	}
	return edges
}

func justification(j []domain.Justification, n int) []domain.Justification {
	out := make([]domain.Justification, n)
	for i := range out {
		out[i] = domain.JustifyLeft
		if i < len(j) {
			out[i] = j[i]
		}
	}
	return out
}

// spreadHeader fits a header row to n cells. A single-cell " | " separated row is
// split into its cells; missing cells are blank.
func spreadHeader(h []string, n int) []string {
	if len(h) == 1 && strings.Contains(h[0], " | ") {
		h = strings.Split(h[0], " | ")
	}
	out := make([]string, n)
	copy(out, h)
	return out
}

func columnPositions(columns, names []string) []int {
	var out []int
	for _, name := range names {
		for i, c := range columns {
			if c == name {
				out = append(out, i)
			}
		}
	}
	return out
}

// escape quotes RTF control characters and writes non-ASCII runes as \u escapes.
func escape(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r == '\\' || r == '{' || r == '}':
			b.WriteByte('\\')
			b.WriteRune(r)
		case r == '\n':
			b.WriteString(`\line `)
		case r > 0xFFFF:
			hi, lo := utf16.EncodeRune(r)
			fmt.Fprintf(&b, `\u%d?\u%d?`, int16(hi), int16(lo))
		case r > 127:
			fmt.Fprintf(&b, `\u%d?`, int16(r))
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
