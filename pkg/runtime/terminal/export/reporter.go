package export

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/template"
	"unicode/utf8"

	"github.com/de-tools/tlf-atlas/pkg/models/domain"
)

type TableConfig struct {
	MaxWidth int
}

func DefaultTableConfig() TableConfig {
	return TableConfig{
		MaxWidth: 48,
	}
}

// Reporter prints artifacts to the console as text tables
type Reporter struct {
	writer io.Writer
	config TableConfig
}

func NewReporter(writer io.Writer) *Reporter {
	if writer == nil {
		writer = os.Stdout
	}
	return &Reporter{
		writer: writer,
		config: DefaultTableConfig(),
	}
}

type preview struct {
	ID        string
	Kind      domain.ArtifactKind
	Titles    []string
	Columns   []string
	Rows      [][]string
	Footnotes []string
}

func (c *Reporter) Handle(art domain.Artifact) error {
	p := preview{ID: art.PlanID(), Kind: art.Kind(), Titles: art.Spec().Titles, Footnotes: art.Spec().Footnotes}
	switch a := art.(type) {
	case *domain.TableArtifact:
		p.Columns, p.Rows = a.Display.Columns, a.Display.Rows
	case *domain.ListingArtifact:
		p.Columns, p.Rows = a.Data.Columns, a.Data.Rows
	case *domain.FigureArtifact:
		return fmt.Errorf("%s: %w", a.ID, domain.ErrFigureNotSupported)
	}

	widths := c.widths(p.Columns, p.Rows)
	funcMap := template.FuncMap{
		"formatRow": func(cells []string) string {
			parts := make([]string, len(widths))
			for i, w := range widths {
				v := ""
				if i < len(cells) {
					v = clip(cells[i], w)
				}
				parts[i] = v + strings.Repeat(" ", w-utf8.RuneCountInString(v))
			}
			return "| " + strings.Join(parts, " | ") + " |"
		},
		"separator": func() string {
			parts := make([]string, len(widths))
			for i, w := range widths {
				parts[i] = strings.Repeat("-", w+2)
			}
			return "+" + strings.Join(parts, "+") + "+"
		},
	}

	tmpl := `
{{.ID}} ({{.Kind}})
{{range .Titles}}{{.}}
{{end}}
{{separator}}
{{formatRow .Columns}}
{{separator}}
{{range .Rows}}{{formatRow .}}
{{end}}{{separator}}
{{range .Footnotes}}{{.}}
{{end}}`

	t, err := template.New("preview").Funcs(funcMap).Parse(tmpl)
	if err != nil {
		return fmt.Errorf("failed to parse template: %w", err)
	}

	return t.Execute(c.writer, p)
}

func (c *Reporter) widths(columns []string, rows [][]string) []int {
	widths := make([]int, len(columns))
	for i, col := range columns {
		widths[i] = utf8.RuneCountInString(col)
	}
	for _, r := range rows {
		for i, v := range r {
			if i < len(widths) && utf8.RuneCountInString(v) > widths[i] {
				widths[i] = utf8.RuneCountInString(v)
			}
		}
	}
	for i := range widths {
		widths[i] = min(widths[i], c.config.MaxWidth)
	}
	return widths
}

func clip(s string, width int) string {
	if utf8.RuneCountInString(s) <= width {
		return s
	}
	r := []rune(s)
	if width <= 3 {
		return string(r[:width])
	}
	return string(r[:width-3]) + "..."
}
