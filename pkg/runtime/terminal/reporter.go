package terminal

import (
	"fmt"
	"io"
	"os"
	"text/template"

	"github.com/de-tools/tlf-atlas/pkg/models/domain"
	"github.com/de-tools/tlf-atlas/pkg/services/generator"
)

const summaryTemplate = `Condensed plans: {{.Condensed}}
Individual analyses: {{.Individual}}
{{range .Breakdown}}  {{.Key}}: {{.Count}}
{{end}}
{{range .IDs}}{{.}}
{{end}}`

const validationTemplate = `{{if .Valid}}All plan references resolve.
{{else}}Unresolved plan references:
{{range .Issues}}  - {{.}}
{{end}}{{end}}`

const runTemplate = `
Run {{.Run.ID}} ({{.Run.Status}})
Generated: {{generated .}} of {{len .Results}}
{{with .Failed}}Failed:
{{range .}}  - {{.PlanID}}: {{.Err}}
{{end}}{{end}}`

// Reporter prints plan summaries, validation reports and generation runs to the
// console in a formatted text form
type Reporter struct {
	writer    io.Writer
	templates *template.Template
}

// NewReporter creates a new console reporter
func NewReporter(writer io.Writer) *Reporter {
	if writer == nil {
		writer = os.Stdout
	}
	t := template.New("reporter").Funcs(template.FuncMap{
		"generated": func(r *generator.Report) int {
			return len(r.Results) - len(r.Failed())
		},
	})
	template.Must(t.New("summary").Parse(summaryTemplate))
	template.Must(t.New("validation").Parse(validationTemplate))
	template.Must(t.New("run").Parse(runTemplate))
	return &Reporter{writer: writer, templates: t}
}

func (c *Reporter) Summary(summary domain.PlanSummary) error {
	return c.execute("summary", summary)
}

func (c *Reporter) Validation(report domain.ValidationReport) error {
	return c.execute("validation", report)
}

func (c *Reporter) Run(report *generator.Report) error {
	return c.execute("run", report)
}

// Progress prints one line per finished plan.
func (c *Reporter) Progress(done, total int, res domain.Result) {
	if res.OK() {
		fmt.Fprintf(c.writer, "[%d/%d] ok     %s -> %s\n", done, total, res.PlanID, res.Path)
		return
	}
	fmt.Fprintf(c.writer, "[%d/%d] failed %s: %v\n", done, total, res.PlanID, res.Err)
}

func (c *Reporter) execute(name string, data any) error {
	if err := c.templates.ExecuteTemplate(c.writer, name, data); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	return nil
}
