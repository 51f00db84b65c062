package report

import (
	"io"
	"strings"
	"text/template"
)

var markdownTemplate = template.Must(template.New("markdown").Funcs(template.FuncMap{
	"cell": markdownCell,
}).Parse(`# {{.Title}}

- **Input**: ` + "`{{.Meta.Input}}`" + `
- **Generated**: ` + "`{{.Meta.Generated}}`" + `
{{- if .Meta.RunID}}
- **Run**: ` + "`{{.Meta.RunID}}`" + `
{{- end}}

{{if .Talkers -}}
## Top Talkers

| Host | Total | 4xx | 5xx | Enrichment |
|---|---:|---:|---:|---|
{{range .Talkers}}| ` + "`{{cell .Host}}`" + ` | {{.Total}} | {{.Count4xx}} | {{.Count5xx}} | {{.Enrichment}} |
{{end}}
{{end -}}
{{if not .Findings -}}
> No suspicious patterns detected with default heuristics.
{{else -}}
## Summary

| Type | Host | Count | Severity | Evidence |
|---|---:|---:|---|---|
{{range .Findings}}| {{.Type}} | ` + "`{{cell .Host}}`" + ` | {{.Count}} | {{.Severity}} | {{cell .Evidence}} |
{{end}}
## Narrative by Category
{{range .Categories}}
### {{.Type}}
{{range .Findings}}- ` + "`{{.Host}}`" + ` -> {{.Count}} events, {{.Severity}}, {{.Evidence}}
{{end}}{{end}}{{end}}`))

type markdownView struct {
	Data
	Title      string
	Talkers    []talkerRow
	Categories []category
}

func markdownCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

// WriteMarkdown renders the header, top talkers, summary table and a
// per-category narrative
func WriteMarkdown(w io.Writer, data Data) error {
	return markdownTemplate.Execute(w, markdownView{
		Data:       data,
		Title:      title,
		Talkers:    data.talkerRows(),
		Categories: data.categories(),
	})
}
