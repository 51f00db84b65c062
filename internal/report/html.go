package report

import (
	"html/template"
	"io"
)

const htmlStyle = `
body{font-family:system-ui,Segoe UI,Roboto,Helvetica,Arial,sans-serif;margin:24px}
h1{font-size:24px;margin-bottom:8px}
.meta{color:#555;margin-bottom:20px}
table{border-collapse:collapse;width:100%}
th,td{border:1px solid #ddd;padding:8px}
th{background:#f5f5f5;text-align:left}
.badge{padding:2px 8px;border-radius:12px;font-size:12px;display:inline-block}
.badge.low{background:#e6f4ea}
.badge.med{background:#fff4e5}
.badge.high{background:#fdecea}
.code{font-family:ui-monospace,SFMono-Regular,Menlo,monospace;background:#f6f8fa;padding:0 6px;border-radius:6px}
.num{text-align:right}
.section{margin-top:24px}
`

var htmlTemplate = template.Must(template.New("html").Parse(`<!doctype html>
<html lang="en"><meta charset="utf-8"><title>{{.Title}}</title>
<style>{{.Style}}</style>
<body>
  <h1>{{.Title}}</h1>
  <div class="meta">
    <div><strong>Input:</strong> <span class="code">{{.Meta.Input}}</span></div>
    <div><strong>Generated:</strong> <span class="code">{{.Meta.Generated}}</span></div>
    {{- if .Meta.RunID}}
    <div><strong>Run:</strong> <span class="code">{{.Meta.RunID}}</span></div>
    {{- end}}
  </div>
  <div class="section">
    <h2>Top Talkers</h2>
    <table>
      <thead><tr><th>Host</th><th>Total</th><th>4xx</th><th>5xx</th><th>Enrichment</th></tr></thead>
      <tbody>
      {{- range .Talkers}}
        <tr><td><span class="code">{{.Host}}</span></td><td class="num">{{.Total}}</td><td class="num">{{.Count4xx}}</td><td class="num">{{.Count5xx}}</td><td>{{.Enrichment}}</td></tr>
      {{- else}}
        <tr><td colspan="5"><em>No data.</em></td></tr>
      {{- end}}
      </tbody>
    </table>
  </div>
  <div class="section">
    <h2>Summary</h2>
    <table>
      <thead><tr><th>Type</th><th>Host</th><th>Count</th><th>Severity</th><th>Evidence</th></tr></thead>
      <tbody>
      {{- range .Findings}}
        <tr><td>{{.Type}}</td><td><span class="code">{{.Host}}</span></td><td class="num">{{.Count}}</td><td><span class="badge {{.Severity}}">{{.Severity.Label}}</span></td><td>{{.Evidence}}</td></tr>
      {{- else}}
        <tr><td colspan="5"><em>No suspicious patterns with default heuristics.</em></td></tr>
      {{- end}}
      </tbody>
    </table>
  </div>
</body></html>
`))

type htmlView struct {
	Data
	Title   string
	Style   template.CSS
	Talkers []talkerRow
}

// WriteHTML renders a standalone page; all values are escaped by html/template
func WriteHTML(w io.Writer, data Data) error {
	return htmlTemplate.Execute(w, htmlView{
		Data:    data,
		Title:   title,
		Style:   template.CSS(htmlStyle),
		Talkers: data.talkerRows(),
	})
}
