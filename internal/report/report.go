// Package report renders findings and top talkers as CSV, Markdown and HTML.
package report

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"weblog-hunter/internal/enrich"
	"weblog-hunter/internal/model"
)

// StampLayout formats the UTC run timestamp used in file names and headers
const StampLayout = "20060102T150405Z"

const title = "Web Log Threat Hunter - Findings"

// Meta describes the run a report belongs to
type Meta struct {
	Input     string
	Generated string
	RunID     string
}

// NewMeta stamps a run at t in UTC
func NewMeta(input string, t time.Time, runID string) Meta {
	return Meta{Input: input, Generated: Stamp(t), RunID: runID}
}

func Stamp(t time.Time) string {
	return t.UTC().Format(StampLayout)
}

// FileName returns webloghunter_<stamp>.<ext>
func FileName(stamp, ext string) string {
	return fmt.Sprintf("webloghunter_%s.%s", stamp, ext)
}

// Data is what the Markdown and HTML templates render
type Data struct {
	Meta       Meta
	Findings   []model.Finding
	TopTalkers []model.TopTalker
}

type talkerRow struct {
	model.TopTalker
	Enrichment string
}

type category struct {
	Type     model.FindingType
	Findings []model.Finding
}

func (d Data) talkerRows() []talkerRow {
	rows := make([]talkerRow, len(d.TopTalkers))
	for i, t := range d.TopTalkers {
		rows[i] = talkerRow{TopTalker: t, Enrichment: enrich.Label(t.Host)}
	}
	return rows
}

// categories groups findings by type in order of first appearance
func (d Data) categories() []category {
	var out []category
	index := make(map[model.FindingType]int)
	for _, f := range d.Findings {
		pos, ok := index[f.Type]
		if !ok {
			pos = len(out)
			index[f.Type] = pos
			out = append(out, category{Type: f.Type})
		}
		out[pos].Findings = append(out[pos].Findings, f)
	}
	return out
}

// Writer renders one report format
type Writer func(w io.Writer, data Data) error

// formats maps the configured format names to their writer and file extension
var formats = map[string]struct {
	ext   string
	write Writer
}{
	"csv":      {"csv", func(w io.Writer, d Data) error { return WriteCSV(w, d.Findings) }},
	"markdown": {"md", WriteMarkdown},
	"html":     {"html", WriteHTML},
}

// WriteFiles writes every requested format into dir, creating it when needed,
// and returns the written paths in the order requested.
func WriteFiles(dir string, data Data, formatNames []string) ([]string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create report directory %s: %w", dir, err)
	}

	var written []string
	for _, name := range formatNames {
		format, ok := formats[strings.ToLower(name)]
		if !ok {
			return written, fmt.Errorf("unknown report format %q", name)
		}

		path := filepath.Join(dir, FileName(data.Meta.Generated, format.ext))
		if err := writeFile(path, data, format.write); err != nil {
			return written, err
		}
		written = append(written, path)
	}

	return written, nil
}

func writeFile(path string, data Data, write Writer) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create report %s: %w", path, err)
	}

	if err := write(f, data); err != nil {
		f.Close()
		return fmt.Errorf("failed to write report %s: %w", path, err)
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close report %s: %w", path, err)
	}
	return nil
}
