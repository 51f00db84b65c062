package report

import (
	"encoding/csv"
	"io"
	"strconv"

	"weblog-hunter/internal/model"
)

var csvHeader = []string{"type", "host", "count", "severity", "evidence"}

// WriteCSV writes one row per finding under a fixed header
func WriteCSV(w io.Writer, findings []model.Finding) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, f := range findings {
		row := []string{f.Type.String(), f.Host, strconv.Itoa(f.Count), f.Severity.String(), f.Evidence}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
