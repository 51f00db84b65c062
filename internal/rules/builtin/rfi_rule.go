package builtin

import (
	"regexp"

	"weblog-hunter/internal/model"
)

// Scheme is matched case-sensitively on the raw path.
// Legitimate redirect or callback parameters also match; see DESIGN.md.
var rfiPattern = regexp.MustCompile(`https?://[^/\s]+/.*`)

// RFIRule flags an absolute remote URL followed by a path embedded in the request path
type RFIRule struct {
	name    string
	pattern *regexp.Regexp
}

func NewRFIRule() *RFIRule {
	return &RFIRule{
		name:    "rfi",
		pattern: rfiPattern,
	}
}

func (r *RFIRule) Name() string {
	return r.name
}

func (r *RFIRule) Kind() model.FindingType {
	return model.FindingType_RFI
}

func (r *RFIRule) Match(record *model.Record) bool {
	return r.pattern.MatchString(record.Path)
}
