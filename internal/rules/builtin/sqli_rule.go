package builtin

import (
	"regexp"
	"strings"

	"weblog-hunter/internal/model"
)

var sqliPattern = regexp.MustCompile(`\bunion(?:\s+all)?\s+select\b|\bor\s+1=1\b|\bsleep\s*\(`)

// SQLIRule flags UNION SELECT, OR 1=1 and SLEEP( payloads in the request path
type SQLIRule struct {
	name    string
	pattern *regexp.Regexp
}

func NewSQLIRule() *SQLIRule {
	return &SQLIRule{
		name:    "sqli",
		pattern: sqliPattern,
	}
}

func (r *SQLIRule) Name() string {
	return r.name
}

func (r *SQLIRule) Kind() model.FindingType {
	return model.FindingType_SQLI
}

func (r *SQLIRule) Match(record *model.Record) bool {
	return r.pattern.MatchString(strings.ToLower(record.Path))
}
