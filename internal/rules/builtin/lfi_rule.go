package builtin

import (
	"regexp"
	"strings"

	"weblog-hunter/internal/model"
)

var lfiPattern = regexp.MustCompile(`(?:\.\./){2,}|/etc/passwd`)

// LFIRule flags repeated ../ traversal and /etc/passwd references
type LFIRule struct {
	name    string
	pattern *regexp.Regexp
}

func NewLFIRule() *LFIRule {
	return &LFIRule{
		name:    "lfi",
		pattern: lfiPattern,
	}
}

func (r *LFIRule) Name() string {
	return r.name
}

func (r *LFIRule) Kind() model.FindingType {
	return model.FindingType_LFI
}

func (r *LFIRule) Match(record *model.Record) bool {
	return r.pattern.MatchString(strings.ToLower(record.Path))
}
