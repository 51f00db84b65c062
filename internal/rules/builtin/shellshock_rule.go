package builtin

import (
	"regexp"

	"weblog-hunter/internal/model"
)

var shellshockPattern = regexp.MustCompile(`\(\)\s*\{\s*:\s*;\s*\}`)

// ShellshockRule flags the "() { :; }" function definition in the user agent
type ShellshockRule struct {
	name    string
	pattern *regexp.Regexp
}

func NewShellshockRule() *ShellshockRule {
	return &ShellshockRule{
		name:    "shellshock",
		pattern: shellshockPattern,
	}
}

func (r *ShellshockRule) Name() string {
	return r.name
}

func (r *ShellshockRule) Kind() model.FindingType {
	return model.FindingType_SHELLSHOCK
}

func (r *ShellshockRule) Match(record *model.Record) bool {
	if record.UserAgent == nil {
		return false
	}
	return r.pattern.MatchString(*record.UserAgent)
}
