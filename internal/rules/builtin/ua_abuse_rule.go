package builtin

import (
	"regexp"
	"strings"

	"weblog-hunter/internal/model"
)

// DefaultUATokens are user agent fragments of common scanning and exploitation tools
var DefaultUATokens = []string{"sqlmap", "nikto", "dirbuster", "gobuster", "wpscan", "nmap", "curl", "wget"}

// UAAbuseRule flags a missing user agent or one naming an offensive tool
type UAAbuseRule struct {
	name    string
	tokens  []string
	pattern *regexp.Regexp
}

// NewUAAbuseRule builds the rule from DefaultUATokens plus extra, matched case-insensitively
func NewUAAbuseRule(extra []string) *UAAbuseRule {
	return newUAAbuseRule(append(append([]string{}, DefaultUATokens...), extra...))
}

// WithTokens returns a new rule matching the tokens of r plus extra
func (r *UAAbuseRule) WithTokens(extra []string) *UAAbuseRule {
	return newUAAbuseRule(append(r.Tokens(), extra...))
}

func newUAAbuseRule(raw []string) *UAAbuseRule {
	seen := make(map[string]bool)
	var tokens []string
	for _, tok := range raw {
		tok = strings.ToLower(strings.TrimSpace(tok))
		if tok == "" || seen[tok] {
			continue
		}
		seen[tok] = true
		tokens = append(tokens, tok)
	}

	quoted := make([]string, len(tokens))
	for i, tok := range tokens {
		quoted[i] = regexp.QuoteMeta(tok)
	}

	return &UAAbuseRule{
		name:    "ua_abuse",
		tokens:  tokens,
		pattern: regexp.MustCompile(`(?i)(?:` + strings.Join(quoted, "|") + `)`),
	}
}

func (r *UAAbuseRule) Name() string {
	return r.name
}

func (r *UAAbuseRule) Kind() model.FindingType {
	return model.FindingType_UA_ABUSE
}

// Tokens returns the normalized tool tokens the rule matches
func (r *UAAbuseRule) Tokens() []string {
	tokens := make([]string, len(r.tokens))
	copy(tokens, r.tokens)
	return tokens
}

func (r *UAAbuseRule) Match(record *model.Record) bool {
	if !record.HasUserAgent() {
		return true
	}
	return r.pattern.MatchString(*record.UserAgent)
}
