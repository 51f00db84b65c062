// Package builtin holds the signature matchers run against every record.
package builtin

import (
	"weblog-hunter/internal/model"
)

// Matcher is a stateless predicate over a single record.
// A matcher fires at most once per record.
type Matcher interface {
	Name() string
	Kind() model.FindingType
	Match(record *model.Record) bool
}

// DefaultMatchers returns the signature matchers in ranking order:
// SQLI, LFI, RFI, SHELLSHOCK, UA_ABUSE
func DefaultMatchers(extraUATokens []string) []Matcher {
	return []Matcher{
		NewSQLIRule(),
		NewLFIRule(),
		NewRFIRule(),
		NewShellshockRule(),
		NewUAAbuseRule(extraUATokens),
	}
}

// HitTable counts matches per host, remembering hosts in first-seen order
type HitTable struct {
	counts map[string]int
	hosts  []string
}

func NewHitTable() *HitTable {
	return &HitTable{
		counts: make(map[string]int),
	}
}

func (h *HitTable) Add(host string, n int) {
	if _, exists := h.counts[host]; !exists {
		h.hosts = append(h.hosts, host)
	}
	h.counts[host] += n
}

// Merge adds every count of other into h
func (h *HitTable) Merge(other *HitTable) {
	for _, host := range other.hosts {
		h.Add(host, other.counts[host])
	}
}

func (h *HitTable) Count(host string) int {
	return h.counts[host]
}

// Hosts returns hosts with at least one hit in first-seen order
func (h *HitTable) Hosts() []string {
	hosts := make([]string, len(h.hosts))
	copy(hosts, h.hosts)
	return hosts
}

func (h *HitTable) Len() int {
	return len(h.hosts)
}
