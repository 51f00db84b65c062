package rules

import (
	"fmt"

	"weblog-hunter/internal/model"
	"weblog-hunter/internal/rules/builtin"
	"weblog-hunter/internal/timebucket"
)

// score turns accumulated statistics into ranked findings.
// Generation order is DIRBUST, BRUTE_FORCE, then one block per matcher,
// hosts in first-seen order; Rank keeps that order for equal keys.
func score(acc *accumulator, cfg model.DetectionConfig, matchers []builtin.Matcher) []model.Finding {
	var findings []model.Finding
	window := acc.dirbust.Window()

	for _, host := range acc.dirbust.Hosts() {
		peak := acc.dirbust.Peak(host)
		if peak < cfg.DirbustThreshold {
			continue
		}
		findings = append(findings, newFinding(model.FindingType_DIRBUST, host, peak,
			cfg.Severity.RateSeverity(peak, cfg.Severity.DirbustHigh), window))
	}

	for _, host := range acc.bruteForce.Hosts() {
		peak := acc.bruteForce.Peak(host)
		if peak < cfg.BruteForceThreshold {
			continue
		}
		findings = append(findings, newFinding(model.FindingType_BRUTE_FORCE, host, peak,
			cfg.Severity.RateSeverity(peak, cfg.Severity.BruteForceHigh), window))
	}

	for i, m := range matchers {
		table := acc.hits[i]
		for _, host := range table.Hosts() {
			count := table.Count(host)
			if count == 0 {
				continue
			}
			findings = append(findings, newFinding(m.Kind(), host, count,
				cfg.Severity.SignatureSeverity(count), window))
		}
	}

	Rank(findings)
	return findings
}

func newFinding(kind model.FindingType, host string, count int, severity model.Severity, window int64) model.Finding {
	return model.Finding{
		Type:     kind,
		Host:     host,
		Count:    count,
		Severity: severity,
		Evidence: Evidence(kind, count, window),
	}
}

// Evidence formats the human-readable trigger description for a finding kind
func Evidence(kind model.FindingType, count int, window int64) string {
	switch kind {
	case model.FindingType_DIRBUST:
		return fmt.Sprintf("peak %d x 404 within %ds", count, window)
	case model.FindingType_BRUTE_FORCE:
		return fmt.Sprintf("peak %d x 401 on login paths within %ds", count, window)
	default:
		return fmt.Sprintf("%d matching pattern(s)", count)
	}
}

func peaks(table *timebucket.Table) map[string]int {
	out := make(map[string]int, table.Len())
	for _, host := range table.Hosts() {
		out[host] = table.Peak(host)
	}
	return out
}
