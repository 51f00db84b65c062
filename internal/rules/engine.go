package rules

import (
	"context"
	"sort"
	"strings"
	"sync"

	"weblog-hunter/internal/model"
	"weblog-hunter/internal/rules/builtin"

	"github.com/sirupsen/logrus"
)

type Engine struct {
	matchers       []builtin.Matcher
	alertNotifiers []NotifierInterface
	workers        int
	lastLogin      map[string]int
	logger         *logrus.Logger
	mu             sync.RWMutex
}

type NotifierInterface interface {
	SendFinding(finding model.Finding) error
}

// Analysis is the outcome of one detection run
type Analysis struct {
	Findings        []model.Finding
	DirbustPeaks    map[string]int
	BruteForcePeaks map[string]int
	// LoginFailures counts 401s on login-like paths per host; not used for scoring
	LoginFailures map[string]int
}

// NewEngine creates an engine with no matchers; call RegisterMatcher or
// RegisterDefaultMatchers before Detect.
func NewEngine(logger *logrus.Logger) *Engine {
	return &Engine{
		matchers:       make([]builtin.Matcher, 0),
		alertNotifiers: make([]NotifierInterface, 0),
		workers:        1,
		logger:         logger,
	}
}

func (e *Engine) RegisterMatcher(matcher builtin.Matcher) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.matchers = append(e.matchers, matcher)
	e.logger.Debugf("Registered matcher: %s", matcher.Name())
}

func (e *Engine) RegisterDefaultMatchers(extraUATokens []string) {
	for _, m := range builtin.DefaultMatchers(extraUATokens) {
		e.RegisterMatcher(m)
	}
}

func (e *Engine) RegisterNotifier(notifier NotifierInterface) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.alertNotifiers = append(e.alertNotifiers, notifier)
}

// SetWorkers sets how many goroutines fold records. Values below 1 mean 1.
func (e *Engine) SetWorkers(n int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if n < 1 {
		n = 1
	}
	e.workers = n
}

// Detect runs Analyze and returns only the ranked findings
func (e *Engine) Detect(ctx context.Context, records []model.Record, cfg model.DetectionConfig) ([]model.Finding, error) {
	analysis, err := e.Analyze(ctx, records, cfg)
	if err != nil {
		return nil, err
	}
	return analysis.Findings, nil
}

// Analyze folds every record, then scores and ranks the findings.
// Findings are only built after all records have been seen.
func (e *Engine) Analyze(ctx context.Context, records []model.Record, cfg model.DetectionConfig) (*Analysis, error) {
	e.mu.RLock()
	matchers := make([]builtin.Matcher, len(e.matchers))
	copy(matchers, e.matchers)
	workers := e.workers
	e.mu.RUnlock()

	matchers = withExtraUATokens(matchers, cfg.ExtraUATokens)
	cfg.Severity = cfg.Severity.WithDefaults()
	hints := lowerAll(cfg.LoginHints)

	var acc *accumulator
	if workers > 1 && len(records) > workers {
		acc = foldParallel(records, cfg.WindowSeconds, hints, matchers, workers)
	} else {
		acc = fold(records, cfg.WindowSeconds, hints, matchers)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	analysis := &Analysis{
		Findings:        score(acc, cfg, matchers),
		DirbustPeaks:    peaks(acc.dirbust),
		BruteForcePeaks: peaks(acc.bruteForce),
		LoginFailures:   acc.loginFailures,
	}

	e.mu.Lock()
	e.lastLogin = acc.loginFailures
	e.mu.Unlock()

	e.logger.Infof("Analyzed %d records: %d findings", len(records), len(analysis.Findings))
	for _, f := range analysis.Findings {
		e.logger.Debugf("[%s] %s count=%d severity=%s", f.Type, f.Host, f.Count, f.Severity)
	}

	return analysis, nil
}

// LoginFailures returns a copy of the per-host login failure counts of the last run
func (e *Engine) LoginFailures() map[string]int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make(map[string]int, len(e.lastLogin))
	for host, n := range e.lastLogin {
		out[host] = n
	}
	return out
}

// EmitFindings hands every finding to the registered notifiers
func (e *Engine) EmitFindings(findings []model.Finding) {
	e.mu.RLock()
	notifiers := make([]NotifierInterface, len(e.alertNotifiers))
	copy(notifiers, e.alertNotifiers)
	e.mu.RUnlock()

	for _, finding := range findings {
		for _, notifier := range notifiers {
			if err := notifier.SendFinding(finding); err != nil {
				e.logger.Errorf("Failed to send finding: %v", err)
			}
		}
	}
}

// Rank sorts findings in place by severity rank then count, both descending.
// The sort is stable so equal keys keep generation order.
func Rank(findings []model.Finding) {
	sort.SliceStable(findings, func(i, j int) bool {
		a, b := findings[i], findings[j]
		if a.Severity.Rank() != b.Severity.Rank() {
			return a.Severity.Rank() > b.Severity.Rank()
		}
		return a.Count > b.Count
	})
}

// withExtraUATokens replaces every UA_ABUSE rule in matchers with one that
// also matches extra. matchers must be a private copy.
func withExtraUATokens(matchers []builtin.Matcher, extra []string) []builtin.Matcher {
	if len(extra) == 0 {
		return matchers
	}
	for i, m := range matchers {
		if ua, ok := m.(*builtin.UAAbuseRule); ok {
			matchers[i] = ua.WithTokens(extra)
		}
	}
	return matchers
}

func lowerAll(values []string) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = strings.ToLower(v)
	}
	return out
}
