package storage

import (
	"sync"
	"time"

	"weblog-hunter/internal/model"
	"weblog-hunter/internal/pipeline"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Storage keeps the one completed run the API serves
type Storage struct {
	mu       sync.RWMutex
	run      *pipeline.Result
	findings []Finding
	logger   *logrus.Logger
}

// Finding is a model.Finding with a stable identifier for the API
type Finding struct {
	ID string `json:"id"`
	model.Finding
}

// FindingFilter narrows GetFindings; nil or empty fields match everything
type FindingFilter struct {
	Type     *model.FindingType
	Severity *model.Severity
	Host     string
	Limit    int
}

type Summary struct {
	RunID         string         `json:"run_id"`
	Input         string         `json:"input"`
	Generated     time.Time      `json:"generated"`
	Records       int            `json:"records"`
	Findings      int            `json:"findings"`
	BySeverity    map[string]int `json:"by_severity"`
	ByType        map[string]int `json:"by_type"`
	RateBased     int            `json:"rate_based"`
	Signature     int            `json:"signature"`
	StatusClasses map[string]int `json:"status_classes"`
	LoginFailures map[string]int `json:"login_failures"`
	DurationMS    int64          `json:"duration_ms"`
}

func NewStorage(logger *logrus.Logger) *Storage {
	return &Storage{
		findings: make([]Finding, 0),
		logger:   logger,
	}
}

// SetRun replaces the served run and assigns a fresh ID to every finding
func (s *Storage) SetRun(result *pipeline.Result) {
	findings := make([]Finding, len(result.Findings))
	for i, f := range result.Findings {
		findings[i] = Finding{ID: uuid.NewString(), Finding: f}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.run = result
	s.findings = findings

	s.logger.Infof("Loaded run %s: %d findings from %s", result.RunID, len(findings), result.Input)
}

func (s *Storage) HasRun() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.run != nil
}

// GetFindings returns matching findings in ranked order
func (s *Storage) GetFindings(filter FindingFilter) []Finding {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]Finding, 0)
	for _, f := range s.findings {
		if filter.Limit > 0 && len(result) >= filter.Limit {
			break
		}

		if filter.Type != nil && *filter.Type != f.Type {
			continue
		}
		if filter.Severity != nil && *filter.Severity != f.Severity {
			continue
		}
		if filter.Host != "" && f.Host != filter.Host {
			continue
		}

		result = append(result, f)
	}

	return result
}

func (s *Storage) GetFindingByID(id string) *Finding {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for i := range s.findings {
		if s.findings[i].ID == id {
			f := s.findings[i]
			return &f
		}
	}
	return nil
}

func (s *Storage) GetTopTalkers() []model.TopTalker {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.run == nil {
		return []model.TopTalker{}
	}
	out := make([]model.TopTalker, len(s.run.TopTalkers))
	copy(out, s.run.TopTalkers)
	return out
}

// GetSummary aggregates the run; ok is false when no run is loaded
func (s *Storage) GetSummary() (Summary, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.run == nil {
		return Summary{}, false
	}

	summary := Summary{
		RunID:         s.run.RunID,
		Input:         s.run.Input,
		Generated:     s.run.Generated,
		Records:       s.run.Records,
		Findings:      len(s.findings),
		BySeverity:    map[string]int{"low": 0, "med": 0, "high": 0},
		ByType:        make(map[string]int),
		StatusClasses: s.run.StatusClasses,
		LoginFailures: s.run.LoginFailures,
		DurationMS:    s.run.Duration.Milliseconds(),
	}
	for _, f := range s.findings {
		summary.BySeverity[f.Severity.String()]++
		summary.ByType[f.Type.String()]++
		if f.Type.IsRateBased() {
			summary.RateBased++
		} else {
			summary.Signature++
		}
	}

	return summary, true
}
