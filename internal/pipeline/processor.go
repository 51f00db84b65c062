package pipeline

import (
	"context"
	"fmt"
	"io"
	"time"

	"weblog-hunter/internal/alert"
	"weblog-hunter/internal/model"
	"weblog-hunter/internal/parser"
	"weblog-hunter/internal/rules"
	"weblog-hunter/internal/stats"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Result is everything one run over a log produced
type Result struct {
	Input         string            `json:"input"`
	RunID         string            `json:"run_id"`
	Generated     time.Time         `json:"generated"`
	Records       int               `json:"records"`
	Findings      []model.Finding   `json:"findings"`
	TopTalkers    []model.TopTalker `json:"top_talkers"`
	LoginFailures map[string]int    `json:"login_failures"`
	StatusClasses map[string]int    `json:"status_classes"`
	Duration      time.Duration     `json:"duration_ns"`
}

// Processor parses a log, runs detection, summarizes top talkers and emits findings
type Processor struct {
	engine     *rules.Engine
	cfg        model.DetectionConfig
	topTalkers int
	metrics    *alert.Metrics
	logger     *logrus.Logger
	now        func() time.Time
}

// NewProcessor creates a new processor instance. metrics may be nil.
func NewProcessor(engine *rules.Engine, cfg model.DetectionConfig, topTalkers int, metrics *alert.Metrics, logger *logrus.Logger) *Processor {
	return &Processor{
		engine:     engine,
		cfg:        cfg,
		topTalkers: topTalkers,
		metrics:    metrics,
		logger:     logger,
		now:        time.Now,
	}
}

// Process parses the log at input and analyzes it
func (p *Processor) Process(ctx context.Context, input string) (*Result, error) {
	records, err := parser.ParseFile(input)
	if err != nil {
		return nil, err
	}
	p.logger.Debugf("Parsed %d records from %s", len(records), input)
	return p.run(ctx, input, records)
}

// ProcessReader is Process for an already opened log; name labels the result
func (p *Processor) ProcessReader(ctx context.Context, name string, r io.Reader) (*Result, error) {
	records, err := parser.ParseAll(r)
	if err != nil {
		return nil, err
	}
	return p.run(ctx, name, records)
}

func (p *Processor) run(ctx context.Context, input string, records []model.Record) (*Result, error) {
	started := p.now()

	analysis, err := p.engine.Analyze(ctx, records, p.cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to analyze %s: %w", input, err)
	}
	elapsed := p.now().Sub(started)

	result := &Result{
		Input:         input,
		RunID:         uuid.NewString(),
		Generated:     started.UTC(),
		Records:       len(records),
		Findings:      analysis.Findings,
		TopTalkers:    stats.TopTalkers(records, p.topTalkers),
		LoginFailures: analysis.LoginFailures,
		StatusClasses: statusClasses(records),
		Duration:      elapsed,
	}

	if p.metrics != nil {
		p.metrics.RecordRecords(records)
		p.metrics.ObserveDetection(elapsed)
		p.metrics.SetPeaks(model.FindingType_DIRBUST, analysis.DirbustPeaks)
		p.metrics.SetPeaks(model.FindingType_BRUTE_FORCE, analysis.BruteForcePeaks)
	}

	p.engine.EmitFindings(result.Findings)

	p.logger.WithFields(logrus.Fields{
		"run_id":   result.RunID,
		"records":  result.Records,
		"findings": len(result.Findings),
	}).Info("Run completed")

	return result, nil
}

func statusClasses(records []model.Record) map[string]int {
	out := make(map[string]int)
	for i := range records {
		out[fmt.Sprintf("%dxx", records[i].StatusClass())]++
	}
	return out
}
