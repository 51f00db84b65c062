package rules

import (
	"context"
	"errors"
	"fmt"
	"io"
	"testing"
	"time"

	"weblog-hunter/internal/model"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var base = time.Date(2020, 10, 10, 13, 55, 0, 0, time.UTC)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func newTestEngine() *Engine {
	engine := NewEngine(testLogger())
	engine.RegisterDefaultMatchers(nil)
	return engine
}

func mkRec(host string, secs int, path string, status int, ua string) model.Record {
	rec := model.Record{
		Host:     host,
		Time:     base.Add(time.Duration(secs) * time.Second),
		Method:   "GET",
		Path:     path,
		Protocol: "HTTP/1.1",
		Status:   status,
	}
	if ua != "" {
		rec.UserAgent = &ua
	}
	return rec
}

func cfgWith(mutate func(*model.DetectionConfig)) model.DetectionConfig {
	cfg := model.DefaultDetectionConfig()
	if mutate != nil {
		mutate(&cfg)
	}
	return cfg
}

func ofType(findings []model.Finding, kind model.FindingType) []model.Finding {
	var out []model.Finding
	for _, f := range findings {
		if f.Type == kind {
			out = append(out, f)
		}
	}
	return out
}

func TestDirbustRateBucket(t *testing.T) {
	var recs []model.Record
	for i := 0; i < 50; i += 6 {
		recs = append(recs, mkRec("192.0.2.55", i, fmt.Sprintf("/not-here-%d", i), 404, "Mozilla/5.0"))
	}
	require.Len(t, recs, 9)

	findings, err := newTestEngine().Detect(context.Background(), recs, cfgWith(func(c *model.DetectionConfig) {
		c.DirbustThreshold = 8
		c.WindowSeconds = 60
	}))
	require.NoError(t, err)

	require.Len(t, findings, 1)
	assert.Equal(t, model.Finding{
		Type:     model.FindingType_DIRBUST,
		Host:     "192.0.2.55",
		Count:    9,
		Severity: model.Severity_MED,
		Evidence: "peak 9 x 404 within 60s",
	}, findings[0])
}

func TestBruteForceRateBucket(t *testing.T) {
	var recs []model.Record
	for _, s := range []int{0, 5, 10, 15} {
		recs = append(recs, mkRec("203.0.113.9", s, "/login", 401, "curl/7.68.0"))
	}

	findings, err := newTestEngine().Detect(context.Background(), recs, cfgWith(func(c *model.DetectionConfig) {
		c.BruteForceThreshold = 4
		c.WindowSeconds = 60
	}))
	require.NoError(t, err)

	brute := ofType(findings, model.FindingType_BRUTE_FORCE)
	require.Len(t, brute, 1)
	assert.Equal(t, "203.0.113.9", brute[0].Host)
	assert.Equal(t, 4, brute[0].Count)
	assert.Equal(t, model.Severity_MED, brute[0].Severity)
	assert.Equal(t, "peak 4 x 401 on login paths within 60s", brute[0].Evidence)

	// curl is an offensive-tool token, every request counts once
	ua := ofType(findings, model.FindingType_UA_ABUSE)
	require.Len(t, ua, 1)
	assert.Equal(t, 4, ua[0].Count)
}

func TestSingleLFIRequest(t *testing.T) {
	recs := []model.Record{mkRec("198.51.100.7", 0, "/../../etc/passwd", 200, "Mozilla/5.0")}

	findings, err := newTestEngine().Detect(context.Background(), recs, model.DefaultDetectionConfig())
	require.NoError(t, err)

	require.Len(t, findings, 1)
	assert.Equal(t, model.FindingType_LFI, findings[0].Type)
	assert.Equal(t, 1, findings[0].Count)
	assert.Equal(t, model.Severity_LOW, findings[0].Severity)
	assert.Equal(t, "1 matching pattern(s)", findings[0].Evidence)
}

func TestBareDetectionConfigUsesDefaultSeverityBands(t *testing.T) {
	var recs []model.Record
	for i := 0; i < 50; i += 6 {
		recs = append(recs, mkRec("192.0.2.55", i, fmt.Sprintf("/not-here-%d", i), 404, "Mozilla/5.0"))
	}
	recs = append(recs, mkRec("198.51.100.7", 55, "/../../etc/passwd", 200, "Mozilla/5.0"))

	cfg := model.DetectionConfig{
		DirbustThreshold:    8,
		BruteForceThreshold: 4,
		WindowSeconds:       60,
		LoginHints:          []string{"/login"},
	}
	findings, err := newTestEngine().Detect(context.Background(), recs, cfg)
	require.NoError(t, err)

	require.Len(t, findings, 2)
	assert.Equal(t, model.FindingType_DIRBUST, findings[0].Type)
	assert.Equal(t, 9, findings[0].Count)
	assert.Equal(t, model.Severity_MED, findings[0].Severity)
	assert.Equal(t, model.FindingType_LFI, findings[1].Type)
	assert.Equal(t, model.Severity_LOW, findings[1].Severity)
}

func TestExtraUATokensApplyPerRun(t *testing.T) {
	engine := newTestEngine()
	recs := []model.Record{mkRec("192.0.2.77", 0, "/", 200, "masscan/1.3")}

	findings, err := engine.Detect(context.Background(), recs, model.DefaultDetectionConfig())
	require.NoError(t, err)
	assert.Empty(t, findings)

	findings, err = engine.Detect(context.Background(), recs, cfgWith(func(c *model.DetectionConfig) {
		c.ExtraUATokens = []string{"masscan"}
	}))
	require.NoError(t, err)
	require.Len(t, findings, 1)
	assert.Equal(t, model.FindingType_UA_ABUSE, findings[0].Type)
	assert.Equal(t, "192.0.2.77", findings[0].Host)

	// registered matchers are left untouched
	findings, err = engine.Detect(context.Background(), recs, model.DefaultDetectionConfig())
	require.NoError(t, err)
	assert.Empty(t, findings)
}

func TestDirbustThresholdBoundary(t *testing.T) {
	build := func(n int) []model.Record {
		var recs []model.Record
		for i := 0; i < n; i++ {
			recs = append(recs, mkRec("192.0.2.1", i, "/missing", 404, "Mozilla/5.0"))
		}
		return recs
	}
	cfg := cfgWith(func(c *model.DetectionConfig) { c.DirbustThreshold = 8 })
	engine := newTestEngine()

	below, err := engine.Detect(context.Background(), build(7), cfg)
	require.NoError(t, err)
	assert.Empty(t, ofType(below, model.FindingType_DIRBUST))

	at, err := engine.Detect(context.Background(), build(8), cfg)
	require.NoError(t, err)
	require.Len(t, ofType(at, model.FindingType_DIRBUST), 1)
}

func TestBurstStraddlingBoundaryIsSplit(t *testing.T) {
	// 10 404s at 55..64s: 5 land in each minute bucket
	var recs []model.Record
	for s := 55; s < 65; s++ {
		recs = append(recs, mkRec("192.0.2.2", s, "/x", 404, "Mozilla/5.0"))
	}

	analysis, err := newTestEngine().Analyze(context.Background(), recs, cfgWith(func(c *model.DetectionConfig) { c.DirbustThreshold = 6 }))
	require.NoError(t, err)
	assert.Empty(t, analysis.Findings)
	assert.Equal(t, 5, analysis.DirbustPeaks["192.0.2.2"])
}

func TestRateSeverityBands(t *testing.T) {
	var recs []model.Record
	for i := 0; i < 50; i++ {
		recs = append(recs, mkRec("192.0.2.3", 0, "/x", 404, "Mozilla/5.0"))
	}
	for i := 0; i < 20; i++ {
		recs = append(recs, mkRec("192.0.2.4", 0, "/wp-login.php", 401, "Mozilla/5.0"))
	}

	findings, err := newTestEngine().Detect(context.Background(), recs, model.DefaultDetectionConfig())
	require.NoError(t, err)
	require.Len(t, findings, 2)
	assert.Equal(t, model.FindingType_DIRBUST, findings[0].Type)
	assert.Equal(t, model.Severity_HIGH, findings[0].Severity)
	assert.Equal(t, model.FindingType_BRUTE_FORCE, findings[1].Type)
	assert.Equal(t, model.Severity_HIGH, findings[1].Severity)
}

func TestCustomSeverityPolicy(t *testing.T) {
	recs := []model.Record{
		mkRec("192.0.2.5", 0, "/?q=sleep(1)", 200, "Mozilla/5.0"),
		mkRec("192.0.2.5", 1, "/?q=sleep(2)", 200, "Mozilla/5.0"),
	}
	cfg := cfgWith(func(c *model.DetectionConfig) {
		c.Severity.SignatureMed = 5
		c.Severity.SignatureHigh = 2
	})

	findings, err := newTestEngine().Detect(context.Background(), recs, cfg)
	require.NoError(t, err)
	require.Len(t, findings, 1)
	assert.Equal(t, model.Severity_HIGH, findings[0].Severity)
}

func TestSignatureSeverityBands(t *testing.T) {
	var recs []model.Record
	add := func(host string, n int) {
		for i := 0; i < n; i++ {
			recs = append(recs, mkRec(host, i, "/?id=1 or 1=1", 200, "Mozilla/5.0"))
		}
	}
	add("10.0.0.1", 1)
	add("10.0.0.2", 2)
	add("10.0.0.3", 9)
	add("10.0.0.4", 10)

	findings, err := newTestEngine().Detect(context.Background(), recs, model.DefaultDetectionConfig())
	require.NoError(t, err)
	require.Len(t, findings, 4)

	got := map[string]model.Severity{}
	for _, f := range findings {
		got[f.Host] = f.Severity
	}
	assert.Equal(t, map[string]model.Severity{
		"10.0.0.1": model.Severity_LOW,
		"10.0.0.2": model.Severity_MED,
		"10.0.0.3": model.Severity_MED,
		"10.0.0.4": model.Severity_HIGH,
	}, got)
}

func TestLoginHintsCaseInsensitive(t *testing.T) {
	var recs []model.Record
	for i := 0; i < 5; i++ {
		recs = append(recs, mkRec("192.0.2.6", i, "/WP-LOGIN.PHP", 401, "Mozilla/5.0"))
	}
	recs = append(recs, mkRec("192.0.2.6", 6, "/api/data", 401, "Mozilla/5.0"))

	engine := newTestEngine()
	analysis, err := engine.Analyze(context.Background(), recs, cfgWith(func(c *model.DetectionConfig) {
		c.LoginHints = []string{"/WP-Login.php"}
	}))
	require.NoError(t, err)

	assert.Equal(t, 5, analysis.LoginFailures["192.0.2.6"])
	assert.Equal(t, map[string]int{"192.0.2.6": 5}, engine.LoginFailures())
	require.Len(t, ofType(analysis.Findings, model.FindingType_BRUTE_FORCE), 1)
}

func TestFindingsRankedAndStable(t *testing.T) {
	var recs []model.Record
	// BRUTE_FORCE med 5, generated before signatures
	for i := 0; i < 5; i++ {
		recs = append(recs, mkRec("h-brute", i, "/login", 401, "Mozilla/5.0"))
	}
	// SQLI med 5 and LFI med 5: ties with the brute force finding
	for i := 0; i < 5; i++ {
		recs = append(recs, mkRec("h-sqli", i, "/?a=1 union select 2", 200, "Mozilla/5.0"))
		recs = append(recs, mkRec("h-lfi", i, "/../../x", 200, "Mozilla/5.0"))
	}
	// low single hits
	recs = append(recs, mkRec("h-rfi", 0, "/?u=http://evil.example/a", 200, "Mozilla/5.0"))
	recs = append(recs, mkRec("h-ua", 0, "/", 200, ""))
	// high signature
	for i := 0; i < 12; i++ {
		recs = append(recs, mkRec("h-shock", i, "/cgi-bin/x", 200, "() { :; };"))
	}

	findings, err := newTestEngine().Detect(context.Background(), recs, model.DefaultDetectionConfig())
	require.NoError(t, err)

	var order []string
	for _, f := range findings {
		order = append(order, f.Type.String()+"/"+f.Host)
	}
	assert.Equal(t, []string{
		"SHELLSHOCK/h-shock",
		"BRUTE_FORCE/h-brute",
		"SQLI/h-sqli",
		"LFI/h-lfi",
		"RFI/h-rfi",
		"UA_ABUSE/h-ua",
	}, order)

	for i := 1; i < len(findings); i++ {
		prev, cur := findings[i-1], findings[i]
		require.GreaterOrEqual(t, prev.Severity.Rank(), cur.Severity.Rank())
		if prev.Severity == cur.Severity {
			require.GreaterOrEqual(t, prev.Count, cur.Count)
		}
	}
}

func TestHostInMultipleFindings(t *testing.T) {
	var recs []model.Record
	for i := 0; i < 10; i++ {
		recs = append(recs, mkRec("192.0.2.9", i, "/?id=1 union select pw", 404, "sqlmap/1.4"))
	}

	findings, err := newTestEngine().Detect(context.Background(), recs, model.DefaultDetectionConfig())
	require.NoError(t, err)

	var kinds []model.FindingType
	for _, f := range findings {
		assert.Equal(t, "192.0.2.9", f.Host)
		kinds = append(kinds, f.Type)
	}
	assert.ElementsMatch(t, []model.FindingType{
		model.FindingType_DIRBUST, model.FindingType_SQLI, model.FindingType_UA_ABUSE,
	}, kinds)
}

func TestParallelFoldMatchesSequential(t *testing.T) {
	var recs []model.Record
	hosts := []string{"a", "b", "c", "d", "e"}
	for i := 0; i < 997; i++ {
		host := hosts[(i*7)%len(hosts)]
		switch i % 4 {
		case 0:
			recs = append(recs, mkRec(host, i, "/missing", 404, "Mozilla/5.0"))
		case 1:
			recs = append(recs, mkRec(host, i, "/admin", 401, "Mozilla/5.0"))
		case 2:
			recs = append(recs, mkRec(host, i, "/?q=sleep(1)", 200, "nikto"))
		default:
			recs = append(recs, mkRec(host, i, "/", 200, ""))
		}
	}
	cfg := cfgWith(func(c *model.DetectionConfig) {
		c.DirbustThreshold = 2
		c.BruteForceThreshold = 2
	})

	sequential := newTestEngine()
	want, err := sequential.Analyze(context.Background(), recs, cfg)
	require.NoError(t, err)

	for _, workers := range []int{2, 3, 8} {
		parallel := newTestEngine()
		parallel.SetWorkers(workers)
		got, err := parallel.Analyze(context.Background(), recs, cfg)
		require.NoError(t, err)
		assert.Equal(t, want, got, "workers=%d", workers)
	}
}

func TestAnalyzeCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestEngine().Detect(ctx, []model.Record{mkRec("x", 0, "/", 200, "")}, model.DefaultDetectionConfig())
	assert.True(t, errors.Is(err, context.Canceled))
}

type recordingNotifier struct {
	sent []model.Finding
	err  error
}

func (n *recordingNotifier) SendFinding(f model.Finding) error {
	n.sent = append(n.sent, f)
	return n.err
}

func TestEmitFindings(t *testing.T) {
	engine := newTestEngine()
	ok := &recordingNotifier{}
	failing := &recordingNotifier{err: errors.New("boom")}
	engine.RegisterNotifier(failing)
	engine.RegisterNotifier(ok)

	findings := []model.Finding{
		{Type: model.FindingType_SQLI, Host: "a", Count: 1},
		{Type: model.FindingType_LFI, Host: "b", Count: 1},
	}
	engine.EmitFindings(findings)

	assert.Equal(t, findings, ok.sent)
	assert.Equal(t, findings, failing.sent)
}

func TestEvidence(t *testing.T) {
	assert.Equal(t, "peak 12 x 404 within 30s", Evidence(model.FindingType_DIRBUST, 12, 30))
	assert.Equal(t, "peak 3 x 401 on login paths within 60s", Evidence(model.FindingType_BRUTE_FORCE, 3, 60))
	assert.Equal(t, "7 matching pattern(s)", Evidence(model.FindingType_RFI, 7, 60))
}
