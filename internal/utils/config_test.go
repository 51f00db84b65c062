package utils

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"weblog-hunter/internal/model"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadHunterConfigEmptyPathGivesDefaults(t *testing.T) {
	cfg, err := LoadHunterConfig("")
	require.NoError(t, err)
	assert.Equal(t, GetDefaultHunterConfig(), cfg)

	det := cfg.ToDetectionConfig()
	assert.Equal(t, 10, det.DirbustThreshold)
	assert.Equal(t, 5, det.BruteForceThreshold)
	assert.Equal(t, int64(60), det.WindowSeconds)
	assert.Equal(t, model.DefaultLoginHints, det.LoginHints)
	assert.Equal(t, model.DefaultSeverityPolicy(), det.Severity)
}

func TestLoadHunterConfigYAML(t *testing.T) {
	path := writeConfig(t, "hunter.yaml", `
detection:
  dirbust_threshold: 20
  window_seconds: 30
  login_hints: ["/signin"]
  ua_abuse_tokens: ["masscan"]
  workers: 4
severity:
  dirbust_high: 100
report:
  formats: [csv, md]
alerting:
  min_severity: high
logging:
  level: DEBUG
  format: json
`)

	cfg, err := LoadHunterConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 20, cfg.Detection.DirbustThreshold)
	assert.Equal(t, 5, cfg.Detection.BruteForceThreshold, "missing keys keep defaults")
	assert.Equal(t, int64(30), cfg.Detection.WindowSeconds)
	assert.Equal(t, []string{"/signin"}, cfg.Detection.LoginHints)
	assert.Equal(t, 4, cfg.Detection.Workers)
	assert.Equal(t, 100, cfg.Severity.DirbustHigh)
	assert.Equal(t, 20, cfg.Severity.BruteForceHigh)
	assert.Equal(t, []string{FormatCSV, FormatMarkdown}, cfg.Report.Formats)
	assert.Equal(t, model.Severity_HIGH, cfg.MinSeverity())
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, []string{"masscan"}, cfg.ToDetectionConfig().ExtraUATokens)
}

func TestLoadHunterConfigLegacyFlatJSON(t *testing.T) {
	path := writeConfig(t, "hunter.json", `{
  "dirbust_threshold": 3,
  "bruteforce_threshold": 2,
  "window_seconds": 10,
  "login_hints": ["/auth"]
}`)

	cfg, err := LoadHunterConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Detection.DirbustThreshold)
	assert.Equal(t, 2, cfg.Detection.BruteForceThreshold)
	assert.Equal(t, int64(10), cfg.Detection.WindowSeconds)
	assert.Equal(t, []string{"/auth"}, cfg.Detection.LoginHints)
}

func TestLoadHunterConfigNestedWinsOverFlat(t *testing.T) {
	path := writeConfig(t, "hunter.yml", `
dirbust_threshold: 3
detection:
  dirbust_threshold: 7
`)

	cfg, err := LoadHunterConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Detection.DirbustThreshold)
}

func TestLoadHunterConfigRejectsNonPositive(t *testing.T) {
	tests := map[string]string{
		"nested zero":     "detection:\n  dirbust_threshold: 0\n",
		"nested negative": "detection:\n  window_seconds: -5\n",
		"flat zero":       "bruteforce_threshold: 0\n",
		"severity zero":   "severity:\n  signature_high: 0\n",
		"bands inverted":  "severity:\n  signature_med: 20\n  signature_high: 10\n",
		"bad format":      "report:\n  formats: [pdf]\n",
		"bad severity":    "alerting:\n  min_severity: urgent\n",
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := LoadHunterConfig(writeConfig(t, "hunter.yaml", content))
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidConfig), err.Error())
		})
	}
}

func TestLoadHunterConfigBlankFileGivesDefaults(t *testing.T) {
	for _, name := range []string{"hunter.json", "hunter.yaml"} {
		cfg, err := LoadHunterConfig(writeConfig(t, name, "  \n"))
		require.NoError(t, err, name)
		det := cfg.ToDetectionConfig()
		assert.Equal(t, 10, det.DirbustThreshold, name)
		assert.Equal(t, int64(60), det.WindowSeconds, name)
		assert.Equal(t, model.DefaultLoginHints, det.LoginHints, name)
		assert.Equal(t, model.DefaultSeverityPolicy(), det.Severity, name)
		assert.Equal(t, GetDefaultHunterConfig().Report, cfg.Report, name)
	}
}

func TestLoadHunterConfigRejectsNonMapping(t *testing.T) {
	_, err := LoadHunterConfig(writeConfig(t, "hunter.yaml", "- just\n- a list\n"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = LoadHunterConfig(writeConfig(t, "hunter.json", `[1, 2]`))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestLoadHunterConfigMissingFile(t *testing.T) {
	_, err := LoadHunterConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestSaveConfigRoundTrip(t *testing.T) {
	for _, name := range []string{"out.yaml", "out.json"} {
		t.Run(name, func(t *testing.T) {
			cfg := GetDefaultHunterConfig()
			cfg.Detection.DirbustThreshold = 42
			cfg.Alerting.Telegram.ChatID = "12345"

			path := filepath.Join(t.TempDir(), name)
			require.NoError(t, cfg.SaveConfig(path))

			loaded, err := LoadHunterConfig(path)
			require.NoError(t, err)
			assert.Equal(t, cfg, loaded)
		})
	}
}

func TestNewLogger(t *testing.T) {
	tests := []struct {
		level string
		want  logrus.Level
	}{
		{"", logrus.InfoLevel},
		{"DEBUG", logrus.DebugLevel},
		{"debug", logrus.DebugLevel},
		{"WARN", logrus.WarnLevel},
		{"ERROR", logrus.ErrorLevel},
		{"bogus", logrus.InfoLevel},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NewLogger(tt.level, "").GetLevel(), tt.level)
	}

	_, isJSON := NewLogger("INFO", "json").Formatter.(*logrus.JSONFormatter)
	assert.True(t, isJSON)
	_, isText := NewLogger("INFO", "text").Formatter.(*logrus.TextFormatter)
	assert.True(t, isText)
}

func TestSampleConfigLoads(t *testing.T) {
	cfg, err := LoadHunterConfig(filepath.Join("..", "..", "configs", "weblog_hunter.yaml"))
	require.NoError(t, err)
	assert.Equal(t, []string{"masscan", "zgrab"}, cfg.Detection.UAAbuseTokens)
	assert.Equal(t, model.DefaultSeverityPolicy(), cfg.Severity)
	assert.True(t, cfg.Alerting.Channels.Log)
}
