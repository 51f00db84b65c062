package utils

import (
	"errors"

	"weblog-hunter/internal/model"
)

// ErrInvalidConfig marks a configuration value that cannot be used
var ErrInvalidConfig = errors.New("invalid config")

// HunterConfig is the on-disk configuration of weblog-hunter
type HunterConfig struct {
	Detection DetectionYAMLConfig  `yaml:"detection" json:"detection"`
	Severity  model.SeverityPolicy `yaml:"severity" json:"severity"`
	Report    ReportYAMLConfig     `yaml:"report" json:"report"`
	Alerting  AlertingYAMLConfig   `yaml:"alerting" json:"alerting"`
	Metrics   MetricsYAMLConfig    `yaml:"metrics" json:"metrics"`
	Logging   LoggingYAMLConfig    `yaml:"logging" json:"logging"`
}

type DetectionYAMLConfig struct {
	DirbustThreshold    int      `yaml:"dirbust_threshold" json:"dirbust_threshold"`
	BruteForceThreshold int      `yaml:"bruteforce_threshold" json:"bruteforce_threshold"`
	WindowSeconds       int64    `yaml:"window_seconds" json:"window_seconds"`
	LoginHints          []string `yaml:"login_hints" json:"login_hints"`
	UAAbuseTokens       []string `yaml:"ua_abuse_tokens" json:"ua_abuse_tokens"`
	Workers             int      `yaml:"workers" json:"workers"`
}

type ReportYAMLConfig struct {
	Dir        string   `yaml:"dir" json:"dir"`
	TopTalkers int      `yaml:"top_talkers" json:"top_talkers"`
	Formats    []string `yaml:"formats" json:"formats"`
}

type AlertingYAMLConfig struct {
	Channels    AlertChannelsYAML  `yaml:"channels" json:"channels"`
	MinSeverity string             `yaml:"min_severity" json:"min_severity"`
	Telegram    TelegramYAMLConfig `yaml:"telegram" json:"telegram"`
}

type AlertChannelsYAML struct {
	Log      bool `yaml:"log" json:"log"`
	Telegram bool `yaml:"telegram" json:"telegram"`
}

type TelegramYAMLConfig struct {
	BotToken        string `yaml:"bot_token" json:"bot_token"`
	ChatID          string `yaml:"chat_id" json:"chat_id"`
	ParseMode       string `yaml:"parse_mode" json:"parse_mode"`
	Enabled         bool   `yaml:"enabled" json:"enabled"`
	APIURL          string `yaml:"api_url,omitempty" json:"api_url,omitempty"`
	MessageTemplate string `yaml:"message_template,omitempty" json:"message_template,omitempty"`
}

type MetricsYAMLConfig struct {
	// Textfile is written in Prometheus text format after each run when set
	Textfile string `yaml:"textfile" json:"textfile"`
}

type LoggingYAMLConfig struct {
	Level  string `yaml:"level" json:"level"`
	Format string `yaml:"format" json:"format"`
}

// Report formats understood by the CLI
const (
	FormatCSV      = "csv"
	FormatMarkdown = "markdown"
	FormatHTML     = "html"
)

// GetDefaultHunterConfig returns the configuration used when no file is given
func GetDefaultHunterConfig() *HunterConfig {
	detection := model.DefaultDetectionConfig()
	return &HunterConfig{
		Detection: DetectionYAMLConfig{
			DirbustThreshold:    detection.DirbustThreshold,
			BruteForceThreshold: detection.BruteForceThreshold,
			WindowSeconds:       detection.WindowSeconds,
			LoginHints:          detection.LoginHints,
			UAAbuseTokens:       []string{},
			Workers:             1,
		},
		Severity: model.DefaultSeverityPolicy(),
		Report: ReportYAMLConfig{
			Dir:        "reports",
			TopTalkers: 5,
			Formats:    []string{FormatCSV, FormatMarkdown, FormatHTML},
		},
		Alerting: AlertingYAMLConfig{
			Channels: AlertChannelsYAML{
				Log:      true,
				Telegram: false,
			},
			MinSeverity: "med",
			Telegram: TelegramYAMLConfig{
				ParseMode: "Markdown",
				Enabled:   false,
			},
		},
		Logging: LoggingYAMLConfig{
			Level:  "INFO",
			Format: "text",
		},
	}
}

// ToDetectionConfig projects the file configuration onto the engine's input
func (c *HunterConfig) ToDetectionConfig() model.DetectionConfig {
	hints := make([]string, len(c.Detection.LoginHints))
	copy(hints, c.Detection.LoginHints)
	tokens := make([]string, len(c.Detection.UAAbuseTokens))
	copy(tokens, c.Detection.UAAbuseTokens)

	return model.DetectionConfig{
		DirbustThreshold:    c.Detection.DirbustThreshold,
		BruteForceThreshold: c.Detection.BruteForceThreshold,
		WindowSeconds:       c.Detection.WindowSeconds,
		LoginHints:          hints,
		ExtraUATokens:       tokens,
		Severity:            c.Severity,
	}
}

// MinSeverity returns the parsed alerting threshold
func (c *HunterConfig) MinSeverity() model.Severity {
	sev, err := model.ParseSeverity(c.Alerting.MinSeverity)
	if err != nil {
		return model.Severity_MED
	}
	return sev
}
