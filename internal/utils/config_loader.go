package utils

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"weblog-hunter/internal/model"

	"gopkg.in/yaml.v3"
)

// legacyDetectionKeys are the detection settings older config files kept at
// the top level of the document
type legacyDetectionKeys struct {
	DirbustThreshold    *int     `yaml:"dirbust_threshold" json:"dirbust_threshold"`
	BruteForceThreshold *int     `yaml:"bruteforce_threshold" json:"bruteforce_threshold"`
	WindowSeconds       *int64   `yaml:"window_seconds" json:"window_seconds"`
	LoginHints          []string `yaml:"login_hints" json:"login_hints"`
}

// LoadHunterConfig reads a YAML (.yaml/.yml) or JSON config file.
// An empty filename or a blank file yields the defaults. Keys missing from the file keep
// their default values.
func LoadHunterConfig(filename string) (*HunterConfig, error) {
	config := GetDefaultHunterConfig()
	if filename == "" {
		return config, nil
	}

	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", filename, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		data = []byte("{}")
	}

	unmarshal := json.Unmarshal
	if isYAMLFile(filename) {
		unmarshal = yaml.Unmarshal
	}

	var raw map[string]interface{}
	if err := unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w: top-level value must be a mapping: %v", filename, ErrInvalidConfig, err)
	}

	if err := unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", filename, err)
	}

	var legacy legacyDetectionKeys
	if err := unmarshal(data, &legacy); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", filename, err)
	}
	config.applyLegacy(legacy, nestedKeys(raw["detection"]))

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", filename, err)
	}

	return config, nil
}

// applyLegacy copies top-level detection keys unless the detection section sets them too
func (c *HunterConfig) applyLegacy(legacy legacyDetectionKeys, nested map[string]bool) {
	if legacy.DirbustThreshold != nil && !nested["dirbust_threshold"] {
		c.Detection.DirbustThreshold = *legacy.DirbustThreshold
	}
	if legacy.BruteForceThreshold != nil && !nested["bruteforce_threshold"] {
		c.Detection.BruteForceThreshold = *legacy.BruteForceThreshold
	}
	if legacy.WindowSeconds != nil && !nested["window_seconds"] {
		c.Detection.WindowSeconds = *legacy.WindowSeconds
	}
	if legacy.LoginHints != nil && !nested["login_hints"] {
		c.Detection.LoginHints = legacy.LoginHints
	}
}

func nestedKeys(section interface{}) map[string]bool {
	keys := make(map[string]bool)
	if m, ok := section.(map[string]interface{}); ok {
		for k := range m {
			keys[k] = true
		}
	}
	return keys
}

// Validate fills empty optional values and rejects unusable ones
func (c *HunterConfig) Validate() error {
	if c.Detection.DirbustThreshold <= 0 {
		return fmt.Errorf("%w: dirbust_threshold must be positive, got %d", ErrInvalidConfig, c.Detection.DirbustThreshold)
	}
	if c.Detection.BruteForceThreshold <= 0 {
		return fmt.Errorf("%w: bruteforce_threshold must be positive, got %d", ErrInvalidConfig, c.Detection.BruteForceThreshold)
	}
	if c.Detection.WindowSeconds <= 0 {
		return fmt.Errorf("%w: window_seconds must be positive, got %d", ErrInvalidConfig, c.Detection.WindowSeconds)
	}
	if c.Detection.LoginHints == nil {
		c.Detection.LoginHints = model.DefaultDetectionConfig().LoginHints
	}
	if c.Detection.Workers <= 0 {
		c.Detection.Workers = 1
	}

	if c.Severity.DirbustHigh <= 0 || c.Severity.BruteForceHigh <= 0 ||
		c.Severity.SignatureMed <= 0 || c.Severity.SignatureHigh <= 0 {
		return fmt.Errorf("%w: severity bands must be positive", ErrInvalidConfig)
	}
	if c.Severity.SignatureMed > c.Severity.SignatureHigh {
		return fmt.Errorf("%w: signature_med (%d) above signature_high (%d)", ErrInvalidConfig, c.Severity.SignatureMed, c.Severity.SignatureHigh)
	}

	if c.Report.Dir == "" {
		c.Report.Dir = "reports"
	}
	if c.Report.TopTalkers < 0 {
		return fmt.Errorf("%w: top_talkers cannot be negative", ErrInvalidConfig)
	}
	if len(c.Report.Formats) == 0 {
		c.Report.Formats = []string{FormatCSV, FormatMarkdown, FormatHTML}
	}
	for i, f := range c.Report.Formats {
		f = strings.ToLower(strings.TrimSpace(f))
		if f == "md" {
			f = FormatMarkdown
		}
		switch f {
		case FormatCSV, FormatMarkdown, FormatHTML:
			c.Report.Formats[i] = f
		default:
			return fmt.Errorf("%w: unknown report format %q", ErrInvalidConfig, f)
		}
	}

	if c.Alerting.MinSeverity == "" {
		c.Alerting.MinSeverity = "med"
	}
	if _, err := model.ParseSeverity(c.Alerting.MinSeverity); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if c.Alerting.Telegram.ParseMode == "" {
		c.Alerting.Telegram.ParseMode = "Markdown"
	}

	if c.Logging.Level == "" {
		c.Logging.Level = "INFO"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}

	return nil
}

// SaveConfig writes the configuration as YAML or JSON depending on the extension
func (c *HunterConfig) SaveConfig(filename string) error {
	var (
		data []byte
		err  error
	)
	if isYAMLFile(filename) {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file %s: %w", filename, err)
	}

	return nil
}

func isYAMLFile(filename string) bool {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}
