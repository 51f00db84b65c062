package model

// DetectionConfig holds the values the detection engine runs with.
// Thresholds and window are validated upstream by the config loader.
// ExtraUATokens extend the UA_ABUSE token set for one run, and a zero
// Severity band falls back to DefaultSeverityPolicy.
type DetectionConfig struct {
	DirbustThreshold    int
	BruteForceThreshold int
	WindowSeconds       int64
	LoginHints          []string
	ExtraUATokens       []string
	Severity            SeverityPolicy
}

// SeverityPolicy holds the severity bands applied to raw counts.
//
// Rate findings are high at or above DirbustHigh / BruteForceHigh and med otherwise.
// Signature findings are low below SignatureMed, med below SignatureHigh and high otherwise.
type SeverityPolicy struct {
	DirbustHigh    int `yaml:"dirbust_high" json:"dirbust_high"`
	BruteForceHigh int `yaml:"bruteforce_high" json:"bruteforce_high"`
	SignatureMed   int `yaml:"signature_med" json:"signature_med"`
	SignatureHigh  int `yaml:"signature_high" json:"signature_high"`
}

// DefaultLoginHints are the path fragments treated as authentication endpoints
var DefaultLoginHints = []string{"/login", "wp-login.php", "/wp-login", "/admin", "/wp-admin"}

func DefaultSeverityPolicy() SeverityPolicy {
	return SeverityPolicy{
		DirbustHigh:    50,
		BruteForceHigh: 20,
		SignatureMed:   2,
		SignatureHigh:  10,
	}
}

func DefaultDetectionConfig() DetectionConfig {
	hints := make([]string, len(DefaultLoginHints))
	copy(hints, DefaultLoginHints)
	return DetectionConfig{
		DirbustThreshold:    10,
		BruteForceThreshold: 5,
		WindowSeconds:       60,
		LoginHints:          hints,
		Severity:            DefaultSeverityPolicy(),
	}
}

// WithDefaults returns p with every non-positive band replaced by its default
func (p SeverityPolicy) WithDefaults() SeverityPolicy {
	d := DefaultSeverityPolicy()
	if p.DirbustHigh <= 0 {
		p.DirbustHigh = d.DirbustHigh
	}
	if p.BruteForceHigh <= 0 {
		p.BruteForceHigh = d.BruteForceHigh
	}
	if p.SignatureMed <= 0 {
		p.SignatureMed = d.SignatureMed
	}
	if p.SignatureHigh <= 0 {
		p.SignatureHigh = d.SignatureHigh
	}
	return p
}

// RateSeverity scores a rate finding: high at or above highAt, med otherwise
func (p SeverityPolicy) RateSeverity(peak, highAt int) Severity {
	if peak >= highAt {
		return Severity_HIGH
	}
	return Severity_MED
}

// SignatureSeverity scores a signature finding from its total hit count
func (p SeverityPolicy) SignatureSeverity(count int) Severity {
	switch {
	case count >= p.SignatureHigh:
		return Severity_HIGH
	case count >= p.SignatureMed:
		return Severity_MED
	default:
		return Severity_LOW
	}
}
