package model

import (
	"fmt"
	"strings"
)

// FindingType identifies the detector that produced a finding
type FindingType int32

const (
	FindingType_DIRBUST FindingType = iota
	FindingType_BRUTE_FORCE
	FindingType_SQLI
	FindingType_LFI
	FindingType_RFI
	FindingType_SHELLSHOCK
	FindingType_UA_ABUSE
)

var findingTypeNames = map[FindingType]string{
	FindingType_DIRBUST:     "DIRBUST",
	FindingType_BRUTE_FORCE: "BRUTE_FORCE",
	FindingType_SQLI:        "SQLI",
	FindingType_LFI:         "LFI",
	FindingType_RFI:         "RFI",
	FindingType_SHELLSHOCK:  "SHELLSHOCK",
	FindingType_UA_ABUSE:    "UA_ABUSE",
}

func (t FindingType) String() string {
	if name, ok := findingTypeNames[t]; ok {
		return name
	}
	return "UNKNOWN"
}

// IsRateBased reports whether findings of this type come from windowed burst counts
func (t FindingType) IsRateBased() bool {
	return t == FindingType_DIRBUST || t == FindingType_BRUTE_FORCE
}

func (t FindingType) MarshalText() ([]byte, error) {
	if _, ok := findingTypeNames[t]; !ok {
		return nil, fmt.Errorf("unknown finding type %d", int32(t))
	}
	return []byte(t.String()), nil
}

func (t *FindingType) UnmarshalText(text []byte) error {
	parsed, err := ParseFindingType(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// ParseFindingType converts a name such as "SQLI" (any case) to a FindingType
func ParseFindingType(s string) (FindingType, error) {
	upper := strings.ToUpper(strings.TrimSpace(s))
	for t, name := range findingTypeNames {
		if name == upper {
			return t, nil
		}
	}
	return 0, fmt.Errorf("unknown finding type %q", s)
}

// Severity of a finding. The zero value is low.
type Severity int32

const (
	Severity_LOW Severity = iota
	Severity_MED
	Severity_HIGH
)

func (s Severity) String() string {
	switch s {
	case Severity_HIGH:
		return "high"
	case Severity_MED:
		return "med"
	default:
		return "low"
	}
}

// Rank is the ordering weight used when ranking findings: high=2, med=1, low=0
func (s Severity) Rank() int {
	return int(s)
}

// Label is the upper-case form shown on report badges
func (s Severity) Label() string {
	return strings.ToUpper(s.String())
}

func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Severity) UnmarshalText(text []byte) error {
	parsed, err := ParseSeverity(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// ParseSeverity accepts low/med/high, plus medium and the upper-case forms
func ParseSeverity(s string) (Severity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low":
		return Severity_LOW, nil
	case "med", "medium":
		return Severity_MED, nil
	case "high":
		return Severity_HIGH, nil
	}
	return 0, fmt.Errorf("unknown severity %q", s)
}

// Finding is one detected anomaly for one host
type Finding struct {
	Type     FindingType `json:"type" yaml:"type"`
	Host     string      `json:"host" yaml:"host"`
	Count    int         `json:"count" yaml:"count"`
	Severity Severity    `json:"severity" yaml:"severity"`
	Evidence string      `json:"evidence" yaml:"evidence"`
}

// TopTalker summarizes the traffic of one host
type TopTalker struct {
	Host     string `json:"host"`
	Total    int    `json:"total"`
	Count4xx int    `json:"count_4xx"`
	Count5xx int    `json:"count_5xx"`
}
