package message

import (
	"fmt"
	"strings"
)

// Severity ranks field messages. Higher values are more severe, which lets
// callers delete or filter everything at or above a threshold.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityError
	SeverityCritical
)

var severityNames = [...]string{
	SeverityInfo:     "info",
	SeverityWarning:  "warning",
	SeverityError:    "error",
	SeverityCritical: "critical",
}

// String returns the lower-case name of the severity.
func (s Severity) String() string {
	if s < SeverityInfo || int(s) >= len(severityNames) {
		return fmt.Sprintf("severity(%d)", int(s))
	}
	return severityNames[s]
}

// ParseSeverity resolves a severity name. "warn" and "fatal" are accepted as
// aliases for warning and critical.
func ParseSeverity(raw string) (Severity, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "info", "information":
		return SeverityInfo, nil
	case "warning", "warn":
		return SeverityWarning, nil
	case "error":
		return SeverityError, nil
	case "critical", "fatal":
		return SeverityCritical, nil
	default:
		return SeverityInfo, fmt.Errorf("message: unknown severity %q", raw)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s Severity) MarshalText() ([]byte, error) {
	if s < SeverityInfo || int(s) >= len(severityNames) {
		return nil, fmt.Errorf("message: invalid severity %d", int(s))
	}
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Severity) UnmarshalText(text []byte) error {
	parsed, err := ParseSeverity(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
