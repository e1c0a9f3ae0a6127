package entity

import (
	"fmt"
	"strings"
)

// Severity gravedad de una anomalía. Una sola taxonomía de 5 niveles; el vocabulario legado
// de 3 niveles se normaliza en la frontera con NormalizeSeverity.
type Severity int

const (
	SeverityInfo Severity = iota + 1
	SeverityLow
	SeverityMedium
	SeverityHigh
	SeverityCritical
)

// DefaultSeverity gravedad asignada a anomalías legadas sin gravedad.
const DefaultSeverity = SeverityMedium

var severityNames = map[Severity]string{
	SeverityInfo:     "info",
	SeverityLow:      "low",
	SeverityMedium:   "medium",
	SeverityHigh:     "high",
	SeverityCritical: "critical",
}

// Vocabulario legado (mayoristas v1) y generalizado.
var severityAliases = map[string]Severity{
	"info":     SeverityInfo,
	"low":      SeverityLow,
	"medium":   SeverityMedium,
	"high":     SeverityHigh,
	"critical": SeverityCritical,
	"faible":   SeverityLow,
	"moyenne":  SeverityMedium,
	"elevee":   SeverityHigh,
	"élevée":   SeverityHigh,
	"haute":    SeverityHigh,
	"critique": SeverityCritical,
}

func (s Severity) String() string {
	if n, ok := severityNames[s]; ok {
		return n
	}
	return fmt.Sprintf("severity(%d)", int(s))
}

// Valid indica si la gravedad es uno de los 5 niveles.
func (s Severity) Valid() bool {
	_, ok := severityNames[s]
	return ok
}

// NormalizeSeverity convierte un nombre (generalizado o legado) en Severity.
func NormalizeSeverity(name string) (Severity, error) {
	s, ok := severityAliases[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return 0, fmt.Errorf("gravedad desconocida %q", name)
	}
	return s, nil
}
