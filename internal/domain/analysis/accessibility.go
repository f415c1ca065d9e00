package analysis

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Severity of an accessibility issue.
type Severity string

const (
	SeverityCritical Severity = "CRITICAL"
	SeverityHigh     Severity = "HIGH"
	SeverityMedium   Severity = "MEDIUM"
	SeverityLow      Severity = "LOW"
)

func (s Severity) Valid() bool {
	switch s {
	case SeverityCritical, SeverityHigh, SeverityMedium, SeverityLow:
		return true
	}
	return false
}

// Persona is the simulated disability profile an issue affects.
type Persona string

const (
	PersonaVisual Persona = "VISUAL"
	PersonaMotor  Persona = "MOTOR"
	PersonaColor  Persona = "COLOR"
)

// AllPersonas is used when the caller does not pick any.
var AllPersonas = []Persona{PersonaVisual, PersonaMotor, PersonaColor}

func (p Persona) Valid() bool {
	switch p {
	case PersonaVisual, PersonaMotor, PersonaColor:
		return true
	}
	return false
}

// ParsePersonas keeps the recognised entries, upper-cased and de-duplicated.
func ParsePersonas(in []string) []Persona {
	var out []Persona
	seen := map[Persona]bool{}
	for _, s := range in {
		p := Persona(strings.ToUpper(strings.TrimSpace(s)))
		if p.Valid() && !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}
	return out
}

// Location is a position on the screenshot in percent.
type Location struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Issue is one finding of the accessibility flavor.
type Issue struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	Severity     Severity  `json:"severity"`
	Persona      Persona   `json:"persona"`
	Element      string    `json:"element,omitempty"`
	Location     *Location `json:"location,omitempty"`
	CodeSnippet  string    `json:"codeSnippet,omitempty"`
	SuggestedFix string    `json:"suggestedFix,omitempty"`
	Explanation  string    `json:"explanation,omitempty"`
	File         string    `json:"file,omitempty"`
}

// AuditReport is the accessibility response.
type AuditReport struct {
	URL     string  `json:"url"`
	Score   int     `json:"score"`
	Issues  []Issue `json:"issues"`
	Summary string  `json:"summary"`
}

func (r *AuditReport) Target() string      { return r.URL }
func (r *AuditReport) FindingCount() int   { return len(r.Issues) }
func (r *AuditReport) AggregateScore() int { return r.Score }

// Severity weights subtracted from 100. LOW issues do not lower the score.
const (
	weightCritical = 15
	weightHigh     = 10
	weightMedium   = 5
)

// WeightedScore is max(0, 100 - (15*critical + 10*high + 5*medium)).
func WeightedScore(issues []Issue) int {
	penalty := 0
	for _, is := range issues {
		switch is.Severity {
		case SeverityCritical:
			penalty += weightCritical
		case SeverityHigh:
			penalty += weightHigh
		case SeverityMedium:
			penalty += weightMedium
		}
	}
	return max(0, 100-penalty)
}

// auditReply is what the model is asked to return; the score is derived locally.
type auditReply struct {
	URL     string  `json:"url"`
	Issues  []Issue `json:"issues"`
	Summary string  `json:"summary"`
}

// DecodeAudit parses a model reply and builds the AuditReport.
// url is used when the reply does not name the audited page.
func DecodeAudit(raw, url string) (*AuditReport, error) {
	if err := requireKeys(raw, "issues", "summary"); err != nil {
		return nil, err
	}
	var reply auditReply
	if err := json.Unmarshal([]byte(raw), &reply); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrShape, err)
	}
	if reply.Issues == nil {
		return nil, fmt.Errorf("%w: issues is not an array", ErrShape)
	}
	for i := range reply.Issues {
		is := &reply.Issues[i]
		is.Severity = Severity(strings.ToUpper(string(is.Severity)))
		is.Persona = Persona(strings.ToUpper(string(is.Persona)))
		if !is.Severity.Valid() {
			return nil, fmt.Errorf("%w: issues[%d] severity %q", ErrShape, i, is.Severity)
		}
		if !is.Persona.Valid() {
			return nil, fmt.Errorf("%w: issues[%d] persona %q", ErrShape, i, is.Persona)
		}
		if is.ID == "" {
			is.ID = fmt.Sprintf("A%d", i+1)
		}
	}
	target := reply.URL
	if target == "" {
		target = url
	}
	return &AuditReport{
		URL:     target,
		Score:   WeightedScore(reply.Issues),
		Issues:  reply.Issues,
		Summary: reply.Summary,
	}, nil
}

// AccessibilityFallback returns the fixed payload for the accessibility flavor.
func AccessibilityFallback(url string) *AuditReport {
	return &AuditReport{
		URL:   url,
		Score: 0,
		Issues: []Issue{
			{
				ID:           FallbackFindingID,
				Title:        "Analysis Failed (Fallback Mode)",
				Description:  "The system could not complete the live analysis.",
				Severity:     SeverityLow,
				Persona:      PersonaVisual,
				Explanation:  "An error occurred while connecting to the engine. High traffic or network issues may be the cause.",
				SuggestedFix: "Check your network connection and API key limits.",
			},
		},
		Summary: "Analysis Temporarily Unavailable",
	}
}
