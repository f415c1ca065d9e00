package prompt

import (
	"strings"

	"github.com/bryanwahyu/reason3/internal/domain/analysis"
)

// AccessibilityVersion is bumped whenever the wording of the audit instruction changes.
const AccessibilityVersion = "accessibility/v1"

var personaBriefs = map[analysis.Persona]string{
	analysis.PersonaVisual: "VISUAL: a blind or low-vision user relying on a screen reader (missing alt text, unlabeled controls, heading order, vague link text).",
	analysis.PersonaMotor:  "MOTOR: a keyboard-only or switch user (focus traps, non-focusable click targets, positive tabindex, small touch targets).",
	analysis.PersonaColor:  "COLOR: a color-blind or low-contrast-sensitive user (contrast below 4.5:1, information conveyed by color alone).",
}

// GetAccessibilityPrompt builds the audit instruction for the given personas.
// html may be empty when only a screenshot is supplied.
func GetAccessibilityPrompt(url, html string, personas []analysis.Persona, withScreenshot bool) string {
	if len(personas) == 0 {
		personas = analysis.AllPersonas
	}
	var b strings.Builder
	b.WriteString("You are an accessibility auditor. Simulate the following personas navigating the page and report every WCAG 2.2 barrier they would hit:\n")
	for _, p := range personas {
		b.WriteString("- ")
		b.WriteString(personaBriefs[p])
		b.WriteString("\n")
	}
	if url != "" {
		b.WriteString("\nPAGE URL: ")
		b.WriteString(url)
		b.WriteString("\n")
	}
	if withScreenshot {
		b.WriteString("\nA screenshot of the page is attached. Use it for visual checks and give each issue a location in percent of the image.\n")
	}
	if strings.TrimSpace(html) != "" {
		b.WriteString("\nPAGE MARKUP:\n")
		b.WriteString(html)
		b.WriteString("\n")
	}
	b.WriteString(`
RETURN JSON ONLY. No markdown, no commentary, no code fences.

Expected format:
{
  "url": "<page url>",
  "issues": [
    {
      "id": "A1",
      "title": "Short title",
      "description": "What is wrong",
      "severity": "CRITICAL | HIGH | MEDIUM | LOW",
      "persona": "VISUAL | MOTOR | COLOR",
      "element": "CSS selector or tag of the offending element",
      "location": {"x": 0-100, "y": 0-100},
      "codeSnippet": "offending markup",
      "suggestedFix": "corrected markup",
      "explanation": "why it matters for the persona"
    }
  ],
  "summary": "A 1-sentence high level summary"
}`)
	return b.String()
}

// Accessibility is the accessibility-audit profile.
type Accessibility struct{}

func (Accessibility) Flavor() analysis.Flavor { return analysis.FlavorAccessibility }
func (Accessibility) Version() string         { return AccessibilityVersion }

func (Accessibility) Instruction(req analysis.Request) string {
	html := req.Content
	if html == analysis.ImagePlaceholder {
		html = ""
	}
	return GetAccessibilityPrompt(req.URL, html, req.Personas, req.MediaType == analysis.MediaImage)
}

func (Accessibility) Decode(raw string, req analysis.Request) (analysis.Report, error) {
	return analysis.DecodeAudit(raw, req.URL)
}

func (Accessibility) Fallback(req analysis.Request) analysis.Report {
	return analysis.AccessibilityFallback(req.URL)
}

// ForFlavor returns the profile for f, defaulting to Claims.
func ForFlavor(f analysis.Flavor) analysis.Profile {
	if f == analysis.FlavorAccessibility {
		return Accessibility{}
	}
	return Claims{}
}
