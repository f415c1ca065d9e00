package prompt

import (
	"fmt"
	"strings"

	"github.com/bryanwahyu/reason3/internal/domain/analysis"
)

// ClaimsVersion is bumped whenever the wording of the claim instruction changes.
const ClaimsVersion = "claims/v1"

// GetClaimsPrompt embeds the user content into the claim-verification instruction.
// The model must answer with one JSON object matching the schema below.
func GetClaimsPrompt(content string) string {
	var b strings.Builder
	b.WriteString(`You are Reason3, a claim-reasoning engine.
Your goal is to analyze the provided input and perform a deep verification.

Do not summarize. Do not chat. Reason strictly.

INPUT CONTENT:
`)
	b.WriteString(content)
	b.WriteString(`

---

PERFORM THE FOLLOWING STEPS:

1. Claim Extraction: identify the core claims. Separate facts, opinions and predictions.
2. Logical & Statistical Analysis: look for issues such as correlation vs causation, missing baselines, cherry-picking, or truncated axes (if a chart is provided).
3. Verdict: assign one of "Well-Supported", "Partially Supported", "Misleading" or "Insufficient Information".
4. Explanation: write a neutral, educational explanation.
5. What would make this true: propose data or framing that would validate the claim.

RETURN JSON ONLY. No markdown, no commentary, no code fences.

Expected format:
{
  "analysis_target": "Brief title of what was analyzed",
  "claims": [
    {
      "claim_id": "C1",
      "claim_text": "The exact claim text",
      "claim_type": "factual | statistical | causal | predictive",
      "verdict": "Well-Supported | Partially Supported | Misleading | Insufficient Information",
      "confidence_score": 0-100,
      "logical_issues": ["Issue 1", "Issue 2"],
      "statistical_issues": ["Issue 1"],
      "explanation": "Clear, neutral explanation",
      "what_would_make_this_true": "Actionable advice on data/framing",
      "evidence_present": true
    }
  ],
  "overall_risk_score": 0-100,
  "summary_insight": "A 1-sentence high level summary"
}`)
	return b.String()
}

// Claims is the claim-verification profile.
type Claims struct{}

func (Claims) Flavor() analysis.Flavor { return analysis.FlavorClaims }
func (Claims) Version() string         { return ClaimsVersion }

func (Claims) Instruction(req analysis.Request) string {
	content := req.Content
	if req.URL != "" {
		content = fmt.Sprintf("Source: %s\n\n%s", req.URL, content)
	}
	return GetClaimsPrompt(content)
}

func (Claims) Decode(raw string, _ analysis.Request) (analysis.Report, error) {
	return analysis.DecodeClaims(raw)
}

func (Claims) Fallback(analysis.Request) analysis.Report {
	return analysis.ClaimsFallback()
}
