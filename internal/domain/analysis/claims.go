package analysis

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Verdict assigned to a claim.
type Verdict string

const (
	VerdictWellSupported      Verdict = "Well-Supported"
	VerdictPartiallySupported Verdict = "Partially Supported"
	VerdictMisleading         Verdict = "Misleading"
	VerdictInsufficient       Verdict = "Insufficient Information"
)

func (v Verdict) Valid() bool {
	switch v {
	case VerdictWellSupported, VerdictPartiallySupported, VerdictMisleading, VerdictInsufficient:
		return true
	}
	return false
}

// ClaimType classifies a claim.
type ClaimType string

const (
	ClaimFactual     ClaimType = "factual"
	ClaimStatistical ClaimType = "statistical"
	ClaimCausal      ClaimType = "causal"
	ClaimPredictive  ClaimType = "predictive"
)

func (t ClaimType) Valid() bool {
	switch t {
	case ClaimFactual, ClaimStatistical, ClaimCausal, ClaimPredictive:
		return true
	}
	return false
}

// Claim is one finding of the claim-verification flavor.
type Claim struct {
	ID                string    `json:"claim_id"`
	Text              string    `json:"claim_text"`
	Type              ClaimType `json:"claim_type"`
	Verdict           Verdict   `json:"verdict"`
	Confidence        float64   `json:"confidence_score"`
	LogicalIssues     []string  `json:"logical_issues"`
	StatisticalIssues []string  `json:"statistical_issues"`
	Explanation       string    `json:"explanation"`
	WhatWouldMakeTrue string    `json:"what_would_make_this_true"`
	EvidencePresent   bool      `json:"evidence_present"`
}

// ClaimReport is the claim-verification response, field names as agreed with the model.
//
// Raw holds the validated model reply. When set, the report encodes as
// exactly that document so keys the struct does not model survive.
type ClaimReport struct {
	AnalysisTarget   string  `json:"analysis_target"`
	Claims           []Claim `json:"claims"`
	OverallRiskScore int     `json:"overall_risk_score"`
	SummaryInsight   string  `json:"summary_insight"`

	Raw json.RawMessage `json:"-"`
}

// MarshalJSON emits Raw verbatim when present and the typed fields otherwise.
func (r ClaimReport) MarshalJSON() ([]byte, error) {
	if len(r.Raw) > 0 {
		return r.Raw, nil
	}
	type plain ClaimReport
	return json.Marshal(plain(r))
}

func (r *ClaimReport) Target() string      { return r.AnalysisTarget }
func (r *ClaimReport) FindingCount() int   { return len(r.Claims) }
func (r *ClaimReport) AggregateScore() int { return r.OverallRiskScore }

// Validate checks enumerations and ranges.
func (r *ClaimReport) Validate() error {
	if r.Claims == nil {
		return fmt.Errorf("%w: claims is not an array", ErrShape)
	}
	if err := checkScore("overall_risk_score", r.OverallRiskScore); err != nil {
		return err
	}
	for i, c := range r.Claims {
		if c.ID == "" {
			return fmt.Errorf("%w: claims[%d] has no claim_id", ErrShape, i)
		}
		if !c.Verdict.Valid() {
			return fmt.Errorf("%w: claims[%d] verdict %q", ErrShape, i, c.Verdict)
		}
		if !c.Type.Valid() {
			return fmt.Errorf("%w: claims[%d] claim_type %q", ErrShape, i, c.Type)
		}
		if err := checkScore(fmt.Sprintf("claims[%d].confidence_score", i), c.Confidence); err != nil {
			return err
		}
	}
	return nil
}

// DecodeClaims parses a model reply into a ClaimReport without altering any value.
func DecodeClaims(raw string) (*ClaimReport, error) {
	if err := requireKeys(raw, "analysis_target", "claims", "overall_risk_score", "summary_insight"); err != nil {
		return nil, err
	}
	trimmed := []byte(strings.TrimSpace(raw))
	var r ClaimReport
	if err := json.Unmarshal(trimmed, &r); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrShape, err)
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	r.Raw = json.RawMessage(trimmed)
	return &r, nil
}

// FallbackFindingID identifies the synthetic finding of every fallback payload.
const FallbackFindingID = "ERR-1"

// ClaimsFallback returns the fixed payload used whenever no live result is available.
func ClaimsFallback() *ClaimReport {
	return &ClaimReport{
		AnalysisTarget: "Analysis Failed (Fallback Mode)",
		Claims: []Claim{
			{
				ID:                FallbackFindingID,
				Text:              "The system could not complete the live analysis.",
				Type:              ClaimFactual,
				Verdict:           VerdictInsufficient,
				Confidence:        0,
				LogicalIssues:     []string{"API Error"},
				StatisticalIssues: []string{},
				Explanation:       "An error occurred while connecting to the engine. High traffic or network issues may be the cause.",
				WhatWouldMakeTrue: "Check your network connection and API key limits.",
				EvidencePresent:   false,
			},
		},
		OverallRiskScore: 0,
		SummaryInsight:   "Analysis Temporarily Unavailable",
	}
}
