package analysis

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   Request
		want Request
	}{
		{
			name: "image without data downgrades to text with placeholder",
			in:   Request{MediaType: MediaImage},
			want: Request{MediaType: MediaText, Content: ImagePlaceholder},
		},
		{
			name: "image with data keeps both parts",
			in:   Request{MediaType: MediaImage, ImageData: "data:image/png;base64,AA=="},
			want: Request{MediaType: MediaImage, ImageData: "data:image/png;base64,AA==", Content: ImagePlaceholder},
		},
		{
			name: "text drops image data",
			in:   Request{Content: "claim", MediaType: MediaText, ImageData: "data:image/png;base64,AA=="},
			want: Request{Content: "claim", MediaType: MediaText},
		},
		{
			name: "unknown media type is text",
			in:   Request{Content: "claim", MediaType: "pdf"},
			want: Request{Content: "claim", MediaType: MediaText},
		},
		{
			name: "url only keeps empty content",
			in:   Request{URL: "https://example.com"},
			want: Request{URL: "https://example.com", MediaType: MediaText},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.in.Normalize())
		})
	}
}

func TestParseMediaType(t *testing.T) {
	assert.Equal(t, MediaImage, ParseMediaType(" Image "))
	assert.Equal(t, MediaText, ParseMediaType("text"))
	assert.Equal(t, MediaText, ParseMediaType("pdf"))
	assert.Equal(t, MediaText, ParseMediaType(""))
}

const oneClaim = `{"analysis_target":"t","claims":[{"claim_id":"C1","claim_text":"x","claim_type":"factual",
"verdict":"Partially Supported","confidence_score":55,"logical_issues":[],"statistical_issues":[],
"explanation":"e","what_would_make_this_true":"w","evidence_present":true}],"overall_risk_score":30,"summary_insight":"s"}`

func TestDecodeClaims(t *testing.T) {
	r, err := DecodeClaims(oneClaim)
	require.NoError(t, err)
	assert.Equal(t, "t", r.Target())
	assert.Equal(t, 1, r.FindingCount())
	assert.Equal(t, 30, r.AggregateScore())
	assert.Equal(t, VerdictPartiallySupported, r.Claims[0].Verdict)
	assert.True(t, r.Claims[0].EvidencePresent)

	t.Run("empty claims list is a valid result", func(t *testing.T) {
		r, err := DecodeClaims(`{"analysis_target":"t","claims":[],"overall_risk_score":0,"summary_insight":"nothing to check"}`)
		require.NoError(t, err)
		assert.Equal(t, 0, r.FindingCount())
	})

	bad := map[string]string{
		"truncated":        oneClaim[:40],
		"missing target":   strings.Replace(oneClaim, `"analysis_target":"t",`, "", 1),
		"bad claim type":   strings.Replace(oneClaim, `"factual"`, `"anecdotal"`, 1),
		"no claim id":      strings.Replace(oneClaim, `"claim_id":"C1"`, `"claim_id":""`, 1),
		"negative conf":    strings.Replace(oneClaim, `55`, `-5`, 1),
		"conf over 100":    strings.Replace(oneClaim, `55`, `100.5`, 1),
		"null":             `null`,
		"bare string":      `"ok"`,
		"whitespace only":  "  ",
		"string for array": strings.Replace(oneClaim, `"logical_issues":[]`, `"logical_issues":"none"`, 1),
	}
	for name, raw := range bad {
		t.Run(name, func(t *testing.T) {
			_, err := DecodeClaims(raw)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrShape), err.Error())
		})
	}
}

func TestDecodeClaimsAcceptsFractionalConfidence(t *testing.T) {
	r, err := DecodeClaims(strings.Replace(oneClaim, `55`, `82.5`, 1))
	require.NoError(t, err)
	assert.InDelta(t, 82.5, r.Claims[0].Confidence, 1e-9)
}

func TestClaimReportEncodesReplyVerbatim(t *testing.T) {
	reply := `{"analysis_target":"t","claims":[{"claim_id":"C1","claim_text":"x","claim_type":"factual",
"verdict":"Misleading","confidence_score":82.5,"explanation":"e","sources":["https://a.example"]}],
"overall_risk_score":30,"summary_insight":"s","model_notes":{"tokens":812}}`

	r, err := DecodeClaims("\n" + reply + "  ")
	require.NoError(t, err)

	out, err := json.Marshal(r)
	require.NoError(t, err)
	assert.JSONEq(t, reply, string(out))
	assert.NotContains(t, string(out), "logical_issues")

	t.Run("typed fields are used without a stored reply", func(t *testing.T) {
		out, err := json.Marshal(ClaimsFallback())
		require.NoError(t, err)
		assert.Contains(t, string(out), `"claim_id":"ERR-1"`)
		assert.Contains(t, string(out), `"confidence_score":0`)
		assert.NotContains(t, string(out), "Raw")
	})
}

func TestClaimsFallbackIsStable(t *testing.T) {
	a, b := ClaimsFallback(), ClaimsFallback()
	assert.Equal(t, a, b)
	a.Claims[0].ID = "changed"
	assert.Equal(t, FallbackFindingID, b.Claims[0].ID)
	assert.Equal(t, "Analysis Temporarily Unavailable", b.SummaryInsight)
}

func TestWeightedScore(t *testing.T) {
	issues := func(sev ...Severity) []Issue {
		out := make([]Issue, len(sev))
		for i, s := range sev {
			out[i] = Issue{Severity: s}
		}
		return out
	}
	assert.Equal(t, 100, WeightedScore(nil))
	assert.Equal(t, 100, WeightedScore(issues(SeverityLow, SeverityLow)))
	assert.Equal(t, 70, WeightedScore(issues(SeverityCritical, SeverityHigh, SeverityMedium)))
	assert.Equal(t, 0, WeightedScore(issues(SeverityCritical, SeverityCritical, SeverityCritical,
		SeverityCritical, SeverityCritical, SeverityCritical, SeverityCritical)))
}

func TestDecodeAudit(t *testing.T) {
	r, err := DecodeAudit(`{"issues":[{"title":"t","description":"d","severity":"high","persona":"motor"}],"summary":"s"}`, "https://x.test")
	require.NoError(t, err)
	assert.Equal(t, "https://x.test", r.URL)
	assert.Equal(t, 90, r.Score)
	assert.Equal(t, PersonaMotor, r.Issues[0].Persona)
	assert.Equal(t, "A1", r.Issues[0].ID)

	_, err = DecodeAudit(`{"issues":[{"severity":"BLOCKER","persona":"VISUAL"}],"summary":"s"}`, "")
	assert.ErrorIs(t, err, ErrShape)

	_, err = DecodeAudit(`{"issues":[{"severity":"LOW","persona":"HEARING"}],"summary":"s"}`, "")
	assert.ErrorIs(t, err, ErrShape)

	_, err = DecodeAudit(`{"summary":"s"}`, "")
	assert.ErrorIs(t, err, ErrShape)
}

func TestParsePersonas(t *testing.T) {
	assert.Equal(t, []Persona{PersonaVisual, PersonaColor}, ParsePersonas([]string{"visual", "COLOR", "Visual", "hearing"}))
	assert.Nil(t, ParsePersonas(nil))
}

func TestExcerpt(t *testing.T) {
	assert.Equal(t, "short", Excerpt("short"))
	long := strings.Repeat("é", ExcerptLen+10)
	assert.Equal(t, ExcerptLen, len([]rune(Excerpt(long))))
}
