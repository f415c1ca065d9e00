package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/bryanwahyu/reason3/internal/domain/analysis"
)

// demoConfig writes a config with a sqlite audit trail and clears credentials.
func demoConfig(t *testing.T) string {
	t.Helper()
	for _, k := range []string{"REASON3_PROVIDER", "GROQ_API_KEY", "OPENAI_API_KEY", "GEMINI_API_KEY", "REASON3_MODEL"} {
		t.Setenv(k, "")
	}
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	body := "audit:\n  driver: sqlite\ndatabase:\n  path: " + filepath.Join(dir, "audit.db") + "\nlog:\n  level: error\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := NewRootCommand()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func TestAnalyzeDemoPrintsFallback(t *testing.T) {
	cfg := demoConfig(t)

	out, errOut, err := run(t, "analyze", "--config", cfg, "--text", "Coffee cures cancer")
	require.NoError(t, err)
	assert.Contains(t, errOut, "status: demo")

	var got domain.ClaimReport
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, *domain.ClaimsFallback(), got)
}

func TestAnalyzeAccessibilityFlavor(t *testing.T) {
	cfg := demoConfig(t)
	html := filepath.Join(t.TempDir(), "page.html")
	require.NoError(t, os.WriteFile(html, []byte("<button></button>"), 0o600))

	out, _, err := run(t, "analyze", "--config", cfg, "--flavor", "accessibility", "--file", html)
	require.NoError(t, err)
	assert.Contains(t, out, `"issues"`)
	assert.Contains(t, out, `"score": 0`)
}

func TestAnalyzeUsageErrors(t *testing.T) {
	cfg := demoConfig(t)

	_, _, err := run(t, "analyze", "--config", cfg)
	assert.ErrorContains(t, err, "nothing to analyze")

	_, _, err = run(t, "analyze", "--config", cfg, "--text", "x", "--flavor", "poems")
	assert.ErrorContains(t, err, "unknown flavor")

	notImage := filepath.Join(t.TempDir(), "a.txt")
	require.NoError(t, os.WriteFile(notImage, []byte("plain text"), 0o600))
	_, _, err = run(t, "analyze", "--config", cfg, "--image", notImage)
	assert.ErrorContains(t, err, "is not an image")
}

func TestHistoryListsRecordedAnalyses(t *testing.T) {
	cfg := demoConfig(t)

	_, errOut, err := run(t, "analyze", "--config", cfg, "--text", "one")
	require.NoError(t, err)
	id := strings.Fields(strings.TrimPrefix(errOut, "status: demo id: "))[0]

	out, _, err := run(t, "history", "--config", cfg)
	require.NoError(t, err)
	var page domain.PaginatedResult
	require.NoError(t, json.Unmarshal([]byte(out), &page))
	assert.Equal(t, int64(1), page.Total)
	require.Len(t, page.Data, 1)
	assert.Equal(t, id, page.Data[0].ID)

	out, _, err = run(t, "history", "--config", cfg, id)
	require.NoError(t, err)
	assert.Contains(t, out, `"status": "demo"`)
}

func TestImageDataURL(t *testing.T) {
	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")
	path := filepath.Join(t.TempDir(), "a.png")
	require.NoError(t, os.WriteFile(path, png, 0o600))

	u, err := imageDataURL(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(u, "data:image/png;base64,"))
}
