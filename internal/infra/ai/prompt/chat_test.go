package prompt

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bryanwahyu/reason3/internal/domain/analysis"
	"github.com/bryanwahyu/reason3/internal/domain/chat"
)

func TestChatPromptCarriesAuditContext(t *testing.T) {
	p := GetChatPrompt(chat.Request{
		URL: "https://shop.test",
		Issues: []analysis.Issue{
			{ID: "A1", Title: "Missing alt", Severity: analysis.SeverityHigh, Description: "Logo has no alt", CodeSnippet: "<img src=logo.png>"},
		},
		History:  []chat.Message{{Role: chat.RoleUser, Text: "Which is worst?"}, {Role: chat.RoleModel, Text: "The logo."}},
		Question: "How do I fix it?",
	})

	assert.Contains(t, p, `System Update: A new audit has been completed for https://shop.test. Here are the found issues: [{"title":"Missing alt","severity":"HIGH","description":"Logo has no alt"}]`)
	assert.NotContains(t, p, "logo.png", "only title, severity and description are shared")
	assert.Contains(t, p, "model: I've analyzed the report for https://shop.test. I found 1 issues.")
	assert.Contains(t, p, "user: Which is worst?\nmodel: The logo.\n")
	assert.True(t, strings.Index(p, "user: How do I fix it?") > strings.Index(p, "model: The logo."))
	assert.Contains(t, p, `{"reply":`)
}

func TestChatPromptWithoutAudit(t *testing.T) {
	p := GetChatPrompt(chat.Request{Question: "What is WCAG?"})
	assert.NotContains(t, p, "System Update")
	assert.NotContains(t, p, "CONVERSATION SO FAR")
	assert.Contains(t, p, "user: What is WCAG?")
}
