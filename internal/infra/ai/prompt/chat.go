package prompt

import (
	"encoding/json"
	"strings"

	"github.com/bryanwahyu/reason3/internal/domain/chat"
)

type issueBrief struct {
	Title       string `json:"title"`
	Severity    string `json:"severity"`
	Description string `json:"description"`
}

// GetChatPrompt renders the audit context and the conversation as one user turn.
func GetChatPrompt(req chat.Request) string {
	var b strings.Builder
	b.WriteString("You are an A11y Assistant, an expert in web accessibility (WCAG 2.2). Answer questions about accessibility and about fixing the issues found by the audit. Keep answers short and practical, and include corrected markup when it helps.\n")

	if req.URL != "" || len(req.Issues) > 0 {
		briefs := make([]issueBrief, len(req.Issues))
		for i, is := range req.Issues {
			briefs[i] = issueBrief{Title: is.Title, Severity: string(is.Severity), Description: is.Description}
		}
		issues, _ := json.Marshal(briefs)
		b.WriteString("\nSystem Update: A new audit has been completed for ")
		b.WriteString(req.URL)
		b.WriteString(". Here are the found issues: ")
		b.Write(issues)
		b.WriteString(". Please be ready to answer questions about these specific issues.\n")
		b.WriteString("model: ")
		b.WriteString(chat.ReadyMessage(req.URL, len(req.Issues)))
		b.WriteString("\n")
	}

	if recent := req.Recent(); len(recent) > 0 {
		b.WriteString("\nCONVERSATION SO FAR:\n")
		for _, m := range recent {
			b.WriteString(string(m.Role))
			b.WriteString(": ")
			b.WriteString(m.Text)
			b.WriteString("\n")
		}
	}

	b.WriteString("\nuser: ")
	b.WriteString(req.Question)
	b.WriteString(`

RETURN JSON ONLY. No markdown fences around the object.

Expected format:
{"reply": "your answer to the last user message"}`)
	return b.String()
}
