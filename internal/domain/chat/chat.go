// Package chat models the follow-up conversation about a finished accessibility audit.
package chat

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/bryanwahyu/reason3/internal/domain/analysis"
)

// MaxHistory is the number of most recent turns kept in the prompt.
const MaxHistory = 20

// Fixed assistant texts shown when no live answer is available.
const (
	Greeting   = "Hi! I'm your A11y Assistant. Ask me anything about web accessibility or how to use this tool."
	EmptyReply = "I'm sorry, I couldn't generate a response."
	ErrorReply = "I encountered an error connecting to the AI. Please try again."
)

type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

func (r Role) Valid() bool { return r == RoleUser || r == RoleModel }

// Message is one turn of the conversation.
type Message struct {
	Role Role   `json:"role"`
	Text string `json:"text"`
}

// Request carries the audit context, earlier turns and the new question.
// The service is stateless: callers send the whole conversation every time.
type Request struct {
	URL      string
	Issues   []analysis.Issue
	History  []Message
	Question string
}

// Recent returns at most MaxHistory turns from the end of History.
func (r Request) Recent() []Message {
	if len(r.History) <= MaxHistory {
		return r.History
	}
	return r.History[len(r.History)-MaxHistory:]
}

// Reply is the assistant answer and how it was produced.
type Reply struct {
	Text   string          `json:"reply"`
	Status analysis.Status `json:"-"`
	Model  string          `json:"-"`
}

// ReadyMessage is the assistant turn that opens a conversation about an audit.
func ReadyMessage(url string, issues int) string {
	return fmt.Sprintf("I've analyzed the report for %s. I found %d issues. Feel free to ask me how to fix them!", url, issues)
}

// DecodeReply reads {"reply": "..."} from a model reply. A blank answer
// is valid and becomes EmptyReply.
func DecodeReply(raw string) (string, error) {
	var out struct {
		Reply *string `json:"reply"`
	}
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &out); err != nil {
		return "", fmt.Errorf("%w: %v", analysis.ErrShape, err)
	}
	if out.Reply == nil {
		return "", fmt.Errorf("%w: missing \"reply\"", analysis.ErrShape)
	}
	text := strings.TrimSpace(*out.Reply)
	if text == "" {
		return EmptyReply, nil
	}
	return text, nil
}
