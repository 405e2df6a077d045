// Package assistant holds the question-and-answer conversation and the
// language-model client behind it.
package assistant

import (
	"context"
	"errors"
	"strings"

	"github.com/abelbrown/postexplorer/internal/trigger"
)

// DefaultSystemPrompt frames every conversation.
const DefaultSystemPrompt = "You are a helpful AI assistant for exploring EECS 182 special participation posts. " +
	"Answer questions about the posts, models, and homeworks. Be concise and helpful."

// FailureReply replaces a reply that could not be generated.
const FailureReply = "Sorry, something went wrong."

// ClearedNotice is shown after the conversation is reset.
const ClearedNotice = "Conversation cleared. How can I help you?"

// Role is a chat participant.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one chat turn.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Client generates a reply to a conversation, reporting partial text
// through onDelta as it arrives. onDelta may be nil.
type Client interface {
	Chat(ctx context.Context, messages []Message, onDelta func(string)) (string, error)
}

var (
	ErrBusy  = errors.New("a reply is still being generated")
	ErrEmpty = errors.New("question is empty")
)

// Line is one entry of the visible transcript.
type Line struct {
	Role      Role
	Text      string
	Streaming bool
	Failed    bool
}

// Conversation tracks history and the single reply that may be in flight.
// Not safe for concurrent use; deltas are delivered through the UI loop.
type Conversation struct {
	system     string
	history    []Message
	transcript []Line

	seq        trigger.Sequence
	token      trigger.Token
	generating bool
}

// NewConversation starts an empty conversation.
func NewConversation(systemPrompt string) *Conversation {
	if systemPrompt == "" {
		systemPrompt = DefaultSystemPrompt
	}
	return &Conversation{system: systemPrompt}
}

// Generating reports whether a reply is in flight.
func (c *Conversation) Generating() bool { return c.generating }

// Transcript returns the visible lines.
func (c *Conversation) Transcript() []Line { return c.transcript }

// Begin records question and returns the token for the reply plus the
// messages to send. A second question while generating is refused.
func (c *Conversation) Begin(question string) (trigger.Token, []Message, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return 0, nil, ErrEmpty
	}
	if c.generating {
		return 0, nil, ErrBusy
	}

	c.history = append(c.history, Message{Role: RoleUser, Content: question})
	c.transcript = append(c.transcript,
		Line{Role: RoleUser, Text: question},
		Line{Role: RoleAssistant, Streaming: true},
	)
	c.generating = true
	c.token = c.seq.Next()

	msgs := make([]Message, 0, len(c.history)+1)
	msgs = append(msgs, Message{Role: RoleSystem, Content: c.system})
	msgs = append(msgs, c.history...)
	return c.token, msgs, nil
}

// Delta appends streamed text to the pending reply. Stale tokens are ignored.
func (c *Conversation) Delta(t trigger.Token, text string) bool {
	if !c.seq.Current(t) || !c.generating {
		return false
	}
	c.pending().Text += text
	return true
}

// Finish completes the pending reply. A failure shows FailureReply and
// leaves the model history without an assistant turn.
func (c *Conversation) Finish(t trigger.Token, reply string, err error) bool {
	if !c.seq.Current(t) || !c.generating {
		return false
	}
	c.generating = false
	line := c.pending()
	line.Streaming = false
	if err != nil {
		line.Text = FailureReply
		line.Failed = true
		return true
	}
	line.Text = reply
	c.history = append(c.history, Message{Role: RoleAssistant, Content: reply})
	return true
}

// Clear drops the history and abandons any reply in flight.
func (c *Conversation) Clear() {
	c.seq.Invalidate()
	c.generating = false
	c.history = nil
	c.transcript = []Line{{Role: RoleAssistant, Text: ClearedNotice}}
}

func (c *Conversation) pending() *Line {
	return &c.transcript[len(c.transcript)-1]
}
