package model

import (
	"strings"

	"github.com/ahammadshawki8/chimera/pkg/domain/types"
)

const (
	// DefaultHistoryWindow is the number of prior turns included when the caller does not choose
	DefaultHistoryWindow = 10

	// DefaultSystemPreamble opens every assembled context unless overridden
	DefaultSystemPreamble = "You are a helpful AI assistant in the Chimera Protocol system."

	contextBeginMarker = "=== Injected Context ==="
	contextEndMarker   = "=== End Context ==="

	memoryBeginPrefix = "--- memory "
	memoryEndPrefix   = "--- end memory "
	memoryMarkerClose = " ---"
)

// ContextMemory is the part of an injected memory carried into a context
type ContextMemory struct {
	ID      MemoryID
	Title   string
	Content string
}

// ContextTurn is one role-tagged turn of conversation history
type ContextTurn struct {
	Role    types.MessageRole
	Content string
}

// AssembledContext is the ordered payload handed to a completion provider:
// preamble, injected memories in injection order, recent history in
// chronological order and finally the new user message.
type AssembledContext struct {
	ConversationID ConversationID
	Preamble       string
	Memories       []ContextMemory
	History        []ContextTurn
	UserMessage    string
}

// MemoryBlock renders the delimited block holding every injected memory.
// Each memory sits between its own begin and end lines carrying its ID, so
// one memory's content never reads as part of the next. It returns an empty
// string when no memory is injected.
func (c *AssembledContext) MemoryBlock() string {
	if len(c.Memories) == 0 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString(contextBeginMarker)
	sb.WriteString("\n")
	for _, m := range c.Memories {
		sb.WriteString("\n")
		sb.WriteString(memoryBeginPrefix)
		sb.WriteString(m.ID.String())
		sb.WriteString(": ")
		sb.WriteString(singleLine(m.Title))
		sb.WriteString(memoryMarkerClose)
		sb.WriteString("\n")
		sb.WriteString(m.Content)
		sb.WriteString("\n")
		sb.WriteString(memoryEndPrefix)
		sb.WriteString(m.ID.String())
		sb.WriteString(memoryMarkerClose)
		sb.WriteString("\n")
	}
	sb.WriteString("\n")
	sb.WriteString(contextEndMarker)
	return sb.String()
}

// singleLine keeps a title on its marker line
func singleLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// SystemPrompt returns the preamble followed by the memory block
func (c *AssembledContext) SystemPrompt() string {
	block := c.MemoryBlock()
	if block == "" {
		return c.Preamble
	}
	if c.Preamble == "" {
		return block
	}
	return c.Preamble + "\n\n" + block
}

// Turns returns the history followed by the new user message
func (c *AssembledContext) Turns() []ContextTurn {
	turns := make([]ContextTurn, 0, len(c.History)+1)
	turns = append(turns, c.History...)
	return append(turns, ContextTurn{Role: types.MessageRoleUser, Content: c.UserMessage})
}

// Render flattens the whole context into one text, used by providers that
// take a single prompt.
func (c *AssembledContext) Render() string {
	var sb strings.Builder
	sb.WriteString(c.SystemPrompt())
	for _, turn := range c.Turns() {
		if sb.Len() > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(turn.Role.String())
		sb.WriteString(": ")
		sb.WriteString(turn.Content)
	}
	return sb.String()
}

// TokenUsage is the token accounting reported by a provider
type TokenUsage struct {
	InputTokens  int
	OutputTokens int
}

// Total returns input plus output tokens
func (u TokenUsage) Total() int {
	return u.InputTokens + u.OutputTokens
}

// Completion is a provider's reply to an assembled context
type Completion struct {
	Text     string
	ModelID  string
	Provider types.ProviderKind
	Usage    *TokenUsage
}
