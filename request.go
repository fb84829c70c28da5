package relay

import "strings"

// Request carries model selection and generation parameters.
// The adapter uses its own defaults when fields are zero/nil.
type Request struct {
	Model        string // model ID, provider-specific; empty = adapter default
	SystemPrompt string
	Messages     []Message
	MaxTokens    int      // 0 = adapter default
	Temperature  *float64 // nil = adapter default
}

// SystemText returns SystemPrompt followed by the content of every
// RoleSystem message, separated by blank lines. Adapters for APIs that keep
// the system prompt outside the turn list use it.
func (r Request) SystemText() string {
	parts := make([]string, 0, 1)
	if r.SystemPrompt != "" {
		parts = append(parts, r.SystemPrompt)
	}
	for _, m := range r.Messages {
		if m.Role == RoleSystem && m.Content != "" {
			parts = append(parts, m.Content)
		}
	}
	return strings.Join(parts, "\n\n")
}
