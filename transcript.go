package relay

import "time"

// Transcript is a conversation kept across runs: the prompts and completed
// replies a caller sends as history with the next request.
type Transcript struct {
	ID           string
	Provider     string
	Model        string
	SystemPrompt string
	Messages     []Message
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
