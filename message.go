package relay

// Message is one turn of a conversation sent to a provider.
type Message struct {
	Role    Role
	Content string
}

// UserMessage returns a user message with the given text.
func UserMessage(text string) Message {
	return Message{Role: RoleUser, Content: text}
}

// AssistantMessage returns an assistant message with the given text.
func AssistantMessage(text string) Message {
	return Message{Role: RoleAssistant, Content: text}
}

// Result is the terminal value of a successfully settled session.
type Result struct {
	Message         Message // assistant message assembled from every delta
	Text            string  // same as Message.Content
	Model           string
	FinishReason    FinishReason
	RawFinishReason string
}
