package relay

import "strings"

// FinishReason indicates why the provider stopped generating.
type FinishReason string

const (
	FinishStop    FinishReason = "stop"
	FinishLength  FinishReason = "length"
	FinishToolUse FinishReason = "tool_use"
	FinishError   FinishReason = "error"
)

// finishReasons maps lower-cased provider reason strings onto FinishReason.
// Anthropic, OpenAI, Ollama and Gemini spellings are all listed here so the
// normalizers share one table.
var finishReasons = map[string]FinishReason{
	"stop":                          FinishStop,
	"end_turn":                      FinishStop,
	"stop_sequence":                 FinishStop,
	"pause_turn":                    FinishStop,
	"length":                        FinishLength,
	"max_tokens":                    FinishLength,
	"model_context_window_exceeded": FinishLength,
	"tool_use":                      FinishToolUse,
	"tool_calls":                    FinishToolUse,
	"function_call":                 FinishToolUse,
	"error":                         FinishError,
	"refusal":                       FinishError,
	"content_filter":                FinishError,
	"safety":                        FinishError,
	"recitation":                    FinishError,
	"blocklist":                     FinishError,
	"prohibited_content":            FinishError,
	"spii":                          FinishError,
	"malformed_function_call":       FinishError,
}

// ParseFinishReason maps a provider-specific reason onto the closed
// FinishReason set. Matching is case-insensitive. Empty and unmapped strings
// fall back to FinishStop.
func ParseFinishReason(raw string) FinishReason {
	if r, ok := finishReasons[strings.ToLower(strings.TrimSpace(raw))]; ok {
		return r
	}
	return FinishStop
}
