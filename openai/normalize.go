package openai

import (
	"bytes"

	"github.com/fwojciec/relay"
	"github.com/openai/openai-go/v3"
	"github.com/tidwall/gjson"
)

// Interface compliance check.
var _ relay.NormalizeFunc = Normalize

var doneSentinel = []byte("[DONE]")

// Normalize maps one chat.completion.chunk record onto normalized events.
// "[DONE]" finishes with stop, an {"error":…} payload fails, the first
// choice's delta content yields a delta and its finish_reason finishes with
// the mapped reason and the chunk's model. A chunk may carry both.
func Normalize(rec relay.Record) []relay.Event {
	data := bytes.TrimSpace(rec.Data)
	if bytes.Equal(data, doneSentinel) {
		return []relay.Event{relay.EventFinish{Reason: relay.FinishStop}}
	}
	if !gjson.ValidBytes(data) {
		return nil
	}
	if e := gjson.GetBytes(data, "error"); e.Exists() {
		detail := e.String()
		if e.IsObject() {
			detail = e.Get("message").String()
		}
		return []relay.Event{relay.EventError{Detail: detail}}
	}

	var chunk openai.ChatCompletionChunk
	if err := chunk.UnmarshalJSON(data); err != nil || len(chunk.Choices) == 0 {
		return nil
	}
	choice := chunk.Choices[0]

	var events []relay.Event
	if choice.Delta.Content != "" {
		events = append(events, relay.EventDelta{Text: choice.Delta.Content})
	}
	if raw := choice.FinishReason; raw != "" {
		events = append(events, relay.EventFinish{
			Reason:    relay.ParseFinishReason(raw),
			RawReason: raw,
			Model:     chunk.Model,
		})
	}
	return events
}
