// Package gjson provides a field-path normalizer and a configurable adapter
// for streaming endpoints that have no dedicated package. Payloads are
// probed with github.com/tidwall/gjson paths and request bodies are built
// with github.com/tidwall/sjson.
package gjson

import (
	"bytes"

	"github.com/fwojciec/relay"
	"github.com/tidwall/gjson"
)

// Label is the default provider label of the generic adapter.
const Label = "generic"

// Paths lists the gjson paths probed in each payload, in order. The first
// path holding a non-empty string wins.
type Paths struct {
	Text   []string
	Finish []string
	Model  []string
}

// DefaultPaths covers the common Anthropic, OpenAI and Ollama shapes.
var DefaultPaths = Paths{
	Text: []string{
		"delta.text",
		"content_block.text",
		"choices.0.delta.content",
		"delta.content",
		"message.content",
		"response",
		"text",
	},
	Finish: []string{
		"finish_reason",
		"stop_reason",
		"delta.stop_reason",
		"done_reason",
		"choices.0.finish_reason",
	},
	Model: []string{"model", "modelVersion"},
}

// Interface compliance check.
var _ relay.NormalizeFunc = Normalize

// Normalize is DefaultPaths.Normalize.
func Normalize(rec relay.Record) []relay.Event {
	return DefaultPaths.Normalize(rec)
}

var doneSentinel = []byte("[DONE]")

// Normalize maps one record onto normalized events:
//   - "[DONE]", or an SSE label of message_stop or stop, finishes with stop;
//   - an "error" object or string fails;
//   - the first text path yields a delta;
//   - the first finish path, or "done": true, finishes with the mapped
//     reason and the first model path.
//
// Records that are not JSON, and JSON without any known field, are noise.
func (p Paths) Normalize(rec relay.Record) []relay.Event {
	data := bytes.TrimSpace(rec.Data)
	if bytes.Equal(data, doneSentinel) {
		return []relay.Event{relay.EventFinish{Reason: relay.FinishStop}}
	}
	if rec.Event == "message_stop" || rec.Event == "stop" {
		return []relay.Event{relay.EventFinish{Reason: relay.FinishStop}}
	}
	if !gjson.ValidBytes(data) {
		return nil
	}
	if e := gjson.GetBytes(data, "error"); e.Exists() && e.Type != gjson.Null {
		detail := e.String()
		if e.IsObject() {
			detail = e.Get("message").String()
		}
		return []relay.Event{relay.EventError{Detail: detail}}
	}

	var events []relay.Event
	if text := first(data, p.Text); text != "" {
		events = append(events, relay.EventDelta{Text: text})
	}
	raw := first(data, p.Finish)
	if raw != "" || gjson.GetBytes(data, "done").Bool() {
		events = append(events, relay.EventFinish{
			Reason:    relay.ParseFinishReason(raw),
			RawReason: raw,
			Model:     first(data, p.Model),
		})
	}
	return events
}

// first returns the first non-empty string found at paths.
func first(data []byte, paths []string) string {
	for _, path := range paths {
		if r := gjson.GetBytes(data, path); r.Type == gjson.String && r.Str != "" {
			return r.Str
		}
	}
	return ""
}
