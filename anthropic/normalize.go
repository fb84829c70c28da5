package anthropic

import (
	"encoding/json"

	"github.com/fwojciec/relay"
)

// Interface compliance check.
var _ relay.NormalizeFunc = Normalize

// Normalize maps one Anthropic SSE record onto normalized events. The SSE
// label selects the payload type; records without one fall back to the
// payload's "type" field.
//
// content_block_delta/text_delta yields a delta, message_delta with a stop
// reason finishes with the mapped reason, message_stop finishes with stop
// and error fails. Everything else (ping, message_start, block boundaries,
// thinking, signature and tool-input deltas) is noise.
func Normalize(rec relay.Record) []relay.Event {
	typ := rec.Event
	if typ == "" {
		var env sseEnvelope
		if err := json.Unmarshal(rec.Data, &env); err != nil {
			return nil
		}
		typ = env.Type
	}

	switch typ {
	case "content_block_delta":
		var evt sseContentBlockDelta
		if err := json.Unmarshal(rec.Data, &evt); err != nil {
			return nil
		}
		if evt.Delta.Type != "text_delta" || evt.Delta.Text == "" {
			return nil
		}
		return []relay.Event{relay.EventDelta{Text: evt.Delta.Text}}
	case "message_delta":
		var evt sseMessageDelta
		if err := json.Unmarshal(rec.Data, &evt); err != nil {
			return nil
		}
		if evt.Delta.StopReason == nil {
			return nil
		}
		raw := *evt.Delta.StopReason
		return []relay.Event{relay.EventFinish{Reason: relay.ParseFinishReason(raw), RawReason: raw}}
	case "message_stop":
		return []relay.Event{relay.EventFinish{Reason: relay.FinishStop}}
	case "error":
		var evt sseError
		if err := json.Unmarshal(rec.Data, &evt); err != nil {
			return []relay.Event{relay.EventError{Detail: string(rec.Data)}}
		}
		detail := evt.Error.Message
		if evt.Error.Type != "" {
			detail = evt.Error.Type + ": " + detail
		}
		return []relay.Event{relay.EventError{Detail: detail}}
	default:
		return nil
	}
}
