package gemini

import (
	"strings"

	"github.com/fwojciec/relay"
	"github.com/tidwall/gjson"
	"google.golang.org/genai"
)

// Interface compliance check.
var _ relay.NormalizeFunc = Normalize

// Normalize maps one GenerateContentResponse payload onto normalized events.
// Non-thought text parts of the first candidate yield one delta; the
// candidate's finishReason finishes with the mapped reason and the model
// version. A blocked prompt or an {"error":…} payload fails.
func Normalize(rec relay.Record) []relay.Event {
	if !gjson.ValidBytes(rec.Data) {
		return nil
	}
	if e := gjson.GetBytes(rec.Data, "error"); e.Exists() {
		detail := e.Get("message").String()
		if status := e.Get("status").String(); status != "" {
			detail = status + ": " + detail
		}
		return []relay.Event{relay.EventError{Detail: detail}}
	}

	var resp genai.GenerateContentResponse
	if err := resp.UnmarshalJSON(rec.Data); err != nil {
		return nil
	}
	if fb := resp.PromptFeedback; fb != nil && fb.BlockReason != "" {
		detail := "prompt blocked: " + string(fb.BlockReason)
		if fb.BlockReasonMessage != "" {
			detail += ": " + fb.BlockReasonMessage
		}
		return []relay.Event{relay.EventError{Detail: detail}}
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0] == nil {
		return nil
	}
	c := resp.Candidates[0]

	var events []relay.Event
	if text := candidateText(c); text != "" {
		events = append(events, relay.EventDelta{Text: text})
	}
	if c.FinishReason != "" && c.FinishReason != genai.FinishReasonUnspecified {
		raw := string(c.FinishReason)
		events = append(events, relay.EventFinish{
			Reason:    relay.ParseFinishReason(raw),
			RawReason: raw,
			Model:     resp.ModelVersion,
		})
	}
	return events
}

func candidateText(c *genai.Candidate) string {
	if c.Content == nil {
		return ""
	}
	var b strings.Builder
	for _, p := range c.Content.Parts {
		if p == nil || p.Thought {
			continue
		}
		b.WriteString(p.Text)
	}
	return b.String()
}
