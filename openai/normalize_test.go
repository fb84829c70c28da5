package openai_test

import (
	"testing"

	"github.com/fwojciec/relay"
	"github.com/fwojciec/relay/openai"
	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		data string
		want []relay.Event
	}{
		{
			name: "done sentinel",
			data: "[DONE]",
			want: []relay.Event{relay.EventFinish{Reason: relay.FinishStop}},
		},
		{
			name: "content delta",
			data: `{"id":"c1","object":"chat.completion.chunk","created":1,"model":"gpt-4o","choices":[{"index":0,"delta":{"content":"Hel"},"finish_reason":null}]}`,
			want: []relay.Event{relay.EventDelta{Text: "Hel"}},
		},
		{
			name: "role-only delta is noise",
			data: `{"id":"c1","object":"chat.completion.chunk","created":1,"model":"gpt-4o","choices":[{"index":0,"delta":{"role":"assistant","content":""},"finish_reason":null}]}`,
		},
		{
			name: "finish reason with model",
			data: `{"id":"c1","object":"chat.completion.chunk","created":1,"model":"gpt-4o-2024","choices":[{"index":0,"delta":{},"finish_reason":"length"}]}`,
			want: []relay.Event{relay.EventFinish{Reason: relay.FinishLength, RawReason: "length", Model: "gpt-4o-2024"}},
		},
		{
			name: "content and finish in one chunk",
			data: `{"id":"c1","object":"chat.completion.chunk","created":1,"model":"m","choices":[{"index":0,"delta":{"content":"!"},"finish_reason":"tool_calls"}]}`,
			want: []relay.Event{
				relay.EventDelta{Text: "!"},
				relay.EventFinish{Reason: relay.FinishToolUse, RawReason: "tool_calls", Model: "m"},
			},
		},
		{
			name: "usage chunk without choices is noise",
			data: `{"id":"c1","object":"chat.completion.chunk","created":1,"model":"m","choices":[],"usage":{"prompt_tokens":1}}`,
		},
		{
			name: "error object",
			data: `{"error":{"message":"Rate limit reached","type":"requests"}}`,
			want: []relay.Event{relay.EventError{Detail: "Rate limit reached"}},
		},
		{
			name: "error string",
			data: `{"error":"upstream closed"}`,
			want: []relay.Event{relay.EventError{Detail: "upstream closed"}},
		},
		{
			name: "invalid json is noise",
			data: `{"choices":[`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := openai.Normalize(relay.Record{Data: []byte(tt.data)})
			assert.Equal(t, tt.want, got)
		})
	}
}
