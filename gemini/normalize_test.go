package gemini_test

import (
	"testing"

	"github.com/fwojciec/relay"
	"github.com/fwojciec/relay/gemini"
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
			name: "text part",
			data: `{"candidates":[{"content":{"parts":[{"text":"Hel"}],"role":"model"},"index":0}],"modelVersion":"gemini-2.5-flash"}`,
			want: []relay.Event{relay.EventDelta{Text: "Hel"}},
		},
		{
			name: "multiple parts joined",
			data: `{"candidates":[{"content":{"parts":[{"text":"a"},{"text":"b"}],"role":"model"}}]}`,
			want: []relay.Event{relay.EventDelta{Text: "ab"}},
		},
		{
			name: "thought parts skipped",
			data: `{"candidates":[{"content":{"parts":[{"text":"thinking...","thought":true},{"text":"answer"}],"role":"model"}}]}`,
			want: []relay.Event{relay.EventDelta{Text: "answer"}},
		},
		{
			name: "thought only is noise",
			data: `{"candidates":[{"content":{"parts":[{"text":"hmm","thought":true}],"role":"model"}}]}`,
		},
		{
			name: "text with finish reason",
			data: `{"candidates":[{"content":{"parts":[{"text":"lo"}],"role":"model"},"finishReason":"STOP"}],"modelVersion":"gemini-2.5-flash-001"}`,
			want: []relay.Event{
				relay.EventDelta{Text: "lo"},
				relay.EventFinish{Reason: relay.FinishStop, RawReason: "STOP", Model: "gemini-2.5-flash-001"},
			},
		},
		{
			name: "max tokens",
			data: `{"candidates":[{"finishReason":"MAX_TOKENS"}],"modelVersion":"m"}`,
			want: []relay.Event{relay.EventFinish{Reason: relay.FinishLength, RawReason: "MAX_TOKENS", Model: "m"}},
		},
		{
			name: "safety",
			data: `{"candidates":[{"finishReason":"SAFETY"}]}`,
			want: []relay.Event{relay.EventFinish{Reason: relay.FinishError, RawReason: "SAFETY"}},
		},
		{
			name: "blocked prompt",
			data: `{"promptFeedback":{"blockReason":"SAFETY","blockReasonMessage":"unsafe"}}`,
			want: []relay.Event{relay.EventError{Detail: "prompt blocked: SAFETY: unsafe"}},
		},
		{
			name: "error payload",
			data: `{"error":{"code":429,"message":"Quota exceeded","status":"RESOURCE_EXHAUSTED"}}`,
			want: []relay.Event{relay.EventError{Detail: "RESOURCE_EXHAUSTED: Quota exceeded"}},
		},
		{
			name: "usage only is noise",
			data: `{"usageMetadata":{"promptTokenCount":3}}`,
		},
		{
			name: "invalid json is noise",
			data: `{"candidates":`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, gemini.Normalize(relay.Record{Data: []byte(tt.data)}))
		})
	}
}
