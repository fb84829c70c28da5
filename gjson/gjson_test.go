package gjson_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fwojciec/relay"
	"github.com/fwojciec/relay/gjson"
	relayhttp "github.com/fwojciec/relay/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		event string
		data  string
		want  []relay.Event
	}{
		{
			name: "done sentinel",
			data: "[DONE]",
			want: []relay.Event{relay.EventFinish{Reason: relay.FinishStop}},
		},
		{
			name:  "message_stop label",
			event: "message_stop",
			data:  `{"type":"message_stop"}`,
			want:  []relay.Event{relay.EventFinish{Reason: relay.FinishStop}},
		},
		{
			name:  "anthropic text delta",
			event: "content_block_delta",
			data:  `{"type":"content_block_delta","index":0,"delta":{"type":"text_delta","text":"Hi"}}`,
			want:  []relay.Event{relay.EventDelta{Text: "Hi"}},
		},
		{
			name:  "anthropic message_delta stop reason",
			event: "message_delta",
			data:  `{"type":"message_delta","delta":{"stop_reason":"end_turn"}}`,
			want:  []relay.Event{relay.EventFinish{Reason: relay.FinishStop, RawReason: "end_turn"}},
		},
		{
			name:  "anthropic message_start is noise",
			event: "message_start",
			data:  `{"type":"message_start","message":{"content":[],"stop_reason":null}}`,
		},
		{
			name: "openai chunk",
			data: `{"model":"gpt","choices":[{"delta":{"content":"x"},"finish_reason":null}]}`,
			want: []relay.Event{relay.EventDelta{Text: "x"}},
		},
		{
			name: "openai finish with model",
			data: `{"model":"gpt","choices":[{"delta":{},"finish_reason":"length"}]}`,
			want: []relay.Event{relay.EventFinish{Reason: relay.FinishLength, RawReason: "length", Model: "gpt"}},
		},
		{
			name: "ollama done",
			data: `{"model":"llama","message":{"content":"!"},"done":true,"done_reason":"stop"}`,
			want: []relay.Event{
				relay.EventDelta{Text: "!"},
				relay.EventFinish{Reason: relay.FinishStop, RawReason: "stop", Model: "llama"},
			},
		},
		{
			name: "done without reason",
			data: `{"done":true}`,
			want: []relay.Event{relay.EventFinish{Reason: relay.FinishStop}},
		},
		{
			name: "error object",
			data: `{"error":{"message":"boom"}}`,
			want: []relay.Event{relay.EventError{Detail: "boom"}},
		},
		{
			name: "error string",
			data: `{"error":"boom"}`,
			want: []relay.Event{relay.EventError{Detail: "boom"}},
		},
		{
			name: "null error is ignored",
			data: `{"error":null,"text":"ok"}`,
			want: []relay.Event{relay.EventDelta{Text: "ok"}},
		},
		{
			name: "unknown shape is noise",
			data: `{"foo":"bar"}`,
		},
		{
			name: "not json is noise",
			data: `hello`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := gjson.Normalize(relay.Record{Event: tt.event, Data: []byte(tt.data)})
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPaths_Custom(t *testing.T) {
	t.Parallel()

	paths := gjson.Paths{
		Text:   []string{"output.chunk"},
		Finish: []string{"output.end"},
		Model:  []string{"meta.engine"},
	}
	got := paths.Normalize(relay.Record{Data: []byte(`{"output":{"chunk":"z","end":"max_tokens"},"meta":{"engine":"e1"}}`)})
	assert.Equal(t, []relay.Event{
		relay.EventDelta{Text: "z"},
		relay.EventFinish{Reason: relay.FinishLength, RawReason: "max_tokens", Model: "e1"},
	}, got)
}

func TestAdapter_NewCall(t *testing.T) {
	t.Parallel()

	temp := 1.0
	a := gjson.New("http://example.test/chat",
		gjson.WithLabel("local"),
		gjson.WithModel("tiny"),
		gjson.WithHeader("Authorization", "Bearer x"),
		gjson.WithField("options.top_k", 4),
	)
	call, err := a.NewCall(relay.Request{
		SystemPrompt: "sys",
		Messages:     []relay.Message{relay.UserMessage("Hi")},
		MaxTokens:    10,
		Temperature:  &temp,
	})
	require.NoError(t, err)

	assert.Equal(t, "local", call.Provider)
	assert.Equal(t, "tiny", call.Model)
	assert.Equal(t, "Bearer x", call.Header.Get("Authorization"))
	assert.JSONEq(t, `{
		"stream": true,
		"messages": [{"role":"system","content":"sys"},{"role":"user","content":"Hi"}],
		"model": "tiny",
		"max_tokens": 10,
		"temperature": 1,
		"options": {"top_k": 4}
	}`, string(call.Body))
}

func TestStream_NDJSONFraming(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("{\"response\":\"Hel\"}\n{\"response\":\"lo\"}\n{\"done\":true}\n"))
	}))
	defer srv.Close()

	client := relay.NewClient(relayhttp.New(), relay.Normalizers{gjson.Label: gjson.Normalize})
	h, err := client.StartStream(context.Background(), gjson.New(srv.URL, gjson.WithFraming(gjson.FramingNDJSON)),
		relay.Request{Messages: []relay.Message{relay.UserMessage("Hi")}}, nil)
	require.NoError(t, err)

	res, err := h.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Hello", res.Text)
	assert.Equal(t, relay.FinishStop, res.FinishReason)
}
