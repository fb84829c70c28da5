package gemini_test

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fwojciec/relay"
	"github.com/fwojciec/relay/gemini"
	relayhttp "github.com/fwojciec/relay/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

func TestAdapter_RequestFormat(t *testing.T) {
	t.Parallel()

	temp := 0.5
	a := gemini.New("gk-test", gemini.WithBaseURL("http://example.test"), gemini.WithThoughts(true))
	call, err := a.NewCall(relay.Request{
		Model:        "gemini-2.5-pro",
		SystemPrompt: "Be terse.",
		Messages: []relay.Message{
			relay.UserMessage("Hi"),
			relay.AssistantMessage("Hello"),
		},
		Temperature: &temp,
	})
	require.NoError(t, err)

	assert.Equal(t, "http://example.test/v1beta/models/gemini-2.5-pro:streamGenerateContent?alt=sse", call.URL)
	assert.Equal(t, "gk-test", call.Header.Get("X-Goog-Api-Key"))
	assert.Equal(t, "gemini-2.5-pro", call.Model)

	var body map[string]any
	require.NoError(t, json.Unmarshal(call.Body, &body))

	contents := body["contents"].([]any)
	require.Len(t, contents, 2)
	assert.Equal(t, "user", contents[0].(map[string]any)["role"])
	assert.Equal(t, "model", contents[1].(map[string]any)["role"])

	system := body["systemInstruction"].(map[string]any)
	assert.Equal(t, "Be terse.", system["parts"].([]any)[0].(map[string]any)["text"])

	config := body["generationConfig"].(map[string]any)
	assert.Equal(t, float64(65536), config["maxOutputTokens"])
	assert.Equal(t, 0.5, config["temperature"])
	assert.Equal(t, map[string]any{"includeThoughts": true}, config["thinkingConfig"])
}

func TestAdapter_MaxTokensClamped(t *testing.T) {
	t.Parallel()

	call, err := gemini.New("gk-test").NewCall(relay.Request{
		Messages:  []relay.Message{relay.UserMessage("Hi")},
		MaxTokens: math.MaxInt,
	})
	require.NoError(t, err)

	var body struct {
		GenerationConfig struct {
			MaxOutputTokens int64 `json:"maxOutputTokens"`
		} `json:"generationConfig"`
	}
	require.NoError(t, json.Unmarshal(call.Body, &body))
	assert.Equal(t, int64(math.MaxInt32), body.GenerationConfig.MaxOutputTokens)
}

func TestConvertMessages(t *testing.T) {
	t.Parallel()

	got := gemini.ConvertMessages([]relay.Message{
		{Role: relay.RoleSystem, Content: "ignored"},
		relay.UserMessage("q"),
		relay.AssistantMessage("a"),
	})
	require.Len(t, got, 2)
	assert.Equal(t, genai.NewContentFromText("q", genai.RoleUser), got[0])
	assert.Equal(t, genai.NewContentFromText("a", genai.RoleModel), got[1])
}

func TestStream_SSE(t *testing.T) {
	t.Parallel()

	payloads := []string{
		`{"candidates":[{"content":{"parts":[{"text":"Hel"}],"role":"model"}}],"modelVersion":"gemini-2.5-flash"}`,
		`{"candidates":[{"content":{"parts":[{"text":"lo"}],"role":"model"},"finishReason":"STOP"}],"modelVersion":"gemini-2.5-flash"}`,
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1beta/models/gemini-2.5-flash:streamGenerateContent", r.URL.Path)
		assert.Equal(t, "sse", r.URL.Query().Get("alt"))
		w.Header().Set("Content-Type", "text/event-stream")
		for _, p := range payloads {
			fmt.Fprintf(w, "data: %s\r\n\r\n", p)
		}
	}))
	defer srv.Close()

	client := relay.NewClient(relayhttp.New(), relay.Normalizers{gemini.Label: gemini.Normalize})
	h, err := client.StartStream(context.Background(), gemini.New("gk", gemini.WithBaseURL(srv.URL)),
		relay.Request{Messages: []relay.Message{relay.UserMessage("Hi")}}, nil)
	require.NoError(t, err)

	res, err := h.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Hello", res.Text)
	assert.Equal(t, relay.FinishStop, res.FinishReason)
	assert.Equal(t, "STOP", res.RawFinishReason)
	assert.Equal(t, "gemini-2.5-flash", res.Model)
}
