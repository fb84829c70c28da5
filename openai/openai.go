// Package openai adapts the OpenAI Chat Completions API, and servers that
// speak its streaming dialect, to the relay core.
//
// Chunks are decoded into the official SDK's ChatCompletionChunk; the
// request body is built from ChatCompletionNewParams.
package openai

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/fwojciec/relay"
	"github.com/fwojciec/relay/sse"
	"github.com/openai/openai-go/v3"
	"github.com/tidwall/sjson"
)

const (
	// Label is the provider label used to register Normalize.
	Label = "openai"

	defaultBaseURL  = "https://api.openai.com/v1"
	defaultModel    = "gpt-4o-mini"
	completionsPath = "/chat/completions"
)

// Interface compliance check.
var _ relay.Adapter = (*Adapter)(nil)

// Adapter implements [relay.Adapter] for the Chat Completions API.
type Adapter struct {
	apiKey  string
	baseURL string
	model   string
	label   string
	header  http.Header
}

// Option configures an [Adapter].
type Option func(*Adapter)

// WithBaseURL sets the API base URL, including the version segment.
func WithBaseURL(url string) Option {
	return func(a *Adapter) { a.baseURL = url }
}

// WithModel sets the model used when a request does not name one.
func WithModel(model string) Option {
	return func(a *Adapter) { a.model = model }
}

// WithLabel overrides the provider label, for compatible servers that
// register Normalize under their own name.
func WithLabel(label string) Option {
	return func(a *Adapter) { a.label = label }
}

// WithHeader adds a header to every call.
func WithHeader(key, value string) Option {
	return func(a *Adapter) { a.header.Add(key, value) }
}

// New creates an [Adapter]. An empty apiKey sends no Authorization header.
func New(apiKey string, opts ...Option) *Adapter {
	a := &Adapter{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		model:   defaultModel,
		label:   Label,
		header:  make(http.Header),
	}
	for _, o := range opts {
		o(a)
	}
	return a
}

// Label returns the provider label, [Label] unless overridden.
func (a *Adapter) Label() string { return a.label }

// NewDecoder returns an SSE decoder.
func (a *Adapter) NewDecoder() relay.Decoder { return sse.NewDecoder() }

// NewCall builds a streaming chat completion call.
func (a *Adapter) NewCall(req relay.Request) (relay.Call, error) {
	model := req.Model
	if model == "" {
		model = a.model
	}

	params := openai.ChatCompletionNewParams{
		Model:    model,
		Messages: convertMessages(req),
	}
	if req.MaxTokens > 0 {
		params.MaxCompletionTokens = openai.Int(int64(req.MaxTokens))
	}
	if req.Temperature != nil {
		params.Temperature = openai.Float(*req.Temperature)
	}

	body, err := json.Marshal(params)
	if err != nil {
		return relay.Call{}, fmt.Errorf("openai: %w", err)
	}
	// Streaming is a transport concern in the SDK, so the flag is not part
	// of the params type.
	if body, err = sjson.SetBytes(body, "stream", true); err != nil {
		return relay.Call{}, fmt.Errorf("openai: %w", err)
	}

	header := a.header.Clone()
	header.Set("Content-Type", "application/json")
	if a.apiKey != "" {
		header.Set("Authorization", "Bearer "+a.apiKey)
	}

	return relay.Call{
		Provider: a.label,
		Model:    model,
		URL:      a.baseURL + completionsPath,
		Header:   header,
		Body:     body,
		Stream:   true,
	}, nil
}

func convertMessages(req relay.Request) []openai.ChatCompletionMessageParamUnion {
	msgs := make([]openai.ChatCompletionMessageParamUnion, 0, len(req.Messages)+1)
	if req.SystemPrompt != "" {
		msgs = append(msgs, openai.SystemMessage(req.SystemPrompt))
	}
	for _, m := range req.Messages {
		switch m.Role {
		case relay.RoleSystem:
			msgs = append(msgs, openai.SystemMessage(m.Content))
		case relay.RoleAssistant:
			msgs = append(msgs, openai.AssistantMessage(m.Content))
		default:
			msgs = append(msgs, openai.UserMessage(m.Content))
		}
	}
	return msgs
}
