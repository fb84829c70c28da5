package anthropic

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/fwojciec/relay"
	"github.com/fwojciec/relay/sse"
)

// Interface compliance check.
var _ relay.Adapter = (*Adapter)(nil)

// Adapter implements [relay.Adapter] for the Anthropic Messages API.
type Adapter struct {
	apiKey      string
	baseURL     string
	model       string
	maxTokens   int
	promptCache bool
}

// Option configures an [Adapter].
type Option func(*Adapter)

// WithBaseURL sets the API base URL. Useful for testing with httptest.
func WithBaseURL(url string) Option {
	return func(a *Adapter) { a.baseURL = url }
}

// WithModel sets the model used when a request does not name one.
func WithModel(model string) Option {
	return func(a *Adapter) { a.model = model }
}

// WithMaxTokens sets the output cap used when a request does not set one.
func WithMaxTokens(n int) Option {
	return func(a *Adapter) { a.maxTokens = n }
}

// WithPromptCache marks the system prompt and the message window as cache
// breakpoints.
func WithPromptCache(on bool) Option {
	return func(a *Adapter) { a.promptCache = on }
}

// New creates an [Adapter] with the given API key and options.
func New(apiKey string, opts ...Option) *Adapter {
	a := &Adapter{
		apiKey:    apiKey,
		baseURL:   defaultBaseURL,
		model:     defaultModel,
		maxTokens: defaultMaxTokens,
	}
	for _, o := range opts {
		o(a)
	}
	return a
}

// Label returns [Label].
func (a *Adapter) Label() string { return Label }

// NewDecoder returns an SSE decoder.
func (a *Adapter) NewDecoder() relay.Decoder { return sse.NewDecoder() }

// NewCall builds a streaming Messages API call.
func (a *Adapter) NewCall(req relay.Request) (relay.Call, error) {
	model := req.Model
	if model == "" {
		model = a.model
	}
	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = a.maxTokens
	}

	apiReq := apiRequest{
		Model:       model,
		MaxTokens:   maxTokens,
		Stream:      true,
		System:      convertSystem(req.SystemText()),
		Messages:    convertMessages(req.Messages),
		Temperature: req.Temperature,
	}
	if a.promptCache {
		injectCacheMarkers(&apiReq)
	}

	body, err := json.Marshal(apiReq)
	if err != nil {
		return relay.Call{}, fmt.Errorf("anthropic: %w", err)
	}

	header := make(http.Header)
	header.Set("Content-Type", "application/json")
	header.Set("X-Api-Key", a.apiKey)
	header.Set("Anthropic-Version", apiVersion)

	return relay.Call{
		Provider: Label,
		Model:    model,
		URL:      a.baseURL + messagesPath,
		Header:   header,
		Body:     body,
		Stream:   true,
	}, nil
}

// convertSystem returns the system prompt as a single text block, or nil
// when the prompt is empty.
func convertSystem(prompt string) []apiContentBlock {
	if prompt == "" {
		return nil
	}
	return []apiContentBlock{{Type: "text", Text: prompt}}
}

// convertMessages maps relay messages onto API turns. System messages travel
// in the system prompt and are skipped; consecutive turns with the same role
// are merged.
func convertMessages(msgs []relay.Message) []apiMessage {
	var result []apiMessage
	for _, m := range msgs {
		if m.Role == relay.RoleSystem {
			continue
		}
		block := apiContentBlock{Type: "text", Text: m.Content}
		if n := len(result); n > 0 && result[n-1].Role == string(m.Role) {
			result[n-1].Content = append(result[n-1].Content, block)
			continue
		}
		result = append(result, apiMessage{Role: string(m.Role), Content: []apiContentBlock{block}})
	}
	return result
}

// injectCacheMarkers sets cache_control breakpoints on the request:
//  1. Top-level: automatic caching for the conversation message window.
//  2. System prompt last block: stable content breakpoint.
func injectCacheMarkers(req *apiRequest) {
	cc := &apiCacheControl{Type: "ephemeral"}
	req.CacheControl = cc
	if len(req.System) > 0 {
		req.System[len(req.System)-1].CacheControl = cc
	}
}
