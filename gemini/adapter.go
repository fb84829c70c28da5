package gemini

import (
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/url"

	"github.com/fwojciec/relay"
	"github.com/fwojciec/relay/sse"
	"google.golang.org/genai"
)

// Interface compliance check.
var _ relay.Adapter = (*Adapter)(nil)

// Adapter implements [relay.Adapter] for the Gemini API.
type Adapter struct {
	apiKey   string
	baseURL  string
	model    string
	thoughts bool
}

// Option configures an [Adapter].
type Option func(*Adapter)

// WithBaseURL sets the API base URL. Useful for testing with httptest.
func WithBaseURL(url string) Option {
	return func(a *Adapter) { a.baseURL = url }
}

// WithModel sets the model ID used when a request does not name one.
func WithModel(model string) Option {
	return func(a *Adapter) { a.model = model }
}

// WithThoughts asks the model to include thought summaries. They are
// streamed but never reach the session text.
func WithThoughts(on bool) Option {
	return func(a *Adapter) { a.thoughts = on }
}

// New creates an [Adapter] with the given API key and options.
func New(apiKey string, opts ...Option) *Adapter {
	a := &Adapter{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		model:   defaultModel,
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

// NewCall builds a streamGenerateContent call.
func (a *Adapter) NewCall(req relay.Request) (relay.Call, error) {
	model := req.Model
	if model == "" {
		model = a.model
	}

	body, err := json.Marshal(buildRequest(req, a.thoughts))
	if err != nil {
		return relay.Call{}, fmt.Errorf("gemini: %w", err)
	}

	header := make(http.Header)
	header.Set("Content-Type", "application/json")
	header.Set("X-Goog-Api-Key", a.apiKey)

	return relay.Call{
		Provider: Label,
		Model:    model,
		URL:      fmt.Sprintf("%s/%s/models/%s:streamGenerateContent?alt=sse", a.baseURL, apiVersion, url.PathEscape(model)),
		Header:   header,
		Body:     body,
		Stream:   true,
	}, nil
}

func buildRequest(req relay.Request, thoughts bool) apiRequest {
	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = defaultMaxTokens
	}
	config := &genai.GenerationConfig{MaxOutputTokens: int32(min(maxTokens, math.MaxInt32))}
	if req.Temperature != nil {
		config.Temperature = genai.Ptr(float32(*req.Temperature))
	}
	if thoughts {
		config.ThinkingConfig = &genai.ThinkingConfig{IncludeThoughts: true}
	}

	r := apiRequest{
		Contents:         ConvertMessages(req.Messages),
		GenerationConfig: config,
	}
	if system := req.SystemText(); system != "" {
		r.SystemInstruction = &genai.Content{Parts: []*genai.Part{genai.NewPartFromText(system)}}
	}
	return r
}

// ConvertMessages maps relay messages onto Gemini contents. Assistant turns
// use the "model" role; system messages travel in the system instruction
// and are skipped.
func ConvertMessages(msgs []relay.Message) []*genai.Content {
	var contents []*genai.Content
	for _, m := range msgs {
		switch m.Role {
		case relay.RoleUser:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleUser))
		case relay.RoleAssistant:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleModel))
		}
	}
	return contents
}
