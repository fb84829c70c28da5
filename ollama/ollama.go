// Package ollama adapts a local Ollama server's /api/chat endpoint to the
// relay core. Ollama streams one JSON object per line.
package ollama

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/fwojciec/relay"
	"github.com/fwojciec/relay/ndjson"
)

const (
	// Label is the provider label used to register Normalize.
	Label = "ollama"

	defaultBaseURL = "http://localhost:11434"
	defaultModel   = "llama3.2"
	chatPath       = "/api/chat"
)

type apiRequest struct {
	Model    string       `json:"model"`
	Messages []apiMessage `json:"messages"`
	Stream   bool         `json:"stream"`
	Options  *apiOptions  `json:"options,omitempty"`
}

type apiMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type apiOptions struct {
	Temperature *float64 `json:"temperature,omitempty"`
	NumPredict  int      `json:"num_predict,omitempty"`
}

// apiResponse is one streamed line from /api/chat or /api/generate.
type apiResponse struct {
	Model      string     `json:"model"`
	Message    apiMessage `json:"message"`
	Response   string     `json:"response"`
	Done       bool       `json:"done"`
	DoneReason string     `json:"done_reason"`
	Error      string     `json:"error"`
}

// Interface compliance check.
var _ relay.Adapter = (*Adapter)(nil)

// Adapter implements [relay.Adapter] for Ollama's chat endpoint.
type Adapter struct {
	baseURL string
	model   string
}

// Option configures an [Adapter].
type Option func(*Adapter)

// WithBaseURL sets the server URL.
func WithBaseURL(url string) Option {
	return func(a *Adapter) { a.baseURL = url }
}

// WithModel sets the model used when a request does not name one.
func WithModel(model string) Option {
	return func(a *Adapter) { a.model = model }
}

// New creates an [Adapter].
func New(opts ...Option) *Adapter {
	a := &Adapter{baseURL: defaultBaseURL, model: defaultModel}
	for _, o := range opts {
		o(a)
	}
	return a
}

// Label returns [Label].
func (a *Adapter) Label() string { return Label }

// NewDecoder returns an NDJSON decoder.
func (a *Adapter) NewDecoder() relay.Decoder { return ndjson.NewDecoder() }

// NewCall builds a streaming /api/chat call.
func (a *Adapter) NewCall(req relay.Request) (relay.Call, error) {
	model := req.Model
	if model == "" {
		model = a.model
	}

	apiReq := apiRequest{Model: model, Stream: true}
	if req.SystemPrompt != "" {
		apiReq.Messages = append(apiReq.Messages, apiMessage{Role: string(relay.RoleSystem), Content: req.SystemPrompt})
	}
	for _, m := range req.Messages {
		apiReq.Messages = append(apiReq.Messages, apiMessage{Role: string(m.Role), Content: m.Content})
	}
	if req.Temperature != nil || req.MaxTokens > 0 {
		apiReq.Options = &apiOptions{Temperature: req.Temperature, NumPredict: req.MaxTokens}
	}

	body, err := json.Marshal(apiReq)
	if err != nil {
		return relay.Call{}, fmt.Errorf("ollama: %w", err)
	}
	header := make(http.Header)
	header.Set("Content-Type", "application/json")
	header.Set("Accept", "application/x-ndjson")

	return relay.Call{
		Provider: Label,
		Model:    model,
		URL:      a.baseURL + chatPath,
		Header:   header,
		Body:     body,
		Stream:   true,
	}, nil
}

// Interface compliance check.
var _ relay.NormalizeFunc = Normalize

// Normalize maps one Ollama line onto normalized events. message.content
// (chat) or response (generate) yields a delta; done:true finishes with
// done_reason (stop when absent) and the reported model; an error field
// fails. The final line may carry both text and done.
func Normalize(rec relay.Record) []relay.Event {
	var resp apiResponse
	if err := json.Unmarshal(rec.Data, &resp); err != nil {
		return nil
	}
	if resp.Error != "" {
		return []relay.Event{relay.EventError{Detail: resp.Error}}
	}

	var events []relay.Event
	text := resp.Message.Content
	if text == "" {
		text = resp.Response
	}
	if text != "" {
		events = append(events, relay.EventDelta{Text: text})
	}
	if resp.Done {
		events = append(events, relay.EventFinish{
			Reason:    relay.ParseFinishReason(resp.DoneReason),
			RawReason: resp.DoneReason,
			Model:     resp.Model,
		})
	}
	return events
}
