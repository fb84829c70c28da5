package gjson

import (
	"fmt"
	"net/http"

	"github.com/fwojciec/relay"
	"github.com/fwojciec/relay/ndjson"
	"github.com/fwojciec/relay/sse"
	"github.com/tidwall/sjson"
)

// Framing selects the frame decoder of an [Adapter].
type Framing int

const (
	FramingSSE Framing = iota
	FramingNDJSON
)

// Interface compliance check.
var _ relay.Adapter = (*Adapter)(nil)

// Adapter implements [relay.Adapter] for any endpoint accepting an
// OpenAI-style chat body: {"model", "messages":[{"role","content"}],
// "stream", "max_tokens", "temperature"}. Extra fields are set with
// WithField.
type Adapter struct {
	label   string
	url     string
	model   string
	framing Framing
	header  http.Header
	fields  []field
}

type field struct {
	path  string
	value any
}

// Option configures an [Adapter].
type Option func(*Adapter)

// WithLabel sets the provider label. Default is [Label].
func WithLabel(label string) Option {
	return func(a *Adapter) { a.label = label }
}

// WithModel sets the model used when a request does not name one.
func WithModel(model string) Option {
	return func(a *Adapter) { a.model = model }
}

// WithFraming sets the response framing. Default is [FramingSSE].
func WithFraming(f Framing) Option {
	return func(a *Adapter) { a.framing = f }
}

// WithHeader adds a header to every call.
func WithHeader(key, value string) Option {
	return func(a *Adapter) { a.header.Add(key, value) }
}

// WithField sets value at the sjson path in every request body, after the
// standard fields. It can override them.
func WithField(path string, value any) Option {
	return func(a *Adapter) { a.fields = append(a.fields, field{path, value}) }
}

// New creates an [Adapter] posting to url.
func New(url string, opts ...Option) *Adapter {
	a := &Adapter{
		label:  Label,
		url:    url,
		header: make(http.Header),
	}
	for _, o := range opts {
		o(a)
	}
	return a
}

// Label returns the provider label.
func (a *Adapter) Label() string { return a.label }

// NewDecoder returns a decoder for the configured framing.
func (a *Adapter) NewDecoder() relay.Decoder {
	if a.framing == FramingNDJSON {
		return ndjson.NewDecoder()
	}
	return sse.NewDecoder()
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// NewCall builds the call body field by field.
func (a *Adapter) NewCall(req relay.Request) (relay.Call, error) {
	model := req.Model
	if model == "" {
		model = a.model
	}

	msgs := make([]message, 0, len(req.Messages)+1)
	if req.SystemPrompt != "" {
		msgs = append(msgs, message{Role: string(relay.RoleSystem), Content: req.SystemPrompt})
	}
	for _, m := range req.Messages {
		msgs = append(msgs, message{Role: string(m.Role), Content: m.Content})
	}

	fields := []field{{"stream", true}, {"messages", msgs}}
	if model != "" {
		fields = append(fields, field{"model", model})
	}
	if req.MaxTokens > 0 {
		fields = append(fields, field{"max_tokens", req.MaxTokens})
	}
	if req.Temperature != nil {
		fields = append(fields, field{"temperature", *req.Temperature})
	}
	fields = append(fields, a.fields...)

	body := []byte("{}")
	for _, f := range fields {
		var err error
		if body, err = sjson.SetBytes(body, f.path, f.value); err != nil {
			return relay.Call{}, fmt.Errorf("%s: set %s: %w", a.label, f.path, err)
		}
	}

	header := a.header.Clone()
	header.Set("Content-Type", "application/json")

	return relay.Call{
		Provider: a.label,
		Model:    model,
		URL:      a.url,
		Header:   header,
		Body:     body,
		Stream:   true,
	}, nil
}
