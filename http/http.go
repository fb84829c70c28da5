// Package http implements [relay.Issuer] on top of net/http.
package http

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/fwojciec/relay"
	"github.com/tidwall/gjson"
)

// maxErrorBody caps how much of a non-2xx body is read for the message.
const maxErrorBody = 64 << 10

// Interface compliance check.
var _ relay.Issuer = (*Issuer)(nil)

// Issuer opens streaming POST requests.
type Issuer struct {
	httpClient *http.Client
	logger     *slog.Logger
	userAgent  string
}

// Option configures an [Issuer].
type Option func(*Issuer)

// WithHTTPClient sets a custom HTTP client. Its Timeout must be zero for
// long-lived streams; deadlines come from the call context.
func WithHTTPClient(hc *http.Client) Option {
	return func(i *Issuer) { i.httpClient = hc }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(i *Issuer) { i.logger = l }
}

// WithUserAgent sets the User-Agent header sent with every call.
func WithUserAgent(ua string) Option {
	return func(i *Issuer) { i.userAgent = ua }
}

// New creates an [Issuer].
func New(opts ...Option) *Issuer {
	i := &Issuer{
		httpClient: http.DefaultClient,
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, o := range opts {
		o(i)
	}
	return i
}

// Issue posts call.Body to call.URL. The response body is returned as is;
// cancelling ctx aborts the request and unblocks a pending Read. Transport
// failures and non-2xx responses are returned as *relay.ProtocolError.
func (i *Issuer) Issue(ctx context.Context, call relay.Call) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, call.URL, bytes.NewReader(call.Body))
	if err != nil {
		return nil, &relay.ProtocolError{Provider: call.Provider, Cause: err}
	}
	for k, vs := range call.Header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	if req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if call.Stream && req.Header.Get("Accept") == "" {
		req.Header.Set("Accept", "text/event-stream, application/x-ndjson")
	}
	if i.userAgent != "" {
		req.Header.Set("User-Agent", i.userAgent)
	}

	i.logger.Debug("issuing call", "provider", call.Provider, "url", redact(call.URL))
	resp, err := i.httpClient.Do(req)
	if err != nil {
		return nil, &relay.ProtocolError{Provider: call.Provider, Cause: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		return nil, parseHTTPError(call.Provider, resp)
	}
	return resp.Body, nil
}

func parseHTTPError(provider string, resp *http.Response) error {
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil {
		return &relay.ProtocolError{Provider: provider, StatusCode: resp.StatusCode, Cause: err}
	}
	return &relay.ProtocolError{
		Provider:   provider,
		StatusCode: resp.StatusCode,
		Message:    ErrorMessage(body),
	}
}

// ErrorMessage extracts the provider-supplied message from an error body.
// It understands {"error":{"message":…}}, {"error":"…"}, {"message":…} and
// {"detail":…}, prefixing the error type when one is given. Non-JSON bodies
// are returned trimmed.
func ErrorMessage(body []byte) string {
	if !gjson.ValidBytes(body) {
		return strings.TrimSpace(string(body))
	}
	if e := gjson.GetBytes(body, "error"); e.Exists() {
		if !e.IsObject() {
			return e.String()
		}
		msg := e.Get("message").String()
		if typ := e.Get("type").String(); typ != "" && msg != "" {
			return typ + ": " + msg
		}
		if msg != "" {
			return msg
		}
		if s := e.Get("status").String(); s != "" {
			return s
		}
	}
	for _, path := range []string{"message", "detail"} {
		if r := gjson.GetBytes(body, path); r.Exists() && r.String() != "" {
			return r.String()
		}
	}
	return strings.TrimSpace(string(body))
}

// redact drops the query string, which may carry an API key.
func redact(url string) string {
	if i := strings.IndexByte(url, '?'); i >= 0 {
		return url[:i]
	}
	return url
}
