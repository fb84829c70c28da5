package relay

import (
	"context"
	"io"
	"net/http"
	"time"
)

// Record is one provider-native event extracted from the byte stream by a
// Decoder. Event holds the SSE "event:" label and is empty for line-delimited
// JSON. Data is the record payload with framing removed.
type Record struct {
	Event string
	Data  []byte
}

// Decoder turns raw bytes into Records. Feed never blocks: it returns every
// record completed by p and keeps the unterminated remainder for the next
// call. Flush is called once at end of stream and returns a final record
// when the remainder forms one. Decoders swallow malformed input.
type Decoder interface {
	Feed(p []byte) []Record
	Flush() []Record
}

// NormalizeFunc maps one provider record onto normalized events. It must be a
// pure function of its input. A nil result means the record is noise. A
// record yields at most one EventDelta followed by at most one terminal
// event.
type NormalizeFunc func(rec Record) []Event

// Normalizers selects a NormalizeFunc by provider label.
type Normalizers map[string]NormalizeFunc

// Normalize runs the normalizer registered for label. Unknown labels yield
// nil.
func (n Normalizers) Normalize(label string, rec Record) []Event {
	fn, ok := n[label]
	if !ok || fn == nil {
		return nil
	}
	return fn(rec)
}

// Call is a fully built outbound request.
type Call struct {
	Provider string // provider label, used in errors and logs
	Model    string // effective model id
	URL      string
	Header   http.Header
	Body     []byte
	Stream   bool
	Timeout  time.Duration // 0 = no deadline beyond the context's
}

// Issuer opens a connection for a Call. On success the returned body yields
// the response bytes; io.EOF from Read marks end of stream and any other Read
// error is a connection failure. Handshake failures and non-2xx responses are
// returned as errors, preferably *ProtocolError. Cancelling ctx must abort
// the underlying request.
type Issuer interface {
	Issue(ctx context.Context, call Call) (io.ReadCloser, error)
}

// Adapter parameterizes the core for one wire format: it builds the outbound
// call and supplies the frame decoder. Normalization is looked up by Label in
// a Normalizers registry.
type Adapter interface {
	Label() string
	NewCall(req Request) (Call, error)
	NewDecoder() Decoder
}

// ChunkFunc receives every text delta together with the cumulative text.
type ChunkFunc func(delta, cumulative string)
