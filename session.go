package relay

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/google/uuid"
)

// outcome is the settled state of a Session. A nil *outcome means Open.
type outcome struct {
	result Result
	err    error
}

// Session owns one in-flight request's accumulated text and its terminal
// result. Events are applied by a single servicing goroutine; settlement is
// a compare-and-set so a concurrent Fail (for example a cancellation from
// the caller's goroutine) and a late terminator cannot both win.
type Session struct {
	id       string
	provider string
	model    string
	sink     ChunkFunc

	text   strings.Builder
	deltas int

	settled atomic.Pointer[outcome]
	done    chan struct{}
}

// NewSession creates an open session. model is reported in the result when
// the provider does not name one. sink may be nil.
func NewSession(provider, model string, sink ChunkFunc) *Session {
	return &Session{
		id:       uuid.NewString(),
		provider: provider,
		model:    model,
		sink:     sink,
		done:     make(chan struct{}),
	}
}

// ID returns the session's unique identifier.
func (s *Session) ID() string { return s.id }

// Provider returns the provider label the session was created for.
func (s *Session) Provider() string { return s.provider }

// OnEvent applies a normalized event. Deltas are appended and forwarded to
// the sink synchronously; the first terminal event settles the session.
// Every event after settlement is ignored. A Cancel from another goroutine
// does not wait for a sink call already in progress: at most that one delta
// can reach the sink after Wait has returned ErrCancelled.
func (s *Session) OnEvent(e Event) {
	if s.Settled() {
		return
	}
	switch e := e.(type) {
	case EventDelta:
		s.text.WriteString(e.Text)
		s.deltas++
		if s.sink != nil && !s.Settled() {
			s.sink(e.Text, s.text.String())
		}
	case EventFinish:
		s.resolve(e.Reason, e.RawReason, e.Model)
	case EventError:
		s.Fail(&ProtocolError{Provider: s.provider, Message: e.Detail})
	}
}

// End settles the session for a connection that closed without a
// terminator. The result carries the accumulated text and FinishStop.
// It reports whether this call settled the session.
func (s *Session) End() bool {
	return s.resolve(FinishStop, "", "")
}

// Fail rejects the session with err. It reports whether this call settled
// the session.
func (s *Session) Fail(err error) bool {
	return s.settle(&outcome{err: err})
}

// Cancel rejects the session as cancelled. cause is wrapped with
// ErrCancelled unless it already is one.
func (s *Session) Cancel(cause error) bool {
	switch {
	case cause == nil:
		cause = ErrCancelled
	case !IsCancelled(cause):
		cause = fmt.Errorf("%w: %w", ErrCancelled, cause)
	}
	return s.Fail(cause)
}

func (s *Session) resolve(reason FinishReason, raw, model string) bool {
	if reason == "" {
		reason = FinishStop
	}
	if model == "" {
		model = s.model
	}
	text := s.text.String()
	return s.settle(&outcome{result: Result{
		Message:         AssistantMessage(text),
		Text:            text,
		Model:           model,
		FinishReason:    reason,
		RawFinishReason: raw,
	}})
}

func (s *Session) settle(o *outcome) bool {
	if !s.settled.CompareAndSwap(nil, o) {
		return false
	}
	close(s.done)
	return true
}

// Settled reports whether the session has been resolved or rejected.
func (s *Session) Settled() bool {
	return s.settled.Load() != nil
}

// Done returns a channel closed once the session settles.
func (s *Session) Done() <-chan struct{} { return s.done }

// Result returns the terminal result. It returns ErrNotSettled while the
// session is open.
func (s *Session) Result() (Result, error) {
	o := s.settled.Load()
	if o == nil {
		return Result{}, ErrNotSettled
	}
	return o.result, o.err
}

// Wait blocks until the session settles or ctx is done.
func (s *Session) Wait(ctx context.Context) (Result, error) {
	select {
	case <-s.done:
		return s.Result()
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
}

// Text returns the accumulated text. Only the servicing goroutine (or the
// sink it calls) may use it while the stream is in flight.
func (s *Session) Text() string { return s.text.String() }

// Deltas returns the number of deltas applied.
func (s *Session) Deltas() int { return s.deltas }
