package relay

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"
)

const defaultReadSize = 4096

// Client starts streams: it builds the call through an Adapter, opens it
// through an Issuer and services the connection on its own goroutine.
type Client struct {
	issuer      Issuer
	normalizers Normalizers
	logger      *slog.Logger
	timeout     time.Duration
	buffering   bool
	readSize    int
	now         func() time.Time
}

// Option configures a [Client].
type Option func(*Client)

// WithTimeout sets the deadline applied to every call that does not carry
// its own. Zero means no deadline.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// WithBuffering makes every stream's controller keep the chunks it
// processed.
func WithBuffering(on bool) Option {
	return func(c *Client) { c.buffering = on }
}

// WithLogger sets the logger. Streams log with stream_id and provider keys.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithReadSize sets the size of the buffer used to read the connection.
func WithReadSize(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.readSize = n
		}
	}
}

// WithClock sets the time source handed to each stream's controller.
func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

// NewClient creates a [Client] that opens connections with issuer and
// normalizes records with normalizers.
func NewClient(issuer Issuer, normalizers Normalizers, opts ...Option) *Client {
	c := &Client{
		issuer:      issuer,
		normalizers: normalizers,
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		readSize:    defaultReadSize,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// StartStream validates req, builds the call with a and starts servicing it
// on a new goroutine. The returned Handle is Running. Cancelling ctx cancels
// the stream. sink receives every delta on the servicing goroutine.
func (c *Client) StartStream(ctx context.Context, a Adapter, req Request, sink ChunkFunc) (*Handle, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("relay: %w", err)
	}
	call, err := a.NewCall(req)
	if err != nil {
		return nil, fmt.Errorf("relay: %s: %w", a.Label(), err)
	}
	if call.Provider == "" {
		call.Provider = a.Label()
	}
	if call.Timeout == 0 {
		call.Timeout = c.timeout
	}
	if _, ok := c.normalizers[a.Label()]; !ok {
		c.logger.Warn("no normalizer registered", "provider", a.Label())
	}

	s := NewSession(call.Provider, call.Model, sink)
	logger := c.logger.With("stream_id", s.ID(), "provider", call.Provider)
	ctrl := NewController(ControllerConfig{
		Buffering: c.buffering,
		Logger:    logger,
		Now:       c.now,
	})
	ctrl.Start(ctx, s)

	h := &Handle{
		session:  s,
		ctrl:     ctrl,
		model:    call.Model,
		finished: make(chan struct{}),
	}
	st := &stream{
		label:       a.Label(),
		call:        call,
		decoder:     a.NewDecoder(),
		issuer:      c.issuer,
		normalizers: c.normalizers,
		handle:      h,
		logger:      logger,
		readSize:    c.readSize,
	}
	logger.Debug("stream started", "model", call.Model)
	go st.run()
	return h, nil
}

// stream is the servicing side of one Handle.
type stream struct {
	label       string
	call        Call
	decoder     Decoder
	issuer      Issuer
	normalizers Normalizers
	handle      *Handle
	logger      *slog.Logger
	readSize    int
}

func (st *stream) run() {
	defer close(st.handle.finished)

	ctx := st.handle.ctrl.Context()
	if st.call.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeoutCause(ctx, st.call.Timeout, ErrTimeout)
		defer cancel()
	}

	body, err := st.issuer.Issue(ctx, st.call)
	if err != nil {
		st.fail(ctx, err)
		return
	}
	defer body.Close()

	buf := make([]byte, st.readSize)
	for {
		n, rerr := body.Read(buf)
		if n > 0 && !st.dispatch(ctx, st.decoder.Feed(buf[:n])) {
			return
		}
		if rerr == nil {
			continue
		}
		if !errors.Is(rerr, io.EOF) {
			st.fail(ctx, rerr)
			return
		}
		if !st.dispatch(ctx, st.decoder.Flush()) {
			return
		}
		// A stream paused right before end of stream completes on resume.
		if err := st.handle.ctrl.WaitForResume(); err != nil {
			st.fail(ctx, err)
			return
		}
		st.handle.session.End()
		st.settled()
		return
	}
}

// dispatch normalizes recs and pushes every event through the controller.
// It returns false once the stream must stop reading.
func (st *stream) dispatch(ctx context.Context, recs []Record) bool {
	for _, rec := range recs {
		events := st.normalizers.Normalize(st.label, rec)
		if len(events) == 0 {
			st.logger.Debug("dropped record", "event", rec.Event, "bytes", len(rec.Data))
			continue
		}
		for _, e := range events {
			if !st.handle.ctrl.ProcessChunk(e) {
				st.fail(ctx, context.Cause(ctx))
				return false
			}
			if st.handle.session.Settled() {
				st.settled()
				return false
			}
		}
	}
	return true
}

// fail settles the session for a stream that stopped without a terminator.
// Cancellation (through the Handle or the parent context) rejects with
// ErrCancelled. An expired deadline, whether the client's or the parent
// context's, and every other failure reject with a *ProtocolError.
func (st *stream) fail(ctx context.Context, err error) {
	s := st.handle.session
	if s.Settled() {
		st.settled()
		return
	}
	if ctx.Err() != nil {
		cause := context.Cause(ctx)
		if !IsTimeout(cause) && errors.Is(cause, context.DeadlineExceeded) {
			cause = fmt.Errorf("%w: %w", ErrTimeout, cause)
		}
		if IsTimeout(cause) {
			st.reject(&ProtocolError{Provider: st.call.Provider, Message: "request timed out", Cause: cause})
			return
		}
		if !st.handle.ctrl.Cancel(cause.Error()) {
			s.Cancel(cause)
		}
		st.settled()
		return
	}
	if err == nil {
		err = errors.New("stream stopped")
	}
	var pe *ProtocolError
	if !errors.As(err, &pe) {
		err = &ProtocolError{Provider: st.call.Provider, Cause: err}
	}
	st.reject(err)
}

func (st *stream) reject(err error) {
	st.handle.session.Fail(err)
	st.settled()
}

// settled mirrors the session's outcome onto the controller.
func (st *stream) settled() {
	res, err := st.handle.session.Result()
	switch {
	case err == nil:
		st.handle.ctrl.Complete(res)
		st.logger.Info("stream completed",
			"finish_reason", string(res.FinishReason),
			"chunks", st.handle.ctrl.Stats().Chunks)
	case IsCancelled(err):
		st.logger.Info("stream cancelled", "err", err)
	default:
		st.handle.ctrl.Error(err)
		st.logger.Info("stream failed", "err", err)
	}
}
