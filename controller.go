package relay

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"
)

// ControllerState is the flow-control state of a Controller.
type ControllerState int

const (
	StateIdle ControllerState = iota
	StateRunning
	StatePaused
	StateCancelled
	StateCompleted
	StateError
)

func (s ControllerState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StatePaused:
		return "paused"
	case StateCancelled:
		return "cancelled"
	case StateCompleted:
		return "completed"
	case StateError:
		return "error"
	default:
		return fmt.Sprintf("ControllerState(%d)", int(s))
	}
}

// Terminal reports whether s is Cancelled, Completed or Error.
func (s ControllerState) Terminal() bool {
	return s == StateCancelled || s == StateCompleted || s == StateError
}

// Stats is a read-only snapshot of a Controller's counters.
type Stats struct {
	State       ControllerState
	Elapsed     time.Duration // since Start; frozen once terminal
	Chunks      int
	Buffered    int
	Throughput  float64       // chunks per second of Elapsed
	AvgInterval time.Duration // mean gap between consecutive chunks
	Paused      bool
	PausedFor   time.Duration // total time spent paused, including a pause in progress
}

// ControllerConfig configures a Controller. The zero value is usable.
type ControllerConfig struct {
	// Buffering keeps every processed chunk, see Controller.Buffered.
	Buffering bool
	Logger    *slog.Logger
	Now       func() time.Time
}

// Controller is a pause/resume/cancel state machine wrapped around one
// Session. It is safe for concurrent use: control operations come from the
// caller while ProcessChunk runs on the servicing goroutine. Invalid
// transitions are logged and reported with a false return, never a panic.
type Controller struct {
	logger    *slog.Logger
	now       func() time.Time
	buffering bool

	mu      sync.Mutex
	state   ControllerState
	session *Session
	ctx     context.Context
	cancel  context.CancelCauseFunc
	resume  chan struct{} // non-nil while paused, closed to release waiters

	buffer     []Event
	chunks     int
	started    time.Time
	ended      time.Time
	firstChunk time.Time
	lastChunk  time.Time
	pausedAt   time.Time
	pausedFor  time.Duration
	result     Result
	err        error
}

// NewController creates an Idle controller.
func NewController(cfg ControllerConfig) *Controller {
	c := &Controller{
		logger:    cfg.Logger,
		now:       cfg.Now,
		buffering: cfg.Buffering,
	}
	if c.logger == nil {
		c.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if c.now == nil {
		c.now = time.Now
	}
	c.ctx, c.cancel = context.WithCancelCause(context.Background())
	return c
}

// Start moves Idle to Running, records the start time and attaches s. The
// cancellation token returned by Context is derived from ctx, so cancelling
// ctx also stops chunk processing.
func (c *Controller) Start(ctx context.Context, s *Session) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateIdle {
		c.warn("start")
		return false
	}
	if ctx == nil {
		ctx = context.Background()
	}
	c.cancel(context.Canceled)
	c.ctx, c.cancel = context.WithCancelCause(ctx)
	c.session = s
	c.state = StateRunning
	c.started = c.now()
	return true
}

// Pause moves Running to Paused. Chunks already being forwarded are not
// affected; the next ProcessChunk call blocks.
func (c *Controller) Pause() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateRunning {
		c.warn("pause")
		return false
	}
	c.state = StatePaused
	c.resume = make(chan struct{})
	c.pausedAt = c.now()
	return true
}

// Resume moves Paused to Running and releases every goroutine blocked in
// WaitForResume or ProcessChunk.
func (c *Controller) Resume() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StatePaused {
		c.warn("resume")
		return false
	}
	c.endPause()
	c.state = StateRunning
	return true
}

// Cancel moves Running or Paused to Cancelled. It cancels the token with a
// cause wrapping ErrCancelled, releases paused waiters and rejects the
// session with the same cause. Cancelling a cancelled controller is a no-op.
func (c *Controller) Cancel(reason string) bool {
	c.mu.Lock()
	switch c.state {
	case StateRunning, StatePaused:
	case StateCancelled:
		c.mu.Unlock()
		return false
	default:
		c.warn("cancel")
		c.mu.Unlock()
		return false
	}
	cause := ErrCancelled
	if reason != "" {
		cause = fmt.Errorf("%w: %s", ErrCancelled, reason)
	}
	if c.state == StatePaused {
		c.endPause()
	}
	c.state = StateCancelled
	c.ended = c.now()
	c.err = cause
	c.cancel(cause)
	s := c.session
	c.mu.Unlock()

	if s != nil {
		s.Cancel(cause)
	}
	c.logger.Debug("stream cancelled", "reason", reason)
	return true
}

// Complete moves Running to Completed and records the result. A controller
// that reaches Complete while paused (the user paused after the terminator
// was forwarded) is completed as well and its waiters are released. It is a
// no-op on a cancelled controller.
func (c *Controller) Complete(r Result) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch c.state {
	case StateRunning:
	case StatePaused:
		c.endPause()
	case StateCancelled:
		return false
	default:
		c.warn("complete")
		return false
	}
	c.state = StateCompleted
	c.ended = c.now()
	c.result = r
	c.cancel(context.Canceled)
	return true
}

// Error moves any non-terminal state to Error. The token is cancelled with
// err so the connection is released.
func (c *Controller) Error(err error) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.Terminal() {
		c.warn("error")
		return false
	}
	if c.state == StatePaused {
		c.endPause()
	}
	c.state = StateError
	c.ended = c.now()
	c.err = err
	c.cancel(err)
	return true
}

// Reset returns a terminal or Idle controller to Idle with cleared counters,
// no session and a fresh cancellation token. Callers must treat the reset
// controller as a new logical session.
func (c *Controller) Reset() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateIdle && !c.state.Terminal() {
		c.warn("reset")
		return false
	}
	c.cancel(context.Canceled)
	c.ctx, c.cancel = context.WithCancelCause(context.Background())
	c.state = StateIdle
	c.session = nil
	c.resume = nil
	c.buffer = nil
	c.chunks = 0
	c.started = time.Time{}
	c.ended = time.Time{}
	c.firstChunk = time.Time{}
	c.lastChunk = time.Time{}
	c.pausedAt = time.Time{}
	c.pausedFor = 0
	c.result = Result{}
	c.err = nil
	return true
}

// ProcessChunk is called once per normalized event. It returns false, without
// forwarding, when the token is cancelled or the controller is not running.
// While paused it blocks until Resume or Cancel. Otherwise it updates the
// counters, buffers the chunk if buffering is enabled and forwards it to the
// session.
func (c *Controller) ProcessChunk(e Event) bool {
	c.mu.Lock()
	for {
		if c.ctx.Err() != nil {
			c.mu.Unlock()
			return false
		}
		if c.state == StateRunning {
			break
		}
		if c.state != StatePaused {
			c.mu.Unlock()
			return false
		}
		resume, done := c.resume, c.ctx.Done()
		c.mu.Unlock()
		select {
		case <-resume:
		case <-done:
		}
		c.mu.Lock()
	}

	now := c.now()
	if c.chunks == 0 {
		c.firstChunk = now
	}
	c.chunks++
	c.lastChunk = now
	if c.buffering {
		c.buffer = append(c.buffer, e)
	}
	s := c.session
	c.mu.Unlock()

	if s != nil {
		s.OnEvent(e)
	}
	return true
}

// WaitForResume blocks while the controller is paused. It returns nil once
// the controller is not paused, or the cancellation cause when the token is
// cancelled (including while waiting).
func (c *Controller) WaitForResume() error {
	c.mu.Lock()
	for c.state == StatePaused && c.ctx.Err() == nil {
		resume, done := c.resume, c.ctx.Done()
		c.mu.Unlock()
		select {
		case <-resume:
		case <-done:
		}
		c.mu.Lock()
	}
	ctx := c.ctx
	c.mu.Unlock()
	if ctx.Err() != nil {
		return context.Cause(ctx)
	}
	return nil
}

// Context returns the cancellation token. It is done once the controller is
// cancelled, completed or failed, or when the context given to Start is.
func (c *Controller) Context() context.Context {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ctx
}

// State returns the current state.
func (c *Controller) State() ControllerState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Err returns the error recorded by Cancel or Error.
func (c *Controller) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// Result returns the result recorded by Complete.
func (c *Controller) Result() (Result, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.result, c.state == StateCompleted
}

// Buffered returns a copy of the buffered chunks.
func (c *Controller) Buffered() []Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Event(nil), c.buffer...)
}

// Stats returns a snapshot of the controller's counters.
func (c *Controller) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	st := Stats{
		State:     c.state,
		Chunks:    c.chunks,
		Buffered:  len(c.buffer),
		Paused:    c.state == StatePaused,
		PausedFor: c.pausedFor,
	}
	if st.Paused {
		st.PausedFor += now.Sub(c.pausedAt)
	}
	if !c.started.IsZero() {
		end := now
		if c.state.Terminal() {
			end = c.ended
		}
		st.Elapsed = end.Sub(c.started)
	}
	if secs := st.Elapsed.Seconds(); secs > 0 {
		st.Throughput = float64(c.chunks) / secs
	}
	if c.chunks > 1 {
		st.AvgInterval = c.lastChunk.Sub(c.firstChunk) / time.Duration(c.chunks-1)
	}
	return st
}

// endPause releases paused waiters and accounts the pause. Caller holds mu.
func (c *Controller) endPause() {
	if c.resume != nil {
		close(c.resume)
		c.resume = nil
	}
	c.pausedFor += c.now().Sub(c.pausedAt)
	c.pausedAt = time.Time{}
}

// warn logs a misordered control call. Caller holds mu.
func (c *Controller) warn(op string) {
	attrs := []any{"op", op, "state", c.state.String()}
	if c.session != nil {
		attrs = append(attrs, "stream_id", c.session.ID())
	}
	c.logger.Warn("invalid controller transition", attrs...)
}
