package relay

import "context"

// Handle is the caller's view of one in-flight stream.
type Handle struct {
	session  *Session
	ctrl     *Controller
	model    string
	finished chan struct{}
}

// ID returns the stream id.
func (h *Handle) ID() string { return h.session.ID() }

// Provider returns the provider label.
func (h *Handle) Provider() string { return h.session.Provider() }

// Model returns the model requested for the stream.
func (h *Handle) Model() string { return h.model }

// Wait blocks until the stream settles or ctx is done. A cancelled stream
// returns an error wrapping ErrCancelled.
func (h *Handle) Wait(ctx context.Context) (Result, error) {
	return h.session.Wait(ctx)
}

// Done is closed once the stream settles.
func (h *Handle) Done() <-chan struct{} { return h.session.Done() }

// Finished is closed once the servicing goroutine has exited and the
// connection is released.
func (h *Handle) Finished() <-chan struct{} { return h.finished }

// Pause stops chunk delivery until Resume.
func (h *Handle) Pause() bool { return h.ctrl.Pause() }

// Resume continues a paused stream.
func (h *Handle) Resume() bool { return h.ctrl.Resume() }

// Cancel stops the stream and aborts the connection.
func (h *Handle) Cancel(reason string) bool { return h.ctrl.Cancel(reason) }

// Stats returns the stream's flow statistics.
func (h *Handle) Stats() Stats { return h.ctrl.Stats() }

// State returns the stream's controller state.
func (h *Handle) State() ControllerState { return h.ctrl.State() }

// Buffered returns the chunks kept when buffering is enabled.
func (h *Handle) Buffered() []Event { return h.ctrl.Buffered() }
