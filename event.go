package relay

// Event is a sealed interface representing a normalized stream event.
// A session sees any number of EventDelta values followed by exactly one
// terminal event (EventFinish or EventError). Events that arrive after the
// terminal one are ignored.
// The unexported marker method prevents external implementations.
type Event interface {
	event()
}

// EventDelta carries an incremental text fragment.
type EventDelta struct {
	Text string
}

func (EventDelta) event() {}

// EventFinish signals a normal end of generation.
type EventFinish struct {
	Reason    FinishReason
	RawReason string // provider-specific reason string, empty if none was sent
	Model     string // model reported by the provider, empty if unknown
}

func (EventFinish) event() {}

// EventError signals a provider-reported failure. It is always fatal to the
// session.
type EventError struct {
	Detail string
}

func (EventError) event() {}

// Terminal reports whether e ends a session.
func Terminal(e Event) bool {
	switch e.(type) {
	case EventFinish, EventError:
		return true
	default:
		return false
	}
}

// Interface compliance checks.
var (
	_ Event = EventDelta{}
	_ Event = EventFinish{}
	_ Event = EventError{}
)
