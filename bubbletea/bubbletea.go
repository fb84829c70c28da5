// Package bubbletea provides a Bubble Tea terminal caller for relay streams:
// it streams each reply into a viewport and binds pause, resume and cancel
// to keys.
package bubbletea

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fwojciec/relay"
)

// StartFunc starts a stream for the conversation so far. sink receives every
// delta on the stream's goroutine.
type StartFunc func(ctx context.Context, history []relay.Message, sink relay.ChunkFunc) (*relay.Handle, error)

// Run creates and runs the Bubble Tea program. It blocks until the program
// exits and returns the final model. Cancelling ctx quits the program.
func Run(ctx context.Context, m Model) (Model, error) {
	p := tea.NewProgram(m, tea.WithAltScreen())
	go func() {
		<-ctx.Done()
		p.Quit()
	}()
	final, err := p.Run()
	if fm, ok := final.(Model); ok {
		m = fm
	}
	return m, err
}

// DeltaMsg delivers one streamed text fragment to the model.
type DeltaMsg struct {
	Text string
}

// StreamDoneMsg signals that the active stream settled and its connection
// was released.
type StreamDoneMsg struct {
	Result relay.Result
	Err    error
	Stats  relay.Stats
}
