package bubbletea_test

import (
	"context"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"
	"github.com/fwojciec/relay"
	bt "github.com/fwojciec/relay/bubbletea"
	"github.com/fwojciec/relay/mock"
	"github.com/fwojciec/relay/sse"
	"github.com/stretchr/testify/require"
)

// normalize maps SSE event labels onto events: "delta" carries text,
// "finish" ends the stream and "error" fails it.
func normalize(rec relay.Record) []relay.Event {
	switch rec.Event {
	case "delta":
		return []relay.Event{relay.EventDelta{Text: string(rec.Data)}}
	case "finish":
		return []relay.Event{relay.EventFinish{Reason: relay.ParseFinishReason(string(rec.Data))}}
	case "error":
		return []relay.Event{relay.EventError{Detail: string(rec.Data)}}
	}
	return nil
}

func frame(event, data string) string {
	return "event: " + event + "\ndata: " + data + "\n\n"
}

// connStart returns a StartFunc streaming from conn. Every request it
// receives is published on the returned channel.
func connStart(conn *mock.Conn) (bt.StartFunc, <-chan relay.Request) {
	reqs := make(chan relay.Request, 8)
	client := relay.NewClient(conn.Issuer(), relay.Normalizers{"test": normalize})
	a := &mock.Adapter{LabelValue: "test", NewDecoderFn: func() relay.Decoder { return sse.NewDecoder() }}
	start := func(ctx context.Context, history []relay.Message, sink relay.ChunkFunc) (*relay.Handle, error) {
		req := relay.Request{Model: "m-1", Messages: history}
		reqs <- req
		return client.StartStream(ctx, a, req, sink)
	}
	return start, reqs
}

func failingStart(err error) bt.StartFunc {
	return func(context.Context, []relay.Message, relay.ChunkFunc) (*relay.Handle, error) {
		return nil, err
	}
}

// initModel creates a model and sends a WindowSizeMsg to initialize the viewport.
func initModel(t *testing.T, start bt.StartFunc) bt.Model {
	t.Helper()
	return initModelWithSize(t, start, 80, 24)
}

func initModelWithSize(t *testing.T, start bt.StartFunc, width, height int) bt.Model {
	t.Helper()
	m := bt.New(start, relay.DefaultTheme(), bt.Config{Title: "test/m-1"})
	return updateModel(t, m, tea.WindowSizeMsg{Width: width, Height: height})
}

// updateModel sends a message and returns the updated Model.
func updateModel(t *testing.T, m bt.Model, msg tea.Msg) bt.Model {
	t.Helper()
	updated, _ := m.Update(msg)
	model, ok := updated.(bt.Model)
	require.True(t, ok)
	return model
}

func typeText(t *testing.T, m bt.Model, s string) bt.Model {
	t.Helper()
	return updateModel(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)})
}

// submit types s and presses enter.
func submit(t *testing.T, m bt.Model, s string) bt.Model {
	t.Helper()
	m = typeText(t, m, s)
	return updateModel(t, m, tea.KeyMsg{Type: tea.KeyEnter})
}

// drain feeds the stream's messages into the model until it reports the
// stream done.
func drain(t *testing.T, m bt.Model) (bt.Model, bt.StreamDoneMsg) {
	t.Helper()
	for range 100 {
		cmd := bt.Listen(m)
		require.NotNil(t, cmd, "no stream open")
		msg := cmd()
		m = updateModel(t, m, msg)
		if done, ok := msg.(bt.StreamDoneMsg); ok {
			return m, done
		}
	}
	t.Fatal("stream did not finish")
	return m, bt.StreamDoneMsg{}
}

func stripStyles(s string) string { return ansi.Strip(s) }
