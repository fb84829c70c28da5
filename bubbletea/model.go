package bubbletea

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/fwojciec/relay"
	"github.com/fwojciec/relay/goldmark"
	"github.com/mattn/go-runewidth"
	"github.com/rivo/uniseg"
)

// deltaBuffer bounds how far the stream goroutine may run ahead of the UI.
const deltaBuffer = 64

var _ tea.Model = Model{}

// Config carries display settings for the TUI.
type Config struct {
	// Title is shown in the idle status line, typically provider and model.
	Title string
	// History seeds the conversation sent with the first prompt.
	History []relay.Message
}

// Model is the Bubble Tea model for the relay TUI.
type Model struct {
	// Input is the prompt input. Exported for test access.
	Input textinput.Model
	// Viewport is the scrollable transcript. Exported for test access.
	Viewport viewport.Model
	// Spinner animates the status line while a stream is open.
	Spinner spinner.Model

	start  StartFunc
	title  string
	styles Styles
	md     *goldmark.Renderer

	history []relay.Message
	blocks  []MessageBlock
	active  *AssistantTextBlock

	handle *relay.Handle
	deltas chan string
	err    error
	ready  bool
}

// New creates a TUI Model that starts streams with start.
func New(start StartFunc, theme relay.Theme, cfg Config) Model {
	ti := textinput.New()
	ti.Placeholder = "Type a prompt..."
	ti.Prompt = ""
	ti.CharLimit = 0
	ti.Focus()

	styles := NewStyles(theme)
	m := Model{
		Input:   ti,
		Spinner: spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(styles.Accent)),
		start:   start,
		title:   cfg.Title,
		styles:  styles,
		md:      goldmark.New(theme),
		history: slices.Clone(cfg.History),
	}
	for _, msg := range m.history {
		switch msg.Role {
		case relay.RoleUser:
			m.blocks = append(m.blocks, NewUserMessageBlock(msg.Content, styles))
		case relay.RoleAssistant:
			b := NewAssistantTextBlock(m.md)
			b.Append(msg.Content)
			m.blocks = append(m.blocks, b)
		}
	}
	return m
}

// Running reports whether a stream is open.
func (m Model) Running() bool { return m.handle != nil }

// Err returns the error the last stream was rejected with, if any.
func (m Model) Err() error { return m.err }

// Handle returns the open stream, or nil.
func (m Model) Handle() *relay.Handle { return m.handle }

// History returns the conversation: every prompt and completed reply.
func (m Model) History() []relay.Message { return m.history }

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.resize(msg), nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case DeltaMsg:
		if m.active != nil {
			m.active.Append(msg.Text)
			m.refresh()
		}
		return m, m.listen()

	case StreamDoneMsg:
		return m.finish(msg)

	case spinner.TickMsg:
		if !m.Running() {
			return m, nil
		}
		var cmd tea.Cmd
		m.Spinner, cmd = m.Spinner.Update(msg)
		return m, cmd
	}

	var cmds []tea.Cmd
	var cmd tea.Cmd
	m.Viewport, cmd = m.Viewport.Update(msg)
	cmds = append(cmds, cmd)
	if !m.Running() {
		m.Input, cmd = m.Input.Update(msg)
		cmds = append(cmds, cmd)
	}
	return m, tea.Batch(cmds...)
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}
	var b strings.Builder
	b.WriteString(m.Viewport.View())
	b.WriteString("\n")
	b.WriteString(m.statusLine())
	b.WriteString("\n")
	b.WriteString(m.Input.View())
	return b.String()
}

func (m Model) resize(msg tea.WindowSizeMsg) Model {
	const inputHeight, statusHeight, gaps = 1, 1, 2
	h := max(msg.Height-inputHeight-statusHeight-gaps, 1)
	if !m.ready {
		m.Viewport = viewport.New(msg.Width, h)
		m.ready = true
	} else {
		m.Viewport.Width = msg.Width
		m.Viewport.Height = h
	}
	m.Input.Width = msg.Width
	m.refresh()
	return m
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		if m.Running() {
			m.handle.Cancel("interrupted")
			return m, nil
		}
		return m, tea.Quit

	case tea.KeyEsc:
		if m.Running() {
			m.handle.Cancel("cancelled by user")
		}
		return m, nil

	case tea.KeySpace:
		if m.Running() {
			if m.handle.State() == relay.StatePaused {
				m.handle.Resume()
			} else {
				m.handle.Pause()
			}
			return m, nil
		}

	case tea.KeyEnter:
		if m.Running() {
			return m, nil
		}
		text := strings.TrimSpace(m.Input.Value())
		if text == "" {
			return m, nil
		}
		return m.submit(text)
	}

	var cmds []tea.Cmd
	var cmd tea.Cmd
	// Printable keys belong to the input; j/k would otherwise scroll.
	if m.Running() || (msg.Type != tea.KeyRunes && msg.Type != tea.KeySpace) {
		m.Viewport, cmd = m.Viewport.Update(msg)
		cmds = append(cmds, cmd)
	}
	if !m.Running() {
		m.Input, cmd = m.Input.Update(msg)
		cmds = append(cmds, cmd)
	}
	return m, tea.Batch(cmds...)
}

func (m Model) submit(text string) (tea.Model, tea.Cmd) {
	m.Input.SetValue("")
	m.err = nil
	m.blocks = append(m.blocks, NewUserMessageBlock(text, m.styles))

	history := append(slices.Clone(m.history), relay.UserMessage(text))
	deltas := make(chan string, deltaBuffer)
	sink := func(delta, _ string) { deltas <- delta }
	h, err := m.start(context.Background(), history, sink)
	if err != nil {
		m.err = err
		m.blocks = append(m.blocks, NewStatusBlock(relay.Result{}, err, relay.Stats{}, m.styles))
		m.refresh()
		return m, nil
	}

	m.history = history
	m.handle = h
	m.deltas = deltas
	m.active = NewAssistantTextBlock(m.md)
	m.blocks = append(m.blocks, m.active)
	m.Input.Blur()
	m.refresh()
	return m, tea.Batch(m.listen(), m.Spinner.Tick)
}

func (m Model) finish(msg StreamDoneMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.Err == nil:
		m.history = append(m.history, msg.Result.Message)
	case !relay.IsCancelled(msg.Err):
		m.err = msg.Err
	}
	m.blocks = append(m.blocks, NewStatusBlock(msg.Result, msg.Err, msg.Stats, m.styles))
	m.handle = nil
	m.deltas = nil
	m.active = nil
	m.refresh()
	cmd := m.Input.Focus()
	return m, cmd
}

// listen waits for the next delta of the open stream. Once the stream's
// goroutine has exited and every buffered delta is delivered it reports the
// outcome.
func (m Model) listen() tea.Cmd {
	h, deltas := m.handle, m.deltas
	if h == nil {
		return nil
	}
	return func() tea.Msg {
		select {
		case d := <-deltas:
			return DeltaMsg{Text: d}
		case <-h.Finished():
		}
		select {
		case d := <-deltas:
			return DeltaMsg{Text: d}
		default:
		}
		res, err := h.Wait(context.Background())
		return StreamDoneMsg{Result: res, Err: err, Stats: h.Stats()}
	}
}

// refresh re-renders the transcript into the viewport and scrolls to the end.
func (m *Model) refresh() {
	if !m.ready {
		return
	}
	m.Viewport.SetContent(m.renderContent())
	m.Viewport.GotoBottom()
}

func (m Model) renderContent() string {
	views := make([]string, 0, len(m.blocks))
	for _, b := range m.blocks {
		views = append(views, b.View(m.Viewport.Width))
	}
	return strings.Join(views, "\n")
}

func (m Model) statusLine() string {
	width := m.Viewport.Width
	switch {
	case m.Running():
		st := m.handle.Stats()
		spin := m.Spinner.View()
		label, style, hint := "streaming", m.styles.Muted, "space pause · esc cancel"
		if st.Paused {
			spin = "▌▌ "
			label, style, hint = "paused", m.styles.Paused, "space resume · esc cancel"
		}
		text := fmt.Sprintf("%s · %d chunks · %d chars · %.1f/s · %s · %s",
			label, st.Chunks, uniseg.GraphemeClusterCount(m.active.Text()),
			st.Throughput, st.Elapsed.Round(100*time.Millisecond), hint)
		return spin + style.Render(fit(text, width-lipgloss.Width(spin)))
	case m.err != nil:
		return m.styles.Error.Render(fit(fmt.Sprintf("Error: %v", m.err), width))
	}
	text := "Enter to send, Ctrl+C to quit"
	if m.title != "" {
		text = m.title + " · " + text
	}
	return m.styles.Muted.Render(fit(text, width))
}

// fit truncates s to width terminal cells.
func fit(s string, width int) string {
	if width <= 0 {
		return s
	}
	return runewidth.Truncate(s, width, "…")
}
