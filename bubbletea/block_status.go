package bubbletea

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/fwojciec/relay"
)

var _ MessageBlock = (*StatusBlock)(nil)

// StatusBlock summarizes how a stream ended: its finish reason and counters,
// a cancellation, or the error it was rejected with.
type StatusBlock struct {
	result relay.Result
	err    error
	stats  relay.Stats
	styles Styles
}

// NewStatusBlock creates a StatusBlock.
func NewStatusBlock(res relay.Result, err error, st relay.Stats, styles Styles) *StatusBlock {
	return &StatusBlock{result: res, err: err, stats: st, styles: styles}
}

func (b *StatusBlock) View(width int) string {
	var line string
	switch {
	case b.err == nil:
		parts := []string{"✓ " + string(b.result.FinishReason)}
		if b.result.Model != "" {
			parts = append(parts, b.result.Model)
		}
		parts = append(parts, counters(b.stats)...)
		line = b.styles.Success.Render(strings.Join(parts, " · "))
	case relay.IsCancelled(b.err):
		line = b.styles.Paused.Render(strings.Join(append([]string{"■ cancelled"}, counters(b.stats)...), " · "))
	default:
		line = b.styles.Error.Render(fmt.Sprintf("✗ %v", b.err))
	}
	return lipgloss.NewStyle().Width(width).Render(line)
}

func counters(st relay.Stats) []string {
	out := []string{fmt.Sprintf("%d chunks", st.Chunks), st.Elapsed.Round(10 * time.Millisecond).String()}
	if st.PausedFor > 0 {
		out = append(out, "paused "+st.PausedFor.Round(10*time.Millisecond).String())
	}
	return out
}
