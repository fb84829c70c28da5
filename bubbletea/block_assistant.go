package bubbletea

import (
	"strings"

	"github.com/fwojciec/relay/goldmark"
)

var _ MessageBlock = (*AssistantTextBlock)(nil)

// AssistantTextBlock renders a streamed reply as markdown. The prefix up to
// the last stable paragraph break is rendered once per width; only the tail
// is re-rendered as deltas arrive.
type AssistantTextBlock struct {
	md     *goldmark.Renderer
	text   strings.Builder
	stable int
	cache  map[int]string
}

// NewAssistantTextBlock creates an empty block rendered with md.
func NewAssistantTextBlock(md *goldmark.Renderer) *AssistantTextBlock {
	return &AssistantTextBlock{md: md, cache: make(map[int]string)}
}

// Append adds a streamed delta.
func (b *AssistantTextBlock) Append(delta string) {
	b.text.WriteString(delta)
	if s := goldmark.StableBoundary(b.text.String()); s != b.stable {
		b.stable = s
		clear(b.cache)
	}
}

// Text returns the raw text received so far.
func (b *AssistantTextBlock) Text() string { return b.text.String() }

func (b *AssistantTextBlock) View(width int) string {
	raw := b.text.String()
	head := b.head(raw, width)
	tail := strings.TrimLeft(raw[b.stable:], "\n")
	if strings.TrimSpace(tail) == "" {
		return head
	}
	rendered := b.md.RenderPartial(tail, width)
	if head == "" {
		return rendered
	}
	return head + "\n\n" + rendered
}

func (b *AssistantTextBlock) head(raw string, width int) string {
	if b.stable == 0 {
		return ""
	}
	if s, ok := b.cache[width]; ok {
		return s
	}
	s := b.md.Render(raw[:b.stable], width)
	b.cache[width] = s
	return s
}
