// Package goldmark renders streamed assistant markdown as ANSI-styled
// terminal text. Parsing is done by goldmark, styling by lipgloss.
package goldmark

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/fwojciec/relay"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"
)

const defaultWidth = 80

const fence = "```"

// Renderer renders markdown to terminal text. It is safe for concurrent use.
type Renderer struct {
	md goldmark.Markdown

	heading  lipgloss.Style
	strong   lipgloss.Style
	emphasis lipgloss.Style
	strike   lipgloss.Style
	code     lipgloss.Style
	link     lipgloss.Style
	muted    lipgloss.Style
}

// New creates a Renderer styled with theme.
func New(theme relay.Theme) *Renderer {
	return &Renderer{
		md:       goldmark.New(goldmark.WithExtensions(extension.Strikethrough)),
		heading:  lipgloss.NewStyle().Foreground(color(theme.Accent)).Bold(true),
		strong:   lipgloss.NewStyle().Bold(true),
		emphasis: lipgloss.NewStyle().Italic(true),
		strike:   lipgloss.NewStyle().Strikethrough(true),
		code:     lipgloss.NewStyle().Foreground(color(theme.Accent)),
		link:     lipgloss.NewStyle().Underline(true),
		muted:    lipgloss.NewStyle().Foreground(color(theme.Muted)).Faint(true),
	}
}

// Render parses src and returns it styled and wrapped to width. Code blocks
// keep their lines as written. A non-positive width means 80 columns.
func (r *Renderer) Render(src string, width int) string {
	if src == "" {
		return ""
	}
	if width <= 0 {
		width = defaultWidth
	}
	source := []byte(src)
	doc := r.md.Parser().Parse(text.NewReader(source))
	w := &writer{r: r, src: source}
	w.children(doc, width)
	return strings.TrimRight(w.out.String(), "\n")
}

// RenderPartial renders text that may stop anywhere in the document. An
// unterminated code fence is closed before rendering.
func (r *Renderer) RenderPartial(src string, width int) string {
	if OpenFence(src) {
		src += "\n" + fence
	}
	return r.Render(src, width)
}

// StableBoundary returns the offset of the last paragraph break in src that
// lies outside a code fence, or 0 when there is none. Text before the
// boundary renders the same however the stream continues.
func StableBoundary(src string) int {
	for end := len(src); ; {
		i := strings.LastIndex(src[:end], "\n\n")
		if i <= 0 {
			return 0
		}
		if !OpenFence(src[:i]) {
			return i
		}
		end = i
	}
}

// OpenFence reports whether s ends inside a fenced code block. Fences are
// counted naively, so a literal ``` inside an inline code span is miscounted.
func OpenFence(s string) bool {
	return strings.Count(s, fence)%2 == 1
}

func color(index int) lipgloss.TerminalColor {
	if index < 0 {
		return lipgloss.NoColor{}
	}
	return lipgloss.Color(strconv.Itoa(index))
}
