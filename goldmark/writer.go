package goldmark

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/yuin/goldmark/ast"
	extast "github.com/yuin/goldmark/extension/ast"
)

const minListWidth = 10

// writer accumulates the rendering of one document.
type writer struct {
	r   *Renderer
	src []byte
	out strings.Builder
}

// children renders the block children of n separated by blank lines.
func (w *writer) children(n ast.Node, width int) {
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if c != n.FirstChild() {
			w.out.WriteString("\n")
		}
		w.block(c, width)
	}
}

func (w *writer) block(n ast.Node, width int) {
	switch n := n.(type) {
	case *ast.Paragraph, *ast.TextBlock:
		w.wrapped(w.inline(n), width)
	case *ast.Heading:
		w.wrapped(w.r.heading.Render(w.inline(n)), width)
	case *ast.FencedCodeBlock:
		if lang := string(n.Language(w.src)); lang != "" {
			w.line(w.r.muted.Render(lang))
		}
		w.code(n)
	case *ast.CodeBlock:
		w.code(n)
	case *ast.Blockquote:
		inner := w.sub(n, width-2)
		bar := w.r.muted.Render("│") + " "
		for _, l := range strings.Split(inner, "\n") {
			w.line(bar + l)
		}
	case *ast.List:
		w.list(n, width, "")
	case *ast.ThematicBreak:
		w.line(w.r.muted.Render(strings.Repeat("─", min(width, 40))))
	case *ast.HTMLBlock:
		w.lines(n)
	default:
		w.children(n, width)
	}
}

// sub renders the children of n into a separate buffer.
func (w *writer) sub(n ast.Node, width int) string {
	s := &writer{r: w.r, src: w.src}
	s.children(n, max(width, minListWidth))
	return strings.TrimRight(s.out.String(), "\n")
}

func (w *writer) line(s string) {
	w.out.WriteString(s)
	w.out.WriteString("\n")
}

func (w *writer) wrapped(s string, width int) {
	w.line(lipgloss.NewStyle().Width(width).Render(s))
}

func (w *writer) code(n ast.Node) {
	gutter := w.r.muted.Render("│") + " "
	lines := n.Lines()
	for i := range lines.Len() {
		seg := lines.At(i)
		w.line(gutter + strings.TrimRight(string(seg.Value(w.src)), "\n"))
	}
}

func (w *writer) lines(n ast.Node) {
	lines := n.Lines()
	for i := range lines.Len() {
		seg := lines.At(i)
		w.out.Write(seg.Value(w.src))
	}
}

// list renders a list item by item, indenting nested lists and wrapped
// continuation lines under the item text.
func (w *writer) list(n *ast.List, width int, indent string) {
	num := n.Start
	for item := n.FirstChild(); item != nil; item = item.NextSibling() {
		marker := "- "
		if n.IsOrdered() {
			marker = fmt.Sprintf("%d. ", num)
			num++
		}
		prefix := indent + marker
		pad := strings.Repeat(" ", len(prefix))
		first := true
		for c := item.FirstChild(); c != nil; c = c.NextSibling() {
			if nested, ok := c.(*ast.List); ok {
				w.list(nested, width, pad)
				continue
			}
			var body string
			switch c.(type) {
			case *ast.Paragraph, *ast.TextBlock:
				body = lipgloss.NewStyle().Width(max(width-len(prefix), minListWidth)).Render(w.inline(c))
			default:
				s := &writer{r: w.r, src: w.src}
				s.block(c, max(width-len(prefix), minListWidth))
				body = strings.TrimRight(s.out.String(), "\n")
			}
			for _, l := range strings.Split(body, "\n") {
				if first {
					w.line(prefix + l)
					first = false
					continue
				}
				w.line(pad + l)
			}
		}
		if first {
			w.line(strings.TrimRight(prefix, " "))
		}
	}
}

// inline returns the styled inline content of n.
func (w *writer) inline(n ast.Node) string {
	var b strings.Builder
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		w.span(c, &b)
	}
	return b.String()
}

func (w *writer) span(n ast.Node, b *strings.Builder) {
	switch n := n.(type) {
	case *ast.Text:
		b.Write(n.Segment.Value(w.src))
		switch {
		case n.HardLineBreak():
			b.WriteByte('\n')
		case n.SoftLineBreak():
			b.WriteByte(' ')
		}
	case *ast.String:
		b.Write(n.Value)
	case *ast.CodeSpan:
		b.WriteString(w.r.code.Render(w.inline(n)))
	case *ast.Emphasis:
		if n.Level == 1 {
			b.WriteString(w.r.emphasis.Render(w.inline(n)))
		} else {
			b.WriteString(w.r.strong.Render(w.inline(n)))
		}
	case *extast.Strikethrough:
		b.WriteString(w.r.strike.Render(w.inline(n)))
	case *ast.Link:
		label, dest := w.inline(n), string(n.Destination)
		b.WriteString(w.r.link.Render(label))
		if label != dest {
			b.WriteString(" " + w.r.muted.Render("("+dest+")"))
		}
	case *ast.AutoLink:
		b.WriteString(w.r.link.Render(string(n.URL(w.src))))
	case *ast.Image:
		b.WriteString(w.r.muted.Render("[image: " + w.inline(n) + "] (" + string(n.Destination) + ")"))
	case *ast.RawHTML:
		for i := range n.Segments.Len() {
			seg := n.Segments.At(i)
			b.Write(seg.Value(w.src))
		}
	default:
		for c := n.FirstChild(); c != nil; c = c.NextSibling() {
			w.span(c, b)
		}
	}
}
