package goldmark_test

import (
	"os"
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/fwojciec/relay"
	"github.com/fwojciec/relay/goldmark"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
)

func plain(s string) string { return ansi.Strip(s) }

func TestMain(m *testing.M) {
	// Styled output must carry escape codes for the styling assertions.
	lipgloss.SetColorProfile(termenv.ANSI)
	os.Exit(m.Run())
}

func TestRenderer_Render(t *testing.T) {
	t.Parallel()

	r := goldmark.New(relay.DefaultTheme())

	tests := []struct {
		name  string
		src   string
		width int
		want  []string
	}{
		{name: "paragraph", src: "hello world", width: 80, want: []string{"hello world"}},
		{name: "emphasis", src: "*a* **b** ***c*** ~~d~~", width: 80, want: []string{"a", "b", "c", "d"}},
		{name: "inline code", src: "run `go test`", width: 80, want: []string{"run go test"}},
		{name: "fenced code keeps lines", src: "```go\nfmt.Println(\"hello world\")\n```", width: 10, want: []string{"go", `fmt.Println("hello world")`}},
		{name: "indented code", src: "text\n\n    indented", width: 80, want: []string{"text", "indented"}},
		{name: "bullets", src: "- one\n- two", width: 80, want: []string{"- one", "- two"}},
		{name: "ordered from start", src: "3. c\n4. d", width: 80, want: []string{"3. c", "4. d"}},
		{name: "nested list", src: "- outer\n  - inner", width: 80, want: []string{"- outer", "  - inner"}},
		{name: "link", src: "[docs](https://example.com)", width: 80, want: []string{"docs (https://example.com)"}},
		{name: "autolink", src: "<https://example.com>", width: 80, want: []string{"https://example.com"}},
		{name: "image", src: "![cat](c.png)", width: 80, want: []string{"[image: cat] (c.png)"}},
		{name: "blockquote", src: "> quoted", width: 80, want: []string{"│ quoted"}},
		{name: "thematic break", src: "a\n\n---\n\nb", width: 80, want: []string{"a", "───", "b"}},
		{name: "zero width", src: "hello", width: 0, want: []string{"hello"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := plain(r.Render(tt.src, tt.width))
			for _, w := range tt.want {
				assert.Contains(t, got, w)
			}
		})
	}
}

func TestRenderer_Empty(t *testing.T) {
	t.Parallel()

	assert.Empty(t, goldmark.New(relay.DefaultTheme()).Render("", 80))
}

func TestRenderer_HeadingIsStyled(t *testing.T) {
	t.Parallel()

	r := goldmark.New(relay.DefaultTheme())
	heading := r.Render("# Title", 80)
	assert.Equal(t, "Title", strings.TrimSpace(plain(heading)))
	assert.NotEqual(t, r.Render("Title", 80), heading)
}

func TestRenderer_BlocksSeparatedByBlankLine(t *testing.T) {
	t.Parallel()

	got := plain(goldmark.New(relay.DefaultTheme()).Render("first\n\nsecond", 80))
	lines := strings.Split(got, "\n")
	assert.Len(t, lines, 3)
	assert.Equal(t, "first", strings.TrimSpace(lines[0]))
	assert.Empty(t, strings.TrimSpace(lines[1]))
	assert.Equal(t, "second", strings.TrimSpace(lines[2]))
}

func TestRenderer_WrapsParagraphs(t *testing.T) {
	t.Parallel()

	src := "word1 word2 word3 word4 word5 word6 word7 word8 word9 word10"
	got := plain(goldmark.New(relay.DefaultTheme()).Render(src, 20))
	lines := strings.Split(got, "\n")
	assert.Greater(t, len(lines), 1)
	for _, l := range lines {
		assert.LessOrEqual(t, lipgloss.Width(l), 20)
	}
}

func TestRenderer_ListContinuationIndented(t *testing.T) {
	t.Parallel()

	src := "- a long list item that wraps onto several lines at this width"
	lines := strings.Split(plain(goldmark.New(relay.DefaultTheme()).Render(src, 24)), "\n")
	assert.True(t, strings.HasPrefix(lines[0], "- "))
	for _, l := range lines[1:] {
		if strings.TrimSpace(l) != "" {
			assert.True(t, strings.HasPrefix(l, "  "), "continuation %q", l)
		}
	}
}

func TestRenderer_RenderPartialClosesFence(t *testing.T) {
	t.Parallel()

	r := goldmark.New(relay.DefaultTheme())
	got := plain(r.RenderPartial("intro\n\n```sh\necho hi", 80))
	assert.Contains(t, got, "│ echo hi")
	assert.NotContains(t, got, "```")
}

func TestStableBoundary(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		src  string
		want int
	}{
		{name: "no break", src: "one paragraph", want: 0},
		{name: "last break", src: "a\n\nb\n\nc", want: 4},
		{name: "break inside fence skipped", src: "a\n\n```\nx\n\ny", want: 1},
		{name: "fence closed", src: "```\nx\n```\n\nz", want: 9},
		{name: "leading break", src: "\n\nx", want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, goldmark.StableBoundary(tt.src))
		})
	}
}

func TestOpenFence(t *testing.T) {
	t.Parallel()

	assert.False(t, goldmark.OpenFence("plain"))
	assert.True(t, goldmark.OpenFence("```go\ncode"))
	assert.False(t, goldmark.OpenFence("```go\ncode\n```"))
}
