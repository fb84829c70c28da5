package relay

// Theme maps the terminal caller's semantic roles onto ANSI color indices
// (0-15). The terminal's palette decides the actual RGB values. A negative
// index means the terminal's default color.
type Theme struct {
	Prompt  int // user turn marker
	Text    int // assistant text
	Error   int // rejected streams
	Success int // completed streams
	Paused  int // paused stream indicator
	Muted   int // stats line, placeholders, code gutter
	Accent  int // headings, links, spinner
}

// DefaultTheme returns the default ANSI color mapping.
func DefaultTheme() Theme {
	return Theme{
		Prompt:  4,
		Text:    -1,
		Error:   1,
		Success: 2,
		Paused:  3,
		Muted:   8,
		Accent:  5,
	}
}
