package ui

import (
	"strings"
)

// Header is the banner printed when a command starts.
type Header struct {
	Title   string  // e.g., "SOFTAP"
	Command string  // e.g., "softap run"
	Params  []Param // e.g., {"Interface", "wlan0"}
	Width   int     // Terminal width for responsive rendering
}

// NewHeader creates a new header with the given values
func NewHeader(title, command string, params ...Param) *Header {
	return &Header{
		Title:   title,
		Command: command,
		Params:  params,
		Width:   GetTerminalWidth(),
	}
}

// Render returns the styled header as a string
func (h *Header) Render() string {
	lines := []string{
		TitleStyle.Render(strings.ToUpper(h.Title)),
		SubtitleStyle.Render(h.Command),
	}
	if len(h.Params) > 0 {
		lines = append(lines, divider(h.Width))
		lines = append(lines, renderParams(h.Params)...)
	}
	return box(PrimaryColor, h.Width, lines)
}

// String implements fmt.Stringer
func (h *Header) String() string {
	return h.Render()
}
