package ui

import "fmt"

// Check is one line of a check report.
type Check struct {
	Name    string
	OK      bool
	Warning bool   // OK but worth a look
	Message string // detail or hint
}

// RenderChecks renders a check report and reports whether every check passed.
func RenderChecks(title string, checks []Check, width int) (string, bool) {
	ok := true
	lines := []string{TitleStyle.Render(title), divider(width)}
	for _, c := range checks {
		var marker string
		switch {
		case !c.OK:
			ok = false
			marker = ErrorStyle.Render(FailureMarker)
		case c.Warning:
			marker = WarningStyle.Render(WarningMarker)
		default:
			marker = SuccessStyle.Render(SuccessMarker)
		}
		line := fmt.Sprintf("%s %s", marker, c.Name)
		if c.Message != "" {
			line += "  " + MutedStyle.Render(c.Message)
		}
		lines = append(lines, line)
	}

	color := SuccessColor
	if !ok {
		color = ErrorColor
	}
	return box(color, width, lines), ok
}
