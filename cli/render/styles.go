package render

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/pithecene-io/mediaresolve/types"
)

// Basic ANSI colors keep every escape sequence the same length, so a
// column whose cells are all styled still aligns under tabwriter.
var (
	successColor = lipgloss.Color("2")
	warningColor = lipgloss.Color("3")
	errorColor   = lipgloss.Color("1")
	mutedColor   = lipgloss.Color("8")
)

type styles struct {
	label   lipgloss.Style
	success lipgloss.Style
	warning lipgloss.Style
	failure lipgloss.Style
}

// newStyles binds styles to a lipgloss renderer. With noColor every style
// renders its input unchanged.
func newStyles(lr *lipgloss.Renderer, noColor bool) styles {
	if noColor {
		plain := lr.NewStyle()
		return styles{label: plain, success: plain, warning: plain, failure: plain}
	}
	return styles{
		label:   lr.NewStyle().Foreground(mutedColor),
		success: lr.NewStyle().Foreground(successColor),
		warning: lr.NewStyle().Foreground(warningColor),
		failure: lr.NewStyle().Foreground(errorColor),
	}
}

// status styles a per-item status cell.
func (s styles) status(st types.ItemStatus) string {
	if st == types.ItemResolved {
		return s.success.Render(string(st))
	}
	return s.failure.Render(string(st))
}

// summary styles the batch outcome line by how many items failed.
func (s styles) summary(text string, resolved, failed int) string {
	switch {
	case failed == 0:
		return s.success.Render(text)
	case resolved == 0:
		return s.failure.Render(text)
	default:
		return s.warning.Render(text)
	}
}
