package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Header is the banner printed above command output
type Header struct {
	Title   string   // e.g., "Blinds"
	Command string   // e.g., "eleropi blinds"
	Params  []Detail // e.g., Controller, Device ID
	Width   int
}

// NewHeader creates a new header with the given values
func NewHeader(title, command string, params ...Detail) *Header {
	return &Header{
		Title:   title,
		Command: command,
		Params:  params,
		Width:   GetTerminalWidth(),
	}
}

// SetWidth sets the terminal width for responsive rendering
func (h *Header) SetWidth(width int) *Header {
	h.Width = width
	return h
}

// Render returns the styled header as a string
func (h *Header) Render() string {
	width := h.Width
	if width < MinTerminalWidth {
		width = MinTerminalWidth
	}

	top := lipgloss.JoinVertical(lipgloss.Left,
		HeaderTitleStyle.Render(strings.ToUpper(h.Title)),
		HeaderCommandStyle.Render(h.Command),
	)
	if len(h.Params) == 0 {
		return HeaderBorderStyle(width).Render(top)
	}

	dividerWidth := width - 6
	if dividerWidth < 10 {
		dividerWidth = 10
	}

	params := make([]string, 0, len(h.Params))
	for _, p := range h.Params {
		params = append(params, HeaderParamKeyStyle.Render(p.Key+":")+" "+HeaderParamValueStyle.Render(p.Value))
	}

	content := lipgloss.JoinVertical(lipgloss.Left,
		top,
		RenderHorizontalDivider(dividerWidth, "─"),
		strings.Join(params, "\n"),
	)
	return HeaderBorderStyle(width).Render(content)
}

// String implements fmt.Stringer
func (h *Header) String() string {
	return h.Render()
}
