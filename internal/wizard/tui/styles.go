package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/eleropi/eleropi-go/internal/version"
)

// AppName is shown in the container header
const AppName = "ELEROPI PAIRING"

// Layout constants for responsive terminal width
const (
	MinTerminalWidth = 64
	DefaultHeight    = 24
)

// Color palette
var (
	PrimaryColor   = lipgloss.Color("#3C8DBC") // Blue
	SecondaryColor = lipgloss.Color("#43BF6D") // Green
	WarningColor   = lipgloss.Color("#FFA500") // Orange
	ErrorColor     = lipgloss.Color("#FF5555") // Red
	TextColor      = lipgloss.Color("#FFFFFF") // White
	SubtleColor    = lipgloss.Color("#626262") // Gray
	BorderColor    = PrimaryColor
	HighlightColor = SecondaryColor
)

var (
	TitleStyle = lipgloss.NewStyle().
			Foreground(PrimaryColor).
			Bold(true).
			Padding(1, 0, 0, 2)

	SubtitleStyle = lipgloss.NewStyle().
			Foreground(SubtleColor).
			Italic(true).
			PaddingLeft(2)

	StatusStyle = lipgloss.NewStyle().
			Foreground(WarningColor).
			Bold(true).
			PaddingLeft(2)

	SpinnerStyle = lipgloss.NewStyle().
			Foreground(PrimaryColor)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(ErrorColor).
			Bold(true).
			Padding(0, 1).
			MarginLeft(2).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ErrorColor)

	SuccessStyle = lipgloss.NewStyle().
			Foreground(SecondaryColor).
			Bold(true).
			PaddingLeft(2)

	SectionStyle = lipgloss.NewStyle().
			Foreground(TextColor).
			Bold(true).
			Padding(1, 0, 0, 2)
)

// RenderError renders an error message
func RenderError(text string) string {
	return ErrorStyle.Render("✗ " + text)
}

// RenderSuccess renders a success message
func RenderSuccess(text string) string {
	return SuccessStyle.Render("✓ " + text)
}

// buildHeaderContent creates the header line: app name, version and the
// controller in use (if any)
func buildHeaderContent(controller string) string {
	left := lipgloss.NewStyle().
		Foreground(TextColor).
		Bold(true).
		Render(AppName + " v" + version.Version)

	if controller == "" {
		return left
	}
	right := lipgloss.NewStyle().
		Foreground(SubtleColor).
		Render(controller)
	return lipgloss.JoinHorizontal(lipgloss.Top, left, "  ", right)
}

// RenderApplicationContainer wraps every screen: header, content, and a
// footer carrying the context help, inside a full-terminal border.
func RenderApplicationContainer(controller, content, footerText string, width, height int) string {
	if width < MinTerminalWidth {
		width = MinTerminalWidth
	}
	if height <= 0 {
		height = DefaultHeight
	}

	header := lipgloss.NewStyle().
		BorderStyle(lipgloss.Border{Bottom: "─"}).
		BorderForeground(BorderColor).
		Width(width-4).
		Padding(0, 1).
		Render(buildHeaderContent(controller))

	footer := lipgloss.NewStyle().
		BorderStyle(lipgloss.Border{Top: "─"}).
		BorderForeground(BorderColor).
		Width(width-4).
		Padding(0, 1).
		Foreground(SubtleColor).
		Render(footerText)

	body := lipgloss.NewStyle().Width(width - 4).Render(content)

	inner := lipgloss.JoinVertical(lipgloss.Left, header, body, footer)

	bordered := lipgloss.NewStyle().
		Border(lipgloss.NormalBorder()).
		BorderForeground(BorderColor).
		Width(width - 2).
		Height(height - 2).
		AlignVertical(lipgloss.Top).
		Render(inner)

	return lipgloss.Place(width, height, lipgloss.Left, lipgloss.Top, bordered)
}
