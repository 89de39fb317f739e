package ui

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Confirm asks a yes/no question on out and reads the answer from in.
// Anything other than "y" or "yes" counts as no, as does a read error.
func Confirm(in io.Reader, out io.Writer, question string) bool {
	prompt := lipgloss.NewStyle().
		Foreground(WarningColor).
		Bold(true).
		Render(question + " [y/N]: ")
	_, _ = fmt.Fprint(out, prompt)

	input, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && input == "" {
		_, _ = fmt.Fprintln(out)
		return false
	}

	switch strings.ToLower(strings.TrimSpace(input)) {
	case "y", "yes":
		return true
	default:
		_, _ = fmt.Fprintln(out, lipgloss.NewStyle().Foreground(MutedColor).Render("  Cancelled."))
		return false
	}
}
