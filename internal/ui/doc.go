// Package ui renders the eleropi CLI's terminal output with Lipgloss.
//
// Components follow a "print once" pattern: a Header naming the command and
// the controller, then either a table (blinds, scanned controllers) or a
// Result box. Failure boxes pull their message and troubleshooting tip from
// eleroapi.ShortMessage and eleroapi.TroubleshootingHint, so every command
// reports errors the same way.
//
// Interactive pairing lives in internal/wizard/tui; this package has no
// event loop.
//
// Output width follows the terminal (via golang.org/x/term), clamped to
// [MinTerminalWidth, MaxContentWidth].
package ui
