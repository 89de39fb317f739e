package ui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/eleropi/eleropi-go/pkg/eleroapi"
)

// RenderTable renders rows under headers with a rounded border
func RenderTable(headers []string, rows [][]string) string {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(MutedColor)).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return TableHeaderStyle
			case col == len(headers)-1:
				return TableMutedCellStyle
			default:
				return TableCellStyle
			}
		})
	return t.Render()
}

// BlindRows turns blind records into table rows: id, label, name, and the
// remaining fields as sorted key=value pairs. labels may be nil.
func BlindRows(blinds []eleroapi.Blind, labels map[string]string) [][]string {
	rows := make([][]string, 0, len(blinds))
	for _, b := range blinds {
		id := b.ID()
		rows = append(rows, []string{id, labels[id], b.Name(), blindExtras(b)})
	}
	return rows
}

// RenderBlindTable renders the blind listing. An empty listing renders a
// short note instead of an empty table.
func RenderBlindTable(blinds []eleroapi.Blind, labels map[string]string) string {
	if len(blinds) == 0 {
		return TroubleshootingItemStyle.Render("  No blinds paired with this controller.")
	}
	return RenderTable([]string{"ID", "LABEL", "NAME", "DETAILS"}, BlindRows(blinds, labels))
}

func blindExtras(b eleroapi.Blind) string {
	keys := make([]string, 0, len(b))
	for k := range b {
		if k == "blind_id" || k == "name" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, b[k]))
	}
	return strings.Join(parts, " ")
}
