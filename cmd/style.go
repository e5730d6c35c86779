package cmd

import (
	"github.com/charmbracelet/lipgloss"
	lgtable "github.com/charmbracelet/lipgloss/table"
	"github.com/kozaktomas/facerec/internal/recognition"
)

var (
	knownStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#00ff00")).Bold(true)
	unknownStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#ffa500")).Bold(true)
	noFaceStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#5f87ff"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#ffa500"))
	dimStyle     = lipgloss.NewStyle().Faint(true)
)

// resultStyle picks the console color matching the webcam overlay.
func resultStyle(s recognition.Status) lipgloss.Style {
	switch s {
	case recognition.StatusKnown:
		return knownStyle
	case recognition.StatusUnknown:
		return unknownStyle
	default:
		return noFaceStyle
	}
}

// newTable returns a rounded table with a reversed header row.
func newTable(headers ...string) *lgtable.Table {
	cellStyle := lipgloss.NewStyle().Padding(0, 1)
	headerStyle := lipgloss.NewStyle().Padding(0, 1).Bold(true).Reverse(true)
	return lgtable.New().
		Border(lipgloss.RoundedBorder()).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == lgtable.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		Headers(headers...)
}
