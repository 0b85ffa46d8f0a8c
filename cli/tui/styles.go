// Package tui provides the Bubble Tea search screen for the lookahead CLI.
//
// The screen is a presentation port only: it forwards every edit to the
// pipeline and renders whatever state the pipeline publishes. It never
// fetches or filters results itself.
package tui

import (
	"github.com/charmbracelet/lipgloss"
)

// Color palette.
var (
	primaryColor   = lipgloss.Color("#7C3AED") // Purple
	successColor   = lipgloss.Color("#10B981") // Green
	warningColor   = lipgloss.Color("#F59E0B") // Amber
	errorColor     = lipgloss.Color("#EF4444") // Red
	mutedColor     = lipgloss.Color("#6B7280") // Gray
	highlightColor = lipgloss.Color("#3B82F6") // Blue
)

// Styles for TUI components.
var (
	// TitleStyle for the screen header.
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor).
			MarginBottom(1)

	// InputBoxStyle frames the search field.
	InputBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(highlightColor).
			Padding(0, 1)

	// ResultStyle for unselected result rows.
	ResultStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF")).
			PaddingLeft(2)

	// SelectedStyle for the highlighted result row.
	SelectedStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(highlightColor)

	// YearStyle for release years.
	YearStyle = lipgloss.NewStyle().
			Foreground(mutedColor)

	// StatusStyle for the status line.
	StatusStyle = lipgloss.NewStyle().
			Foreground(mutedColor).
			MarginTop(1).
			MarginBottom(1)

	// ErrorStyle for failure reports.
	ErrorStyle = lipgloss.NewStyle().
			Foreground(errorColor)

	// StatBoxStyle frames a single counter.
	StatBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			Padding(0, 2).
			MarginRight(1).
			Width(14).
			Align(lipgloss.Center)

	// StatValueStyle for counter values.
	StatValueStyle = lipgloss.NewStyle().
			Bold(true)

	// StatLabelStyle for counter labels.
	StatLabelStyle = lipgloss.NewStyle().
			Foreground(mutedColor)

	// HelpStyle for help text.
	HelpStyle = lipgloss.NewStyle().
			Foreground(mutedColor).
			MarginTop(1)
)

// RatingStyle colors a vote average.
func RatingStyle(rating float64) lipgloss.Style {
	switch {
	case rating >= 7:
		return lipgloss.NewStyle().Foreground(successColor)
	case rating >= 5:
		return lipgloss.NewStyle().Foreground(warningColor)
	case rating > 0:
		return lipgloss.NewStyle().Foreground(errorColor)
	default:
		return lipgloss.NewStyle().Foreground(mutedColor)
	}
}
