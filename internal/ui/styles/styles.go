// Package styles defines the visual styling for the application.
package styles

import "github.com/charmbracelet/lipgloss"

// Color definitions for the Augment theme.
var (
	// Primary colors
	Primary   = lipgloss.Color("205") // Pink
	Secondary = lipgloss.Color("63")  // Purple
	Subtle    = lipgloss.Color("240") // Gray

	// Status colors
	Success = lipgloss.Color("42")  // Green
	Error   = lipgloss.Color("196") // Red
	Warning = lipgloss.Color("220") // Yellow
	Info    = lipgloss.Color("39")  // Blue

	// Background colors
	BgLight = lipgloss.Color("237")

	// Text colors
	TextPrimary   = lipgloss.Color("252")
	TextSecondary = lipgloss.Color("245")
	TextMuted     = lipgloss.Color("240")
)

// TitleStyle is used for main headings.
var TitleStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(Primary).
	MarginBottom(1)

// SubTitleStyle is used for section headings.
var SubTitleStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(Secondary)

// DocStyle provides consistent document margins.
var DocStyle = lipgloss.NewStyle().
	Margin(1, 2).
	Padding(0, 1)

// LabelStyle styles field labels in the detail area.
var LabelStyle = lipgloss.NewStyle().
	Foreground(TextSecondary)

// ValueStyle styles field values in the detail area.
var ValueStyle = lipgloss.NewStyle().
	Foreground(TextPrimary)

// ErrorStyle highlights failure messages.
var ErrorStyle = lipgloss.NewStyle().
	Foreground(Error)

// HelpStyle renders the key hints at the bottom of the screen.
var HelpStyle = lipgloss.NewStyle().
	Foreground(TextMuted)

// StatusBarStyle renders the single-line status summary.
var StatusBarStyle = lipgloss.NewStyle().
	Foreground(TextSecondary).
	Background(BgLight).
	Padding(0, 1)

// GetUsageStyle returns a style matching how close usage is to the limit.
func GetUsageStyle(percent int) lipgloss.Style {
	switch {
	case percent >= 90:
		return lipgloss.NewStyle().Foreground(Error).Bold(true)
	case percent >= 75:
		return lipgloss.NewStyle().Foreground(Warning)
	default:
		return lipgloss.NewStyle().Foreground(Success)
	}
}
