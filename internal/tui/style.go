package tui

import "github.com/charmbracelet/lipgloss"

var (
	primaryColor = lipgloss.Color("#8B5CF6")
	leftColor    = lipgloss.Color("#93C5FD")
	rightColor   = lipgloss.Color("#FCA5A5")
	errorColor   = lipgloss.Color("#F87171")
	mutedColor   = lipgloss.Color("#64748B")
	darkColor    = lipgloss.Color("#0F172A")
)

var (
	navStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F8FAFC")).
			Background(primaryColor).
			Bold(true).
			Padding(0, 2)

	navInfoStyle = lipgloss.NewStyle().
			Foreground(mutedColor).
			Padding(0, 1)

	titleStyle = lipgloss.NewStyle().
			Foreground(primaryColor).
			Bold(true).
			MarginBottom(1)

	editorStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(primaryColor).
			Padding(0, 1)

	errorStyle = lipgloss.NewStyle().
			Foreground(errorColor)

	mutedStyle = lipgloss.NewStyle().
			Foreground(mutedColor)

	cardStyle = lipgloss.NewStyle().
			Foreground(darkColor).
			Bold(true).
			Align(lipgloss.Center, lipgloss.Center)

	hoverBorder = lipgloss.ThickBorder()
)
