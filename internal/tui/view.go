package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/leapstack-labs/sqlrepl/internal/console"
	"github.com/leapstack-labs/sqlrepl/internal/gate"
	"github.com/leapstack-labs/sqlrepl/internal/render"
)

const (
	// LoadingText is shown while the bootstrap runs.
	LoadingText = "Loading REPL..."
	title       = "SQL Interpreter"
)

// View renders the screen.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if !m.gate.Done() {
		return m.splashView()
	}

	var b strings.Builder
	b.WriteString(m.navView())
	b.WriteString("\n\n")

	switch {
	case m.initErr != nil:
		b.WriteString(errorStyle.Render(console.InitErrorText(m.initErr)))
	case m.console.Ready():
		b.WriteString(m.consoleView())
	default:
		b.WriteString(m.spinner.View() + " " + LoadingText)
	}

	b.WriteString("\n\n")
	b.WriteString(mutedStyle.Render("esc quit • ctrl+l clear • pgup/pgdn scroll"))
	return b.String()
}

func (m Model) navView() string {
	info := m.opts.Engine
	if m.opts.Source != "" {
		info += " · " + m.opts.Source
	}
	return lipgloss.JoinHorizontal(lipgloss.Center,
		navStyle.Render("sqlrepl"),
		navInfoStyle.Render(info),
	)
}

func (m Model) consoleView() string {
	return lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render(title),
		editorStyle.Render(m.editor.View()),
		m.results.View(),
	)
}

// resultsView renders an outcome: the error message, or one grid per
// result set.
func resultsView(o console.Outcome) string {
	if o.Failed() {
		return errorStyle.Render(o.Message())
	}
	parts := make([]string, 0, len(o.Results()))
	for _, rs := range o.Results() {
		parts = append(parts, render.String(render.Render(rs)))
	}
	return strings.Join(parts, "\n\n")
}

func (m Model) splashView() string {
	width, height := m.width, m.height
	if width == 0 {
		width, height = 80, 24
	}
	cardH := max(height-4, 3)

	if m.gate.State() == gate.Exiting {
		// The chosen card takes the whole screen until the delay elapses.
		return m.card(m.gate.Chosen(), width-2, cardH, true)
	}

	cardW := max(width/2-2, 10)
	row := lipgloss.JoinHorizontal(lipgloss.Top,
		m.card(gate.Left, cardW, cardH, m.hover == gate.Left),
		m.card(gate.Right, cardW, cardH, m.hover == gate.Right),
	)
	return lipgloss.JoinVertical(lipgloss.Left,
		row,
		mutedStyle.Render("←/→ choose a card • enter to continue • esc quit"),
	)
}

func (m Model) card(side gate.Side, width, height int, focused bool) string {
	label, color := "Left Card", leftColor
	if side == gate.Right {
		label, color = "Right Card", rightColor
	}

	style := cardStyle.
		Background(color).
		Width(width).
		Height(height).
		Border(lipgloss.NormalBorder()).
		BorderForeground(color)
	if focused {
		style = style.Border(hoverBorder).BorderForeground(primaryColor)
	}
	return style.Render(label)
}
