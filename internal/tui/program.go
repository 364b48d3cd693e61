package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
)

// Run starts the full-screen program and blocks until the user quits.
// The database loaded during the session is closed before Run returns.
func Run(ctx context.Context, opts Options, extra ...tea.ProgramOption) error {
	progOpts := append([]tea.ProgramOption{
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithContext(ctx),
	}, extra...)

	p := tea.NewProgram(New(ctx, opts), progOpts...)
	final, err := p.Run()

	if m, ok := final.(Model); ok && m.db != nil {
		if cerr := m.db.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}
