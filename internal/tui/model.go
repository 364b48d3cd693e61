// Package tui is the full-screen terminal console: a splash gate, then a
// live SQL editor whose results re-render on every edit.
package tui

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/leapstack-labs/sqlrepl/internal/console"
	"github.com/leapstack-labs/sqlrepl/internal/engine"
	"github.com/leapstack-labs/sqlrepl/internal/gate"
)

// Placeholder is shown in the empty editor.
const Placeholder = `Try "select sqlite_version()"`

// LoadFunc runs the bootstrap and returns the ready database.
type LoadFunc func(ctx context.Context) (*engine.Database, error)

// Options configures the model.
type Options struct {
	// Load brings the database online. It runs once, from Init.
	Load LoadFunc
	// Console configures the query loop bound to the loaded database.
	Console console.Config
	// Splash shows the presentation gate before the console.
	Splash bool
	// Engine and Source are shown in the navigation bar.
	Engine string
	Source string
}

type dbLoadedMsg struct {
	db  *engine.Database
	err error
}

type exitDoneMsg struct{}

// Model is the bubbletea model for the console screen. Splash and
// bootstrap progress independently: the database loads while the gate
// waits for a choice.
type Model struct {
	ctx  context.Context
	opts Options

	gate  gate.Gate
	hover gate.Side

	loading bool
	db      *engine.Database
	initErr error
	console *console.Console

	editor   textarea.Model
	results  viewport.Model
	spinner  spinner.Model
	lastText string

	width    int
	height   int
	quitting bool
}

// New creates the model. The bootstrap starts when the program calls Init.
func New(ctx context.Context, opts Options) Model {
	ta := textarea.New()
	ta.Placeholder = Placeholder
	ta.ShowLineNumbers = false
	ta.CharLimit = 0
	ta.SetHeight(5)
	ta.Focus()

	vp := viewport.New(80, 10)
	vp.KeyMap = viewport.KeyMap{PageUp: keys.PageUp, PageDown: keys.PageDown}

	sp := spinner.New(spinner.WithSpinner(spinner.Dot))
	sp.Style = mutedStyle

	return Model{
		ctx:     ctx,
		opts:    opts,
		gate:    gate.New(!opts.Splash),
		hover:   gate.Left,
		loading: true,
		editor:  ta,
		results: vp,
		spinner: sp,
	}
}

// Init starts the bootstrap alongside the cursor and spinner ticks.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.load(), m.spinner.Tick, textarea.Blink)
}

func (m Model) load() tea.Cmd {
	ctx, load := m.ctx, m.opts.Load
	return func() tea.Msg {
		if load == nil {
			return dbLoadedMsg{err: errors.New("no database loader configured")}
		}
		db, err := load(ctx)
		return dbLoadedMsg{db: db, err: err}
	}
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case dbLoadedMsg:
		m.loading = false
		if msg.err != nil {
			m.initErr = msg.err
			return m, nil
		}
		m.db = msg.db
		if m.db != nil {
			m.console = console.New(m.db, m.opts.Console)
		}
		return m, nil

	case exitDoneMsg:
		m.gate.Finish()
		return m, nil

	case spinner.TickMsg:
		if !m.loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if key.Matches(msg, keys.Quit) {
			m.quitting = true
			return m, tea.Quit
		}
		if !m.gate.Done() {
			return m.updateSplash(msg)
		}
		return m.updateConsole(msg)

	case tea.MouseMsg:
		var cmd tea.Cmd
		m.results, cmd = m.results.Update(msg)
		return m, cmd
	}

	if !m.console.Ready() {
		return m, nil
	}
	var cmd tea.Cmd
	m.editor, cmd = m.editor.Update(msg)
	return m, cmd
}

func (m Model) updateSplash(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Left):
		m.hover = gate.Left
	case key.Matches(msg, keys.Right):
		m.hover = gate.Right
	case key.Matches(msg, keys.Select):
		if m.gate.Select(m.hover) {
			return m, tea.Tick(gate.ExitDelay, func(time.Time) tea.Msg {
				return exitDoneMsg{}
			})
		}
	}
	return m, nil
}

func (m Model) updateConsole(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, keys.PageUp, keys.PageDown) {
		var cmd tea.Cmd
		m.results, cmd = m.results.Update(msg)
		return m, cmd
	}
	if !m.console.Ready() {
		return m, nil
	}

	var cmd tea.Cmd
	if key.Matches(msg, keys.Clear) {
		m.editor.Reset()
	} else {
		m.editor, cmd = m.editor.Update(msg)
	}
	m.textChanged()
	return m, cmd
}

// textChanged runs the query loop when the editor value differs from the
// last value it saw. Cursor movement alone does not re-execute.
func (m *Model) textChanged() {
	text := m.editor.Value()
	if text == m.lastText {
		return
	}
	m.lastText = text
	m.console.OnTextChanged(m.ctx, text)
	m.results.SetContent(resultsView(m.console.Outcome()))
	m.results.GotoTop()
}

func (m *Model) resize(width, height int) {
	m.width, m.height = width, height

	m.editor.SetWidth(max(width-4, 10))

	// nav, title, editor with border, help line
	chrome := 2 + 2 + m.editor.Height() + 2 + 2
	m.results.Width = width
	m.results.Height = max(height-chrome, 3)
}

// Console returns the query loop, nil until the database is loaded.
func (m Model) Console() *console.Console { return m.console }

// Database returns the loaded database, nil until the bootstrap succeeds.
func (m Model) Database() *engine.Database { return m.db }

// Gate returns the presentation gate.
func (m Model) Gate() gate.Gate { return m.gate }

// Err returns the bootstrap failure, if any.
func (m Model) Err() error { return m.initErr }
