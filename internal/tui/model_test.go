package tui

import (
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/sqlrepl/internal/engine"
	"github.com/leapstack-labs/sqlrepl/internal/gate"
	"github.com/leapstack-labs/sqlrepl/internal/testutil"
)

func openDatabase(t *testing.T) *engine.Database {
	t.Helper()

	ctx := context.Background()
	rt, err := engine.Start(ctx, engine.SQLiteName, engine.Options{TempDir: t.TempDir()})
	require.NoError(t, err)

	db, err := rt.Open(ctx, engine.Image{Data: testutil.BuildImage(t, testutil.UsersSchema...)})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	nm, ok := next.(Model)
	require.True(t, ok)
	return nm, cmd
}

func typeText(t *testing.T, m Model, text string) Model {
	t.Helper()
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(text)})
	return m
}

func TestModel_SplashGate(t *testing.T) {
	m := New(context.Background(), Options{Splash: true})
	assert.Equal(t, gate.AwaitingSelection, m.Gate().State())
	assert.Contains(t, m.View(), "Left Card")
	assert.Contains(t, m.View(), "Right Card")

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyRight})
	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd, "selection schedules the exit")
	assert.Equal(t, gate.Exiting, m.Gate().State())
	assert.Equal(t, gate.Right, m.Gate().Chosen())
	assert.Contains(t, m.View(), "Right Card")
	assert.NotContains(t, m.View(), "Left Card")

	// A second selection while exiting is ignored.
	m, cmd = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)

	m, _ = update(t, m, exitDoneMsg{})
	assert.True(t, m.Gate().Done())
	assert.Contains(t, m.View(), LoadingText)
}

func TestModel_SkipSplash(t *testing.T) {
	m := New(context.Background(), Options{Splash: false})
	assert.True(t, m.Gate().Done())
	assert.Contains(t, m.View(), LoadingText)
}

func TestModel_LoadWhileSplashShown(t *testing.T) {
	db := openDatabase(t)
	m := New(context.Background(), Options{Splash: true})

	m, _ = update(t, m, dbLoadedMsg{db: db})
	assert.True(t, m.Console().Ready(), "bootstrap completes behind the splash")
	assert.Contains(t, m.View(), "Left Card")

	// Typing during the splash does not reach the editor.
	m = typeText(t, m, "select 1")
	assert.Empty(t, m.Console().Text())
}

func TestModel_InitError(t *testing.T) {
	m := New(context.Background(), Options{})
	err := &engine.InitError{
		Stage: engine.StageFetch,
		Err:   &engine.StatusError{URL: "http://x/db.sqlite", StatusCode: 404},
	}

	m, _ = update(t, m, dbLoadedMsg{err: err})
	assert.Equal(t, err, m.Err())
	assert.False(t, m.Console().Ready())
	assert.Contains(t, m.View(), `Some error: "HTTP error! status: 404"`)
	assert.NotContains(t, m.View(), LoadingText)

	// Edits are no-ops without a database.
	m = typeText(t, m, "select 1")
	assert.Nil(t, m.Console())
}

func TestModel_QueryOnEveryEdit(t *testing.T) {
	m := New(context.Background(), Options{})
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 100, Height: 40})
	m, _ = update(t, m, dbLoadedMsg{db: openDatabase(t)})
	require.True(t, m.Console().Ready())
	assert.Contains(t, m.View(), title)

	m = typeText(t, m, "select 1 as a")
	assert.Equal(t, "select 1 as a", m.Console().Text())
	out := m.Console().Outcome()
	require.False(t, out.Failed())
	require.Len(t, out.Results(), 1)
	assert.Equal(t, []string{"a"}, out.Results()[0].Columns)

	m = typeText(t, m, " from")
	assert.True(t, m.Console().Outcome().Failed(), "partial statements surface an error")
	assert.NotEmpty(t, m.Console().Outcome().Message())

	for range len(" from") {
		m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyBackspace})
	}
	assert.Equal(t, "select 1 as a", m.Console().Text())
	assert.False(t, m.Console().Outcome().Failed())

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlL})
	assert.Empty(t, m.Console().Text())
	assert.Empty(t, m.Console().Outcome().Results())
}

func TestModel_Quit(t *testing.T) {
	m := New(context.Background(), Options{Splash: true})
	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.Empty(t, m.View())
}

func TestModel_LoadCommand(t *testing.T) {
	want := errors.New("boom")
	m := New(context.Background(), Options{
		Load: func(context.Context) (*engine.Database, error) { return nil, want },
	})

	msg := m.load()()
	loaded, ok := msg.(dbLoadedMsg)
	require.True(t, ok)
	assert.ErrorIs(t, loaded.err, want)

	m = New(context.Background(), Options{})
	loaded, ok = m.load()().(dbLoadedMsg)
	require.True(t, ok)
	assert.Error(t, loaded.err)
}
