// Package output provides styled terminal output for CLI commands.
package output

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"golang.org/x/term"

	"github.com/leapstack-labs/sqlrepl/internal/engine"
	"github.com/leapstack-labs/sqlrepl/internal/render"
)

// Renderer writes results and status lines, styled when the output is
// a terminal and plain otherwise.
type Renderer struct {
	out    io.Writer
	errOut io.Writer
	format render.Format
	isTTY  bool
	Styles *Styles
}

// NewRenderer creates a renderer. Color follows the terminal profile of
// out; NO_COLOR and non-terminal writers disable it.
func NewRenderer(out, errOut io.Writer, format render.Format) *Renderer {
	tty := isTerminal(out)
	profile := termenv.Ascii
	if tty && !termenv.EnvNoColor() {
		profile = termenv.NewOutput(out).EnvColorProfile()
	}
	return &Renderer{
		out:    out,
		errOut: errOut,
		format: format,
		isTTY:  tty,
		Styles: NewStyles(profile),
	}
}

// IsTTY reports whether output goes to a terminal.
func (r *Renderer) IsTTY() bool { return r.isTTY }

// Format returns the result encoding.
func (r *Renderer) Format() render.Format { return r.format }

// SetFormat changes the result encoding.
func (r *Renderer) SetFormat(format render.Format) { r.format = format }

// Results encodes result sets in the renderer's format.
func (r *Renderer) Results(sets []engine.ResultSet) error {
	return render.Write(r.out, sets, r.format)
}

// Println writes a line to the output.
func (r *Renderer) Println(s string) {
	_, _ = fmt.Fprintln(r.out, s)
}

// Header writes a heading.
func (r *Renderer) Header(level int, title string) {
	if level <= 1 {
		r.Println(r.Styles.Header.Render(title))
		return
	}
	r.Println(r.Styles.Header2.Render(title))
}

// Success writes a success line.
func (r *Renderer) Success(msg string) {
	r.Println(r.Styles.Success.Render(msg))
}

// Muted writes de-emphasized text.
func (r *Renderer) Muted(msg string) {
	r.Println(r.Styles.Muted.Render(msg))
}

// Warning writes a warning to the error stream.
func (r *Renderer) Warning(msg string) {
	_, _ = fmt.Fprintln(r.errOut, r.Styles.Warning.Render("Warning: "+msg))
}

// Error writes an error to the error stream.
func (r *Renderer) Error(msg string) {
	_, _ = fmt.Fprintln(r.errOut, r.Styles.Error.Render("Error: "+msg))
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}

// IsTerminalInput reports whether f is an interactive terminal.
func IsTerminalInput(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// Styles holds lipgloss styles for CLI output.
type Styles struct {
	Header  lipgloss.Style
	Header2 lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
	Muted   lipgloss.Style
	Prompt  lipgloss.Style
}

// NewStyles builds styles for a color profile. termenv.Ascii yields
// unstyled text.
func NewStyles(profile termenv.Profile) *Styles {
	re := lipgloss.NewRenderer(io.Discard)
	re.SetColorProfile(profile)

	return &Styles{
		Header:  re.NewStyle().Bold(true).Foreground(lipgloss.Color("12")),
		Header2: re.NewStyle().Bold(true),
		Success: re.NewStyle().Foreground(lipgloss.Color("10")),
		Warning: re.NewStyle().Foreground(lipgloss.Color("11")),
		Error:   re.NewStyle().Foreground(lipgloss.Color("9")).Bold(true),
		Muted:   re.NewStyle().Foreground(lipgloss.Color("8")),
		Prompt:  re.NewStyle().Foreground(lipgloss.Color("14")).Bold(true),
	}
}
