package output

import (
	"bytes"
	"testing"

	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/sqlrepl/internal/engine"
	"github.com/leapstack-labs/sqlrepl/internal/render"
)

func TestRenderer_PlainWhenNotTTY(t *testing.T) {
	var out, errOut bytes.Buffer
	r := NewRenderer(&out, &errOut, render.FormatCSV)

	assert.False(t, r.IsTTY())
	assert.Equal(t, render.FormatCSV, r.Format())

	r.Success("done")
	r.Muted("quiet")
	r.Header(1, "Title")
	r.Error("boom")
	r.Warning("careful")

	assert.Equal(t, "done\nquiet\nTitle\n", out.String())
	assert.Equal(t, "Error: boom\nWarning: careful\n", errOut.String())
}

func TestRenderer_Results(t *testing.T) {
	var out bytes.Buffer
	r := NewRenderer(&out, &out, render.FormatCSV)

	err := r.Results([]engine.ResultSet{{
		Columns: []string{"a"},
		Rows:    [][]engine.Value{{engine.Number(1)}},
	}})
	require.NoError(t, err)
	assert.Equal(t, "a\n1\n", out.String())
}

func TestNewStyles_ColorProfile(t *testing.T) {
	plain := NewStyles(termenv.Ascii)
	assert.Equal(t, "x", plain.Error.Render("x"))

	colored := NewStyles(termenv.ANSI256)
	assert.NotEqual(t, "x", colored.Error.Render("x"))
	assert.Contains(t, colored.Error.Render("x"), "x")
}
