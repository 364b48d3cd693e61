package render

import (
	"encoding/json"
	"io"
	"math"

	"gopkg.in/yaml.v3"

	"github.com/leapstack-labs/sqlrepl/internal/engine"
)

// resultDocument is the structured form of a result set. Rows stay
// positional because column names need not be unique.
type resultDocument struct {
	Columns []string `json:"columns" yaml:"columns"`
	Rows    [][]any  `json:"rows" yaml:"rows"`
}

func documents(sets []engine.ResultSet) []resultDocument {
	docs := make([]resultDocument, 0, len(sets))
	for _, rs := range sets {
		g := Render(rs)
		rows := make([][]any, len(rs.Rows))
		for i, row := range rs.Rows {
			cells := make([]any, g.Width())
			for j := range cells {
				if j < len(row) {
					cells[j] = cellValue(row[j])
				}
			}
			rows[i] = cells
		}
		columns := g.Header
		if columns == nil {
			columns = []string{}
		}
		docs = append(docs, resultDocument{Columns: columns, Rows: rows})
	}
	return docs
}

// cellValue keeps numbers native except the ones JSON cannot carry.
func cellValue(v engine.Value) any {
	if v.Kind == engine.KindNumber && (math.IsInf(v.Number, 0) || math.IsNaN(v.Number)) {
		return v.String()
	}
	return v.Interface()
}

func writeJSON(w io.Writer, sets []engine.ResultSet) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(documents(sets))
}

func writeYAML(w io.Writer, sets []engine.ResultSet) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(documents(sets)); err != nil {
		return err
	}
	return enc.Close()
}
