package console

import (
	"encoding/json"
	"errors"
	"strconv"

	"github.com/leapstack-labs/sqlrepl/internal/engine"
)

// InitErrorText formats a bootstrap failure for display in place of the
// console: the cause, JSON-quoted, after a fixed prefix.
func InitErrorText(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	var initErr *engine.InitError
	if errors.As(err, &initErr) {
		msg = initErr.Message()
	}
	quoted, jerr := json.Marshal(msg)
	if jerr != nil {
		return "Some error: " + strconv.Quote(msg)
	}
	return "Some error: " + string(quoted)
}
