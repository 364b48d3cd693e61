// Package gate implements the entry splash: the visitor picks a side,
// the splash animates out for ExitDelay, then the console is shown.
package gate

import (
	"fmt"
	"time"
)

// ExitDelay is how long the splash stays in its exiting state.
const ExitDelay = time.Second

// State is the gate's position in the splash sequence.
type State int

// Gate states in order.
const (
	AwaitingSelection State = iota
	Exiting
	Done
)

func (s State) String() string {
	switch s {
	case AwaitingSelection:
		return "awaiting-selection"
	case Exiting:
		return "exiting"
	case Done:
		return "done"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Side is one of the two splash choices.
type Side string

// Splash choices.
const (
	Left  Side = "left"
	Right Side = "right"
)

// Gate is the splash state machine. The zero value awaits a selection.
type Gate struct {
	state  State
	chosen Side
}

// New returns a gate. When skip is true the gate starts done.
func New(skip bool) Gate {
	if skip {
		return Gate{state: Done}
	}
	return Gate{}
}

// State returns the current state.
func (g Gate) State() State { return g.state }

// Chosen returns the selected side, empty before a selection.
func (g Gate) Chosen() Side { return g.chosen }

// Done reports whether the console may be shown.
func (g Gate) Done() bool { return g.state == Done }

// Select records a choice and starts the exit. It reports whether the
// gate changed; selections after the first are ignored.
func (g *Gate) Select(side Side) bool {
	if g.state != AwaitingSelection {
		return false
	}
	if side != Left && side != Right {
		return false
	}
	g.chosen = side
	g.state = Exiting
	return true
}

// Finish completes the exit once ExitDelay has elapsed. It does nothing
// unless the gate is exiting.
func (g *Gate) Finish() bool {
	if g.state != Exiting {
		return false
	}
	g.state = Done
	return true
}
