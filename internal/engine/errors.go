package engine

import (
	"errors"
	"fmt"
)

// ErrMalformedImage is returned when image bytes are not a database file
// the runtime understands.
var ErrMalformedImage = errors.New("malformed database image")

// Stage names the bootstrap step an InitError came from.
type Stage string

// Bootstrap stages.
const (
	StageEngine  Stage = "engine"
	StageFetch   Stage = "fetch"
	StageOpen    Stage = "open"
	StageTimeout Stage = "timeout"
)

// InitError is the single failure type of the bootstrap sequence.
// It is fatal for the session; nothing retries it.
type InitError struct {
	Stage Stage
	Err   error
}

func (e *InitError) Error() string {
	return fmt.Sprintf("initialize database (%s): %v", e.Stage, e.Err)
}

func (e *InitError) Unwrap() error { return e.Err }

// Message returns the human-readable cause without the stage prefix.
func (e *InitError) Message() string {
	if e.Err == nil || e.Err.Error() == "" {
		return "Failed to initialize the database"
	}
	return e.Err.Error()
}

// StatusError reports a fetch whose transport succeeded but whose
// response status was not 2xx.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP error! status: %d", e.StatusCode)
}

// UnknownRuntimeError is returned when an unregistered engine is requested.
type UnknownRuntimeError struct {
	Name      string
	Available []string
}

func (e *UnknownRuntimeError) Error() string {
	return fmt.Sprintf("unknown engine %q\nAvailable engines: %v\nHint: Check the engine key in sqlrepl.yaml", e.Name, e.Available)
}
