package audio

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors returned by the control surface.
var (
	ErrInvalidParam       = errors.New("invalid parameter")
	ErrCutoffAboveNyquist = errors.New("cutoff frequency at or above nyquist")
	ErrUnknownWaveKind    = errors.New("unknown wave kind")
	ErrUnknownFilterKind  = errors.New("unknown filter kind")
	ErrUnknownCommand     = errors.New("unknown command")
	ErrInvalidNote        = errors.New("invalid note")
)

// CommandError reports a command that could not be applied.
type CommandError struct {
	Command []string
	Cause   error
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("command %q: %v", strings.Join(e.Command, " "), e.Cause)
}

func (e *CommandError) Unwrap() error {
	return e.Cause
}
