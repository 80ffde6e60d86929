// Package mode defines the editor's interaction modes and the rules for moving
// between them.
package mode

import (
	"errors"
	"fmt"
)

// Mode is the active interaction mode. The zero value is Normal.
type Mode int

const (
	Normal Mode = iota
	Edit
	AutoSegment
)

// ErrIllegalTransition is returned for transitions the state machine forbids.
var ErrIllegalTransition = errors.New("illegal mode transition")

// String returns the wire/display name of the mode.
func (m Mode) String() string {
	switch m {
	case Normal:
		return "NORMAL"
	case Edit:
		return "EDIT"
	case AutoSegment:
		return "AUTO_SEGMENT"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// Valid reports whether m is one of the known modes.
func (m Mode) Valid() bool {
	return m >= Normal && m <= AutoSegment
}

// Transition decides what requesting to while in from does.
// changed is false when to is already active: re-entering a mode is a no-op.
// Edit and AutoSegment only connect through Normal.
func Transition(from, to Mode) (changed bool, err error) {
	if !to.Valid() {
		return false, fmt.Errorf("%w: unknown mode %s", ErrIllegalTransition, to)
	}
	if from == to {
		return false, nil
	}
	if from != Normal && to != Normal {
		return false, fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, from, to)
	}
	return true, nil
}
