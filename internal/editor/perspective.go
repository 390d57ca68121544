package editor

import "fmt"

type PerspectiveState int

const (
	PerspectiveOff PerspectiveState = iota
	PerspectiveDetecting
	PerspectiveCorrecting
)

func (s PerspectiveState) String() string {
	switch s {
	case PerspectiveOff:
		return "off"
	case PerspectiveDetecting:
		return "detecting"
	case PerspectiveCorrecting:
		return "correcting"
	default:
		return fmt.Sprintf("PerspectiveState(%d)", int(s))
	}
}

// Next is the single state reachable from s by the perspective control.
func (s PerspectiveState) Next() PerspectiveState {
	switch s {
	case PerspectiveOff:
		return PerspectiveDetecting
	case PerspectiveDetecting:
		return PerspectiveCorrecting
	default:
		return PerspectiveOff
	}
}

// Flags returns the operation flags the processor needs for state s.
func (s PerspectiveState) Flags() (perspectiveCorrection, showBoundaries bool) {
	switch s {
	case PerspectiveDetecting:
		return true, true
	case PerspectiveCorrecting:
		return true, false
	default:
		return false, true
	}
}

// Transition validates from -> to.
func Transition(from, to PerspectiveState) error {
	if from < PerspectiveOff || from > PerspectiveCorrecting {
		return fmt.Errorf("invalid perspective state %v", from)
	}
	if from.Next() != to {
		return fmt.Errorf("invalid perspective transition %v -> %v", from, to)
	}
	return nil
}

// PerspectiveWorkflow holds the current state of the overlay/correction toggle. The
// controller asks it for the next state and commits it once the request is issued.
type PerspectiveWorkflow struct {
	state PerspectiveState
}

func NewPerspectiveWorkflow() *PerspectiveWorkflow {
	return &PerspectiveWorkflow{state: PerspectiveOff}
}

func (w *PerspectiveWorkflow) State() PerspectiveState { return w.state }

// Propose returns the next state without committing it.
func (w *PerspectiveWorkflow) Propose() PerspectiveState { return w.state.Next() }

func (w *PerspectiveWorkflow) Commit(to PerspectiveState) error {
	if err := Transition(w.state, to); err != nil {
		return err
	}
	w.state = to
	return nil
}
