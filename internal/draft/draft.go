// Package draft implements the draft segment builder used while editing.
//
// A Segment is a value; every operation returns a new Segment and never
// mutates its input, so the state reducer can apply them directly. The phase
// is derived from the fields rather than stored:
//
//	EMPTY                 not armed (editor outside EDIT)
//	AWAITING_FIRST_ANCHOR armed, no start anchor yet
//	BUILDING              start anchor set, end anchor missing
//	COMPLETE              both anchors set
//	SAVING                save in flight, all mutation blocked
//
// Generation changes every time a draft is armed, discarded or cleared. Save
// acknowledgements carry the generation they were issued for so that an ack
// for an abandoned draft can be told apart from the live one.
package draft

import (
	"errors"

	"github.com/paulmach/orb"

	"github.com/five82/trailedit/internal/trail"
)

// Phase is the builder state derived from a Segment.
type Phase int

const (
	PhaseEmpty Phase = iota
	PhaseAwaitingFirstAnchor
	PhaseBuilding
	PhaseComplete
	PhaseSaving
)

func (p Phase) String() string {
	switch p {
	case PhaseAwaitingFirstAnchor:
		return "AWAITING_FIRST_ANCHOR"
	case PhaseBuilding:
		return "BUILDING"
	case PhaseComplete:
		return "COMPLETE"
	case PhaseSaving:
		return "SAVING"
	default:
		return "EMPTY"
	}
}

var (
	ErrNotEditing    = errors.New("not editing a segment")
	ErrNoAnchor      = errors.New("a segment must start on a crossroad or destination")
	ErrSameAnchor    = errors.New("a segment cannot start and end on the same node")
	ErrComplete      = errors.New("segment is complete; save, undo the last point or quit")
	ErrSaveInFlight  = errors.New("segment save in progress")
	ErrNothingToUndo = errors.New("no point to remove")
	ErrIncomplete    = errors.New("segment needs a start and an end node")
	ErrTooFewPoints  = errors.New("segment needs at least two points")
)

// Segment is the in-progress path.
type Segment struct {
	Points      orb.LineString
	AnchorStart *trail.SnapAnchor
	AnchorEnd   *trail.SnapAnchor
	Armed       bool
	Saving      bool
	Generation  uint64
}

// Phase derives the builder state.
func (s Segment) Phase() Phase {
	switch {
	case !s.Armed:
		return PhaseEmpty
	case s.Saving:
		return PhaseSaving
	case s.AnchorStart == nil:
		return PhaseAwaitingFirstAnchor
	case s.AnchorEnd != nil:
		return PhaseComplete
	default:
		return PhaseBuilding
	}
}

// IsZero reports whether the segment holds no points or anchors.
func (s Segment) IsZero() bool {
	return len(s.Points) == 0 && s.AnchorStart == nil && s.AnchorEnd == nil
}

// Reset returns an empty segment under a new generation.
func Reset(s Segment, armed bool) Segment {
	return Segment{Armed: armed, Generation: s.Generation + 1}
}

// Click applies a pointer click at pt. anchor is the snap result for the click
// and is nil when the click landed on empty space.
func Click(s Segment, pt orb.Point, anchor *trail.SnapAnchor) (Segment, error) {
	switch s.Phase() {
	case PhaseEmpty:
		return s, ErrNotEditing
	case PhaseSaving:
		return s, ErrSaveInFlight
	case PhaseComplete:
		return s, ErrComplete
	case PhaseAwaitingFirstAnchor:
		if anchor == nil {
			return s, ErrNoAnchor
		}
		a := *anchor
		s.AnchorStart = &a
		s.Points = orb.LineString{a.Coordinates}
		return s, nil
	}

	// building
	if anchor == nil {
		s.Points = appendPoint(s.Points, pt)
		return s, nil
	}
	if trail.SameFeature(s.AnchorStart, anchor) {
		return s, ErrSameAnchor
	}
	a := *anchor
	s.AnchorEnd = &a
	s.Points = appendPoint(s.Points, a.Coordinates)
	return s, nil
}

// PopPoint removes the last vertex. Popping the end anchor reverts to
// BUILDING; popping the start anchor reverts to AWAITING_FIRST_ANCHOR.
func PopPoint(s Segment) (Segment, error) {
	switch s.Phase() {
	case PhaseEmpty:
		return s, ErrNotEditing
	case PhaseSaving:
		return s, ErrSaveInFlight
	case PhaseAwaitingFirstAnchor:
		return s, ErrNothingToUndo
	}
	s.Points = append(orb.LineString(nil), s.Points[:len(s.Points)-1]...)
	switch {
	case s.AnchorEnd != nil:
		s.AnchorEnd = nil
	case len(s.Points) == 0:
		s.AnchorStart = nil
	}
	return s, nil
}

// Stage replaces the draft with a complete routed line between start and end.
func Stage(s Segment, line orb.LineString, start, end trail.SnapAnchor) (Segment, error) {
	if s.Saving {
		return s, ErrSaveInFlight
	}
	staged := Segment{
		Points:      append(orb.LineString(nil), line...),
		AnchorStart: &start,
		AnchorEnd:   &end,
		Armed:       true,
		Generation:  s.Generation,
	}
	if err := Validate(staged); err != nil {
		return s, err
	}
	return staged, nil
}

// Validate checks the save precondition.
func Validate(s Segment) error {
	if s.AnchorStart == nil || s.AnchorEnd == nil {
		return ErrIncomplete
	}
	if trail.SameFeature(s.AnchorStart, s.AnchorEnd) {
		return ErrSameAnchor
	}
	if len(s.Points) < 2 {
		return ErrTooFewPoints
	}
	return nil
}

// BeginSave validates s and marks it as saving.
func BeginSave(s Segment) (Segment, error) {
	if s.Saving {
		return s, ErrSaveInFlight
	}
	if err := Validate(s); err != nil {
		return s, err
	}
	s.Saving = true
	return s, nil
}

// FinishSave applies a save acknowledgement for generation. stale is true when
// the ack belongs to a draft that no longer exists; s is then returned as is.
// On failure the draft is kept so the operator can amend and retry.
func FinishSave(s Segment, generation uint64, ackErr error) (next Segment, stale bool) {
	if !s.Saving || s.Generation != generation {
		return s, true
	}
	if ackErr != nil {
		s.Saving = false
		return s, false
	}
	return Reset(s, s.Armed), false
}

// Path builds the save candidate for s.
func Path(s Segment, id string) (trail.PathFeature, error) {
	if err := Validate(s); err != nil {
		return trail.PathFeature{}, err
	}
	return trail.NewPath(id, s.Points, *s.AnchorStart, *s.AnchorEnd), nil
}

func appendPoint(points orb.LineString, pt orb.Point) orb.LineString {
	out := make(orb.LineString, len(points), len(points)+1)
	copy(out, points)
	return append(out, pt)
}
