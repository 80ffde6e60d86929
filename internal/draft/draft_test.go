package draft

import (
	"errors"
	"testing"

	"github.com/paulmach/orb"

	"github.com/five82/trailedit/internal/trail"
)

var (
	ptA = orb.Point{0, 0}
	ptB = orb.Point{5, 5}
	ptC = orb.Point{10, 0}

	c1 = &trail.SnapAnchor{FeatureID: "c1", FeatureType: trail.KindCrossroad, Coordinates: ptA}
	d7 = &trail.SnapAnchor{FeatureID: "d7", FeatureType: trail.KindDestination, Coordinates: ptC}
)

func mustClick(t *testing.T, s Segment, pt orb.Point, anchor *trail.SnapAnchor) Segment {
	t.Helper()
	next, err := Click(s, pt, anchor)
	if err != nil {
		t.Fatalf("Click(%v) returned error: %v", pt, err)
	}
	return next
}

func completeSegment(t *testing.T) Segment {
	t.Helper()
	s := Reset(Segment{}, true)
	s = mustClick(t, s, ptA, c1)
	s = mustClick(t, s, ptB, nil)
	return mustClick(t, s, ptC, d7)
}

func TestClick_BuildsSegmentThroughPhases(t *testing.T) {
	s := Reset(Segment{}, true)
	if s.Phase() != PhaseAwaitingFirstAnchor {
		t.Fatalf("armed phase = %s, want AWAITING_FIRST_ANCHOR", s.Phase())
	}

	s = mustClick(t, s, orb.Point{0.1, 0.1}, c1)
	if s.Phase() != PhaseBuilding || s.AnchorStart.FeatureID != "c1" {
		t.Fatalf("after first anchor: phase=%s start=%v", s.Phase(), s.AnchorStart)
	}
	if s.Points[0] != ptA {
		t.Fatalf("first point = %v, want anchor coordinates %v", s.Points[0], ptA)
	}

	s = mustClick(t, s, ptB, nil)
	if s.Phase() != PhaseBuilding || len(s.Points) != 2 {
		t.Fatalf("after free point: phase=%s points=%v", s.Phase(), s.Points)
	}

	s = mustClick(t, s, ptC, d7)
	if s.Phase() != PhaseComplete || s.AnchorEnd.FeatureID != "d7" {
		t.Fatalf("after end anchor: phase=%s end=%v", s.Phase(), s.AnchorEnd)
	}
	want := orb.LineString{ptA, ptB, ptC}
	if !orb.Equal(s.Points, want) {
		t.Fatalf("points = %v, want %v", s.Points, want)
	}
}

func TestClick_EmptySpaceWhileAwaitingIsRejected(t *testing.T) {
	s := Reset(Segment{}, true)
	next, err := Click(s, ptB, nil)
	if !errors.Is(err, ErrNoAnchor) {
		t.Fatalf("err = %v, want ErrNoAnchor", err)
	}
	if next.Phase() != PhaseAwaitingFirstAnchor || !next.IsZero() {
		t.Fatalf("draft changed on rejected click: %#v", next)
	}
}

func TestClick_SameNodeCannotComplete(t *testing.T) {
	s := Reset(Segment{}, true)
	s = mustClick(t, s, ptA, c1)
	s = mustClick(t, s, ptB, nil)

	next, err := Click(s, ptA, c1)
	if !errors.Is(err, ErrSameAnchor) {
		t.Fatalf("err = %v, want ErrSameAnchor", err)
	}
	if next.Phase() == PhaseComplete || len(next.Points) != 2 {
		t.Fatalf("draft changed: phase=%s points=%v", next.Phase(), next.Points)
	}
}

func TestClick_RejectedWhenCompleteOrNotArmed(t *testing.T) {
	s := completeSegment(t)
	if _, err := Click(s, ptB, nil); !errors.Is(err, ErrComplete) {
		t.Fatalf("Click on complete = %v, want ErrComplete", err)
	}
	if _, err := Click(Segment{}, ptB, c1); !errors.Is(err, ErrNotEditing) {
		t.Fatalf("Click on empty = %v, want ErrNotEditing", err)
	}
}

func TestClick_DoesNotAliasInput(t *testing.T) {
	s := Reset(Segment{}, true)
	s = mustClick(t, s, ptA, c1)
	before := s
	_ = mustClick(t, s, ptB, nil)
	if len(before.Points) != 1 {
		t.Fatalf("input segment mutated: %v", before.Points)
	}
}

func TestPopPoint_CompleteRevertsToBuilding(t *testing.T) {
	s := completeSegment(t)
	next, err := PopPoint(s)
	if err != nil {
		t.Fatalf("PopPoint returned error: %v", err)
	}
	if next.Phase() != PhaseBuilding || next.AnchorEnd != nil {
		t.Fatalf("phase = %s end = %v, want BUILDING without end", next.Phase(), next.AnchorEnd)
	}
	if len(next.Points) != len(s.Points)-1 {
		t.Fatalf("points %d -> %d, want exactly one removed", len(s.Points), len(next.Points))
	}
	if len(s.Points) != 3 {
		t.Fatalf("input mutated: %v", s.Points)
	}
}

func TestPopPoint_BackToAwaiting(t *testing.T) {
	s := Reset(Segment{}, true)
	s = mustClick(t, s, ptA, c1)
	s, err := PopPoint(s)
	if err != nil {
		t.Fatalf("PopPoint returned error: %v", err)
	}
	if s.Phase() != PhaseAwaitingFirstAnchor || s.AnchorStart != nil {
		t.Fatalf("phase = %s, want AWAITING_FIRST_ANCHOR", s.Phase())
	}
	if _, err := PopPoint(s); !errors.Is(err, ErrNothingToUndo) {
		t.Fatalf("PopPoint on awaiting = %v, want ErrNothingToUndo", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		seg  Segment
		want error
	}{
		{"missing end", Segment{AnchorStart: c1, Points: orb.LineString{ptA, ptB}}, ErrIncomplete},
		{"same node", Segment{AnchorStart: c1, AnchorEnd: c1, Points: orb.LineString{ptA, ptA}}, ErrSameAnchor},
		{"one point", Segment{AnchorStart: c1, AnchorEnd: d7, Points: orb.LineString{ptA}}, ErrTooFewPoints},
		{"ok", Segment{AnchorStart: c1, AnchorEnd: d7, Points: orb.LineString{ptA, ptC}}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := Validate(tt.seg); !errors.Is(err, tt.want) {
				t.Fatalf("Validate = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestSaveLifecycle(t *testing.T) {
	s := completeSegment(t)
	saving, err := BeginSave(s)
	if err != nil {
		t.Fatalf("BeginSave returned error: %v", err)
	}
	if saving.Phase() != PhaseSaving {
		t.Fatalf("phase = %s, want SAVING", saving.Phase())
	}
	if _, err := PopPoint(saving); !errors.Is(err, ErrSaveInFlight) {
		t.Fatalf("PopPoint while saving = %v, want ErrSaveInFlight", err)
	}
	if _, err := BeginSave(saving); !errors.Is(err, ErrSaveInFlight) {
		t.Fatalf("second BeginSave = %v, want ErrSaveInFlight", err)
	}

	failed, stale := FinishSave(saving, saving.Generation, errors.New("rejected"))
	if stale || failed.Phase() != PhaseComplete || len(failed.Points) != 3 {
		t.Fatalf("failed ack: stale=%v phase=%s points=%v", stale, failed.Phase(), failed.Points)
	}

	saving, _ = BeginSave(failed)
	done, stale := FinishSave(saving, saving.Generation, nil)
	if stale || !done.IsZero() || done.Phase() != PhaseAwaitingFirstAnchor {
		t.Fatalf("success ack: stale=%v draft=%#v", stale, done)
	}
	if done.Generation == saving.Generation {
		t.Fatalf("generation not advanced after save")
	}
}

func TestFinishSave_StaleGeneration(t *testing.T) {
	saving, _ := BeginSave(completeSegment(t))
	abandoned := Reset(saving, false)

	next, stale := FinishSave(abandoned, saving.Generation, nil)
	if !stale {
		t.Fatalf("ack for abandoned draft not reported stale")
	}
	if next.Generation != abandoned.Generation || !next.IsZero() {
		t.Fatalf("stale ack changed draft: %#v", next)
	}
}

func TestStage(t *testing.T) {
	line := orb.LineString{ptA, ptB, ptC}
	s, err := Stage(Segment{Generation: 4}, line, *c1, *d7)
	if err != nil {
		t.Fatalf("Stage returned error: %v", err)
	}
	if s.Phase() != PhaseComplete || s.Generation != 4 {
		t.Fatalf("staged phase=%s gen=%d", s.Phase(), s.Generation)
	}
	if _, err := Stage(Segment{}, line, *c1, *c1); !errors.Is(err, ErrSameAnchor) {
		t.Fatalf("Stage same node = %v, want ErrSameAnchor", err)
	}
}

func TestPath(t *testing.T) {
	p, err := Path(completeSegment(t), "p-new")
	if err != nil {
		t.Fatalf("Path returned error: %v", err)
	}
	if p.ID != "p-new" || p.StartNode != "c1" || p.EndNode != "d7" || len(p.Coordinates) != 3 {
		t.Fatalf("Path = %#v", p)
	}
}
