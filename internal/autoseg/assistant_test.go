package autoseg

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/paulmach/orb"

	"github.com/five82/trailedit/internal/draft"
	"github.com/five82/trailedit/internal/mode"
	"github.com/five82/trailedit/internal/state"
	"github.com/five82/trailedit/internal/trail"
)

var (
	c1 = trail.SnapAnchor{FeatureID: "c1", FeatureType: trail.KindCrossroad, Coordinates: orb.Point{19.90, 50.00}}
	d7 = trail.SnapAnchor{FeatureID: "d7", FeatureType: trail.KindDestination, Coordinates: orb.Point{19.92, 50.02}}
	c3 = trail.SnapAnchor{FeatureID: "c3", FeatureType: trail.KindCrossroad, Coordinates: orb.Point{19.95, 50.01}}
)

type stubRouter struct {
	mu    sync.Mutex
	calls int
	line  orb.LineString
	err   error
	gate  chan struct{}
}

func (r *stubRouter) Route(ctx context.Context, from, to orb.Point) (orb.LineString, error) {
	r.mu.Lock()
	r.calls++
	gate := r.gate
	r.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return r.line, r.err
}

func (r *stubRouter) callCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

func autoStore() *state.Store {
	store := state.NewStore()
	store.Dispatch(state.ModeRequested{Mode: mode.AutoSegment})
	return store
}

func TestSelectRoutesOnSecondNode(t *testing.T) {
	router := &stubRouter{line: orb.LineString{{19.901, 50.001}, {19.91, 50.01}, {19.919, 50.019}}}
	store := autoStore()
	a := New(router, store, nil)

	a.Select(context.Background(), c1)
	a.Wait()
	if router.callCount() != 0 {
		t.Fatalf("routed after one selection")
	}

	a.Select(context.Background(), c1)
	a.Wait()
	if router.callCount() != 0 {
		t.Fatalf("reselecting the same node routed")
	}

	a.Select(context.Background(), d7)
	a.Wait()
	if router.callCount() != 1 {
		t.Fatalf("router calls = %d, want 1", router.callCount())
	}

	snap := store.Snapshot()
	if snap.Draft.Phase() != draft.PhaseComplete {
		t.Fatalf("phase = %s, want COMPLETE", snap.Draft.Phase())
	}
	if snap.Draft.AnchorStart.FeatureID != "c1" || snap.Draft.AnchorEnd.FeatureID != "d7" {
		t.Fatalf("anchors = %v/%v", snap.Draft.AnchorStart, snap.Draft.AnchorEnd)
	}
	pts := snap.Draft.Points
	if len(pts) != 5 || !pts[0].Equal(c1.Coordinates) || !pts[len(pts)-1].Equal(d7.Coordinates) {
		t.Fatalf("points = %v, want route pinned to both nodes", pts)
	}

	// A third node is ignored while two are selected.
	a.Select(context.Background(), c3)
	a.Wait()
	if router.callCount() != 1 || len(store.Snapshot().Selection) != 2 {
		t.Fatalf("third selection was not ignored")
	}
}

func TestSelectRoutingFailure(t *testing.T) {
	boom := errors.New("service unavailable")
	store := autoStore()
	a := New(&stubRouter{err: boom}, store, nil)

	a.Select(context.Background(), c1)
	a.Select(context.Background(), d7)
	a.Wait()

	snap := store.Snapshot()
	if len(snap.Selection) != 0 {
		t.Fatalf("selection = %v, want empty after failure", snap.Selection)
	}
	if !snap.ErrorIn(state.CategoryRouting) || !errors.Is(snap.LastError, boom) {
		t.Fatalf("LastError = %v, want routing failure", snap.LastError)
	}
	if snap.Draft.Phase() == draft.PhaseComplete {
		t.Fatalf("draft staged despite failure")
	}
}

func TestEmptyRouteIsFailure(t *testing.T) {
	store := autoStore()
	a := New(&stubRouter{}, store, nil)
	a.Select(context.Background(), c1)
	a.Select(context.Background(), d7)
	a.Wait()

	if !errors.Is(store.Snapshot().LastError, ErrNoRoute) {
		t.Fatalf("LastError = %v, want ErrNoRoute", store.Snapshot().LastError)
	}
}

func TestClearAbandonsInFlightRoute(t *testing.T) {
	router := &stubRouter{line: orb.LineString{c1.Coordinates, d7.Coordinates}, gate: make(chan struct{})}
	store := autoStore()
	a := New(router, store, nil)

	a.Select(context.Background(), c1)
	a.Select(context.Background(), d7)
	a.Clear()
	close(router.gate)
	a.Wait()

	snap := store.Snapshot()
	if len(snap.Selection) != 0 || !snap.Draft.IsZero() {
		t.Fatalf("selection %v draft %+v, want both empty", snap.Selection, snap.Draft)
	}
	if snap.LastError != nil {
		t.Fatalf("LastError = %v, want none for an abandoned selection", snap.LastError)
	}
}

func TestLateRouteAfterModeExitIgnored(t *testing.T) {
	router := &stubRouter{line: orb.LineString{c1.Coordinates, d7.Coordinates}, gate: make(chan struct{})}
	store := autoStore()
	a := New(router, store, nil)

	a.Select(context.Background(), c1)
	a.Select(context.Background(), d7)
	store.Dispatch(state.ModeRequested{Mode: mode.Normal})
	close(router.gate)
	a.Wait()

	snap := store.Snapshot()
	if snap.Mode != mode.Normal || !snap.Draft.IsZero() {
		t.Fatalf("late route changed state: mode %s draft %+v", snap.Mode, snap.Draft)
	}
}

func TestAnchorLine(t *testing.T) {
	from, to := orb.Point{0, 0}, orb.Point{2, 2}
	tests := []struct {
		name string
		in   orb.LineString
		want int
	}{
		{"already pinned", orb.LineString{from, {1, 1}, to}, 3},
		{"both ends off graph", orb.LineString{{0.1, 0}, {1.9, 2}}, 4},
		{"start off graph", orb.LineString{{0.1, 0}, to}, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := anchorLine(tt.in, from, to)
			if err != nil {
				t.Fatalf("anchorLine: %v", err)
			}
			if len(got) != tt.want || !got[0].Equal(from) || !got[len(got)-1].Equal(to) {
				t.Fatalf("anchorLine = %v", got)
			}
		})
	}
	if _, err := anchorLine(nil, from, to); !errors.Is(err, ErrNoRoute) {
		t.Fatalf("anchorLine(nil) error = %v, want ErrNoRoute", err)
	}
}
