package snap

import (
	"math"
	"reflect"
	"testing"

	"github.com/paulmach/orb"

	"github.com/five82/trailedit/internal/trail"
)

// pixels treats coordinates as screen pixels.
type pixels struct{}

func (pixels) Project(p orb.Point) orb.Point { return p }

type recordingHitTester struct {
	hits   []Hit
	layers []Layer
}

func (r *recordingHitTester) HitTest(_ orb.Point, layers ...Layer) []Hit {
	r.layers = layers
	return r.hits
}

func testCollections() trail.Collections {
	return trail.Collections{
		Crossroads: trail.NewCollection(
			trail.NodeFeature{ID: "c1", Kind: trail.KindCrossroad, Coordinates: orb.Point{0, 0}},
			trail.NodeFeature{ID: "c2", Kind: trail.KindCrossroad, Coordinates: orb.Point{100, 100}},
		),
		Destinations: trail.NewCollection(
			trail.NodeFeature{ID: "d7", Kind: trail.KindDestination, Coordinates: orb.Point{6, 0}},
		),
		Paths: trail.NewCollection(
			trail.PathFeature{ID: "p1", Coordinates: orb.LineString{{50, 50}, {60, 60}}},
		),
	}
}

func TestResolve_NearestWithinTolerance(t *testing.T) {
	r := Resolver{Projection: pixels{}}
	cols := testCollections()

	got := r.Resolve(Pointer{Map: orb.Point{4, 0}}, 10, cols)
	if got == nil || got.FeatureID != "d7" || got.FeatureType != trail.KindDestination {
		t.Fatalf("Resolve = %#v, want d7", got)
	}
	if got.Coordinates != (orb.Point{6, 0}) {
		t.Fatalf("anchor coordinates = %v, want node coordinates", got.Coordinates)
	}

	if got := r.Resolve(Pointer{Map: orb.Point{40, 40}}, 10, cols); got != nil {
		t.Fatalf("Resolve empty space = %#v, want nil", got)
	}
}

func TestResolve_IgnoresPaths(t *testing.T) {
	r := Resolver{Projection: pixels{}}
	ptr := Pointer{Map: orb.Point{55, 55}, Features: []Hit{{Layer: LayerPaths, FeatureID: "p1"}}}
	if got := r.Resolve(ptr, 10, testCollections()); got != nil {
		t.Fatalf("Resolve on a path = %#v, want nil", got)
	}
}

func TestResolve_UsesPreHitFeaturesAndDropsStaleIDs(t *testing.T) {
	r := Resolver{Projection: pixels{}}
	ptr := Pointer{
		Map: orb.Point{3, 0},
		Features: []Hit{
			{Layer: LayerCrossroads, FeatureID: "gone"},
			{Layer: LayerDestinations, FeatureID: "d7"},
		},
	}
	got := r.Resolve(ptr, 10, testCollections())
	if got == nil || got.FeatureID != "d7" {
		t.Fatalf("Resolve = %#v, want d7 (c1 was not hit)", got)
	}
}

func TestResolve_QueriesHitTesterOnNodeLayersOnly(t *testing.T) {
	ht := &recordingHitTester{hits: []Hit{{Layer: LayerCrossroads, FeatureID: "c1"}}}
	r := Resolver{HitTester: ht, Projection: pixels{}}

	got := r.Resolve(Pointer{Map: orb.Point{1, 1}}, 10, testCollections())
	if got == nil || got.FeatureID != "c1" {
		t.Fatalf("Resolve = %#v, want c1", got)
	}
	want := []Layer{LayerCrossroads, LayerDestinations}
	if !reflect.DeepEqual(ht.layers, want) {
		t.Fatalf("hit test layers = %v, want %v", ht.layers, want)
	}
}

func TestResolve_Deterministic(t *testing.T) {
	r := Resolver{Projection: pixels{}}
	cols := trail.Collections{
		Crossroads:   trail.NewCollection(trail.NodeFeature{ID: "b", Kind: trail.KindCrossroad, Coordinates: orb.Point{1, 0}}),
		Destinations: trail.NewCollection(trail.NodeFeature{ID: "a", Kind: trail.KindDestination, Coordinates: orb.Point{-1, 0}}),
	}
	ptr := Pointer{Map: orb.Point{0, 0}}
	first := r.Resolve(ptr, 5, cols)
	for i := 0; i < 50; i++ {
		if got := r.Resolve(ptr, 5, cols); !reflect.DeepEqual(got, first) {
			t.Fatalf("iteration %d: Resolve = %#v, want %#v", i, got, first)
		}
	}
	if first.FeatureID != "b" {
		t.Fatalf("tie broken to %q, want crossroad b", first.FeatureID)
	}
}

func TestResolve_DefaultTolerance(t *testing.T) {
	r := Resolver{Projection: pixels{}}
	got := r.Resolve(Pointer{Map: orb.Point{0, DefaultTolerancePx - 1}}, 0, testCollections())
	if got == nil || got.FeatureID != "c1" {
		t.Fatalf("Resolve with zero tolerance = %#v, want c1", got)
	}
}

func TestWebMercator_PixelScale(t *testing.T) {
	w := WebMercator{Zoom: 0}
	a := w.Project(orb.Point{-180, 0})
	b := w.Project(orb.Point{180, 0})
	if math.Abs((b[0]-a[0])-256) > 1e-6 {
		t.Fatalf("world width at zoom 0 = %v px, want one 256px tile", b[0]-a[0])
	}
}
