package ui

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/five82/trailedit/internal/editor"
	"github.com/five82/trailedit/internal/snap"
	"github.com/five82/trailedit/internal/trail"
)

// flat maps one degree to 1000 pixels.
type flat struct{}

func (flat) Project(p orb.Point) orb.Point { return orb.Point{p[0] * 1000, p[1] * 1000} }

func TestSurfaceHitTestNearestFirst(t *testing.T) {
	s := NewSurface(flat{}, 10)
	s.SetLayerData(snap.LayerCrossroads, editor.NodeLayer([]trail.NodeFeature{
		{ID: "far", Kind: trail.KindCrossroad, Coordinates: orb.Point{0.008, 0}},
		{ID: "near", Kind: trail.KindCrossroad, Coordinates: orb.Point{0.002, 0}},
		{ID: "out", Kind: trail.KindCrossroad, Coordinates: orb.Point{0.05, 0}},
	}))
	s.SetLayerData(snap.LayerDestinations, editor.NodeLayer([]trail.NodeFeature{
		{ID: "d1", Kind: trail.KindDestination, Coordinates: orb.Point{0, 0.005}},
	}))

	hits := s.HitTest(orb.Point{0, 0})
	want := []string{"near", "d1", "far"}
	if len(hits) != len(want) {
		t.Fatalf("hits = %+v, want %v", hits, want)
	}
	for i, id := range want {
		if hits[i].FeatureID != id {
			t.Fatalf("hit %d = %q, want %q", i, hits[i].FeatureID, id)
		}
	}
	if hits[1].Layer != snap.LayerDestinations {
		t.Fatalf("d1 layer = %q", hits[1].Layer)
	}

	only := s.HitTest(orb.Point{0, 0}, snap.LayerDestinations)
	if len(only) != 1 || only[0].FeatureID != "d1" {
		t.Fatalf("filtered hits = %+v", only)
	}
}

func TestSurfaceIgnoresLines(t *testing.T) {
	s := NewSurface(flat{}, 10)
	s.SetLayerData(snap.LayerPaths, editor.PathLayer([]trail.PathFeature{
		{ID: "p1", Coordinates: orb.LineString{{0, 0}, {1, 1}}},
	}))
	if hits := s.HitTest(orb.Point{0, 0}, snap.LayerPaths); len(hits) != 0 {
		t.Fatalf("paths must not be hit targets, got %+v", hits)
	}
	if got := s.Count(snap.LayerPaths); got != 1 {
		t.Fatalf("Count(paths) = %d, want 1", got)
	}
}

func TestSurfaceCenterAndRoles(t *testing.T) {
	s := NewSurface(nil, 0)
	if _, ok := s.Center(); ok {
		t.Fatal("empty surface has no center")
	}

	s.SetLayerData(snap.LayerCrossroads, editor.NodeLayer([]trail.NodeFeature{
		{ID: "a", Coordinates: orb.Point{10, 40}},
		{ID: "b", Coordinates: orb.Point{12, 42}},
	}))
	c, ok := s.Center()
	if !ok || c != (orb.Point{11, 41}) {
		t.Fatalf("Center() = %v, %v", c, ok)
	}

	fc := geojson.NewFeatureCollection()
	for _, r := range []string{editor.RoleDraftLine, editor.RoleAnchor, editor.RoleAnchor} {
		f := geojson.NewFeature(orb.Point{0, 0})
		f.Properties["role"] = r
		fc.Append(f)
	}
	s.SetLayerData(snap.LayerDraft, fc)
	roles := s.Roles()
	if roles[editor.RoleAnchor] != 2 || roles[editor.RoleDraftLine] != 1 {
		t.Fatalf("Roles() = %v", roles)
	}
}
