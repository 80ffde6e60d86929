package ui

import (
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/five82/trailedit/internal/snap"
)

// Surface is the console's map layer store. It receives layer data from the
// render bridge and answers hit tests for the map cursor.
type Surface struct {
	proj        snap.Projection
	tolerancePx float64

	mu     sync.RWMutex
	layers map[snap.Layer]*geojson.FeatureCollection
}

// NewSurface creates an empty surface hit-testing within tolerancePx.
func NewSurface(proj snap.Projection, tolerancePx float64) *Surface {
	if proj == nil {
		proj = snap.WebMercator{Zoom: snap.DefaultZoom}
	}
	if tolerancePx <= 0 {
		tolerancePx = snap.DefaultTolerancePx
	}
	return &Surface{
		proj:        proj,
		tolerancePx: tolerancePx,
		layers:      make(map[snap.Layer]*geojson.FeatureCollection),
	}
}

// SetLayerData replaces one layer.
func (s *Surface) SetLayerData(layer snap.Layer, fc *geojson.FeatureCollection) {
	s.mu.Lock()
	s.layers[layer] = fc
	s.mu.Unlock()
}

// Project maps a coordinate into screen pixels.
func (s *Surface) Project(p orb.Point) orb.Point {
	return s.proj.Project(p)
}

// HitTest returns the point features of layers within the tolerance of
// screen, nearest first. Without layers the node layers are searched.
func (s *Surface) HitTest(screen orb.Point, layers ...snap.Layer) []snap.Hit {
	if len(layers) == 0 {
		layers = []snap.Layer{snap.LayerCrossroads, snap.LayerDestinations}
	}

	type scored struct {
		hit  snap.Hit
		dist float64
	}
	var found []scored

	s.mu.RLock()
	for _, layer := range layers {
		fc := s.layers[layer]
		if fc == nil {
			continue
		}
		for _, f := range fc.Features {
			pt, ok := f.Geometry.(orb.Point)
			if !ok {
				continue
			}
			p := s.proj.Project(pt)
			d := math.Hypot(p[0]-screen[0], p[1]-screen[1])
			if d > s.tolerancePx {
				continue
			}
			found = append(found, scored{hit: snap.Hit{Layer: layer, FeatureID: featureID(f)}, dist: d})
		}
	}
	s.mu.RUnlock()

	sort.SliceStable(found, func(i, j int) bool { return found[i].dist < found[j].dist })
	hits := make([]snap.Hit, len(found))
	for i, f := range found {
		hits[i] = f.hit
	}
	return hits
}

// Count returns the number of features in layer.
func (s *Surface) Count(layer snap.Layer) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if fc := s.layers[layer]; fc != nil {
		return len(fc.Features)
	}
	return 0
}

// Roles counts the draft layer features by their role property.
func (s *Surface) Roles() map[string]int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]int)
	if fc := s.layers[snap.LayerDraft]; fc != nil {
		for _, f := range fc.Features {
			out[f.Properties.MustString("role", "")]++
		}
	}
	return out
}

// Center returns the mean position of the loaded nodes.
func (s *Surface) Center() (orb.Point, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var sum orb.Point
	n := 0
	for _, layer := range []snap.Layer{snap.LayerCrossroads, snap.LayerDestinations} {
		fc := s.layers[layer]
		if fc == nil {
			continue
		}
		for _, f := range fc.Features {
			if pt, ok := f.Geometry.(orb.Point); ok {
				sum[0] += pt[0]
				sum[1] += pt[1]
				n++
			}
		}
	}
	if n == 0 {
		return orb.Point{}, false
	}
	return orb.Point{sum[0] / float64(n), sum[1] / float64(n)}, true
}

func featureID(f *geojson.Feature) string {
	switch id := f.ID.(type) {
	case string:
		return id
	case nil:
		return ""
	default:
		return fmt.Sprint(id)
	}
}
