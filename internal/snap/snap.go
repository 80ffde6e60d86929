// Package snap resolves pointer positions onto existing network nodes.
//
// Resolution only ever considers crossroads and destinations; path geometry is
// never a snap target. The resolver holds no mutable state: the same pointer
// and the same collections always yield the same anchor.
package snap

import (
	"math"
	"sort"

	"github.com/paulmach/orb"

	"github.com/five82/trailedit/internal/trail"
)

// Layer names a renderer layer.
type Layer string

const (
	LayerCrossroads   Layer = "crossroads"
	LayerDestinations Layer = "destinations"
	LayerPaths        Layer = "paths"
	LayerDraft        Layer = "draft"
)

// DefaultTolerancePx is used when callers pass a non-positive tolerance.
const DefaultTolerancePx = 10

// Hit is a feature the renderer found under a screen point.
type Hit struct {
	Layer     Layer  `json:"layer"`
	FeatureID string `json:"featureId"`
}

// HitTester is the renderer's hit-test entry point.
type HitTester interface {
	HitTest(screen orb.Point, layers ...Layer) []Hit
}

// Pointer is a pointer position in screen pixels and map coordinates, with
// any features the renderer already hit-tested for it.
type Pointer struct {
	Screen   orb.Point
	Map      orb.Point
	Features []Hit
}

// NodeLayer reports whether l holds snap targets.
func NodeLayer(l Layer) bool {
	return l == LayerCrossroads || l == LayerDestinations
}

// Resolver finds the node under a pointer.
type Resolver struct {
	HitTester  HitTester  // optional
	Projection Projection // nil uses WebMercator at DefaultZoom
}

type candidate struct {
	node trail.NodeFeature
	dist float64
}

// Resolve returns the nearest crossroad or destination within tolerancePx of
// ptr, or nil. Hit-tested features whose id is no longer loaded are ignored.
func (r Resolver) Resolve(ptr Pointer, tolerancePx float64, cols trail.Collections) *trail.SnapAnchor {
	if tolerancePx <= 0 {
		tolerancePx = DefaultTolerancePx
	}
	proj := r.Projection
	if proj == nil {
		proj = WebMercator{Zoom: DefaultZoom}
	}

	origin := proj.Project(ptr.Map)
	var found []candidate
	for _, node := range r.candidates(ptr, cols) {
		d := distance(origin, proj.Project(node.Coordinates))
		if d <= tolerancePx {
			found = append(found, candidate{node: node, dist: d})
		}
	}
	if len(found) == 0 {
		return nil
	}
	sort.Slice(found, func(i, j int) bool {
		a, b := found[i], found[j]
		if a.dist != b.dist {
			return a.dist < b.dist
		}
		if a.node.Kind != b.node.Kind {
			return a.node.Kind < b.node.Kind
		}
		return a.node.ID < b.node.ID
	})
	anchor := trail.AnchorOf(found[0].node)
	return &anchor
}

func (r Resolver) candidates(ptr Pointer, cols trail.Collections) []trail.NodeFeature {
	hits := ptr.Features
	if len(hits) == 0 && r.HitTester != nil {
		hits = r.HitTester.HitTest(ptr.Screen, LayerCrossroads, LayerDestinations)
	}
	if len(hits) == 0 {
		return cols.Nodes()
	}

	var nodes []trail.NodeFeature
	seen := make(map[string]bool, len(hits))
	for _, h := range hits {
		if !NodeLayer(h.Layer) || seen[h.FeatureID] {
			continue
		}
		seen[h.FeatureID] = true
		var (
			node trail.NodeFeature
			ok   bool
		)
		if h.Layer == LayerCrossroads {
			node, ok = cols.Crossroads.Get(h.FeatureID)
		} else {
			node, ok = cols.Destinations.Get(h.FeatureID)
		}
		if ok {
			nodes = append(nodes, node)
		}
	}
	return nodes
}

func distance(a, b orb.Point) float64 {
	return math.Hypot(a[0]-b[0], a[1]-b[1])
}
