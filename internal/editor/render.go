package editor

import (
	"sync"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/five82/trailedit/internal/snap"
	"github.com/five82/trailedit/internal/state"
	"github.com/five82/trailedit/internal/trail"
)

// Renderer is the map surface.
type Renderer interface {
	snap.HitTester
	SetLayerData(layer snap.Layer, fc *geojson.FeatureCollection)
}

// Draft layer feature roles.
const (
	RoleDraftLine = "draft"
	RolePreview   = "preview"
	RoleAnchor    = "anchor"
	RoleSelected  = "selected"
)

// Bridge pushes state to a Renderer, re-sending a collection layer only when
// its revision changed.
type Bridge struct {
	r Renderer

	mu   sync.Mutex
	last *state.AppState
}

func NewBridge(r Renderer) *Bridge {
	return &Bridge{r: r}
}

// Render publishes s. It is safe to call with the same state repeatedly.
func (b *Bridge) Render(s *state.AppState) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if s == nil || s == b.last {
		return
	}
	prev := b.last
	b.last = s

	cols := s.Collections
	if prev == nil || !prev.Collections.Crossroads.Same(cols.Crossroads) {
		b.r.SetLayerData(snap.LayerCrossroads, NodeLayer(cols.Crossroads.Items()))
	}
	if prev == nil || !prev.Collections.Destinations.Same(cols.Destinations) {
		b.r.SetLayerData(snap.LayerDestinations, NodeLayer(cols.Destinations.Items()))
	}
	if prev == nil || !prev.Collections.Paths.Same(cols.Paths) {
		b.r.SetLayerData(snap.LayerPaths, PathLayer(cols.Paths.Items()))
	}
	b.r.SetLayerData(snap.LayerDraft, DraftLayer(s))
}

// NodeLayer encodes nodes as point features.
func NodeLayer(nodes []trail.NodeFeature) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, n := range nodes {
		f := geojson.NewFeature(n.Coordinates)
		f.ID = n.ID
		f.Properties["kind"] = string(n.Kind)
		f.Properties["name"] = n.Name
		if n.Type != "" {
			f.Properties["type"] = n.Type
		}
		fc.Append(f)
	}
	return fc
}

// PathLayer encodes paths as line features.
func PathLayer(paths []trail.PathFeature) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, p := range paths {
		f := geojson.NewFeature(p.Coordinates)
		f.ID = p.ID
		f.Properties["name"] = p.Name
		f.Properties["length"] = p.Length
		f.Properties["startNode"] = p.StartNode
		f.Properties["endNode"] = p.EndNode
		if p.Surface != "" {
			f.Properties["surface"] = p.Surface
		}
		fc.Append(f)
	}
	return fc
}

// DraftLayer encodes the draft line, the rubber-band preview to the hover
// point, the anchors and the auto-segment selection.
func DraftLayer(s *state.AppState) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	d := s.Draft

	if len(d.Points) >= 2 {
		fc.Append(role(geojson.NewFeature(append(orb.LineString(nil), d.Points...)), RoleDraftLine))
	}
	if s.UI.Hover != nil && len(d.Points) > 0 && d.AnchorEnd == nil && !d.Saving {
		preview := orb.LineString{d.Points[len(d.Points)-1], *s.UI.Hover}
		fc.Append(role(geojson.NewFeature(preview), RolePreview))
	}
	for _, a := range []*trail.SnapAnchor{d.AnchorStart, d.AnchorEnd} {
		if a == nil {
			continue
		}
		f := role(geojson.NewFeature(a.Coordinates), RoleAnchor)
		f.Properties["featureId"] = a.FeatureID
		fc.Append(f)
	}
	for _, a := range s.Selection {
		f := role(geojson.NewFeature(a.Coordinates), RoleSelected)
		f.Properties["featureId"] = a.FeatureID
		fc.Append(f)
	}
	return fc
}

func role(f *geojson.Feature, r string) *geojson.Feature {
	f.Properties["role"] = r
	return f
}
