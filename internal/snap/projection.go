package snap

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/project"
)

// DefaultZoom is the map zoom assumed when no projection is configured.
const DefaultZoom = 16

// Metres per pixel at zoom 0 for 256px tiles at the equator.
const mercatorResolutionZ0 = 156543.03392804097

// Projection maps lon/lat coordinates into screen pixel space. Only relative
// distances matter, so any consistent origin works.
type Projection interface {
	Project(p orb.Point) orb.Point
}

// WebMercator projects into world pixel coordinates at a zoom level.
type WebMercator struct {
	Zoom float64
}

// Project implements Projection.
func (w WebMercator) Project(p orb.Point) orb.Point {
	m := project.WGS84.ToMercator(p)
	res := mercatorResolutionZ0 / math.Pow(2, w.Zoom)
	return orb.Point{m[0] / res, -m[1] / res}
}
