package trail

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
)

// NewPath builds the path candidate for points between start and end,
// computing length and end bearings.
func NewPath(id string, points orb.LineString, start, end SnapAnchor) PathFeature {
	line := make(orb.LineString, len(points))
	copy(line, points)
	startBearing, endBearing := EndBearings(line)
	return PathFeature{
		ID:           id,
		Coordinates:  line,
		Length:       round(geo.LengthHaversine(line), 1),
		StartBearing: startBearing,
		EndBearing:   endBearing,
		StartNode:    start.FeatureID,
		EndNode:      end.FeatureID,
	}
}

// EndBearings returns the bearing leaving the first point towards the second
// and the bearing leaving the last point towards the one before it, both in
// [0, 360). Lines shorter than two points yield zeros.
func EndBearings(line orb.LineString) (float64, float64) {
	n := len(line)
	if n < 2 {
		return 0, 0
	}
	return normalizeBearing(geo.Bearing(line[0], line[1])),
		normalizeBearing(geo.Bearing(line[n-1], line[n-2]))
}

func normalizeBearing(deg float64) float64 {
	b := math.Mod(deg, 360)
	if b < 0 {
		b += 360
	}
	return round(b, 1)
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
