package osm2lanes

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/project"
)

// LocalProjection maps WGS84 longitude/latitude to local plane in meters around given origin
// (Web Mercator scaled by cosine of the origin latitude) and back
type LocalProjection struct {
	Origin orb.Point
	origin orb.Point
	scale  float64
}

// NewLocalProjection creates projection centered at given point (longitude, latitude)
func NewLocalProjection(center orb.Point) *LocalProjection {
	return &LocalProjection{
		Origin: center,
		origin: project.WGS84.ToMercator(center),
		scale:  1.0 / project.MercatorScaleFactor(center),
	}
}

// Forward converts WGS84 point to local planar coordinates
func (proj *LocalProjection) Forward(pt orb.Point) orb.Point {
	m := project.WGS84.ToMercator(pt)
	return orb.Point{(m[0] - proj.origin[0]) * proj.scale, (m[1] - proj.origin[1]) * proj.scale}
}

// Inverse converts local planar coordinates back to WGS84
func (proj *LocalProjection) Inverse(pt orb.Point) orb.Point {
	return project.Mercator.ToWGS84(orb.Point{pt[0]/proj.scale + proj.origin[0], pt[1]/proj.scale + proj.origin[1]})
}

// InverseLine converts every point of the line. Returns new slice
func (proj *LocalProjection) InverseLine(line orb.LineString) orb.LineString {
	out := make(orb.LineString, len(line))
	for i, pt := range line {
		out[i] = proj.Inverse(pt)
	}
	return out
}
