package osm2lanes

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// Share of segment length which intersection of tangents must keep from both segment ends to be used as quadratic control point
const quadraticControlMinShare = 0.1

// quadraticBezier returns segments+1 points of quadratic curve p0-p1-p2
func quadraticBezier(p0, p1, p2 orb.Point, segments int) orb.LineString {
	if segments < 1 {
		segments = 1
	}
	curve := make(orb.LineString, segments+1)
	for i := 0; i <= segments; i++ {
		t := float64(i) / float64(segments)
		u := 1 - t
		curve[i] = orb.Point{
			u*u*p0[0] + 2*u*t*p1[0] + t*t*p2[0],
			u*u*p0[1] + 2*u*t*p1[1] + t*t*p2[1],
		}
	}
	curve[0], curve[segments] = p0, p2
	return curve
}

// cubicBezier returns segments+1 points of cubic curve p0-p1-p2-p3
func cubicBezier(p0, p1, p2, p3 orb.Point, segments int) orb.LineString {
	if segments < 1 {
		segments = 1
	}
	curve := make(orb.LineString, segments+1)
	for i := 0; i <= segments; i++ {
		t := float64(i) / float64(segments)
		u := 1 - t
		a, b, c, d := u*u*u, 3*u*u*t, 3*u*t*t, t*t*t
		curve[i] = orb.Point{
			a*p0[0] + b*p1[0] + c*p2[0] + d*p3[0],
			a*p0[1] + b*p1[1] + c*p2[1] + d*p3[1],
		}
	}
	curve[0], curve[segments] = p0, p3
	return curve
}

// tangentIntersection returns intersection of the ray started at `start` along `startDir`
// and the ray ending at `end` along `endDir`. Second value is false when there is no
// such point in front of both ends or when it is closer than minDist to any of them.
func tangentIntersection(start, startDir, end, endDir orb.Point, minDist float64) (orb.Point, bool) {
	pt, err := intersect(start, add(start, startDir), end, add(end, endDir))
	if err != nil {
		return orb.Point{}, false
	}
	if dot(sub(pt, start), startDir) <= 0 || dot(sub(end, pt), endDir) <= 0 {
		return orb.Point{}, false
	}
	if planar.Distance(pt, start) < minDist || planar.Distance(pt, end) < minDist {
		return orb.Point{}, false
	}
	return pt, true
}

func segmentsBySpacing(length, spacing float64) int {
	if spacing <= 0 {
		return 1
	}
	n := int(math.Ceil(length/spacing - geomEps))
	if n < 1 {
		n = 1
	}
	return n
}

// interpolateLine turns sparse polyline into tangent-continuous one. Every segment is replaced either
// by quadratic Bezier through intersection of neighbouring tangents or by cubic Bezier when such intersection
// is ill-conditioned.
func interpolateLine(line orb.LineString, spacing, tension float64) orb.LineString {
	line = dedupePoints(line)
	if len(line) < 2 {
		return line
	}
	if len(line) == 2 {
		n := segmentsBySpacing(planar.Distance(line[0], line[1]), spacing)
		out := make(orb.LineString, n+1)
		for i := 0; i <= n; i++ {
			out[i] = lerp(line[0], line[1], float64(i)/float64(n))
		}
		out[0], out[n] = line[0], line[1]
		return out
	}
	tangents := make([]orb.Point, len(line))
	for i := range line {
		var t orb.Point
		switch {
		case i == 0:
			t = sub(line[1], line[0])
		case i == len(line)-1:
			t = sub(line[i], line[i-1])
		default:
			t = sub(line[i+1], line[i-1])
			if norm(t) < geomEps {
				t = sub(line[i], line[i-1])
			}
		}
		tangents[i] = normalize(t)
	}
	out := orb.LineString{line[0]}
	for i := 0; i < len(line)-1; i++ {
		p0, p3 := line[i], line[i+1]
		segLen := planar.Distance(p0, p3)
		n := segmentsBySpacing(segLen, spacing)
		var curve orb.LineString
		if ctrl, ok := tangentIntersection(p0, tangents[i], p3, tangents[i+1], quadraticControlMinShare*segLen); ok {
			curve = quadraticBezier(p0, ctrl, p3, n)
		} else {
			c1 := add(p0, scale(tangents[i], tension*segLen))
			c2 := sub(p3, scale(tangents[i+1], tension*segLen))
			curve = cubicBezier(p0, c1, c2, p3, n)
		}
		out = append(out, curve[1:]...)
	}
	return dedupePoints(out)
}

// connectorCurve builds connector between end of one lane and start of another.
// Quadratic curve is used when tangents intersect far enough from both ends, cubic one otherwise.
func connectorCurve(start, startDir, end, endDir orb.Point, tension, spacing float64) (orb.LineString, bool) {
	separation := planar.Distance(start, end)
	if separation < geomEps {
		return orb.LineString{start, end}, false
	}
	minDist := math.Min(1.0, quadraticControlMinShare*separation)
	n := segmentsBySpacing(separation, spacing)
	if n < 2 {
		n = 2
	}
	if ctrl, ok := tangentIntersection(start, startDir, end, endDir, minDist); ok {
		return quadraticBezier(start, ctrl, end, n), true
	}
	c1 := add(start, scale(startDir, tension*separation))
	c2 := sub(end, scale(endDir, tension*separation))
	return cubicBezier(start, c1, c2, end, n), false
}
