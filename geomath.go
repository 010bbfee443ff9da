package osm2lanes

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

const (
	geomEps = 1e-9
	// Max ratio between miter length and offset distance before falling back to averaged normal
	miterLimit = 4.0
)

func sub(p, q orb.Point) orb.Point {
	return orb.Point{p[0] - q[0], p[1] - q[1]}
}

func add(p, q orb.Point) orb.Point {
	return orb.Point{p[0] + q[0], p[1] + q[1]}
}

func scale(p orb.Point, k float64) orb.Point {
	return orb.Point{p[0] * k, p[1] * k}
}

func dot(p, q orb.Point) float64 {
	return p[0]*q[0] + p[1]*q[1]
}

func cross(p, q orb.Point) float64 {
	return p[0]*q[1] - p[1]*q[0]
}

func norm(p orb.Point) float64 {
	return math.Hypot(p[0], p[1])
}

// normalize returns unit vector. Zero vector stays zero
func normalize(p orb.Point) orb.Point {
	l := norm(p)
	if l < geomEps {
		return orb.Point{}
	}
	return orb.Point{p[0] / l, p[1] / l}
}

// leftNormal rotates unit vector by 90 degrees counterclockwise
func leftNormal(p orb.Point) orb.Point {
	return orb.Point{-p[1], p[0]}
}

func midpoint(p, q orb.Point) orb.Point {
	return orb.Point{(p[0] + q[0]) / 2, (p[1] + q[1]) / 2}
}

func lerp(p, q orb.Point, t float64) orb.Point {
	return orb.Point{p[0] + (q[0]-p[0])*t, p[1] + (q[1]-p[1])*t}
}

func centroid(pts []orb.Point) orb.Point {
	var c orb.Point
	if len(pts) == 0 {
		return c
	}
	for _, pt := range pts {
		c[0] += pt[0]
		c[1] += pt[1]
	}
	c[0] /= float64(len(pts))
	c[1] /= float64(len(pts))
	return c
}

// Check if two lines intersects and returns intersection point
// p1, p2 - first line
// p3, p4 - second line
func intersect(p1, p2, p3, p4 orb.Point) (orb.Point, error) {
	a1 := p2[1] - p1[1]
	b1 := p1[0] - p2[0]
	c1 := a1*p1[0] + b1*p1[1]
	a2 := p4[1] - p3[1]
	b2 := p3[0] - p4[0]
	c2 := a2*p3[0] + b2*p3[1]

	det := a1*b2 - a2*b1
	if math.Abs(det) < geomEps {
		return orb.Point{}, fmt.Errorf("The lines are parallel")
	}

	x := (b2*c1 - b1*c2) / det
	y := (a1*c2 - a2*c1) / det
	return orb.Point{x, y}, nil
}

// segmentsIntersect checks if closed segments [p1, p2] and [p3, p4] have common point
func segmentsIntersect(p1, p2, p3, p4 orb.Point) bool {
	d1 := cross(sub(p4, p3), sub(p1, p3))
	d2 := cross(sub(p4, p3), sub(p2, p3))
	d3 := cross(sub(p2, p1), sub(p3, p1))
	d4 := cross(sub(p2, p1), sub(p4, p1))
	if ((d1 > geomEps && d2 < -geomEps) || (d1 < -geomEps && d2 > geomEps)) &&
		((d3 > geomEps && d4 < -geomEps) || (d3 < -geomEps && d4 > geomEps)) {
		return true
	}
	return (math.Abs(d1) <= geomEps && onSegment(p3, p4, p1)) ||
		(math.Abs(d2) <= geomEps && onSegment(p3, p4, p2)) ||
		(math.Abs(d3) <= geomEps && onSegment(p1, p2, p3)) ||
		(math.Abs(d4) <= geomEps && onSegment(p1, p2, p4))
}

func onSegment(a, b, p orb.Point) bool {
	return math.Min(a[0], b[0])-geomEps <= p[0] && p[0] <= math.Max(a[0], b[0])+geomEps &&
		math.Min(a[1], b[1])-geomEps <= p[1] && p[1] <= math.Max(a[1], b[1])+geomEps
}

// offsetLine shifts line to the left side for positive distance and to the right side for negative one.
// Output has exactly the same number of points as input.
func offsetLine(line orb.LineString, distance float64) orb.LineString {
	distances := make([]float64, len(line))
	for i := range distances {
		distances[i] = distance
	}
	return offsetLineVarying(line, distances)
}

// offsetLineVarying is offsetLine with individual distance for every point
func offsetLineVarying(line orb.LineString, distances []float64) orb.LineString {
	result := make(orb.LineString, len(line))
	if len(line) < 2 {
		copy(result, line)
		return result
	}
	segmentNormals := make([]orb.Point, len(line)-1)
	for i := 1; i < len(line); i++ {
		segmentNormals[i-1] = leftNormal(normalize(sub(line[i], line[i-1])))
	}
	result[0] = add(line[0], scale(segmentNormals[0], distances[0]))
	last := len(line) - 1
	result[last] = add(line[last], scale(segmentNormals[last-1], distances[last]))
	for i := 1; i < last; i++ {
		n1, n2 := segmentNormals[i-1], segmentNormals[i]
		d := distances[i]
		// Offset segments adjacent to the vertex
		a1 := add(line[i-1], scale(n1, d))
		a2 := add(line[i], scale(n1, d))
		b1 := add(line[i], scale(n2, d))
		b2 := add(line[i+1], scale(n2, d))
		fallback := add(line[i], scale(normalize(add(n1, n2)), d))
		pt, err := intersect(a1, a2, b1, b2)
		if err != nil || planar.Distance(pt, line[i]) > miterLimit*math.Abs(d) {
			result[i] = fallback
			continue
		}
		result[i] = pt
	}
	return result
}

// reverseLine reverses order of points in given line. Returns new slice
func reverseLine(line orb.LineString) orb.LineString {
	output := make(orb.LineString, len(line))
	for i, pt := range line {
		output[len(line)-i-1] = pt
	}
	return output
}

func copyLine(line orb.LineString) orb.LineString {
	output := make(orb.LineString, len(line))
	copy(output, line)
	return output
}

// dedupePoints removes consecutive duplicates
func dedupePoints(line orb.LineString) orb.LineString {
	output := make(orb.LineString, 0, len(line))
	for i, pt := range line {
		if i > 0 && planar.Distance(pt, output[len(output)-1]) < geomEps {
			continue
		}
		output = append(output, pt)
	}
	return output
}

// arcLengths returns cumulative length for every point of the line
func arcLengths(line orb.LineString) []float64 {
	dists := make([]float64, len(line))
	for i := 1; i < len(line); i++ {
		dists[i] = dists[i-1] + planar.Distance(line[i-1], line[i])
	}
	return dists
}

// pointAlong returns point on the line at given distance from the start (clamped to line ends)
// and index of segment's first point
func pointAlong(line orb.LineString, distance float64) (orb.Point, int) {
	if distance <= 0 {
		return line[0], 0
	}
	acc := 0.0
	for i := 1; i < len(line); i++ {
		segLen := planar.Distance(line[i-1], line[i])
		if acc+segLen >= distance && segLen > geomEps {
			return lerp(line[i-1], line[i], (distance-acc)/segLen), i - 1
		}
		acc += segLen
	}
	return line[len(line)-1], len(line) - 2
}

// insertPointAt inserts point at given distance along the line and returns new line and index of inserted point.
// Existing point is reused when it is close enough.
func insertPointAt(line orb.LineString, distance float64) (orb.LineString, int) {
	dists := arcLengths(line)
	for i, d := range dists {
		if math.Abs(d-distance) < 1e-6 {
			return line, i
		}
	}
	if distance <= 0 {
		return line, 0
	}
	if distance >= dists[len(dists)-1] {
		return line, len(line) - 1
	}
	pt, seg := pointAlong(line, distance)
	output := make(orb.LineString, 0, len(line)+1)
	output = append(output, line[:seg+1]...)
	output = append(output, pt)
	output = append(output, line[seg+1:]...)
	return output, seg + 1
}

// startDirection returns unit direction of the line near its start, measured over look-ahead distance
func startDirection(line orb.LineString, lookAhead float64) orb.Point {
	length := planar.Length(line)
	if lookAhead <= 0 || lookAhead > length {
		lookAhead = length
	}
	pt, _ := pointAlong(line, lookAhead)
	dir := normalize(sub(pt, line[0]))
	if dir == (orb.Point{}) && len(line) > 1 {
		dir = normalize(sub(line[1], line[0]))
	}
	return dir
}

// endDirection returns unit direction of travel at the end of the line
func endDirection(line orb.LineString, lookAhead float64) orb.Point {
	return scale(startDirection(reverseLine(line), lookAhead), -1)
}

// angleBetweenDirections returns unsigned angle between two vectors in [0, Pi]
func angleBetweenDirections(d1, d2 orb.Point) float64 {
	cos := dot(normalize(d1), normalize(d2))
	return math.Acos(math.Max(-1, math.Min(1, cos)))
}

// signedAngle returns angle from d1 to d2 in (-Pi, Pi]. Positive values are counterclockwise (left)
func signedAngle(d1, d2 orb.Point) float64 {
	angle := math.Atan2(d2[1], d2[0]) - math.Atan2(d1[1], d1[0])
	if angle <= -1*math.Pi {
		angle += 2 * math.Pi
	}
	if angle > math.Pi {
		angle -= 2 * math.Pi
	}
	return angle
}

// circumCurvature returns curvature (inverse of circumradius) of the circle passing through three points
func circumCurvature(a, b, c orb.Point) float64 {
	ab := planar.Distance(a, b)
	bc := planar.Distance(b, c)
	ca := planar.Distance(c, a)
	if ab < geomEps || bc < geomEps || ca < geomEps {
		return 0
	}
	doubleArea := math.Abs(cross(sub(b, a), sub(c, a)))
	return 2 * doubleArea / (ab * bc * ca)
}

// maxCurvature returns the largest discrete curvature along the line
func maxCurvature(line orb.LineString) float64 {
	maxK := 0.0
	for i := 1; i < len(line)-1; i++ {
		k := circumCurvature(line[i-1], line[i], line[i+1])
		if k > maxK {
			maxK = k
		}
	}
	return maxK
}

// perpendicularDistance returns distance from point p to the infinite line through a and b
func perpendicularDistance(p, a, b orb.Point) float64 {
	ab := sub(b, a)
	l := norm(ab)
	if l < geomEps {
		return planar.Distance(p, a)
	}
	return math.Abs(cross(ab, sub(p, a))) / l
}

// isSimpleRing checks that closed polyline does not touch itself except for adjacent segments
func isSimpleRing(ring orb.Ring) bool {
	n := len(ring) - 1
	if n < 3 {
		return false
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if j == i+1 || (i == 0 && j == n-1) {
				continue
			}
			if segmentsIntersect(ring[i], ring[i+1], ring[j], ring[j+1]) {
				return false
			}
		}
	}
	return true
}
