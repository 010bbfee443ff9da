package osm2lanes

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// Step of walking along edge while searching for the point where it separates from the other edge
const cropSearchStep = 0.25

// cropEdges cuts every edge back from its junction nodes. Crop distances are evaluated on uncropped
// geometry first and applied afterwards, so the order of edges does not matter.
// Returns ids of edges which are too short to be cropped. Those are marked for deletion.
func cropEdges(g *Graph, cfg *Config) []EdgeID {
	type cropping struct {
		edge     *Edge
		atSource float64
		atTarget float64
	}
	plan := []cropping{}
	for _, eid := range g.SortedEdgeIDs() {
		edge := g.Edge(eid)
		if edge.cropped {
			continue
		}
		plan = append(plan, cropping{
			edge:     edge,
			atSource: cropDistanceAt(g, cfg, edge, edge.Source),
			atTarget: cropDistanceAt(g, cfg, edge, edge.Target),
		})
	}
	degenerate := []EdgeID{}
	for _, c := range plan {
		if !cropEdge(c.edge, c.atSource, c.atTarget) {
			degenerate = append(degenerate, c.edge.ID)
		}
	}
	return degenerate
}

// cropEdge cuts given distances from both ends of the edge. Returns false when nothing would be left:
// such edge keeps 2-point window around the truncation point and is marked for deletion.
func cropEdge(edge *Edge, atSource, atTarget float64) bool {
	edge.cropped = true
	if atSource <= 0 && atTarget <= 0 {
		return true
	}
	length := edge.Length()
	if atSource+atTarget >= length-geomEps {
		truncation := length / 2
		if atSource+atTarget > geomEps {
			truncation = length * atSource / (atSource + atTarget)
		}
		line, idx := insertPointAt(edge.Waypoints, truncation)
		edge.Waypoints = line
		edge.CropWaypoints(idx, idx)
		edge.markedForDeletion = true
		return false
	}
	line, i := insertPointAt(edge.Waypoints, atSource)
	line, j := insertPointAt(line, length-atTarget)
	edge.Waypoints = line
	if edge.CropWaypoints(i, j+1) {
		edge.markedForDeletion = true
		return false
	}
	return true
}

// cropDistanceAt returns how far the edge should be cut back from given node: the largest over other
// touching edges of min(margin, distance where both roads stop overlapping)
func cropDistanceAt(g *Graph, cfg *Config, edge *Edge, nodeID NodeID) float64 {
	node := g.Node(nodeID)
	if node == nil || node.Degree() < 2 || isPassThrough(g, node) {
		return 0
	}
	margin := cfg.CropMargin
	if node.Crossing {
		margin *= cfg.CrossingMarginRatio
	}
	if margin <= 0 {
		return 0
	}
	line := edge.lineFrom(nodeID)
	crop := 0.0
	for _, fid := range node.Edges() {
		if fid == edge.ID {
			continue
		}
		other := g.Edge(fid)
		safety := (edge.Width() + other.Width()) / 2
		crop = math.Max(crop, math.Min(margin, separationDistance(line, other.lineFrom(nodeID), safety, margin)))
	}
	return crop
}

// separationDistance walks along the line from its start and returns arc length at which distance to the other
// line reaches safety distance. Returns limit when it doesn't happen before it.
func separationDistance(line, other orb.LineString, safety, limit float64) float64 {
	length := planar.Length(line)
	if limit > length {
		limit = length
	}
	for d := cropSearchStep; d < limit; d += cropSearchStep {
		pt, _ := pointAlong(line, d)
		if planar.DistanceFrom(other, pt) >= safety {
			return d
		}
	}
	return limit
}
