package osm2lanes

import (
	"time"

	"github.com/paulmach/orb"
	"go.uber.org/zap"
)

// FinalizeBounds equalizes and simplifies lane centerlines, computes lane boundaries, reconciles shared corners
// and deletes lanes with invalid polygons. Returns number of deleted lanes.
func FinalizeBounds(g *Graph, cfg *Config, logger *zap.Logger) (int, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	st := time.Now()
	groups := laneGroups(g)
	for _, group := range groups {
		equalizeGroup(g, group, cfg.TargetSpacing)
		simplifyGroup(g, group, cfg.SimplifyDistance, cfg.SimplifyCompression)
	}
	if err := computeBoundaries(g); err != nil {
		return 0, err
	}
	reconcileCorners(g)

	deleted := 0
	for _, lid := range g.SortedLaneIDs() {
		lane := g.Lane(lid)
		if lane == nil {
			continue
		}
		if !isSimpleRing(lane.Polygon()) {
			logger.Warn("Lane polygon is not simple. Remove lane",
				zap.String("layer", g.Layer.String()),
				zap.Int("lane_id", int(lid)),
				zap.Int("edge_id", int(lane.EdgeID)),
			)
			g.RemoveLane(lid)
			deleted++
		}
	}
	g.sweep()
	logger.Info("Lane bounds have been finalized",
		zap.String("layer", g.Layer.String()),
		zap.Int("groups", len(groups)),
		zap.Int("lanes", g.LanesNum()),
		zap.Int("deleted_lanes", deleted),
		zap.Duration("elapsed", time.Since(st)),
	)
	return deleted, nil
}

// laneGroups returns lanes of every edge (oriented along the edge) and every maximal chain of mutually adjacent connectors
func laneGroups(g *Graph) []*laneGroup {
	groups := []*laneGroup{}
	for _, eid := range g.SortedEdgeIDs() {
		edge := g.Edge(eid)
		group := &laneGroup{}
		for _, lid := range edge.backwardLanes {
			group.add(lid, true)
		}
		for _, lid := range edge.forwardLanes {
			group.add(lid, false)
		}
		if len(group.lanes) > 0 {
			groups = append(groups, group)
		}
	}
	seen := make(map[LaneID]struct{})
	for _, start := range g.LaneLinks() {
		if _, ok := seen[start]; ok {
			continue
		}
		group := &laneGroup{}
		type item struct {
			id       LaneID
			reversed bool
		}
		queue := []item{{start, false}}
		seen[start] = struct{}{}
		for len(queue) > 0 {
			current := queue[0]
			queue = queue[1:]
			group.add(current.id, current.reversed)
			lane := g.Lane(current.id)
			for _, side := range []Side{SIDE_LEFT, SIDE_RIGHT} {
				nb, ok := lane.Neighbor(side)
				if !ok {
					continue
				}
				other := g.Lane(nb.ID)
				if other == nil || !other.IsConnector() {
					continue
				}
				if _, ok := seen[nb.ID]; ok {
					continue
				}
				seen[nb.ID] = struct{}{}
				queue = append(queue, item{nb.ID, current.reversed != !nb.SameDirection})
			}
		}
		groups = append(groups, group)
	}
	return groups
}

// computeBoundaries sets left and right boundaries of every lane. Boundary touching already processed neighbor
// with the same number of points is copied from it, otherwise it is offset from centerline by half of the lane width
func computeBoundaries(g *Graph) error {
	done := make(map[LaneID]struct{})
	for _, lid := range g.SortedLaneIDs() {
		lane := g.Lane(lid)
		for _, side := range []Side{SIDE_LEFT, SIDE_RIGHT} {
			if boundary, ok := neighborBoundary(g, lane, side, done); ok {
				lane.setBoundary(side, boundary)
				continue
			}
			lane.setBoundary(side, halfWidthOffset(lane, side))
		}
		if err := lane.markVisited(PHASE_FINALIZE); err != nil {
			err.(*StructuralError).Layer = g.Layer
			return err
		}
		done[lid] = struct{}{}
	}
	return nil
}

// neighborBoundary returns copy of the neighbor's boundary touching the lane at given side, in the lane's direction of travel
func neighborBoundary(g *Graph, lane *Lane, side Side, done map[LaneID]struct{}) (orb.LineString, bool) {
	nb, ok := lane.Neighbor(side)
	if !ok {
		return nil, false
	}
	if _, ok := done[nb.ID]; !ok {
		return nil, false
	}
	other := g.Lane(nb.ID)
	if other == nil || len(other.Centerline) != len(lane.Centerline) {
		return nil, false
	}
	touching := other.Boundary(touchingSide(side, nb.SameDirection))
	if len(touching) != len(lane.Centerline) {
		return nil, false
	}
	if nb.SameDirection {
		return copyLine(touching), true
	}
	return reverseLine(touching), true
}

// halfWidthOffset shifts centerline sideways by half of the lane width. Width changes linearly
// along the lane from start width to end width.
func halfWidthOffset(lane *Lane, side Side) orb.LineString {
	dists := arcLengths(lane.Centerline)
	total := dists[len(dists)-1]
	sign := 1.0
	if side == SIDE_RIGHT {
		sign = -1.0
	}
	offsets := make([]float64, len(dists))
	for i, d := range dists {
		t := 0.0
		if total > geomEps {
			t = d / total
		}
		offsets[i] = sign * (lane.StartWidth + (lane.EndWidth-lane.StartWidth)*t) / 2
	}
	return offsetLineVarying(lane.Centerline, offsets)
}
