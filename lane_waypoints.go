package osm2lanes

import (
	"context"
	"time"

	"github.com/paulmach/orb"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// PrepareWaypoints interpolates edge reference lines, crops them near junctions and produces lane centerlines.
// Edges which can't survive cropping are removed. Returns number of removed edges.
func PrepareWaypoints(g *Graph, cfg *Config, logger *zap.Logger) (int, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	st := time.Now()
	if err := interpolateEdges(g, cfg); err != nil {
		return 0, err
	}
	logger.Debug("Edges have been interpolated", zap.String("layer", g.Layer.String()), zap.Duration("elapsed", time.Since(st)))

	degenerate := cropEdges(g, cfg)
	for _, eid := range degenerate {
		logger.Warn("Edge is too short for cropping near junctions. Remove it", zap.String("layer", g.Layer.String()), zap.Int("edge_id", int(eid)))
	}

	for _, eid := range g.SortedEdgeIDs() {
		edge := g.Edge(eid)
		if edge.markedForDeletion {
			continue
		}
		if err := offsetLanes(g, edge); err != nil {
			return 0, err
		}
	}
	for _, eid := range degenerate {
		g.RemoveEdge(eid)
	}
	g.sweep()
	joinPassThroughLanes(g)
	logger.Info("Lane waypoints are ready",
		zap.String("layer", g.Layer.String()),
		zap.Int("edges", g.EdgesNum()),
		zap.Int("lanes", g.LanesNum()),
		zap.Int("removed_edges", len(degenerate)),
		zap.Duration("elapsed", time.Since(st)),
	)
	return len(degenerate), nil
}

// interpolateEdges replaces sparse edge waypoints with tangent-continuous curves.
// Edges are independent, so work is spread over configured number of goroutines.
func interpolateEdges(g *Graph, cfg *Config) error {
	ids := g.SortedEdgeIDs()
	results := make([]orb.LineString, len(ids))
	eg, _ := errgroup.WithContext(context.Background())
	workers := cfg.Workers
	if workers < 1 {
		workers = 1
	}
	eg.SetLimit(workers)
	for i, eid := range ids {
		edge := g.Edge(eid)
		if edge.interpolated {
			continue
		}
		i, line := i, edge.Waypoints
		eg.Go(func() error {
			results[i] = interpolateLine(line, cfg.InterpolationSpacing, cfg.BezierTension)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return err
	}
	for i, eid := range ids {
		edge := g.Edge(eid)
		if edge.interpolated {
			continue
		}
		if len(results[i]) >= 2 {
			edge.Waypoints = results[i]
		}
		edge.interpolated = true
	}
	return nil
}

// offsetLanes produces centerlines of edge lanes by shifting the reference line.
// Two-way roads have the divider on the reference line, one-way roads are centered on it.
func offsetLanes(g *Graph, edge *Edge) error {
	w := edge.LaneWidth
	forwardShift := 0.0
	if edge.IsOneway() {
		forwardShift = float64(edge.LanesForward) / 2.0
	}
	for i, lid := range edge.forwardLanes {
		lane := g.Lane(lid)
		// Forward lanes lie to the right of the reference line
		lane.Centerline = offsetLine(edge.Waypoints, -(float64(i)+0.5-forwardShift)*w)
		lane.StartWidth, lane.EndWidth = w, w
		if err := lane.markVisited(PHASE_WAYPOINTS); err != nil {
			return err
		}
	}
	for i, lid := range edge.backwardLanes {
		lane := g.Lane(lid)
		lane.Centerline = reverseLine(offsetLine(edge.Waypoints, (float64(i)+0.5)*w))
		lane.StartWidth, lane.EndWidth = w, w
		if err := lane.markVisited(PHASE_WAYPOINTS); err != nil {
			return err
		}
	}
	return nil
}

// joinPassThroughLanes snaps touching ends of lanes of one road at uncropped pass-through nodes,
// so the lanes continue each other without gap at bends
func joinPassThroughLanes(g *Graph) {
	for _, nid := range g.SortedNodeIDs() {
		node := g.Node(nid)
		if !isPassThrough(g, node) {
			continue
		}
		e, f := g.Edge(node.edges[0]), g.Edge(node.edges[1])
		if !e.lineFrom(nid)[0].Equal(f.lineFrom(nid)[0]) {
			continue
		}
		for _, pair := range [][2]*Edge{{e, f}, {f, e}} {
			incoming, outgoing := pair[0].IncomingLanesAt(nid), pair[1].OutgoingLanesAt(nid)
			for i := range incoming {
				in, out := g.Lane(incoming[i]), g.Lane(outgoing[i])
				mid := midpoint(in.Centerline[len(in.Centerline)-1], out.Centerline[0])
				in.Centerline[len(in.Centerline)-1] = mid
				out.Centerline[0] = mid
			}
		}
	}
}
