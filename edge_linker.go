package osm2lanes

import (
	"time"

	"github.com/paulmach/orb"
	"go.uber.org/zap"
)

// outwardDirection returns direction of the edge leaving given node
func outwardDirection(edge *Edge, node NodeID, lookAhead float64) orb.Point {
	return startDirection(edge.lineFrom(node), lookAhead)
}

// LinkEdges finds continuation of every edge at both of its ends: the other edge at the same node
// with the largest angle between outward directions. Continuation is recorded only when the angle
// exceeds configured threshold. Ties are resolved in favor of the lowest edge id.
// Returns number of recorded continuations.
func LinkEdges(g *Graph, cfg *Config, logger *zap.Logger) int {
	if logger == nil {
		logger = zap.NewNop()
	}
	st := time.Now()
	threshold := cfg.continuationAngleRad()
	linked := 0
	for _, eid := range g.SortedEdgeIDs() {
		edge := g.Edge(eid)
		edge.SourceContinuation = NoEdge
		edge.TargetContinuation = NoEdge
	}
	for _, nid := range g.SortedNodeIDs() {
		node := g.Node(nid)
		if node.Degree() < 2 {
			continue
		}
		edges := node.Edges()
		for _, eid := range edges {
			edge := g.Edge(eid)
			dir := outwardDirection(edge, nid, cfg.LookAhead)
			best := NoEdge
			bestAngle := -1.0
			for _, fid := range edges {
				if fid == eid {
					continue
				}
				angle := angleBetweenDirections(dir, outwardDirection(g.Edge(fid), nid, cfg.LookAhead))
				if angle > bestAngle+geomEps {
					best = fid
					bestAngle = angle
				}
			}
			if best != NoEdge && bestAngle > threshold {
				edge.setContinuationAt(nid, best)
				linked++
			}
		}
	}
	logger.Info("Edges have been linked",
		zap.String("layer", g.Layer.String()),
		zap.Int("continuations", linked),
		zap.Duration("elapsed", time.Since(st)),
	)
	return linked
}

// isSameRoad checks if two edges are mutual continuations at given node
func isSameRoad(g *Graph, node NodeID, e, f *Edge) bool {
	if e == nil || f == nil || e.ID == f.ID {
		return false
	}
	return e.ContinuationAt(node) == f.ID && f.ContinuationAt(node) == e.ID
}

// isPassThrough checks if the node is a plain chaining point of one road: two mutually continuing edges
// with the same lane layout in direction of travel
func isPassThrough(g *Graph, node *Node) bool {
	if node.Degree() != 2 {
		return false
	}
	e, f := g.Edge(node.edges[0]), g.Edge(node.edges[1])
	if !isSameRoad(g, node.ID, e, f) {
		return false
	}
	return len(e.IncomingLanesAt(node.ID)) == len(f.OutgoingLanesAt(node.ID)) &&
		len(f.IncomingLanesAt(node.ID)) == len(e.OutgoingLanesAt(node.ID))
}
