package osm2lanes

import (
	"sort"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"github.com/tidwall/rtree"
	"go.uber.org/zap"
)

// Min degree of a node to be treated as junction
const junctionDegree = 3

type unionFind map[NodeID]NodeID

func (uf unionFind) find(id NodeID) NodeID {
	root := id
	for uf[root] != root {
		root = uf[root]
	}
	for uf[id] != root {
		next := uf[id]
		uf[id] = root
		id = next
	}
	return root
}

// union keeps the lowest id as root
func (uf unionFind) union(a, b NodeID) {
	ra, rb := uf.find(a), uf.find(b)
	if ra == rb {
		return
	}
	if rb < ra {
		ra, rb = rb, ra
	}
	uf[rb] = ra
}

// MergeIntersections unites junction nodes closer than configured distance. The node with the lowest id survives,
// moves to the centroid of its cluster and receives every edge which touched the cluster. Edges lying
// inside a cluster are removed. Returns number of removed nodes.
func MergeIntersections(g *Graph, cfg *Config, logger *zap.Logger) (int, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	st := time.Now()
	if cfg.MergeDistance <= 0 {
		return 0, nil
	}

	var tr rtree.RTreeG[NodeID]
	candidates := []NodeID{}
	for _, id := range g.SortedNodeIDs() {
		node := g.Node(id)
		if node.Degree() < junctionDegree {
			continue
		}
		candidates = append(candidates, id)
		tr.Insert([2]float64{node.Point[0], node.Point[1]}, [2]float64{node.Point[0], node.Point[1]}, id)
	}

	uf := make(unionFind, len(candidates))
	for _, id := range candidates {
		uf[id] = id
	}
	d := cfg.MergeDistance
	for _, id := range candidates {
		pt := g.Node(id).Point
		tr.Search([2]float64{pt[0] - d, pt[1] - d}, [2]float64{pt[0] + d, pt[1] + d},
			func(min, max [2]float64, other NodeID) bool {
				if other != id && planar.Distance(pt, g.Node(other).Point) <= d {
					uf.union(id, other)
				}
				return true
			})
	}

	clusters := make(map[NodeID][]NodeID)
	for _, id := range candidates {
		root := uf.find(id)
		clusters[root] = append(clusters[root], id)
	}
	roots := make([]NodeID, 0, len(clusters))
	for root, members := range clusters {
		if len(members) > 1 {
			roots = append(roots, root)
		}
	}
	sort.Slice(roots, func(i, j int) bool { return roots[i] < roots[j] })

	removed := 0
	for _, root := range roots {
		removed += mergeCluster(g, root, clusters[root], logger)
	}
	g.sweep()
	logger.Info("Intersections have been merged",
		zap.String("layer", g.Layer.String()),
		zap.Int("clusters", len(roots)),
		zap.Int("removed_nodes", removed),
		zap.Duration("elapsed", time.Since(st)),
	)
	return removed, nil
}

func mergeCluster(g *Graph, survivorID NodeID, members []NodeID, logger *zap.Logger) int {
	inCluster := make(map[NodeID]struct{}, len(members))
	points := make([]orb.Point, 0, len(members))
	for _, id := range members {
		inCluster[id] = struct{}{}
		points = append(points, g.Node(id).Point)
	}
	survivor := g.Node(survivorID)
	survivor.Point = centroid(points)

	edges := []EdgeID{}
	for _, id := range members {
		edges = append(edges, g.Node(id).Edges()...)
	}
	sort.Slice(edges, func(i, j int) bool { return edges[i] < edges[j] })

	for i, eid := range edges {
		if i > 0 && edges[i-1] == eid {
			continue
		}
		edge := g.Edge(eid)
		if edge == nil {
			continue
		}
		_, sourceIn := inCluster[edge.Source]
		_, targetIn := inCluster[edge.Target]
		if sourceIn && targetIn {
			g.RemoveEdge(eid)
			continue
		}
		if sourceIn {
			edge.Source = survivorID
			edge.Waypoints[0] = survivor.Point
		}
		if targetIn {
			edge.Target = survivorID
			edge.Waypoints[len(edge.Waypoints)-1] = survivor.Point
		}
		edge.Waypoints = dedupePoints(edge.Waypoints)
		if len(edge.Waypoints) < 2 {
			logger.Warn("Edge became degenerate after merging intersections. Remove it", zap.Int("edge_id", int(eid)))
			g.RemoveEdge(eid)
			continue
		}
		survivor.addEdge(eid)
	}

	for _, id := range members {
		if id == survivorID {
			continue
		}
		node := g.Node(id)
		for _, control := range node.Controls {
			survivor.addControl(control)
		}
		survivor.Crossing = survivor.Crossing || node.Crossing
		node.edges = nil
		node.removed = true
	}
	for i := range g.restrictions {
		if _, ok := inCluster[g.restrictions[i].via]; ok {
			g.restrictions[i].via = survivorID
		}
	}
	return len(members) - 1
}
