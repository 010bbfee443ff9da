package osm2lanes

import (
	"time"

	"github.com/LdDl/ch"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// LaneRouter answers shortest path queries over lane successor links of finalized graph layer.
// Cost of a path is the sum of centerline lengths of every lane on it (source and target included).
type LaneRouter struct {
	graph   ch.Graph
	lengths map[LaneID]float64
}

// NewLaneRouter builds contraction hierarchies on top of lanes of the given layer
func NewLaneRouter(g *Graph, logger *zap.Logger) (*LaneRouter, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if g.Stage < STAGE_FINALIZED {
		return nil, errors.Wrapf(ErrStageOrder, "Can't route over graph at stage '%s'", g.Stage)
	}
	st := time.Now()
	router := &LaneRouter{
		graph:   ch.Graph{},
		lengths: make(map[LaneID]float64, g.LanesNum()),
	}
	ids := g.SortedLaneIDs()
	for _, lid := range ids {
		router.lengths[lid] = g.Lane(lid).Length()
		if err := router.graph.CreateVertex(int64(lid)); err != nil {
			return nil, errors.Wrapf(err, "Can't create vertex for lane %d", lid)
		}
	}
	links := 0
	for _, lid := range ids {
		lane := g.Lane(lid)
		for _, succ := range lane.Successors() {
			if err := router.graph.AddEdge(int64(lid), int64(succ), router.lengths[lid]); err != nil {
				return nil, errors.Wrapf(err, "Can't add link %d -> %d", lid, succ)
			}
			links++
		}
	}
	router.graph.PrepareContractionHierarchies()
	logger.Info("Lane router is ready",
		zap.String("layer", g.Layer.String()),
		zap.Int("vertices", len(ids)),
		zap.Int("links", links),
		zap.Duration("elapsed", time.Since(st)),
	)
	return router, nil
}

// ShortestPath returns cost and sequence of lanes from source lane to target lane.
// ErrNoPath is returned when target is not reachable.
func (router *LaneRouter) ShortestPath(from, to LaneID) (float64, []LaneID, error) {
	fromLength, ok := router.lengths[from]
	if !ok {
		return -1, nil, errors.Wrapf(ErrNoPath, "Unknown source lane %d", from)
	}
	toLength, ok := router.lengths[to]
	if !ok {
		return -1, nil, errors.Wrapf(ErrNoPath, "Unknown target lane %d", to)
	}
	if from == to {
		return fromLength, []LaneID{from}, nil
	}
	cost, vertices := router.graph.ShortestPath(int64(from), int64(to))
	if cost < 0 || len(vertices) == 0 {
		return -1, nil, errors.Wrapf(ErrNoPath, "Lane %d is not reachable from lane %d", to, from)
	}
	path := make([]LaneID, len(vertices))
	for i, v := range vertices {
		path[i] = LaneID(v)
	}
	return cost + toLength, path, nil
}
