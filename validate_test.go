package osm2lanes

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func twoEdgesGraph(t *testing.T) (*Graph, *IDAllocator, *Edge, *Edge) {
	t.Helper()
	alloc := NewIDAllocator()
	g := NewGraph(LAYER_PRIMARY)
	a := g.AddNode(alloc, orb.Point{0, 0}, 1)
	b := g.AddNode(alloc, orb.Point{30, 0}, 2)
	c := g.AddNode(alloc, orb.Point{60, 0}, 3)
	e1 := addTestEdge(g, alloc, a, b, 2, 0)
	e2 := addTestEdge(g, alloc, b, c, 2, 0)
	require.NoError(t, Validate(g))
	return g, alloc, e1, e2
}

func requireStructuralError(t *testing.T, err error) *StructuralError {
	t.Helper()
	require.Error(t, err)
	var structural *StructuralError
	require.True(t, errors.As(err, &structural), "unexpected error type: %v", err)
	return structural
}

func TestValidateAdjacencyAsymmetry(t *testing.T) {
	g, _, e1, _ := twoEdgesGraph(t)
	inner, outer := e1.ForwardLanes()[0], e1.ForwardLanes()[1]
	g.Lane(inner).setNeighbor(SIDE_RIGHT, noNeighbor)

	structural := requireStructuralError(t, Validate(g))
	assert.Equal(t, ERR_ADJACENCY_ASYMMETRY, structural.Kind)
	assert.Equal(t, outer, structural.LaneID)
	assert.Equal(t, e1.ID, structural.EdgeID)
	assert.Equal(t, LAYER_PRIMARY, structural.Layer)
	assert.Contains(t, structural.Error(), "adjacency asymmetry")
	assert.Contains(t, structural.Error(), "primary layer")
}

func TestValidateNonReciprocalLink(t *testing.T) {
	g, _, e1, e2 := twoEdgesGraph(t)
	from, to := e1.ForwardLanes()[0], e2.ForwardLanes()[0]
	g.Lane(from).successors = append(g.Lane(from).successors, to)

	structural := requireStructuralError(t, Validate(g))
	assert.Equal(t, ERR_NON_RECIPROCAL_LINK, structural.Kind)
	assert.Equal(t, from, structural.LaneID)
}

func TestValidateSelfLoop(t *testing.T) {
	g, _, e1, _ := twoEdgesGraph(t)
	lid := e1.ForwardLanes()[1]
	lane := g.Lane(lid)
	lane.successors = append(lane.successors, lid)
	lane.predecessors = append(lane.predecessors, lid)

	structural := requireStructuralError(t, Validate(g))
	assert.Equal(t, ERR_SELF_LOOP, structural.Kind)
	assert.Equal(t, lid, structural.LaneID)
}

func TestValidateConnectorChain(t *testing.T) {
	g, alloc, e1, e2 := twoEdgesGraph(t)
	first := g.addConnector(alloc, true, 3)
	first.Centerline = orb.LineString{{30, 1}, {31, 1}}
	second := g.addConnector(alloc, true, 3)
	second.Centerline = orb.LineString{{31, 1}, {32, 1}}
	g.LinkLanes(e1.ForwardLanes()[0], first.ID)
	g.LinkLanes(first.ID, second.ID)
	g.LinkLanes(second.ID, e2.ForwardLanes()[0])

	structural := requireStructuralError(t, Validate(g))
	assert.Equal(t, ERR_CONNECTOR_CHAIN, structural.Kind)
	assert.Equal(t, first.ID, structural.LaneID)
	assert.Equal(t, NoEdge, structural.EdgeID)

	// Connector without successor
	g.UnlinkLanes(first.ID, second.ID)
	structural = requireStructuralError(t, Validate(g))
	assert.Equal(t, ERR_CONNECTOR_CHAIN, structural.Kind)
	assert.Equal(t, first.ID, structural.LaneID)
}

func TestValidateLaneCount(t *testing.T) {
	g, _, _, e2 := twoEdgesGraph(t)
	e2.LanesForward = 3
	e2.Lanes = 3

	structural := requireStructuralError(t, Validate(g))
	assert.Equal(t, ERR_LANE_COUNT, structural.Kind)
	assert.Equal(t, e2.ID, structural.EdgeID)
	assert.Equal(t, NoLane, structural.LaneID)
}

func TestValidateCoverageByStage(t *testing.T) {
	g, _, _, _ := twoEdgesGraph(t)
	g.Stage = STAGE_WAYPOINTS_READY
	structural := requireStructuralError(t, Validate(g))
	assert.Equal(t, ERR_UNVISITED_LANE, structural.Kind)
	assert.Equal(t, g.SortedLaneIDs()[0], structural.LaneID)
}

func TestMarkVisitedTwice(t *testing.T) {
	g, _, e1, _ := twoEdgesGraph(t)
	lane := g.Lane(e1.ForwardLanes()[0])
	require.NoError(t, lane.markVisited(PHASE_WAYPOINTS))
	assert.True(t, lane.Visited(PHASE_WAYPOINTS))
	assert.False(t, lane.Visited(PHASE_FINALIZE))

	structural := requireStructuralError(t, lane.markVisited(PHASE_WAYPOINTS))
	assert.Equal(t, ERR_LANE_REVISITED, structural.Kind)
	assert.Equal(t, lane.ID, structural.LaneID)
	assert.Contains(t, structural.Error(), "waypoints")

	require.NoError(t, lane.markVisited(PHASE_FINALIZE))
}
