package osm2lanes

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// addTestEdge creates edge with straight reference line between two existing nodes
func addTestEdge(g *Graph, alloc *IDAllocator, source, target *Node, forward, backward int) *Edge {
	return g.AddEdge(alloc, &Edge{
		Source:        source.ID,
		Target:        target.ID,
		RoadType:      ROAD_RESIDENTIAL,
		Waypoints:     orb.LineString{source.Point, target.Point},
		LaneWidth:     3.0,
		MaxSpeed:      30,
		Lanes:         forward + backward,
		LanesForward:  forward,
		LanesBackward: backward,
	})
}

func TestIDAllocatorSharedByLayers(t *testing.T) {
	alloc := NewIDAllocator()
	primary := NewGraph(LAYER_PRIMARY)
	sub := NewGraph(LAYER_SUB)
	a := primary.AddNode(alloc, orb.Point{0, 0}, 1)
	b := primary.AddNode(alloc, orb.Point{10, 0}, 2)
	c := sub.AddNode(alloc, orb.Point{0, 5}, 3)
	d := sub.AddNode(alloc, orb.Point{10, 5}, 4)
	e1 := addTestEdge(primary, alloc, a, b, 1, 1)
	e2 := addTestEdge(sub, alloc, c, d, 1, 1)

	assert.NotEqual(t, e1.ID, e2.ID)
	seen := make(map[LaneID]struct{})
	for _, lid := range append(e1.LaneIDs(), e2.LaneIDs()...) {
		_, dup := seen[lid]
		assert.False(t, dup, "lane id %d is allocated twice", lid)
		seen[lid] = struct{}{}
	}
	assert.Len(t, seen, 4)
}

func TestGenerateLanesAdjacency(t *testing.T) {
	alloc := NewIDAllocator()
	g := NewGraph(LAYER_PRIMARY)
	a := g.AddNode(alloc, orb.Point{0, 0}, 1)
	b := g.AddNode(alloc, orb.Point{30, 0}, 2)
	edge := addTestEdge(g, alloc, a, b, 2, 1)

	forward, backward := edge.ForwardLanes(), edge.BackwardLanes()
	require.Len(t, forward, 2)
	require.Len(t, backward, 1)
	assert.Equal(t, 3, edge.Lanes)

	inner := g.Lane(forward[0])
	right, ok := inner.Right()
	require.True(t, ok)
	assert.Equal(t, Neighbor{ID: forward[1], SameDirection: true}, right)
	left, ok := inner.Left()
	require.True(t, ok)
	assert.Equal(t, Neighbor{ID: backward[0], SameDirection: false}, left)

	// Opposite lanes touch by their left sides
	back, ok := g.Lane(backward[0]).Left()
	require.True(t, ok)
	assert.Equal(t, Neighbor{ID: forward[0], SameDirection: false}, back)

	require.NoError(t, Validate(g))
}

func TestSetNeighborDetachesPrevious(t *testing.T) {
	alloc := NewIDAllocator()
	g := NewGraph(LAYER_PRIMARY)
	a := g.AddNode(alloc, orb.Point{0, 0}, 1)
	b := g.AddNode(alloc, orb.Point{30, 0}, 2)
	edge := addTestEdge(g, alloc, a, b, 3, 0)
	lanes := edge.ForwardLanes()

	// lanes[0] <-> lanes[1] <-> lanes[2]. Skip the middle lane
	g.SetNeighbor(lanes[0], SIDE_RIGHT, lanes[2], true)

	_, ok := g.Lane(lanes[1]).Left()
	assert.False(t, ok)
	_, ok = g.Lane(lanes[1]).Right()
	assert.False(t, ok)
	nb, ok := g.Lane(lanes[0]).Right()
	require.True(t, ok)
	assert.Equal(t, Neighbor{ID: lanes[2], SameDirection: true}, nb)
	nb, ok = g.Lane(lanes[2]).Left()
	require.True(t, ok)
	assert.Equal(t, lanes[0], nb.ID)
	require.NoError(t, Validate(g))
}

func TestRemoveLaneAndSweep(t *testing.T) {
	alloc := NewIDAllocator()
	g := NewGraph(LAYER_PRIMARY)
	a := g.AddNode(alloc, orb.Point{0, 0}, 1)
	b := g.AddNode(alloc, orb.Point{30, 0}, 2)
	c := g.AddNode(alloc, orb.Point{60, 0}, 3)
	e1 := addTestEdge(g, alloc, a, b, 2, 0)
	e2 := addTestEdge(g, alloc, b, c, 2, 0)
	g.LinkLanes(e1.ForwardLanes()[0], e2.ForwardLanes()[0])
	g.LinkLanes(e1.ForwardLanes()[1], e2.ForwardLanes()[1])

	removed := e2.ForwardLanes()[1]
	g.RemoveLane(removed)
	g.sweep()

	assert.Nil(t, g.Lane(removed))
	assert.Equal(t, 1, e2.LanesForward)
	assert.Equal(t, 1, e2.Lanes)
	assert.Empty(t, g.Lane(e1.ForwardLanes()[1]).Successors())
	_, ok := g.Lane(e2.ForwardLanes()[0]).Right()
	assert.False(t, ok)
	require.NoError(t, Validate(g))

	// Edge without lanes disappears together with references to it
	g.RemoveLane(e2.ForwardLanes()[0])
	g.sweep()
	assert.Nil(t, g.Edge(e2.ID))
	assert.Equal(t, 1, g.Node(b.ID).Degree())
	assert.Equal(t, 0, g.Node(c.ID).Degree())
	require.NoError(t, Validate(g))
}

func TestSweepDropsOrphanConnectors(t *testing.T) {
	alloc := NewIDAllocator()
	g := NewGraph(LAYER_PRIMARY)
	a := g.AddNode(alloc, orb.Point{0, 0}, 1)
	b := g.AddNode(alloc, orb.Point{30, 0}, 2)
	c := g.AddNode(alloc, orb.Point{60, 0}, 3)
	e1 := addTestEdge(g, alloc, a, b, 1, 0)
	e2 := addTestEdge(g, alloc, b, c, 1, 0)
	connector := g.addConnector(alloc, true, 3.0)
	connector.Centerline = orb.LineString{{30, 0}, {31, 0}}
	g.LinkLanes(e1.ForwardLanes()[0], connector.ID)
	g.LinkLanes(connector.ID, e2.ForwardLanes()[0])
	require.Len(t, g.LaneLinks(), 1)

	g.RemoveEdge(e2.ID)
	g.sweep()
	assert.Empty(t, g.LaneLinks())
	assert.Nil(t, g.Lane(connector.ID))
	assert.Empty(t, g.Lane(e1.ForwardLanes()[0]).Successors())
}
