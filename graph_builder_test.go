package osm2lanes

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/osm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

// straightTopology is two one-way ways of 2 lanes continuing each other: (0,0) -> (50,0) -> (100,0)
func straightTopology() *Topology {
	topology := NewTopology()
	topology.AddNode(1, orb.Point{0, 0})
	topology.AddNode(2, orb.Point{50, 0})
	topology.AddNode(3, orb.Point{100, 0})
	for _, way := range []*WayRecord{
		topology.AddWay(10, "residential", 1, 2),
		topology.AddWay(11, "residential", 2, 3),
	} {
		way.Oneway = ONEWAY_YES
		way.Lanes = 2
	}
	return topology
}

// fourWayTopology is one-way single lane road coming from the west into the center (0,0)
// and leaving it to the east, north and south
func fourWayTopology() *Topology {
	topology := NewTopology()
	topology.AddNode(1, orb.Point{0, 0})
	topology.AddNode(2, orb.Point{-50, 0})
	topology.AddNode(3, orb.Point{50, 0})
	topology.AddNode(4, orb.Point{0, 50})
	topology.AddNode(5, orb.Point{0, -50})
	for _, way := range []*WayRecord{
		topology.AddWay(10, "residential", 2, 1),
		topology.AddWay(11, "residential", 1, 3),
		topology.AddWay(12, "residential", 1, 4),
		topology.AddWay(13, "residential", 1, 5),
	} {
		way.Oneway = ONEWAY_YES
		way.Lanes = 1
	}
	return topology
}

// edgesByWay returns alive edges produced by given way, sorted by id
func edgesByWay(g *Graph, wayID osm.WayID) []*Edge {
	out := []*Edge{}
	for _, eid := range g.SortedEdgeIDs() {
		if edge := g.Edge(eid); edge.WayID == wayID {
			out = append(out, edge)
		}
	}
	return out
}

func nodeByOSM(g *Graph, osmID osm.NodeID) *Node {
	for _, nid := range g.SortedNodeIDs() {
		if node := g.Node(nid); node.OSMNodeID == osmID {
			return node
		}
	}
	return nil
}

func TestBuilderSplitsWaysAtSharedNodes(t *testing.T) {
	topology := NewTopology()
	topology.AddNode(1, orb.Point{-20, 0})
	topology.AddNode(2, orb.Point{-10, 1})
	topology.AddNode(3, orb.Point{0, 0})
	topology.AddNode(4, orb.Point{20, 0})
	topology.AddNode(5, orb.Point{0, 20})
	topology.AddNode(6, orb.Point{0, -20})
	topology.AddWay(10, "primary", 1, 2, 3, 4)
	topology.AddWay(11, "residential", 5, 3, 6)

	g, err := NewBuilder(DefaultConfig(), NewIDAllocator(), nil).Build(topology)
	require.NoError(t, err)
	assert.Equal(t, STAGE_BUILT, g.Stage)
	assert.False(t, g.HasSubLayer())
	assert.Equal(t, 5, g.NodesNum())
	assert.Equal(t, 4, g.EdgesNum())
	assert.Nil(t, nodeByOSM(g, 2), "interior node should stay a waypoint")

	primary := edgesByWay(g, 10)
	require.Len(t, primary, 2)
	assert.Equal(t, orb.LineString{{-20, 0}, {-10, 1}, {0, 0}}, primary[0].Waypoints)
	assert.Equal(t, primary[1].ID, primary[0].TargetContinuation)
	assert.Equal(t, primary[0].ID, primary[1].SourceContinuation)
	assert.Equal(t, 4, primary[0].Lanes)
	assert.Equal(t, 3.5, primary[0].LaneWidth)
	assert.True(t, primary[0].Assumed.Has(ASSUMED_LANES))

	center := nodeByOSM(g, 3)
	require.NotNil(t, center)
	assert.Equal(t, 4, center.Degree())
	require.NoError(t, Validate(g))
}

func TestBuilderSkipsDegenerateSegments(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	logger := zap.New(core)

	topology := NewTopology()
	topology.AddNode(1, orb.Point{0, 0})
	topology.AddNode(2, orb.Point{0, 0})
	topology.AddNode(3, orb.Point{10, 0})
	topology.AddWay(10, "residential", 1, 2)
	topology.AddWay(11, "residential", 2, 3)
	topology.AddWay(12, "residential", 3, 99)
	topology.AddWay(13, "building", 1, 3)

	g, err := NewBuilder(DefaultConfig(), NewIDAllocator(), logger).Build(topology)
	require.NoError(t, err)
	assert.Equal(t, 1, g.EdgesNum())
	assert.Len(t, edgesByWay(g, 11), 1)
	assert.Equal(t, 1, logs.FilterMessage("Way segment is too short to become an edge. Skip it").Len())
	assert.Equal(t, 1, logs.FilterMessage("Way references unknown node").Len())
	assert.Equal(t, 1, logs.FilterMessage("Way has less than two usable nodes. Skip it").Len())
}

func TestBuilderReversedOneway(t *testing.T) {
	topology := NewTopology()
	topology.AddNode(1, orb.Point{0, 0})
	topology.AddNode(2, orb.Point{10, 0})
	way := topology.AddWay(10, "residential", 1, 2)
	way.Oneway = ONEWAY_REVERSE

	g, err := NewBuilder(DefaultConfig(), NewIDAllocator(), nil).Build(topology)
	require.NoError(t, err)
	edges := edgesByWay(g, 10)
	require.Len(t, edges, 1)
	assert.Equal(t, orb.LineString{{10, 0}, {0, 0}}, edges[0].Waypoints)
	assert.Equal(t, 1, edges[0].LanesForward)
	assert.Equal(t, 0, edges[0].LanesBackward)
	assert.Equal(t, osm.NodeID(2), g.Node(edges[0].Source).OSMNodeID)
}

func TestBuilderRestrictionsAndControls(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	topology := NewTopology()
	topology.AddNode(1, orb.Point{-20, 0})
	topology.AddNode(2, orb.Point{-10, 0}, CONTROL_STOP)
	topology.AddNode(3, orb.Point{0, 0}, CONTROL_TRAFFIC_SIGNALS)
	topology.AddNode(4, orb.Point{20, 0})
	topology.AddNode(5, orb.Point{0, 20})
	topology.AddNode(6, orb.Point{0, -20})
	topology.AddWay(10, "primary", 1, 2, 3, 4)
	topology.AddWay(11, "residential", 5, 3, 6)
	topology.Restrictions = []Restriction{
		{From: 10, ViaNode: 3, To: 11, Type: RESTRICTION_NO_LEFT_TURN},
		{From: 10, ViaWay: 11, To: 11, Type: RESTRICTION_NO_U_TURN},
	}
	topology.Controls = []ControlAnnotation{{WayID: 11, Type: CONTROL_GIVE_WAY}}

	g, err := NewBuilder(DefaultConfig(), NewIDAllocator(), zap.New(core)).Build(topology)
	require.NoError(t, err)

	// Every edge of 'from' way touching via node is paired with every such edge of 'to' way
	assert.Len(t, g.restrictions, 4)
	assert.Equal(t, 1, logs.FilterMessage("Restrictions with 'via' way are not supported. Skip them").Len())

	center := nodeByOSM(g, 3)
	require.NotNil(t, center)
	assert.True(t, center.HasControl(CONTROL_TRAFFIC_SIGNALS))

	primary := edgesByWay(g, 10)
	require.Len(t, primary, 2)
	assert.Equal(t, []ControlType{CONTROL_STOP}, primary[0].Controls)
	assert.Empty(t, primary[1].Controls)
	for _, edge := range edgesByWay(g, 11) {
		assert.Equal(t, []ControlType{CONTROL_GIVE_WAY}, edge.Controls)
	}
}

func TestBuilderSubLayer(t *testing.T) {
	topology := NewTopology()
	topology.AddNode(1, orb.Point{-20, 0})
	topology.AddNode(2, orb.Point{0, 0})
	topology.AddNode(3, orb.Point{20, 0})
	topology.AddNode(4, orb.Point{0, 10})
	topology.AddNode(5, orb.Point{0, -10})
	topology.AddWay(10, "secondary", 1, 2, 3)
	topology.AddWay(20, "footway", 4, 2, 5)

	cfg := DefaultConfig()
	g, err := NewBuilder(cfg, NewIDAllocator(), nil).Build(topology)
	require.NoError(t, err)
	assert.False(t, g.HasSubLayer())
	assert.Equal(t, 1, g.EdgesNum(), "footway alone must not split primary way")

	cfg.SubLayer = true
	g, err = NewBuilder(cfg, NewIDAllocator(), nil).Build(topology)
	require.NoError(t, err)
	require.True(t, g.HasSubLayer())
	sub := g.SubLayer()
	assert.Equal(t, LAYER_SUB, sub.Layer)
	assert.Equal(t, STAGE_BUILT, sub.Stage)
	assert.Equal(t, 2, g.EdgesNum())
	assert.Equal(t, 2, sub.EdgesNum())

	crossing := nodeByOSM(g, 2)
	subCrossing := nodeByOSM(sub, 2)
	require.NotNil(t, crossing)
	require.NotNil(t, subCrossing)
	assert.True(t, crossing.Crossing)
	assert.True(t, subCrossing.Crossing)
	assert.NotEqual(t, crossing.ID, subCrossing.ID)
	for _, eid := range sub.SortedEdgeIDs() {
		assert.Equal(t, 1.0, sub.Edge(eid).LaneWidth)
	}
	require.NoError(t, Validate(g))
}

func TestBuilderNilTopology(t *testing.T) {
	_, err := NewBuilder(DefaultConfig(), NewIDAllocator(), nil).Build(nil)
	assert.ErrorIs(t, err, ErrNilTopology)
}
