package osm2lanes

import (
	"fmt"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestPipelineProcess(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	pipeline := NewPipeline(nil, nil, WithLogger(zap.New(core)))
	g, err := pipeline.Process(fourWayTopology())
	require.NoError(t, err)
	assert.Equal(t, STAGE_FINALIZED, g.Stage)

	stats := pipeline.Stats()
	assert.Equal(t, 5, stats.Nodes)
	assert.Equal(t, 4, stats.Edges)
	assert.Equal(t, 7, stats.Lanes)
	assert.Equal(t, 3, stats.Connectors)
	assert.Equal(t, 0, stats.DeletedLanes)
	assert.Equal(t, 1, logs.FilterMessage("Pipeline is done").Len())

	for _, lid := range g.SortedLaneIDs() {
		lane := g.Lane(lid)
		assert.True(t, lane.Visited(PHASE_FINALIZE), "lane %d", lid)
		assert.Len(t, lane.LeftBoundary, len(lane.Centerline))
		assert.Len(t, lane.RightBoundary, len(lane.Centerline))
	}
	// Connector starts where its predecessor ends
	for _, cid := range g.LaneLinks() {
		connector := g.Lane(cid)
		pred := g.Lane(connector.Predecessors()[0])
		assertPointInDelta(t, pred.Corner(CORNER_END_LEFT), connector.Corner(CORNER_START_LEFT), 1e-9)
		assertPointInDelta(t, pred.Corner(CORNER_END_RIGHT), connector.Corner(CORNER_START_RIGHT), 1e-9)
	}

	err = pipeline.Step(g)
	assert.ErrorIs(t, err, ErrStageOrder)
}

func TestPipelineStepsOneStageAtATime(t *testing.T) {
	pipeline := NewPipeline(nil, nil)
	g, err := pipeline.Build(straightTopology())
	require.NoError(t, err)
	for _, expected := range []Stage{STAGE_MERGED, STAGE_LINKED, STAGE_WAYPOINTS_READY, STAGE_LANE_LINKS_READY, STAGE_FINALIZED} {
		require.NoError(t, pipeline.Step(g))
		assert.Equal(t, expected, g.Stage)
		require.NoError(t, Validate(g), "stage %s", expected)
	}

	assert.ErrorIs(t, pipeline.Step(NewGraph(LAYER_PRIMARY)), ErrStageOrder)
	assert.Error(t, pipeline.Step(nil))
}

func TestPipelineEditHooks(t *testing.T) {
	calls := []Stage{}
	var south EdgeID
	pipeline := NewPipeline(nil, nil,
		WithEditHook(STAGE_LINKED, func(g *Graph) error {
			calls = append(calls, g.Stage)
			south = edgesByWay(g, 13)[0].ID
			g.RemoveEdge(south)
			return nil
		}),
		WithEditHook(STAGE_WAYPOINTS_READY, func(g *Graph) error {
			calls = append(calls, g.Stage)
			assert.Nil(t, g.Edge(south), "removed edge should be swept before the next pause point")
			return nil
		}),
	)
	g, err := pipeline.Process(fourWayTopology())
	require.NoError(t, err)
	assert.Equal(t, []Stage{STAGE_LINKED, STAGE_WAYPOINTS_READY}, calls)
	assert.Len(t, g.LaneLinks(), 2)
	assert.Equal(t, 3, g.EdgesNum())
}

func TestPipelineEditHookErrors(t *testing.T) {
	pipeline := NewPipeline(nil, nil, WithEditHook(STAGE_MERGED, func(g *Graph) error { return nil }))
	_, err := pipeline.Process(straightTopology())
	assert.ErrorIs(t, err, ErrWrongPausePoint)

	pipeline = NewPipeline(nil, nil, WithEditHook(STAGE_WAYPOINTS_READY, func(g *Graph) error {
		return fmt.Errorf("manual check failed")
	}))
	_, err = pipeline.Process(straightTopology())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "manual check failed")
}

func TestPipelineSubLayer(t *testing.T) {
	topology := straightTopology()
	topology.AddNode(20, orb.Point{0, 30})
	topology.AddNode(21, orb.Point{60, 30})
	topology.AddWay(30, "footway", 20, 21)

	cfg := DefaultConfig()
	pipeline := NewPipeline(cfg, nil, WithSubLayer(true))
	g, err := pipeline.Process(topology)
	require.NoError(t, err)
	require.True(t, g.HasSubLayer())
	sub := g.SubLayer()
	assert.Equal(t, STAGE_FINALIZED, sub.Stage)
	assert.Equal(t, 1, sub.EdgesNum())
	assert.Equal(t, 2, sub.LanesNum())
	assert.Equal(t, 2, g.EdgesNum())
	assert.Equal(t, 6, pipeline.Stats().Lanes)

	// Caller's configuration is untouched
	assert.False(t, cfg.SubLayer)
	assert.True(t, pipeline.Config().SubLayer)
}

func TestPipelineRejectsLayersOutOfSync(t *testing.T) {
	topology := straightTopology()
	topology.AddNode(20, orb.Point{0, 30})
	topology.AddNode(21, orb.Point{60, 30})
	topology.AddWay(30, "footway", 20, 21)

	pipeline := NewPipeline(nil, nil, WithSubLayer(true))
	g, err := pipeline.Build(topology)
	require.NoError(t, err)
	g.SubLayer().Stage = STAGE_MERGED
	assert.ErrorIs(t, pipeline.Step(g), ErrStageOrder)
}

func TestPipelineInvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.BezierTension = 2
	_, err := NewPipeline(cfg, nil).Process(straightTopology())
	assert.Error(t, err)

	_, err = NewPipeline(nil, nil).Process(nil)
	assert.ErrorIs(t, err, ErrNilTopology)
}

func TestStageString(t *testing.T) {
	assert.Equal(t, "built", STAGE_BUILT.String())
	assert.Equal(t, "finalized", STAGE_FINALIZED.String())
	assert.Equal(t, "undefined", Stage(0).String())
}

func TestPipelineOnOSMFile(t *testing.T) {
	topology, err := ReadOSM("testdata/crossroad.osm", nil)
	require.NoError(t, err)

	pipeline := NewPipeline(nil, nil, WithSubLayer(true))
	g, err := pipeline.Process(topology)
	require.NoError(t, err)
	require.NoError(t, Validate(g))
	assert.Equal(t, STAGE_FINALIZED, g.Stage)
	assert.NotEmpty(t, g.LaneLinks())
	require.True(t, g.HasSubLayer())
	assert.Equal(t, STAGE_FINALIZED, g.SubLayer().Stage)
	assert.Greater(t, g.SubLayer().LanesNum(), 0)
	assert.NotNil(t, g.Projection)
}
