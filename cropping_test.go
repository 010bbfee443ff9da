package osm2lanes

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCropWaypoints(t *testing.T) {
	edge := &Edge{Waypoints: orb.LineString{{0, 0}, {1, 0}, {2, 0}, {3, 0}, {4, 0}}}
	degenerate := edge.CropWaypoints(1, 4)
	assert.False(t, degenerate)
	assert.Equal(t, orb.LineString{{1, 0}, {2, 0}, {3, 0}}, edge.Waypoints)

	// Out of range indices are clamped
	edge = &Edge{Waypoints: orb.LineString{{0, 0}, {1, 0}, {2, 0}}}
	assert.False(t, edge.CropWaypoints(-3, 10))
	assert.Len(t, edge.Waypoints, 3)

	edge = &Edge{Waypoints: orb.LineString{{0, 0}, {1, 0}, {2, 0}, {3, 0}, {4, 0}}}
	degenerate = edge.CropWaypoints(2, 2)
	assert.True(t, degenerate)
	assert.Equal(t, orb.LineString{{1, 0}, {2, 0}}, edge.Waypoints)
}

func TestCropEdge(t *testing.T) {
	edge := &Edge{Waypoints: orb.LineString{{0, 0}, {10, 0}}}
	require.True(t, cropEdge(edge, 2, 3))
	require.Len(t, edge.Waypoints, 2)
	assertPointInDelta(t, orb.Point{2, 0}, edge.Waypoints[0], 1e-9)
	assertPointInDelta(t, orb.Point{7, 0}, edge.Waypoints[1], 1e-9)
	assert.False(t, edge.markedForDeletion)
	assert.True(t, edge.cropped)

	untouched := &Edge{Waypoints: orb.LineString{{0, 0}, {10, 0}}}
	require.True(t, cropEdge(untouched, 0, 0))
	assert.Len(t, untouched.Waypoints, 2)

	short := &Edge{Waypoints: orb.LineString{{0, 0}, {10, 0}}}
	assert.False(t, cropEdge(short, 6, 6))
	assert.True(t, short.markedForDeletion)
	assert.Len(t, short.Waypoints, 2)
	assert.Contains(t, short.Waypoints, orb.Point{5, 0})
}

func TestSeparationDistance(t *testing.T) {
	line := orb.LineString{{0, 0}, {20, 0}}
	perpendicular := orb.LineString{{0, 0}, {0, 20}}
	assert.InDelta(t, 3.0, separationDistance(line, perpendicular, 3, 12), 1e-9)

	parallel := orb.LineString{{0, 1}, {20, 1}}
	assert.Equal(t, 12.0, separationDistance(line, parallel, 3, 12))
	assert.Equal(t, 20.0, separationDistance(line, parallel, 3, 50))
}

func TestCropDistanceAt(t *testing.T) {
	alloc := NewIDAllocator()
	g := NewGraph(LAYER_PRIMARY)
	center := g.AddNode(alloc, orb.Point{0, 0}, 1)
	west := g.AddNode(alloc, orb.Point{-50, 0}, 2)
	north := g.AddNode(alloc, orb.Point{0, 50}, 3)
	east := g.AddNode(alloc, orb.Point{50, 0}, 4)
	we := addTestEdge(g, alloc, west, center, 1, 0)
	addTestEdge(g, alloc, center, north, 1, 0)
	ce := addTestEdge(g, alloc, center, east, 1, 0)
	cfg := DefaultConfig()

	// Perpendicular road of 3 m width: lanes separate at 3 m from the center
	assert.InDelta(t, 3.0, cropDistanceAt(g, cfg, we, center.ID), 1e-9)
	assert.InDelta(t, 3.0, cropDistanceAt(g, cfg, ce, center.ID), 1e-9)
	// Dead ends are not cropped
	assert.Equal(t, 0.0, cropDistanceAt(g, cfg, we, west.ID))

	center.Crossing = true
	cfg.CrossingMarginRatio = 0.1
	assert.InDelta(t, 1.2, cropDistanceAt(g, cfg, we, center.ID), 1e-9)
}
