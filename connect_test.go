package osm2lanes

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBranchConnections(t *testing.T) {
	cases := []struct {
		name     string
		inLanes  int
		outLanes []int
		expected []laneConnection
	}{
		{
			name:     "single branch",
			inLanes:  3,
			outLanes: []int{2},
			expected: []laneConnection{{laneRange{0, 2}, laneRange{0, 1}}},
		},
		{
			name:     "single incoming lane feeds every branch",
			inLanes:  1,
			outLanes: []int{1, 1, 1},
			expected: []laneConnection{
				{laneRange{0, 0}, laneRange{0, 0}},
				{laneRange{0, 0}, laneRange{0, 0}},
				{laneRange{0, 0}, laneRange{0, 0}},
			},
		},
		{
			name:     "two branches",
			inLanes:  3,
			outLanes: []int{2, 2},
			expected: []laneConnection{
				{laneRange{0, 1}, laneRange{0, 1}},
				{laneRange{2, 2}, laneRange{1, 1}},
			},
		},
		{
			name:     "middle branch takes remaining lanes",
			inLanes:  4,
			outLanes: []int{1, 2, 1},
			expected: []laneConnection{
				{laneRange{0, 0}, laneRange{0, 0}},
				{laneRange{1, 2}, laneRange{0, 1}},
				{laneRange{3, 3}, laneRange{0, 0}},
			},
		},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.expected, branchConnections(c.inLanes, c.outLanes))
		})
	}
	assert.Equal(t, make([]laneConnection, 2), branchConnections(0, []int{1, 1}))
}

func TestLaneConnectionPairs(t *testing.T) {
	conn := laneConnection{laneRange{0, 2}, laneRange{0, 1}}
	assert.Equal(t, [][2]int{{0, 0}, {1, 1}, {2, 1}}, conn.pairs())

	shifted := laneConnection{laneRange{0, 0}, laneRange{1, 2}}
	assert.Equal(t, [][2]int{{0, 1}, {0, 2}}, shifted.pairs())

	empty := laneConnection{laneRange{1, 0}, laneRange{0, 0}}
	assert.Nil(t, empty.pairs())
}

func TestAlignLanes(t *testing.T) {
	assert.Equal(t, [][2]int{{0, 0}, {1, 1}}, alignLanes([]int{0, 1}, 2, false))
	assert.Equal(t, [][2]int{{1, 2}, {0, 1}, {0, 0}}, alignLanes([]int{0, 1}, 3, true))
	assert.Equal(t, [][2]int{{2, 0}, {3, 0}}, alignLanes([]int{2, 3}, 1, false))
	assert.Nil(t, alignLanes(nil, 2, false))
}

func TestMergeConnections(t *testing.T) {
	assert.Equal(t, []laneConnection{
		{laneRange{0, 1}, laneRange{0, 1}},
		{laneRange{0, 0}, laneRange{1, 1}},
	}, mergeConnections([]int{2, 1}, 2))

	// Wide left road keeps its rightmost lanes
	assert.Equal(t, []laneConnection{
		{laneRange{1, 2}, laneRange{0, 1}},
		{laneRange{0, 1}, laneRange{0, 1}},
	}, mergeConnections([]int{3, 2}, 2))
}
