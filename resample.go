package osm2lanes

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"github.com/paulmach/orb/resample"
)

// laneGroup is a set of lanes which must share point count. Reversed lanes are traversed from the end,
// so index i of every lane in the group refers to the same cross-section
type laneGroup struct {
	lanes    []LaneID
	reversed []bool
}

func (group *laneGroup) add(id LaneID, reversed bool) {
	group.lanes = append(group.lanes, id)
	group.reversed = append(group.reversed, reversed)
}

// Resample returns line of n points evenly spaced along its length. Ends are kept as is.
// Line which already has n points is returned unchanged.
func Resample(line orb.LineString, n int) orb.LineString {
	if n < 2 {
		n = 2
	}
	if len(line) == n {
		return line
	}
	clean := dedupePoints(line)
	if len(clean) < 2 {
		out := make(orb.LineString, n)
		for i := range out {
			out[i] = line[0]
		}
		return out
	}
	// Library modifies its input
	return resample.Resample(copyLine(clean), planar.Distance, n)
}

// targetPointsCount returns common point count for the group: rounded mean of natural counts
// or, with positive spacing, mean length divided by spacing
func targetPointsCount(g *Graph, group *laneGroup, spacing float64) int {
	if len(group.lanes) == 0 {
		return 2
	}
	sumCount, sumLength := 0, 0.0
	for _, lid := range group.lanes {
		lane := g.Lane(lid)
		sumCount += len(lane.Centerline)
		sumLength += lane.Length()
	}
	mean := float64(sumCount) / float64(len(group.lanes))
	if spacing > 0 {
		mean = sumLength/float64(len(group.lanes))/spacing + 1
	}
	n := int(math.Round(mean))
	if n < 2 {
		n = 2
	}
	return n
}

// equalizeGroup resamples every lane of the group to the same number of points
func equalizeGroup(g *Graph, group *laneGroup, spacing float64) {
	n := targetPointsCount(g, group, spacing)
	for _, lid := range group.lanes {
		lane := g.Lane(lid)
		lane.Centerline = Resample(lane.Centerline, n)
	}
}
