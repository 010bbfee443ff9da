package osm2lanes

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/simplify"
)

// simplifyGroup drops the same interior cross-sections from every lane of the group, so neighbors stay pointwise aligned.
// First pass drops points which deviate less than `distance` from the chord on every lane,
// second one keeps union of points chosen by Douglas-Peucker with `compression` threshold on each lane.
func simplifyGroup(g *Graph, group *laneGroup, distance, compression float64) {
	if len(group.lanes) == 0 || (distance <= 0 && compression <= 0) {
		return
	}
	lines := make([]orb.LineString, len(group.lanes))
	n := -1
	for i, lid := range group.lanes {
		line := g.Lane(lid).Centerline
		if group.reversed[i] {
			line = reverseLine(line)
		}
		if n >= 0 && len(line) != n {
			// Group has not been equalized
			return
		}
		n = len(line)
		lines[i] = line
	}
	if n <= 2 {
		return
	}

	keep := make([]int, 0, n)
	keep = append(keep, 0)
	if distance > 0 {
		prev := 0
		for i := 1; i < n-1; i++ {
			deviation := 0.0
			for _, line := range lines {
				if d := perpendicularDistance(line[i], line[prev], line[i+1]); d > deviation {
					deviation = d
				}
			}
			if deviation >= distance {
				keep = append(keep, i)
				prev = i
			}
		}
	} else {
		for i := 1; i < n-1; i++ {
			keep = append(keep, i)
		}
	}
	keep = append(keep, n-1)

	if compression > 0 && len(keep) > 2 {
		selected := make(map[int]struct{}, len(keep))
		for _, line := range lines {
			sub := make(orb.LineString, len(keep))
			for k, idx := range keep {
				sub[k] = line[idx]
			}
			// Simplifier works in place and keeps order, so kept points map back to indices sequentially
			kept := simplify.DouglasPeucker(compression).LineString(copyLine(sub))
			k := 0
			for _, pt := range kept {
				for k < len(sub) && !sub[k].Equal(pt) {
					k++
				}
				if k < len(sub) {
					selected[keep[k]] = struct{}{}
					k++
				}
			}
		}
		filtered := keep[:0]
		for _, idx := range keep {
			if _, ok := selected[idx]; ok || idx == 0 || idx == n-1 {
				filtered = append(filtered, idx)
			}
		}
		keep = filtered
	}
	if len(keep) == n {
		return
	}

	for i, lid := range group.lanes {
		out := make(orb.LineString, len(keep))
		for k, idx := range keep {
			out[k] = lines[i][idx]
		}
		if group.reversed[i] {
			out = reverseLine(out)
		}
		g.Lane(lid).Centerline = out
	}
}
