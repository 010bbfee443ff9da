package osm2lanes

import (
	"sort"
)

// propagateAdjacency derives left/right neighbors of connector lanes from neighbors of the lanes they join:
//
//	c = (a -> b) gets right neighbor c' = (a' -> b') when a' is the right neighbor of a and b' is the right neighbor of b;
//	c gets opposite-direction left neighbor c'' = (b° -> a°) when a° and b° are opposite-direction left neighbors of a and b.
//
// Geometry is not used at all.
func propagateAdjacency(g *Graph, pairs map[lanePair]LaneID) {
	keys := make([]lanePair, 0, len(pairs))
	for key, connector := range pairs {
		if connector != NoLane {
			keys = append(keys, key)
		}
	}
	sort.Slice(keys, func(i, j int) bool {
		return pairs[keys[i]] < pairs[keys[j]]
	})
	for _, key := range keys {
		connector := pairs[key]
		a, b := g.Lane(key.from), g.Lane(key.to)
		if a == nil || b == nil || g.Lane(connector) == nil {
			continue
		}
		if aRight, ok := a.Right(); ok && aRight.SameDirection {
			if bRight, ok := b.Right(); ok && bRight.SameDirection {
				if neighbor, ok := pairs[lanePair{aRight.ID, bRight.ID}]; ok && neighbor != NoLane {
					g.SetNeighbor(connector, SIDE_RIGHT, neighbor, true)
				}
			}
		}
		if aLeft, ok := a.Left(); ok && !aLeft.SameDirection {
			if bLeft, ok := b.Left(); ok && !bLeft.SameDirection {
				if neighbor, ok := pairs[lanePair{bLeft.ID, aLeft.ID}]; ok && neighbor != NoLane {
					g.SetNeighbor(connector, SIDE_LEFT, neighbor, false)
				}
			}
		}
	}
}
