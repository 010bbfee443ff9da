package osm2lanes

import (
	"sort"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// Corners closer than this are considered equal
const cornerTolerance = 1e-6

type CornerType uint16

const (
	CORNER_START_LEFT = CornerType(iota + 1)
	CORNER_START_RIGHT
	CORNER_END_LEFT
	CORNER_END_RIGHT
)

func (iotaIdx CornerType) String() string {
	return [...]string{"start_left", "start_right", "end_left", "end_right"}[iotaIdx-1]
}

func cornerOf(atStart bool, side Side) CornerType {
	switch {
	case atStart && side == SIDE_LEFT:
		return CORNER_START_LEFT
	case atStart:
		return CORNER_START_RIGHT
	case side == SIDE_LEFT:
		return CORNER_END_LEFT
	default:
		return CORNER_END_RIGHT
	}
}

func (iotaIdx CornerType) side() Side {
	if iotaIdx == CORNER_START_LEFT || iotaIdx == CORNER_END_LEFT {
		return SIDE_LEFT
	}
	return SIDE_RIGHT
}

func (iotaIdx CornerType) atStart() bool {
	return iotaIdx == CORNER_START_LEFT || iotaIdx == CORNER_START_RIGHT
}

type cornerKey struct {
	lane   LaneID
	corner CornerType
}

// Corner returns one of four corner points of lane boundaries
func (lane *Lane) Corner(corner CornerType) orb.Point {
	boundary := lane.Boundary(corner.side())
	if corner.atStart() {
		return boundary[0]
	}
	return boundary[len(boundary)-1]
}

func (lane *Lane) setCorner(corner CornerType, pt orb.Point) {
	boundary := lane.Boundary(corner.side())
	if corner.atStart() {
		boundary[0] = pt
	} else {
		boundary[len(boundary)-1] = pt
	}
}

type cornerSet map[cornerKey]cornerKey

func (set cornerSet) find(key cornerKey) cornerKey {
	root, ok := set[key]
	if !ok {
		set[key] = key
		return key
	}
	for root != set[root] {
		root = set[root]
	}
	for set[key] != root {
		next := set[key]
		set[key] = root
		key = next
	}
	return root
}

func (set cornerSet) union(a, b cornerKey) {
	ra, rb := set.find(a), set.find(b)
	if ra != rb {
		set[rb] = ra
	}
}

// reconcileCorners collects lanes which must share each corner point: predecessors and successors, same direction
// neighbors and opposite direction neighbors. Disagreeing corners of such lanes are moved to their centroid.
// Centerline ends are moved to the middle of corresponding corners afterwards.
func reconcileCorners(g *Graph) {
	set := make(cornerSet)
	ids := g.SortedLaneIDs()
	for _, lid := range ids {
		lane := g.Lane(lid)
		for _, corner := range []CornerType{CORNER_START_LEFT, CORNER_START_RIGHT, CORNER_END_LEFT, CORNER_END_RIGHT} {
			set.find(cornerKey{lid, corner})
		}
		for _, succ := range lane.successors {
			set.union(cornerKey{lid, CORNER_END_LEFT}, cornerKey{succ, CORNER_START_LEFT})
			set.union(cornerKey{lid, CORNER_END_RIGHT}, cornerKey{succ, CORNER_START_RIGHT})
		}
		for _, side := range []Side{SIDE_LEFT, SIDE_RIGHT} {
			nb, ok := lane.Neighbor(side)
			if !ok {
				continue
			}
			otherSide := touchingSide(side, nb.SameDirection)
			if nb.SameDirection {
				set.union(cornerKey{lid, cornerOf(true, side)}, cornerKey{nb.ID, cornerOf(true, otherSide)})
				set.union(cornerKey{lid, cornerOf(false, side)}, cornerKey{nb.ID, cornerOf(false, otherSide)})
			} else {
				set.union(cornerKey{lid, cornerOf(true, side)}, cornerKey{nb.ID, cornerOf(false, otherSide)})
				set.union(cornerKey{lid, cornerOf(false, side)}, cornerKey{nb.ID, cornerOf(true, otherSide)})
			}
		}
	}

	classes := make(map[cornerKey][]cornerKey)
	for key := range set {
		root := set.find(key)
		classes[root] = append(classes[root], key)
	}
	for _, members := range classes {
		if len(members) < 2 {
			continue
		}
		sort.Slice(members, func(i, j int) bool {
			if members[i].lane != members[j].lane {
				return members[i].lane < members[j].lane
			}
			return members[i].corner < members[j].corner
		})
		points := make([]orb.Point, len(members))
		agree := true
		for i, key := range members {
			points[i] = g.Lane(key.lane).Corner(key.corner)
			if planar.Distance(points[i], points[0]) > cornerTolerance {
				agree = false
			}
		}
		if agree {
			continue
		}
		c := centroid(points)
		for _, key := range members {
			g.Lane(key.lane).setCorner(key.corner, c)
		}
	}

	for _, lid := range ids {
		lane := g.Lane(lid)
		last := len(lane.Centerline) - 1
		lane.Centerline[0] = midpoint(lane.Corner(CORNER_START_LEFT), lane.Corner(CORNER_START_RIGHT))
		lane.Centerline[last] = midpoint(lane.Corner(CORNER_END_LEFT), lane.Corner(CORNER_END_RIGHT))
	}
}
