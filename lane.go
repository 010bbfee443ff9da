package osm2lanes

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

type Side uint16

const (
	SIDE_LEFT = Side(iota + 1)
	SIDE_RIGHT
)

func (iotaIdx Side) String() string {
	return [...]string{"left", "right"}[iotaIdx-1]
}

func (iotaIdx Side) Opposite() Side {
	if iotaIdx == SIDE_LEFT {
		return SIDE_RIGHT
	}
	return SIDE_LEFT
}

// Neighbor is a reference to adjacent lane. Sides are taken in the lane's own direction of travel
type Neighbor struct {
	ID            LaneID
	SameDirection bool
}

var noNeighbor = Neighbor{ID: NoLane}

// Phase is a bit of lane coverage mask
type Phase uint16

const (
	PHASE_WAYPOINTS = Phase(1 << iota)
	PHASE_FINALIZE
)

func (iotaIdx Phase) String() string {
	switch iotaIdx {
	case PHASE_WAYPOINTS:
		return "waypoints"
	case PHASE_FINALIZE:
		return "finalize"
	}
	return "unknown"
}

type Lane struct {
	ID LaneID
	// NoEdge for connector lanes
	EdgeID  EdgeID
	Forward bool
	// Position inside edge direction counting from the innermost lane. -1 for connectors
	Index         int
	Centerline    orb.LineString
	LeftBoundary  orb.LineString
	RightBoundary orb.LineString
	StartWidth    float64
	EndWidth      float64
	Turns         TurnSet
	// Connector lanes only
	Junction          NodeID
	Movement          MovementType
	CompositeMovement MovementCompositeType

	predecessors []LaneID
	successors   []LaneID
	left         Neighbor
	right        Neighbor
	visited      Phase
	removed      bool
}

func newLane(id LaneID, edgeID EdgeID, forward bool, index int, width float64) *Lane {
	return &Lane{
		ID:         id,
		EdgeID:     edgeID,
		Forward:    forward,
		Index:      index,
		StartWidth: width,
		EndWidth:   width,
		Junction:   NoNode,
		left:       noNeighbor,
		right:      noNeighbor,
	}
}

func (lane *Lane) IsConnector() bool {
	return lane.EdgeID == NoEdge
}

func (lane *Lane) Predecessors() []LaneID {
	out := make([]LaneID, len(lane.predecessors))
	copy(out, lane.predecessors)
	return out
}

func (lane *Lane) Successors() []LaneID {
	out := make([]LaneID, len(lane.successors))
	copy(out, lane.successors)
	return out
}

func (lane *Lane) HasSuccessor(id LaneID) bool {
	return containsLane(lane.successors, id)
}

func (lane *Lane) HasPredecessor(id LaneID) bool {
	return containsLane(lane.predecessors, id)
}

// Left returns left neighbor. Second value is false when there is no one
func (lane *Lane) Left() (Neighbor, bool) {
	return lane.left, lane.left.ID != NoLane
}

// Right returns right neighbor. Second value is false when there is no one
func (lane *Lane) Right() (Neighbor, bool) {
	return lane.right, lane.right.ID != NoLane
}

func (lane *Lane) Neighbor(side Side) (Neighbor, bool) {
	if side == SIDE_LEFT {
		return lane.Left()
	}
	return lane.Right()
}

func (lane *Lane) setNeighbor(side Side, nb Neighbor) {
	if side == SIDE_LEFT {
		lane.left = nb
	} else {
		lane.right = nb
	}
}

func (lane *Lane) Boundary(side Side) orb.LineString {
	if side == SIDE_LEFT {
		return lane.LeftBoundary
	}
	return lane.RightBoundary
}

func (lane *Lane) setBoundary(side Side, line orb.LineString) {
	if side == SIDE_LEFT {
		lane.LeftBoundary = line
	} else {
		lane.RightBoundary = line
	}
}

func (lane *Lane) Length() float64 {
	return planar.Length(lane.Centerline)
}

// Visited checks coverage bit
func (lane *Lane) Visited(phase Phase) bool {
	return lane.visited&phase != 0
}

func (lane *Lane) markVisited(phase Phase) error {
	if lane.visited&phase != 0 {
		return &StructuralError{Kind: ERR_LANE_REVISITED, LaneID: lane.ID, EdgeID: lane.EdgeID, NodeID: NoNode, Details: phase.String()}
	}
	lane.visited |= phase
	return nil
}

// Polygon returns lane area bounded by left boundary and reversed right boundary
func (lane *Lane) Polygon() orb.Ring {
	ring := make(orb.Ring, 0, len(lane.LeftBoundary)+len(lane.RightBoundary)+1)
	ring = append(ring, lane.LeftBoundary...)
	for i := len(lane.RightBoundary) - 1; i >= 0; i-- {
		ring = append(ring, lane.RightBoundary[i])
	}
	ring = orb.Ring(dedupePoints(orb.LineString(ring)))
	if len(ring) > 0 && !ring[0].Equal(ring[len(ring)-1]) {
		ring = append(ring, ring[0])
	}
	return ring
}

func containsLane(ids []LaneID, id LaneID) bool {
	for _, lid := range ids {
		if lid == id {
			return true
		}
	}
	return false
}

func appendLaneUnique(ids []LaneID, id LaneID) []LaneID {
	if containsLane(ids, id) {
		return ids
	}
	return append(ids, id)
}

func removeLaneID(ids []LaneID, id LaneID) []LaneID {
	for i, lid := range ids {
		if lid == id {
			return append(ids[:i], ids[i+1:]...)
		}
	}
	return ids
}
