package osm2lanes

import (
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"github.com/paulmach/osm"
)

// AssumedFlags records which edge attributes were inferred instead of being read from tags
type AssumedFlags uint16

const (
	ASSUMED_LANES = AssumedFlags(1 << iota)
	ASSUMED_DIRECTION_SPLIT
	ASSUMED_SPEED
	ASSUMED_TURN_LANES
)

func (flags AssumedFlags) Has(flag AssumedFlags) bool {
	return flags&flag != 0
}

func (flags AssumedFlags) String() string {
	names := []string{}
	for i, name := range [...]string{"lanes", "direction_split", "speed", "turn_lanes"} {
		if flags&(1<<i) != 0 {
			names = append(names, name)
		}
	}
	return strings.Join(names, ",")
}

// Edge is a directed reference line between two nodes. Forward lanes go from Source to Target.
type Edge struct {
	ID        EdgeID
	WayID     osm.WayID
	Source    NodeID
	Target    NodeID
	RoadType  RoadType
	Waypoints orb.LineString
	LaneWidth float64
	// km/h
	MaxSpeed      float64
	Lanes         int
	LanesForward  int
	LanesBackward int
	TurnForward   []TurnSet
	TurnBackward  []TurnSet
	Controls      []ControlType
	Assumed       AssumedFlags
	// Edges which continue direction of travel past Source and Target
	SourceContinuation EdgeID
	TargetContinuation EdgeID

	// Both lists are ordered from the innermost lane outwards
	forwardLanes  []LaneID
	backwardLanes []LaneID

	interpolated      bool
	cropped           bool
	markedForDeletion bool
	removed           bool
}

// Width returns total width of the road
func (edge *Edge) Width() float64 {
	return float64(edge.Lanes) * edge.LaneWidth
}

func (edge *Edge) Length() float64 {
	return planar.Length(edge.Waypoints)
}

func (edge *Edge) IsOneway() bool {
	return edge.LanesBackward == 0
}

// LaneIDs returns backward lanes then forward lanes
func (edge *Edge) LaneIDs() []LaneID {
	out := make([]LaneID, 0, len(edge.forwardLanes)+len(edge.backwardLanes))
	out = append(out, edge.backwardLanes...)
	out = append(out, edge.forwardLanes...)
	return out
}

func (edge *Edge) ForwardLanes() []LaneID {
	out := make([]LaneID, len(edge.forwardLanes))
	copy(out, edge.forwardLanes)
	return out
}

func (edge *Edge) BackwardLanes() []LaneID {
	out := make([]LaneID, len(edge.backwardLanes))
	copy(out, edge.backwardLanes)
	return out
}

// Touches checks if the edge has given node as one of endpoints
func (edge *Edge) Touches(node NodeID) bool {
	return edge.Source == node || edge.Target == node
}

// OtherEnd returns opposite endpoint
func (edge *Edge) OtherEnd(node NodeID) NodeID {
	if edge.Source == node {
		return edge.Target
	}
	return edge.Source
}

// ContinuationAt returns continuation edge at given endpoint
func (edge *Edge) ContinuationAt(node NodeID) EdgeID {
	if edge.Source == node {
		return edge.SourceContinuation
	}
	if edge.Target == node {
		return edge.TargetContinuation
	}
	return NoEdge
}

func (edge *Edge) setContinuationAt(node NodeID, continuation EdgeID) {
	if edge.Source == node {
		edge.SourceContinuation = continuation
	}
	if edge.Target == node {
		edge.TargetContinuation = continuation
	}
}

// IncomingLanesAt returns lanes arriving at given endpoint, from left to right in direction of travel
func (edge *Edge) IncomingLanesAt(node NodeID) []LaneID {
	if edge.Target == node {
		return edge.ForwardLanes()
	}
	if edge.Source == node {
		return edge.BackwardLanes()
	}
	return nil
}

// OutgoingLanesAt returns lanes leaving given endpoint, from left to right in direction of travel
func (edge *Edge) OutgoingLanesAt(node NodeID) []LaneID {
	if edge.Source == node {
		return edge.ForwardLanes()
	}
	if edge.Target == node {
		return edge.BackwardLanes()
	}
	return nil
}

// lineFrom returns waypoints oriented away from given endpoint
func (edge *Edge) lineFrom(node NodeID) orb.LineString {
	if edge.Target == node {
		return reverseLine(edge.Waypoints)
	}
	return edge.Waypoints
}

// CropWaypoints keeps waypoints with indices in [i, j). When fewer than two points would remain,
// two points centered on the truncation point are kept and true is returned: such edge is degenerate.
func (edge *Edge) CropWaypoints(i, j int) bool {
	n := len(edge.Waypoints)
	if i < 0 {
		i = 0
	}
	if j > n {
		j = n
	}
	if j-i >= 2 {
		edge.Waypoints = copyLine(edge.Waypoints[i:j])
		return false
	}
	center := (i + j) / 2
	if center < 1 {
		center = 1
	}
	if center > n-1 {
		center = n - 1
	}
	edge.Waypoints = copyLine(edge.Waypoints[center-1 : center+1])
	return true
}

func (edge *Edge) removeLane(id LaneID) bool {
	for i, lid := range edge.forwardLanes {
		if lid == id {
			edge.forwardLanes = append(edge.forwardLanes[:i], edge.forwardLanes[i+1:]...)
			edge.LanesForward--
			edge.Lanes--
			return true
		}
	}
	for i, lid := range edge.backwardLanes {
		if lid == id {
			edge.backwardLanes = append(edge.backwardLanes[:i], edge.backwardLanes[i+1:]...)
			edge.LanesBackward--
			edge.Lanes--
			return true
		}
	}
	return false
}
