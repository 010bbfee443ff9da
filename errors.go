package osm2lanes

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	ErrStageOrder      = errors.New("pipeline stage is out of order")
	ErrNoPath          = errors.New("no path between lanes")
	ErrNilTopology     = errors.New("topology is nil")
	ErrWrongPausePoint = errors.New("edit hooks are allowed only after 'linked' and 'waypoints_ready' stages")
)

type StructuralErrorKind uint16

const (
	ERR_UNVISITED_LANE = StructuralErrorKind(iota + 1)
	ERR_LANE_REVISITED
	ERR_DANGLING_REFERENCE
	ERR_NON_RECIPROCAL_LINK
	ERR_SELF_LOOP
	ERR_CONNECTOR_CHAIN
	ERR_ADJACENCY_ASYMMETRY
	ERR_LANE_COUNT
	ERR_MALFORMED_BOUNDARY
	ERR_MALFORMED_WAYPOINTS
)

func (iotaIdx StructuralErrorKind) String() string {
	return [...]string{"unvisited lane", "lane visited twice", "dangling reference", "non-reciprocal link", "self loop", "connector chain", "adjacency asymmetry", "lane count mismatch", "malformed boundary", "malformed waypoints"}[iotaIdx-1]
}

// StructuralError is a fatal violation of graph invariants. It carries ids of offending entities
type StructuralError struct {
	Kind    StructuralErrorKind
	Layer   LayerType
	LaneID  LaneID
	EdgeID  EdgeID
	NodeID  NodeID
	Details string
}

func (err *StructuralError) Error() string {
	msg := fmt.Sprintf("Structural error (%s)", err.Kind)
	if err.Layer != 0 {
		msg += fmt.Sprintf(" in %s layer", err.Layer)
	}
	if err.LaneID != NoLane {
		msg += fmt.Sprintf(": lane %d", err.LaneID)
	}
	if err.EdgeID != NoEdge {
		msg += fmt.Sprintf(": edge %d", err.EdgeID)
	}
	if err.NodeID != NoNode {
		msg += fmt.Sprintf(": node %d", err.NodeID)
	}
	if err.Details != "" {
		msg += ". " + err.Details
	}
	return msg
}

func laneError(kind StructuralErrorKind, lane *Lane, details string, args ...interface{}) *StructuralError {
	return &StructuralError{
		Kind:    kind,
		LaneID:  lane.ID,
		EdgeID:  lane.EdgeID,
		NodeID:  NoNode,
		Details: fmt.Sprintf(details, args...),
	}
}

func edgeError(kind StructuralErrorKind, edge *Edge, details string, args ...interface{}) *StructuralError {
	return &StructuralError{
		Kind:    kind,
		LaneID:  NoLane,
		EdgeID:  edge.ID,
		NodeID:  NoNode,
		Details: fmt.Sprintf(details, args...),
	}
}
