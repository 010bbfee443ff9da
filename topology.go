package osm2lanes

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/osm"
)

// Topology is the input of the graph builder: ways, projected node coordinates, turn restrictions and traffic controls
type Topology struct {
	Ways         []*WayRecord
	Nodes        map[osm.NodeID]*NodeRecord
	Restrictions []Restriction
	Controls     []ControlAnnotation
	// Optional. Used by exporters to bring projected coordinates back to WGS84
	Projection *LocalProjection
}

func NewTopology() *Topology {
	return &Topology{
		Nodes: make(map[osm.NodeID]*NodeRecord),
	}
}

// AddNode registers node record with already projected coordinates
func (topology *Topology) AddNode(id osm.NodeID, pt orb.Point, controls ...ControlType) *NodeRecord {
	record := &NodeRecord{
		ID:       id,
		Point:    pt,
		Controls: controls,
	}
	for _, control := range controls {
		if control == CONTROL_CROSSING {
			record.Crossing = true
		}
	}
	topology.Nodes[id] = record
	return record
}

// AddWay appends way record and returns it for further tuning
func (topology *Topology) AddWay(id osm.WayID, highway string, nodes ...osm.NodeID) *WayRecord {
	way := NewWayRecord(id, highway, nodes)
	topology.Ways = append(topology.Ways, way)
	return way
}

type OnewayType uint16

const (
	ONEWAY_UNDEFINED = OnewayType(iota + 1)
	ONEWAY_NO
	ONEWAY_YES
	ONEWAY_REVERSE
)

func (iotaIdx OnewayType) String() string {
	return [...]string{"undefined", "no", "yes", "-1"}[iotaIdx-1]
}

// WayRecord is flattened OSM way. Negative numeric values mean "not tagged"
type WayRecord struct {
	ID                osm.WayID
	Nodes             []osm.NodeID
	Highway           string
	Lanes             int
	LanesForward      int
	LanesBackward     int
	Oneway            OnewayType
	TurnLanes         string
	TurnLanesForward  string
	TurnLanesBackward string
	MaxSpeed          float64
}

func NewWayRecord(id osm.WayID, highway string, nodes []osm.NodeID) *WayRecord {
	return &WayRecord{
		ID:            id,
		Nodes:         nodes,
		Highway:       highway,
		Lanes:         -1,
		LanesForward:  -1,
		LanesBackward: -1,
		Oneway:        ONEWAY_UNDEFINED,
		MaxSpeed:      -1,
	}
}

type NodeRecord struct {
	ID       osm.NodeID
	Point    orb.Point
	Controls []ControlType
	Crossing bool
}

type ControlType uint16

const (
	CONTROL_TRAFFIC_SIGNALS = ControlType(iota + 1)
	CONTROL_STOP
	CONTROL_GIVE_WAY
	CONTROL_CROSSING
)

func (iotaIdx ControlType) String() string {
	return [...]string{"traffic_signals", "stop", "give_way", "crossing"}[iotaIdx-1]
}

var controlTypeByTag = map[string]ControlType{
	"traffic_signals": CONTROL_TRAFFIC_SIGNALS,
	"stop":            CONTROL_STOP,
	"give_way":        CONTROL_GIVE_WAY,
	"crossing":        CONTROL_CROSSING,
}

// ControlAnnotation attaches traffic control either to a node or to a whole way (zero value of the other field)
type ControlAnnotation struct {
	NodeID osm.NodeID
	WayID  osm.WayID
	Type   ControlType
}

type RestrictionType uint16

const (
	RESTRICTION_NO_LEFT_TURN = RestrictionType(iota + 1)
	RESTRICTION_NO_RIGHT_TURN
	RESTRICTION_NO_STRAIGHT_ON
	RESTRICTION_NO_U_TURN
	RESTRICTION_ONLY_LEFT_TURN
	RESTRICTION_ONLY_RIGHT_TURN
	RESTRICTION_ONLY_STRAIGHT_ON
)

func (iotaIdx RestrictionType) String() string {
	return [...]string{"no_left_turn", "no_right_turn", "no_straight_on", "no_u_turn", "only_left_turn", "only_right_turn", "only_straight_on"}[iotaIdx-1]
}

// IsMandatory is true for `only_*` restrictions
func (iotaIdx RestrictionType) IsMandatory() bool {
	return iotaIdx >= RESTRICTION_ONLY_LEFT_TURN
}

var restrictionTypes = map[string]RestrictionType{
	"no_left_turn":     RESTRICTION_NO_LEFT_TURN,
	"no_right_turn":    RESTRICTION_NO_RIGHT_TURN,
	"no_straight_on":   RESTRICTION_NO_STRAIGHT_ON,
	"no_u_turn":        RESTRICTION_NO_U_TURN,
	"only_left_turn":   RESTRICTION_ONLY_LEFT_TURN,
	"only_right_turn":  RESTRICTION_ONLY_RIGHT_TURN,
	"only_straight_on": RESTRICTION_ONLY_STRAIGHT_ON,
}

func ParseRestrictionType(str string) (RestrictionType, bool) {
	found, ok := restrictionTypes[str]
	return found, ok
}

// Restriction is a turn restriction. Exactly one of ViaNode / ViaWay is set
type Restriction struct {
	From    osm.WayID
	ViaNode osm.NodeID
	ViaWay  osm.WayID
	To      osm.WayID
	Type    RestrictionType
}
