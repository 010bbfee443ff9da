package osm2lanes

import (
	"sort"

	"github.com/paulmach/orb"
	"github.com/paulmach/osm"
)

type Node struct {
	ID        NodeID
	OSMNodeID osm.NodeID
	Point     orb.Point
	Controls  []ControlType
	// Node is shared with the other layer or tagged as pedestrian crossing
	Crossing bool

	edges   []EdgeID
	removed bool
}

// Edges returns ids of edges touching the node (sorted)
func (node *Node) Edges() []EdgeID {
	out := make([]EdgeID, len(node.edges))
	copy(out, node.edges)
	return out
}

func (node *Node) Degree() int {
	return len(node.edges)
}

func (node *Node) HasControl(control ControlType) bool {
	for _, c := range node.Controls {
		if c == control {
			return true
		}
	}
	return false
}

func (node *Node) addControl(control ControlType) {
	if !node.HasControl(control) {
		node.Controls = append(node.Controls, control)
	}
	if control == CONTROL_CROSSING {
		node.Crossing = true
	}
}

func (node *Node) addEdge(id EdgeID) {
	idx := sort.Search(len(node.edges), func(i int) bool { return node.edges[i] >= id })
	if idx < len(node.edges) && node.edges[idx] == id {
		return
	}
	node.edges = append(node.edges, 0)
	copy(node.edges[idx+1:], node.edges[idx:])
	node.edges[idx] = id
}

func (node *Node) removeEdge(id EdgeID) {
	for i, eid := range node.edges {
		if eid == id {
			node.edges = append(node.edges[:i], node.edges[i+1:]...)
			return
		}
	}
}
