package osm2lanes

import (
	"sort"

	"github.com/paulmach/orb"
	"github.com/paulmach/osm"
)

// Graph owns nodes, edges, their lanes and synthesized connector lanes.
// Entities are referenced by ids only. Removal tombstones entity and sweep() drops it with every reference to it.
type Graph struct {
	Layer LayerType
	Stage Stage
	// Optional. Used by exporters
	Projection *LocalProjection

	nodes        map[NodeID]*Node
	edges        map[EdgeID]*Edge
	lanes        map[LaneID]*Lane
	laneLinks    map[LaneID]struct{}
	restrictions []edgeRestriction

	sub         *Graph
	hasSubLayer bool
}

type edgeRestriction struct {
	from EdgeID
	via  NodeID
	to   EdgeID
	kind RestrictionType
}

func NewGraph(layer LayerType) *Graph {
	return &Graph{
		Layer:     layer,
		nodes:     make(map[NodeID]*Node),
		edges:     make(map[EdgeID]*Edge),
		lanes:     make(map[LaneID]*Lane),
		laneLinks: make(map[LaneID]struct{}),
	}
}

// AttachSubLayer sets nested graph which is processed along with the graph
func (g *Graph) AttachSubLayer(sub *Graph) {
	g.sub = sub
	g.hasSubLayer = sub != nil
}

func (g *Graph) HasSubLayer() bool {
	return g.hasSubLayer
}

// SubLayer returns nested graph or nil
func (g *Graph) SubLayer() *Graph {
	if !g.hasSubLayer {
		return nil
	}
	return g.sub
}

// layers returns the graph and its sub-layer (if any)
func (g *Graph) layers() []*Graph {
	if g.hasSubLayer && g.sub != nil {
		return []*Graph{g, g.sub}
	}
	return []*Graph{g}
}

func (g *Graph) Node(id NodeID) *Node {
	node, ok := g.nodes[id]
	if !ok || node.removed {
		return nil
	}
	return node
}

func (g *Graph) Edge(id EdgeID) *Edge {
	edge, ok := g.edges[id]
	if !ok || edge.removed {
		return nil
	}
	return edge
}

func (g *Graph) Lane(id LaneID) *Lane {
	lane, ok := g.lanes[id]
	if !ok || lane.removed {
		return nil
	}
	return lane
}

func (g *Graph) SortedNodeIDs() []NodeID {
	ids := make([]NodeID, 0, len(g.nodes))
	for id, node := range g.nodes {
		if !node.removed {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (g *Graph) SortedEdgeIDs() []EdgeID {
	ids := make([]EdgeID, 0, len(g.edges))
	for id, edge := range g.edges {
		if !edge.removed {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (g *Graph) SortedLaneIDs() []LaneID {
	ids := make([]LaneID, 0, len(g.lanes))
	for id, lane := range g.lanes {
		if !lane.removed {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// LaneLinks returns ids of synthesized connector lanes
func (g *Graph) LaneLinks() []LaneID {
	ids := make([]LaneID, 0, len(g.laneLinks))
	for id := range g.laneLinks {
		if lane := g.Lane(id); lane != nil {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (g *Graph) NodesNum() int {
	return len(g.SortedNodeIDs())
}

func (g *Graph) EdgesNum() int {
	return len(g.SortedEdgeIDs())
}

func (g *Graph) LanesNum() int {
	return len(g.SortedLaneIDs())
}

// AddNode creates node with id from allocator
func (g *Graph) AddNode(alloc *IDAllocator, pt orb.Point, osmNodeID osm.NodeID) *Node {
	node := &Node{
		ID:        alloc.NextNode(),
		OSMNodeID: osmNodeID,
		Point:     pt,
	}
	g.nodes[node.ID] = node
	return node
}

// AddEdge registers edge between existing nodes and generates its lanes.
// Edge must have Source, Target, lane counts, LaneWidth and Waypoints filled.
func (g *Graph) AddEdge(alloc *IDAllocator, edge *Edge) *Edge {
	edge.ID = alloc.NextEdge()
	edge.SourceContinuation = NoEdge
	edge.TargetContinuation = NoEdge
	g.edges[edge.ID] = edge
	if source := g.Node(edge.Source); source != nil {
		source.addEdge(edge.ID)
	}
	if target := g.Node(edge.Target); target != nil {
		target.addEdge(edge.ID)
	}
	g.generateLanes(alloc, edge)
	return edge
}

// generateLanes creates backward lanes then forward lanes, wires adjacency inside each direction
// and between the innermost lanes of opposite directions
func (g *Graph) generateLanes(alloc *IDAllocator, edge *Edge) {
	edge.backwardLanes = make([]LaneID, 0, edge.LanesBackward)
	edge.forwardLanes = make([]LaneID, 0, edge.LanesForward)
	for i := 0; i < edge.LanesBackward; i++ {
		lane := newLane(alloc.NextLane(), edge.ID, false, i, edge.LaneWidth)
		if i < len(edge.TurnBackward) {
			lane.Turns = edge.TurnBackward[i]
		}
		g.lanes[lane.ID] = lane
		edge.backwardLanes = append(edge.backwardLanes, lane.ID)
	}
	for i := 0; i < edge.LanesForward; i++ {
		lane := newLane(alloc.NextLane(), edge.ID, true, i, edge.LaneWidth)
		if i < len(edge.TurnForward) {
			lane.Turns = edge.TurnForward[i]
		}
		g.lanes[lane.ID] = lane
		edge.forwardLanes = append(edge.forwardLanes, lane.ID)
	}
	for _, group := range [][]LaneID{edge.backwardLanes, edge.forwardLanes} {
		for i := 1; i < len(group); i++ {
			g.SetNeighbor(group[i-1], SIDE_RIGHT, group[i], true)
		}
	}
	if len(edge.backwardLanes) > 0 && len(edge.forwardLanes) > 0 {
		g.SetNeighbor(edge.forwardLanes[0], SIDE_LEFT, edge.backwardLanes[0], false)
	}
}

// addConnector registers lane which does not belong to any edge
func (g *Graph) addConnector(alloc *IDAllocator, forward bool, width float64) *Lane {
	lane := newLane(alloc.NextLane(), NoEdge, forward, -1, width)
	g.lanes[lane.ID] = lane
	g.laneLinks[lane.ID] = struct{}{}
	return lane
}

// touchingSide returns side of lane b which faces lane a, when a has b on its side `side`
func touchingSide(side Side, sameDirection bool) Side {
	if sameDirection {
		return side.Opposite()
	}
	return side
}

// SetNeighbor makes b the neighbor of a at given side of a, and a the neighbor of b at the facing side.
// Previous neighbors on both affected sides are detached.
func (g *Graph) SetNeighbor(a LaneID, side Side, b LaneID, sameDirection bool) {
	laneA, laneB := g.Lane(a), g.Lane(b)
	if laneA == nil || laneB == nil || a == b {
		return
	}
	sideB := touchingSide(side, sameDirection)
	g.clearNeighbor(laneA, side)
	g.clearNeighbor(laneB, sideB)
	laneA.setNeighbor(side, Neighbor{ID: b, SameDirection: sameDirection})
	laneB.setNeighbor(sideB, Neighbor{ID: a, SameDirection: sameDirection})
}

// clearNeighbor detaches neighbor of the lane at given side from both lanes
func (g *Graph) clearNeighbor(lane *Lane, side Side) {
	nb, ok := lane.Neighbor(side)
	if !ok {
		return
	}
	lane.setNeighbor(side, noNeighbor)
	other, ok := g.lanes[nb.ID]
	if !ok {
		return
	}
	otherSide := touchingSide(side, nb.SameDirection)
	if back, ok := other.Neighbor(otherSide); ok && back.ID == lane.ID {
		other.setNeighbor(otherSide, noNeighbor)
	}
}

// LinkLanes adds successor relation pred -> succ
func (g *Graph) LinkLanes(pred, succ LaneID) {
	laneP, laneS := g.Lane(pred), g.Lane(succ)
	if laneP == nil || laneS == nil {
		return
	}
	laneP.successors = appendLaneUnique(laneP.successors, succ)
	laneS.predecessors = appendLaneUnique(laneS.predecessors, pred)
}

// UnlinkLanes removes successor relation pred -> succ
func (g *Graph) UnlinkLanes(pred, succ LaneID) {
	if laneP, ok := g.lanes[pred]; ok {
		laneP.successors = removeLaneID(laneP.successors, succ)
	}
	if laneS, ok := g.lanes[succ]; ok {
		laneS.predecessors = removeLaneID(laneS.predecessors, pred)
	}
}

// RemoveNode tombstones node. Edges touching it are removed as well
func (g *Graph) RemoveNode(id NodeID) {
	node := g.Node(id)
	if node == nil {
		return
	}
	node.removed = true
	for _, eid := range node.edges {
		g.RemoveEdge(eid)
	}
}

// RemoveEdge tombstones edge and its lanes
func (g *Graph) RemoveEdge(id EdgeID) {
	edge := g.Edge(id)
	if edge == nil {
		return
	}
	edge.removed = true
	for _, lid := range edge.LaneIDs() {
		if lane := g.Lane(lid); lane != nil {
			lane.removed = true
		}
	}
}

// RemoveLane tombstones lane. Lane counters of owning edge are kept consistent,
// edge without lanes is removed as well
func (g *Graph) RemoveLane(id LaneID) {
	lane := g.Lane(id)
	if lane == nil {
		return
	}
	lane.removed = true
	if lane.IsConnector() {
		return
	}
	edge := g.Edge(lane.EdgeID)
	if edge == nil {
		return
	}
	edge.removeLane(id)
	if edge.Lanes == 0 {
		edge.removed = true
	}
}

// sweep drops tombstoned entities and cleans every reference to them.
// Connector lanes which lost all predecessors or successors are dropped as well.
func (g *Graph) sweep() {
	for {
		for _, eid := range g.sortedAllEdgeIDs() {
			edge := g.edges[eid]
			if !edge.removed {
				continue
			}
			for _, lid := range edge.LaneIDs() {
				if lane, ok := g.lanes[lid]; ok {
					lane.removed = true
				}
			}
		}
		orphan := false
		for _, lane := range g.lanes {
			if lane.removed || !lane.IsConnector() {
				continue
			}
			alivePred, aliveSucc := false, false
			for _, p := range lane.predecessors {
				if g.Lane(p) != nil {
					alivePred = true
				}
			}
			for _, s := range lane.successors {
				if g.Lane(s) != nil {
					aliveSucc = true
				}
			}
			if !alivePred || !aliveSucc {
				lane.removed = true
				orphan = true
			}
		}
		if !orphan {
			break
		}
	}

	for id, lane := range g.lanes {
		if !lane.removed {
			continue
		}
		for _, side := range []Side{SIDE_LEFT, SIDE_RIGHT} {
			g.clearNeighbor(lane, side)
		}
		delete(g.lanes, id)
		delete(g.laneLinks, id)
	}
	for _, lane := range g.lanes {
		lane.predecessors = g.aliveLanes(lane.predecessors)
		lane.successors = g.aliveLanes(lane.successors)
		for _, side := range []Side{SIDE_LEFT, SIDE_RIGHT} {
			if nb, ok := lane.Neighbor(side); ok && g.Lane(nb.ID) == nil {
				lane.setNeighbor(side, noNeighbor)
			}
		}
	}

	for id, edge := range g.edges {
		if edge.removed {
			delete(g.edges, id)
		}
	}
	for _, edge := range g.edges {
		edge.forwardLanes = g.aliveLanes(edge.forwardLanes)
		edge.backwardLanes = g.aliveLanes(edge.backwardLanes)
		edge.LanesForward = len(edge.forwardLanes)
		edge.LanesBackward = len(edge.backwardLanes)
		edge.Lanes = edge.LanesForward + edge.LanesBackward
		if g.Edge(edge.SourceContinuation) == nil {
			edge.SourceContinuation = NoEdge
		}
		if g.Edge(edge.TargetContinuation) == nil {
			edge.TargetContinuation = NoEdge
		}
	}
	for id, node := range g.nodes {
		if node.removed {
			delete(g.nodes, id)
			continue
		}
		alive := node.edges[:0]
		for _, eid := range node.edges {
			if edge := g.Edge(eid); edge != nil && edge.Touches(node.ID) {
				alive = append(alive, eid)
			}
		}
		node.edges = alive
	}
	restrictions := g.restrictions[:0]
	for _, r := range g.restrictions {
		if g.Edge(r.from) != nil && g.Edge(r.to) != nil && g.Node(r.via) != nil {
			restrictions = append(restrictions, r)
		}
	}
	g.restrictions = restrictions
}

func (g *Graph) aliveLanes(ids []LaneID) []LaneID {
	out := ids[:0]
	for _, id := range ids {
		if g.Lane(id) != nil {
			out = append(out, id)
		}
	}
	return out
}

func (g *Graph) sortedAllEdgeIDs() []EdgeID {
	ids := make([]EdgeID, 0, len(g.edges))
	for id := range g.edges {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
