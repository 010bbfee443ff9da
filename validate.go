package osm2lanes

// Validate checks structural invariants of the graph and of its sub-layer. Checks which depend on pipeline progress
// (coverage, boundaries) are applied according to the graph stage. Returns first found *StructuralError.
func Validate(g *Graph) error {
	for _, layer := range g.layers() {
		if err := validateLayer(layer); err != nil {
			err.Layer = layer.Layer
			return err
		}
	}
	return nil
}

func validateLayer(g *Graph) *StructuralError {
	for _, nid := range g.SortedNodeIDs() {
		node := g.Node(nid)
		for _, eid := range node.edges {
			edge := g.Edge(eid)
			if edge == nil || !edge.Touches(nid) {
				return &StructuralError{Kind: ERR_DANGLING_REFERENCE, LaneID: NoLane, EdgeID: eid, NodeID: nid, Details: "node refers to edge which does not touch it"}
			}
		}
	}
	for _, eid := range g.SortedEdgeIDs() {
		if err := validateEdge(g, g.Edge(eid)); err != nil {
			return err
		}
	}
	for _, lid := range g.SortedLaneIDs() {
		if err := validateLane(g, g.Lane(lid)); err != nil {
			return err
		}
	}
	return nil
}

func validateEdge(g *Graph, edge *Edge) *StructuralError {
	if g.Node(edge.Source) == nil || g.Node(edge.Target) == nil {
		return edgeError(ERR_DANGLING_REFERENCE, edge, "endpoint node does not exist")
	}
	if len(edge.Waypoints) < 2 {
		return edgeError(ERR_MALFORMED_WAYPOINTS, edge, "edge has %d waypoints", len(edge.Waypoints))
	}
	if edge.LanesForward+edge.LanesBackward != edge.Lanes ||
		len(edge.forwardLanes) != edge.LanesForward ||
		len(edge.backwardLanes) != edge.LanesBackward {
		return edgeError(ERR_LANE_COUNT, edge, "forward %d (%d lanes) + backward %d (%d lanes) != total %d",
			edge.LanesForward, len(edge.forwardLanes), edge.LanesBackward, len(edge.backwardLanes), edge.Lanes)
	}
	for _, cont := range []EdgeID{edge.SourceContinuation, edge.TargetContinuation} {
		if cont != NoEdge && g.Edge(cont) == nil {
			return edgeError(ERR_DANGLING_REFERENCE, edge, "continuation edge %d does not exist", cont)
		}
	}
	for _, group := range []struct {
		lanes   []LaneID
		forward bool
	}{{edge.forwardLanes, true}, {edge.backwardLanes, false}} {
		for _, lid := range group.lanes {
			lane := g.Lane(lid)
			if lane == nil {
				return edgeError(ERR_DANGLING_REFERENCE, edge, "lane %d does not exist", lid)
			}
			if lane.EdgeID != edge.ID || lane.Forward != group.forward {
				return laneError(ERR_LANE_COUNT, lane, "lane is listed in wrong direction set of edge %d", edge.ID)
			}
		}
	}
	return nil
}

func validateLane(g *Graph, lane *Lane) *StructuralError {
	if !lane.IsConnector() && g.Stage >= STAGE_WAYPOINTS_READY && !lane.Visited(PHASE_WAYPOINTS) {
		return laneError(ERR_UNVISITED_LANE, lane, "lane has no centerline from %s phase", PHASE_WAYPOINTS)
	}
	if g.Stage >= STAGE_FINALIZED && !lane.Visited(PHASE_FINALIZE) {
		return laneError(ERR_UNVISITED_LANE, lane, "lane has not been visited by %s phase", PHASE_FINALIZE)
	}
	if (g.Stage >= STAGE_WAYPOINTS_READY || lane.IsConnector()) && len(lane.Centerline) < 2 {
		return laneError(ERR_MALFORMED_WAYPOINTS, lane, "centerline has %d points", len(lane.Centerline))
	}
	if g.Stage >= STAGE_FINALIZED {
		if len(lane.LeftBoundary) != len(lane.Centerline) || len(lane.RightBoundary) != len(lane.Centerline) {
			return laneError(ERR_MALFORMED_BOUNDARY, lane, "left %d, right %d, centerline %d points",
				len(lane.LeftBoundary), len(lane.RightBoundary), len(lane.Centerline))
		}
	}

	if lane.IsConnector() {
		if _, ok := g.laneLinks[lane.ID]; !ok {
			return laneError(ERR_DANGLING_REFERENCE, lane, "connector lane is not registered as lane link")
		}
		if len(lane.predecessors) == 0 || len(lane.successors) == 0 {
			return laneError(ERR_CONNECTOR_CHAIN, lane, "connector has %d predecessors and %d successors", len(lane.predecessors), len(lane.successors))
		}
	} else if edge := g.Edge(lane.EdgeID); edge == nil {
		return laneError(ERR_DANGLING_REFERENCE, lane, "owning edge does not exist")
	}

	for _, sid := range lane.successors {
		if sid == lane.ID {
			return laneError(ERR_SELF_LOOP, lane, "lane is its own successor")
		}
		succ := g.Lane(sid)
		if succ == nil {
			return laneError(ERR_DANGLING_REFERENCE, lane, "successor %d does not exist", sid)
		}
		if !succ.HasPredecessor(lane.ID) {
			return laneError(ERR_NON_RECIPROCAL_LINK, lane, "successor %d does not list lane as predecessor", sid)
		}
		if lane.IsConnector() && succ.IsConnector() {
			return laneError(ERR_CONNECTOR_CHAIN, lane, "connector is followed by connector %d", sid)
		}
	}
	for _, pid := range lane.predecessors {
		if pid == lane.ID {
			return laneError(ERR_SELF_LOOP, lane, "lane is its own predecessor")
		}
		pred := g.Lane(pid)
		if pred == nil {
			return laneError(ERR_DANGLING_REFERENCE, lane, "predecessor %d does not exist", pid)
		}
		if !pred.HasSuccessor(lane.ID) {
			return laneError(ERR_NON_RECIPROCAL_LINK, lane, "predecessor %d does not list lane as successor", pid)
		}
		if lane.IsConnector() && pred.IsConnector() {
			return laneError(ERR_CONNECTOR_CHAIN, lane, "connector is preceded by connector %d", pid)
		}
	}

	for _, side := range []Side{SIDE_LEFT, SIDE_RIGHT} {
		nb, ok := lane.Neighbor(side)
		if !ok {
			continue
		}
		if nb.ID == lane.ID {
			return laneError(ERR_SELF_LOOP, lane, "lane is its own %s neighbor", side)
		}
		other := g.Lane(nb.ID)
		if other == nil {
			return laneError(ERR_DANGLING_REFERENCE, lane, "%s neighbor %d does not exist", side, nb.ID)
		}
		back, ok := other.Neighbor(touchingSide(side, nb.SameDirection))
		if !ok || back.ID != lane.ID || back.SameDirection != nb.SameDirection {
			return laneError(ERR_ADJACENCY_ASYMMETRY, lane, "%s neighbor %d does not refer back", side, nb.ID)
		}
	}
	return nil
}
