package osm2lanes

import (
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/osm"
	"go.uber.org/zap"
)

// Builder converts topology records into the graph (and optional pedestrian sub-layer graph)
type Builder struct {
	cfg    *Config
	alloc  *IDAllocator
	logger *zap.Logger
}

func NewBuilder(cfg *Config, alloc *IDAllocator, logger *zap.Logger) *Builder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Builder{
		cfg:    cfg,
		alloc:  alloc,
		logger: logger,
	}
}

type layerWay struct {
	way  *WayRecord
	road RoadType
}

// Build creates graph from topology. Ways of unknown road types are skipped.
func (builder *Builder) Build(topology *Topology) (*Graph, error) {
	if topology == nil {
		return nil, ErrNilTopology
	}
	st := time.Now()
	builder.logger.Info("Building graph", zap.Int("ways", len(topology.Ways)), zap.Int("nodes", len(topology.Nodes)))

	primaryWays := []layerWay{}
	subWays := []layerWay{}
	skipped := 0
	for _, way := range topology.Ways {
		road, ok := ParseRoadType(way.Highway)
		if !ok {
			skipped++
			continue
		}
		switch road.Layer() {
		case LAYER_PRIMARY:
			primaryWays = append(primaryWays, layerWay{way, road})
		case LAYER_SUB:
			if builder.cfg.SubLayer {
				subWays = append(subWays, layerWay{way, road})
			}
		}
	}
	if skipped > 0 {
		builder.logger.Debug("Ways with unhandled road types have been skipped", zap.Int("skipped", skipped))
	}

	// Graph nodes are selected over both layers, so crossings become nodes in both of them
	useCount := make(map[osm.NodeID]int)
	layerUse := make(map[osm.NodeID]LayerType)
	crossings := make(map[osm.NodeID]struct{})
	countUse := func(ways []layerWay, layer LayerType) {
		for _, lw := range ways {
			for i, nodeID := range lw.way.Nodes {
				// Closed ways count their first node once
				if i == len(lw.way.Nodes)-1 && len(lw.way.Nodes) > 1 && nodeID == lw.way.Nodes[0] {
					continue
				}
				useCount[nodeID]++
				if prev, ok := layerUse[nodeID]; ok && prev != layer {
					crossings[nodeID] = struct{}{}
				}
				layerUse[nodeID] = layer
			}
		}
	}
	countUse(primaryWays, LAYER_PRIMARY)
	countUse(subWays, LAYER_SUB)
	for id, record := range topology.Nodes {
		if record.Crossing {
			crossings[id] = struct{}{}
		}
	}
	graphNodes := make(map[osm.NodeID]struct{})
	for id, cnt := range useCount {
		if cnt >= 2 {
			graphNodes[id] = struct{}{}
		}
	}
	for _, lw := range append(append([]layerWay{}, primaryWays...), subWays...) {
		nodes := lw.way.Nodes
		if len(nodes) == 0 {
			continue
		}
		graphNodes[nodes[0]] = struct{}{}
		graphNodes[nodes[len(nodes)-1]] = struct{}{}
		if len(nodes) > 2 && nodes[0] == nodes[len(nodes)-1] {
			// Closed way is split in the middle to avoid loop edges
			graphNodes[nodes[len(nodes)/2]] = struct{}{}
		}
	}

	primary := builder.buildLayer(LAYER_PRIMARY, primaryWays, topology, graphNodes, crossings)
	primary.Projection = topology.Projection
	if builder.cfg.SubLayer {
		sub := builder.buildLayer(LAYER_SUB, subWays, topology, graphNodes, crossings)
		sub.Projection = topology.Projection
		primary.AttachSubLayer(sub)
	}
	builder.logger.Info("Graph has been built",
		zap.Int("nodes", primary.NodesNum()),
		zap.Int("edges", primary.EdgesNum()),
		zap.Int("lanes", primary.LanesNum()),
		zap.Bool("sub_layer", primary.HasSubLayer()),
		zap.Duration("elapsed", time.Since(st)),
	)
	return primary, nil
}

func (builder *Builder) buildLayer(layer LayerType, ways []layerWay, topology *Topology, graphNodes map[osm.NodeID]struct{}, crossings map[osm.NodeID]struct{}) *Graph {
	g := NewGraph(layer)
	g.Stage = STAGE_BUILT
	nodesMapping := make(map[osm.NodeID]NodeID)
	edgesByWay := make(map[osm.WayID][]EdgeID)
	edgeByInteriorNode := make(map[osm.NodeID][]EdgeID)

	getNode := func(osmID osm.NodeID) *Node {
		if id, ok := nodesMapping[osmID]; ok {
			return g.Node(id)
		}
		record := topology.Nodes[osmID]
		node := g.AddNode(builder.alloc, record.Point, osmID)
		for _, control := range record.Controls {
			node.addControl(control)
		}
		if _, ok := crossings[osmID]; ok {
			node.Crossing = true
		}
		nodesMapping[osmID] = node.ID
		return node
	}

	for _, lw := range ways {
		way := lw.way
		spec := inferLanes(way, lw.road, builder.cfg)

		refs := make([]osm.NodeID, 0, len(way.Nodes))
		for _, nodeID := range way.Nodes {
			if _, ok := topology.Nodes[nodeID]; !ok {
				builder.logger.Warn("Way references unknown node", zap.Int64("way_id", int64(way.ID)), zap.Int64("node_id", int64(nodeID)))
				continue
			}
			if len(refs) > 0 && refs[len(refs)-1] == nodeID {
				continue
			}
			refs = append(refs, nodeID)
		}
		if len(refs) < 2 {
			builder.logger.Warn("Way has less than two usable nodes. Skip it", zap.Int64("way_id", int64(way.ID)))
			continue
		}
		if spec.reversed {
			for i, j := 0, len(refs)-1; i < j; i, j = i+1, j-1 {
				refs[i], refs[j] = refs[j], refs[i]
			}
		}

		var prevEdge *Edge
		segmentStart := 0
		for i := 1; i < len(refs); i++ {
			_, isGraphNode := graphNodes[refs[i]]
			if !isGraphNode && i != len(refs)-1 {
				continue
			}
			segment := refs[segmentStart : i+1]
			segmentStart = i
			edge := builder.buildEdge(g, way, lw.road, spec, segment, topology, getNode)
			if edge == nil {
				prevEdge = nil
				continue
			}
			edgesByWay[way.ID] = append(edgesByWay[way.ID], edge.ID)
			for _, interior := range segment[1 : len(segment)-1] {
				edgeByInteriorNode[interior] = append(edgeByInteriorNode[interior], edge.ID)
			}
			if prevEdge != nil {
				prevEdge.TargetContinuation = edge.ID
				edge.SourceContinuation = prevEdge.ID
			}
			prevEdge = edge
		}
	}

	// Controls on nodes which are not graph nodes belong to edges passing through them
	for osmID, edges := range edgeByInteriorNode {
		for _, control := range topology.Nodes[osmID].Controls {
			for _, eid := range edges {
				g.Edge(eid).Controls = appendControlUnique(g.Edge(eid).Controls, control)
			}
		}
	}
	for _, annotation := range topology.Controls {
		if annotation.NodeID != 0 {
			if id, ok := nodesMapping[annotation.NodeID]; ok {
				g.Node(id).addControl(annotation.Type)
			}
			for _, eid := range edgeByInteriorNode[annotation.NodeID] {
				g.Edge(eid).Controls = appendControlUnique(g.Edge(eid).Controls, annotation.Type)
			}
		}
		if annotation.WayID != 0 {
			for _, eid := range edgesByWay[annotation.WayID] {
				g.Edge(eid).Controls = appendControlUnique(g.Edge(eid).Controls, annotation.Type)
			}
		}
	}

	skippedRestrictions := 0
	for _, r := range topology.Restrictions {
		if r.ViaNode == 0 {
			skippedRestrictions++
			continue
		}
		via, ok := nodesMapping[r.ViaNode]
		if !ok {
			continue
		}
		for _, from := range edgesByWay[r.From] {
			if !g.Edge(from).Touches(via) {
				continue
			}
			for _, to := range edgesByWay[r.To] {
				if !g.Edge(to).Touches(via) {
					continue
				}
				g.restrictions = append(g.restrictions, edgeRestriction{from: from, via: via, to: to, kind: r.Type})
			}
		}
	}
	if skippedRestrictions > 0 {
		builder.logger.Warn("Restrictions with 'via' way are not supported. Skip them", zap.String("layer", layer.String()), zap.Int("skipped", skippedRestrictions))
	}
	return g
}

func (builder *Builder) buildEdge(g *Graph, way *WayRecord, road RoadType, spec laneSpec, segment []osm.NodeID, topology *Topology, getNode func(osm.NodeID) *Node) *Edge {
	points := make(orb.LineString, 0, len(segment))
	for _, nodeID := range segment {
		points = append(points, topology.Nodes[nodeID].Point)
	}
	points = dedupePoints(points)
	first, last := segment[0], segment[len(segment)-1]
	if len(points) < 2 || first == last {
		builder.logger.Warn("Way segment is too short to become an edge. Skip it",
			zap.Int64("way_id", int64(way.ID)),
			zap.Int64("from_node", int64(first)),
			zap.Int64("to_node", int64(last)),
		)
		return nil
	}
	source := getNode(first)
	target := getNode(last)
	edge := &Edge{
		WayID:         way.ID,
		Source:        source.ID,
		Target:        target.ID,
		RoadType:      road,
		Waypoints:     points,
		LaneWidth:     builder.cfg.laneWidth(road),
		MaxSpeed:      spec.speed,
		Lanes:         spec.total,
		LanesForward:  spec.forward,
		LanesBackward: spec.backward,
		TurnForward:   spec.turnForward,
		TurnBackward:  spec.turnBackward,
		Assumed:       spec.assumed,
	}
	return g.AddEdge(builder.alloc, edge)
}

func appendControlUnique(controls []ControlType, control ControlType) []ControlType {
	for _, c := range controls {
		if c == control {
			return controls
		}
	}
	return append(controls, control)
}
