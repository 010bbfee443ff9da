package osm2lanes

import (
	"sort"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"go.uber.org/zap"
)

// LinkStats summarizes lane links synthesis
type LinkStats struct {
	Connectors int
	// Straight continuations of one road joined without connector
	Pruned int
}

// branch is a candidate outgoing edge for lanes of incoming edge at the node
type branch struct {
	edge      *Edge
	angle     float64
	movement  MovementType
	composite MovementCompositeType
}

type lanePair struct {
	from LaneID
	to   LaneID
}

type linkSynthesizer struct {
	g      *Graph
	alloc  *IDAllocator
	cfg    *Config
	logger *zap.Logger
	// Every (predecessor, successor) pair is materialized once. NoLane value means pair has been joined directly
	pairs map[lanePair]LaneID
	stats LinkStats
}

// SynthesizeLaneLinks creates connector lanes through every node, joins lanes of straight pass-through roads
// directly and propagates left/right adjacency onto connectors
func SynthesizeLaneLinks(g *Graph, alloc *IDAllocator, cfg *Config, logger *zap.Logger) (LinkStats, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	st := time.Now()
	syn := &linkSynthesizer{
		g:      g,
		alloc:  alloc,
		cfg:    cfg,
		logger: logger,
		pairs:  make(map[lanePair]LaneID),
	}
	for _, nid := range g.SortedNodeIDs() {
		syn.connectNode(g.Node(nid))
	}
	propagateAdjacency(g, syn.pairs)
	logger.Info("Lane links have been synthesized",
		zap.String("layer", g.Layer.String()),
		zap.Int("connectors", syn.stats.Connectors),
		zap.Int("pruned", syn.stats.Pruned),
		zap.Duration("elapsed", time.Since(st)),
	)
	return syn.stats, nil
}

// arrivalDirection returns direction of travel of incoming edge at the node
func arrivalDirection(edge *Edge, node NodeID, lookAhead float64) orb.Point {
	return scale(outwardDirection(edge, node, lookAhead), -1)
}

// branches returns outgoing edges reachable from the incoming edge at the node, sorted from left to right.
// Turn restrictions are applied here.
func (syn *linkSynthesizer) branches(node *Node, incoming *Edge) []branch {
	inDir := arrivalDirection(incoming, node.ID, syn.cfg.LookAhead)
	mandatory := NoEdge
	forbidden := make(map[EdgeID]struct{})
	for _, r := range syn.g.restrictions {
		if r.from != incoming.ID || r.via != node.ID {
			continue
		}
		if r.kind.IsMandatory() {
			mandatory = r.to
		} else {
			forbidden[r.to] = struct{}{}
		}
	}
	out := []branch{}
	for _, fid := range node.Edges() {
		if fid == incoming.ID && !(node.Degree() == 1 && syn.cfg.AllowDeadEndUTurns) {
			continue
		}
		if _, ok := forbidden[fid]; ok {
			continue
		}
		if mandatory != NoEdge && fid != mandatory {
			continue
		}
		f := syn.g.Edge(fid)
		if len(f.OutgoingLanesAt(node.ID)) == 0 {
			continue
		}
		outDir := outwardDirection(f, node.ID, syn.cfg.LookAhead)
		movement := classifyMovement(inDir, outDir)
		if fid == incoming.ID {
			movement = MOVEMENT_U_TURN
		}
		out = append(out, branch{
			edge:      f,
			angle:     turnAngle(inDir, outDir),
			movement:  movement,
			composite: compositeMovement(inDir, movement),
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].angle != out[j].angle {
			return out[i].angle > out[j].angle
		}
		return out[i].edge.ID < out[j].edge.ID
	})
	return out
}

func (syn *linkSynthesizer) connectNode(node *Node) {
	incoming := []*Edge{}
	branchesByEdge := make(map[EdgeID][]branch)
	for _, eid := range node.Edges() {
		edge := syn.g.Edge(eid)
		if len(edge.IncomingLanesAt(node.ID)) == 0 {
			continue
		}
		branches := syn.branches(node, edge)
		if len(branches) == 0 {
			continue
		}
		incoming = append(incoming, edge)
		branchesByEdge[eid] = branches
	}
	for _, edge := range incoming {
		branches := branchesByEdge[edge.ID]
		inLanes := edge.IncomingLanesAt(node.ID)
		if len(branches) == 1 {
			syn.connectSingleBranch(node, edge, branches[0], incoming, branchesByEdge)
			continue
		}
		if hasTurnAnnotations(syn.g, inLanes) {
			for _, br := range branches {
				allowed := []int{}
				for i, lid := range inLanes {
					if syn.g.Lane(lid).Turns.Allows(br.movement) {
						allowed = append(allowed, i)
					}
				}
				outLanes := br.edge.OutgoingLanesAt(node.ID)
				for _, pair := range alignLanes(allowed, len(outLanes), br.movement == MOVEMENT_RIGHT) {
					syn.connect(node, edge, br, inLanes[pair[0]], outLanes[pair[1]])
				}
			}
			continue
		}
		outCounts := make([]int, len(branches))
		for i, br := range branches {
			outCounts[i] = len(br.edge.OutgoingLanesAt(node.ID))
		}
		for i, conn := range branchConnections(len(inLanes), outCounts) {
			outLanes := branches[i].edge.OutgoingLanesAt(node.ID)
			for _, pair := range conn.pairs() {
				syn.connect(node, edge, branches[i], inLanes[pair[0]], outLanes[pair[1]])
			}
		}
	}
}

// connectSingleBranch handles incoming edge with the only way out. When several incoming edges share
// that way out, lanes merge: the leftmost incoming edge takes the left side of outgoing lanes, others the right side.
func (syn *linkSynthesizer) connectSingleBranch(node *Node, edge *Edge, br branch, incoming []*Edge, branchesByEdge map[EdgeID][]branch) {
	inLanes := edge.IncomingLanesAt(node.ID)
	outLanes := br.edge.OutgoingLanesAt(node.ID)
	type merging struct {
		edge  *Edge
		angle float64
	}
	group := []merging{}
	for _, other := range incoming {
		branches := branchesByEdge[other.ID]
		if len(branches) == 1 && branches[0].edge.ID == br.edge.ID {
			group = append(group, merging{other, branches[0].angle})
		}
	}
	if len(group) < 2 {
		conn := laneConnection{laneRange{0, len(inLanes) - 1}, laneRange{0, len(outLanes) - 1}}
		for _, pair := range conn.pairs() {
			syn.connect(node, edge, br, inLanes[pair[0]], outLanes[pair[1]])
		}
		return
	}
	sort.SliceStable(group, func(i, j int) bool {
		if group[i].angle != group[j].angle {
			return group[i].angle > group[j].angle
		}
		return group[i].edge.ID < group[j].edge.ID
	})
	counts := make([]int, len(group))
	position := 0
	for i, m := range group {
		counts[i] = len(m.edge.IncomingLanesAt(node.ID))
		if m.edge.ID == edge.ID {
			position = i
		}
	}
	conn := mergeConnections(counts, len(outLanes))[position]
	for _, pair := range conn.pairs() {
		syn.connect(node, edge, br, inLanes[pair[0]], outLanes[pair[1]])
	}
}

func hasTurnAnnotations(g *Graph, lanes []LaneID) bool {
	for _, lid := range lanes {
		if g.Lane(lid).Turns != 0 {
			return true
		}
	}
	return false
}

// connect links lane `from` of incoming edge with lane `to` of outgoing edge. Nearly straight continuation
// of the same road is joined directly, otherwise connector lane is created.
func (syn *linkSynthesizer) connect(node *Node, incoming *Edge, br branch, from, to LaneID) {
	key := lanePair{from, to}
	if _, ok := syn.pairs[key]; ok {
		return
	}
	a, b := syn.g.Lane(from), syn.g.Lane(to)
	start := a.Centerline[len(a.Centerline)-1]
	end := b.Centerline[0]
	startDir := normalize(sub(start, a.Centerline[len(a.Centerline)-2]))
	endDir := normalize(sub(b.Centerline[1], end))
	curve, _ := connectorCurve(start, startDir, end, endDir, syn.cfg.BezierTension, syn.cfg.InterpolationSpacing)

	if isSameRoad(syn.g, node.ID, incoming, br.edge) &&
		planar.Distance(start, end) <= syn.cfg.JoinTolerance &&
		maxCurvature(curve) < syn.cfg.StraightCurvature {
		mid := midpoint(start, end)
		a.Centerline[len(a.Centerline)-1] = mid
		b.Centerline[0] = mid
		syn.g.LinkLanes(from, to)
		syn.pairs[key] = NoLane
		syn.stats.Pruned++
		return
	}

	connector := syn.g.addConnector(syn.alloc, a.Forward, a.EndWidth)
	connector.EndWidth = b.StartWidth
	connector.Centerline = curve
	connector.Junction = node.ID
	connector.Movement = br.movement
	connector.CompositeMovement = br.composite
	syn.g.LinkLanes(from, connector.ID)
	syn.g.LinkLanes(connector.ID, to)
	syn.pairs[key] = connector.ID
	syn.stats.Connectors++
	syn.logger.Debug("Connector lane has been created",
		zap.Int("lane_id", int(connector.ID)),
		zap.Int("from_lane", int(from)),
		zap.Int("to_lane", int(to)),
		zap.Int("node_id", int(node.ID)),
		zap.String("movement", br.movement.String()),
	)
}
