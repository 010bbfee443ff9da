package osm2lanes

type NodeID int

type EdgeID int

type LaneID int

const (
	NoNode NodeID = -1
	NoEdge EdgeID = -1
	NoLane LaneID = -1
)

// IDAllocator hands out identifiers for nodes, edges and lanes.
// One allocator is shared by the primary graph and its sub-layer, so ids stay unique across the whole run.
type IDAllocator struct {
	nextNode int
	nextEdge int
	nextLane int
}

// NewIDAllocator returns allocator starting every sequence from zero
func NewIDAllocator() *IDAllocator {
	return &IDAllocator{}
}

// NewIDAllocatorFrom returns allocator starting from provided values
func NewIDAllocatorFrom(startNodeID, startEdgeID, startLaneID int) *IDAllocator {
	return &IDAllocator{
		nextNode: startNodeID,
		nextEdge: startEdgeID,
		nextLane: startLaneID,
	}
}

func (alloc *IDAllocator) NextNode() NodeID {
	id := NodeID(alloc.nextNode)
	alloc.nextNode++
	return id
}

func (alloc *IDAllocator) NextEdge() EdgeID {
	id := EdgeID(alloc.nextEdge)
	alloc.nextEdge++
	return id
}

func (alloc *IDAllocator) NextLane() LaneID {
	id := LaneID(alloc.nextLane)
	alloc.nextLane++
	return id
}
