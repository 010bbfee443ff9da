package osm2lanes

const (
	defaultRightMostLanes = 1
	defaultLeftMostLanes  = 1
)

// laneRange is inclusive range of lane indices counted from the left in direction of travel
type laneRange struct {
	first int
	last  int
}

func (r laneRange) size() int {
	if r.last < r.first {
		return 0
	}
	return r.last - r.first + 1
}

func (r laneRange) indices() []int {
	out := make([]int, 0, r.size())
	for i := r.first; i <= r.last; i++ {
		out = append(out, i)
	}
	return out
}

// laneConnection maps range of incoming lanes onto range of outgoing lanes
type laneConnection struct {
	in  laneRange
	out laneRange
}

// pairs expands connection into (incoming, outgoing) index pairs. Ranges are aligned to the left,
// surplus lanes of the longer range join the rightmost lane of the shorter one
func (conn laneConnection) pairs() [][2]int {
	if conn.in.size() == 0 || conn.out.size() == 0 {
		return nil
	}
	out := [][2]int{}
	for _, pair := range alignLanes(conn.in.indices(), conn.out.size(), false) {
		out = append(out, [2]int{pair[0], conn.out.first + pair[1]})
	}
	return out
}

// alignLanes pairs given incoming lane indices with outgoing lanes [0, outLanes), starting from the left or from the right side
func alignLanes(in []int, outLanes int, alignRight bool) [][2]int {
	if len(in) == 0 || outLanes <= 0 {
		return nil
	}
	n := max(len(in), outLanes)
	pairs := make([][2]int, 0, n)
	for k := 0; k < n; k++ {
		ki, ko := min(k, len(in)-1), min(k, outLanes-1)
		if alignRight {
			pairs = append(pairs, [2]int{in[len(in)-1-ki], outLanes - 1 - ko})
		} else {
			pairs = append(pairs, [2]int{in[ki], ko})
		}
	}
	return pairs
}

// branchConnections distributes incoming lanes over outgoing branches sorted from left to right:
// leftmost lanes go to the leftmost branch, rightmost lanes go to the rightmost branch, the rest is shared by middle branches.
// Single branch gets full connection.
func branchConnections(inLanes int, outLanes []int) []laneConnection {
	connections := make([]laneConnection, len(outLanes))
	if inLanes <= 0 || len(outLanes) == 0 {
		return connections
	}
	if len(outLanes) == 1 {
		connections[0] = laneConnection{laneRange{0, inLanes - 1}, laneRange{0, outLanes[0] - 1}}
		return connections
	}
	if inLanes == 1 {
		connections[0] = laneConnection{laneRange{0, 0}, laneRange{0, 0}}
		for i, lanes := range outLanes[1:] {
			connections[i+1] = laneConnection{laneRange{0, 0}, laneRange{lanes - 1, lanes - 1}}
		}
		return connections
	}
	rightIdx := len(outLanes) - 1
	rightLanes := outLanes[rightIdx]
	if len(outLanes) == 2 {
		// Default right, remaining left
		minConnections := min(inLanes-defaultLeftMostLanes, outLanes[0])
		connections[0] = laneConnection{laneRange{0, minConnections - 1}, laneRange{0, minConnections - 1}}
		connections[rightIdx] = laneConnection{
			laneRange{inLanes - defaultRightMostLanes, inLanes - 1},
			laneRange{rightLanes - defaultRightMostLanes, rightLanes - 1},
		}
		return connections
	}

	// 3 and more branches: default left, default right, remaining middle
	connections[0] = laneConnection{laneRange{0, defaultLeftMostLanes - 1}, laneRange{0, defaultLeftMostLanes - 1}}
	middle := outLanes[1:rightIdx]
	leftLanesNum := inLanes - defaultLeftMostLanes - defaultRightMostLanes
	switch {
	case leftLanesNum >= len(middle):
		available := make([]int, len(middle))
		copy(available, middle)
		assigned := make([]int, len(middle))
		for leftLanesNum > 0 && sumInts(available) > 0 {
			for idx := range middle {
				if available[idx] == 0 || leftLanesNum == 0 {
					continue
				}
				available[idx]--
				assigned[idx]++
				leftLanesNum--
			}
		}
		start := defaultLeftMostLanes
		for idx, lanes := range middle {
			connections[idx+1] = laneConnection{
				laneRange{start, start + assigned[idx] - 1},
				laneRange{lanes - assigned[idx], lanes - 1},
			}
			start += assigned[idx]
		}
	case inLanes < len(middle):
		// Not enough lanes: the last incoming lane feeds every remaining branch
		for idx, lanes := range middle {
			laneIdx := min(idx, inLanes-1)
			connections[idx+1] = laneConnection{laneRange{laneIdx, laneIdx}, laneRange{lanes - 1, lanes - 1}}
		}
	default:
		start := 0
		if inLanes-defaultLeftMostLanes == len(middle) {
			start = defaultLeftMostLanes
		}
		for idx, lanes := range middle {
			connections[idx+1] = laneConnection{laneRange{start, start}, laneRange{lanes - 1, lanes - 1}}
			start++
		}
	}
	connections[rightIdx] = laneConnection{
		laneRange{inLanes - defaultRightMostLanes, inLanes - 1},
		laneRange{rightLanes - defaultRightMostLanes, rightLanes - 1},
	}
	return connections
}

func sumInts(slice []int) int {
	sum := 0
	for _, val := range slice {
		sum += val
	}
	return sum
}
