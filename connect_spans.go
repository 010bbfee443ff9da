package osm2lanes

// mergeConnections distributes lanes of the single outgoing edge over several incoming edges sorted from left to right.
// The leftmost incoming edge keeps the left side of the outgoing edge, others join its right side.
func mergeConnections(inLanes []int, outLanes int) []laneConnection {
	connections := make([]laneConnection, len(inLanes))
	if outLanes <= 0 {
		return connections
	}
	for i, lanes := range inLanes {
		minConnections := min(outLanes, lanes)
		if minConnections <= 0 {
			continue
		}
		if i == 0 {
			connections[i] = laneConnection{laneRange{lanes - minConnections, lanes - 1}, laneRange{0, minConnections - 1}}
			continue
		}
		connections[i] = laneConnection{laneRange{0, minConnections - 1}, laneRange{outLanes - minConnections, outLanes - 1}}
	}
	return connections
}
