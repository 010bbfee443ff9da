package osm2lanes

// laneSpec is resolved lane layout of a way
type laneSpec struct {
	forward      int
	backward     int
	total        int
	turnForward  []TurnSet
	turnBackward []TurnSet
	speed        float64
	// Way nodes must be traversed in reverse order
	reversed bool
	assumed  AssumedFlags
}

// inferLanes fills missing lane information of the way.
// First values which are logically forced by present tags are deduced, then road type defaults are applied.
func inferLanes(way *WayRecord, road RoadType, cfg *Config) laneSpec {
	spec := laneSpec{
		total:    way.Lanes,
		forward:  way.LanesForward,
		backward: way.LanesBackward,
	}
	turnForward := way.TurnLanesForward
	turnBackward := way.TurnLanesBackward

	oneway := false
	switch way.Oneway {
	case ONEWAY_YES:
		oneway = true
	case ONEWAY_REVERSE:
		oneway = true
		spec.reversed = true
	case ONEWAY_NO:
		oneway = false
	default:
		oneway = onewayDefaultByRoad[road]
	}
	if oneway && turnForward == "" && !spec.reversed {
		turnForward = way.TurnLanes
	}
	if oneway && turnBackward == "" && spec.reversed {
		turnBackward = way.TurnLanes
	}
	if !oneway && way.TurnLanes != "" && turnForward == "" && turnBackward == "" {
		// `turn:lanes` is ambiguous for two-way roads
		spec.assumed |= ASSUMED_TURN_LANES
	}
	if spec.reversed {
		spec.forward, spec.backward = spec.backward, spec.forward
		turnForward, turnBackward = turnBackward, turnForward
	}

	// Forced deductions
	if oneway {
		if spec.backward > 0 {
			spec.assumed |= ASSUMED_LANES
		}
		spec.backward = 0
		if spec.forward < 0 && spec.total >= 0 {
			spec.forward = spec.total
		}
		if spec.forward >= 0 && spec.total >= 0 && spec.forward != spec.total {
			spec.assumed |= ASSUMED_LANES
		}
	} else {
		if spec.forward < 0 && spec.backward > 0 && spec.total < 0 {
			// Only backward count is known: make it the forward one
			spec.forward, spec.backward = spec.backward, spec.forward
			turnForward, turnBackward = turnBackward, turnForward
			spec.reversed = !spec.reversed
		}
		if spec.total >= 0 && spec.forward >= 0 && spec.backward < 0 {
			if spec.total-spec.forward >= 0 {
				spec.backward = spec.total - spec.forward
			}
		}
		if spec.total >= 0 && spec.backward >= 0 && spec.forward < 0 {
			if spec.total-spec.backward >= 0 {
				spec.forward = spec.total - spec.backward
			}
		}
		if spec.forward >= 0 && spec.backward >= 0 && spec.total >= 0 && spec.forward+spec.backward != spec.total {
			// Contradiction: trust directional counts
			spec.assumed |= ASSUMED_LANES
		}
		if spec.forward == 0 && spec.backward > 0 {
			// Traffic goes against way direction only
			spec.forward, spec.backward = spec.backward, 0
			turnForward, turnBackward = turnBackward, ""
			spec.reversed = !spec.reversed
			oneway = true
		}
	}

	// Defaults
	perDirection := cfg.lanesPerDirection(road)
	if oneway {
		if spec.forward <= 0 {
			spec.forward = perDirection
			spec.assumed |= ASSUMED_LANES
		}
		spec.backward = 0
	} else {
		switch {
		case spec.forward < 0 && spec.backward < 0 && spec.total > 0:
			if spec.total == 1 {
				spec.forward, spec.backward = 1, 1
				spec.assumed |= ASSUMED_LANES
			} else {
				spec.forward = (spec.total + 1) / 2
				spec.backward = spec.total - spec.forward
			}
			spec.assumed |= ASSUMED_DIRECTION_SPLIT
		case spec.forward < 0 && spec.backward < 0:
			spec.forward, spec.backward = perDirection, perDirection
			spec.assumed |= ASSUMED_LANES | ASSUMED_DIRECTION_SPLIT
		}
		if spec.forward <= 0 {
			spec.forward = perDirection
			spec.assumed |= ASSUMED_LANES
		}
		if spec.backward < 0 {
			spec.backward = perDirection
			spec.assumed |= ASSUMED_LANES
		}
	}
	spec.total = spec.forward + spec.backward

	spec.speed = way.MaxSpeed
	if spec.speed <= 0 {
		spec.speed = cfg.speed(road)
		spec.assumed |= ASSUMED_SPEED
	}

	spec.turnForward = ParseTurnLanes(turnForward)
	if spec.turnForward != nil && len(spec.turnForward) != spec.forward {
		spec.turnForward = nil
		spec.assumed |= ASSUMED_TURN_LANES
	}
	spec.turnBackward = ParseTurnLanes(turnBackward)
	if spec.turnBackward != nil && len(spec.turnBackward) != spec.backward {
		spec.turnBackward = nil
		spec.assumed |= ASSUMED_TURN_LANES
	}
	return spec
}
