package osm2lanes

import (
	"strings"
)

// TurnSet is a set of turn indications for single lane (one `turn:lanes` entry)
type TurnSet uint16

const (
	TURN_LEFT = TurnSet(1 << iota)
	TURN_SLIGHT_LEFT
	TURN_SHARP_LEFT
	TURN_THROUGH
	TURN_RIGHT
	TURN_SLIGHT_RIGHT
	TURN_SHARP_RIGHT
	TURN_REVERSE
	TURN_MERGE_TO_LEFT
	TURN_MERGE_TO_RIGHT
)

var turnSetByTag = map[string]TurnSet{
	"left":           TURN_LEFT,
	"slight_left":    TURN_SLIGHT_LEFT,
	"sharp_left":     TURN_SHARP_LEFT,
	"through":        TURN_THROUGH,
	"right":          TURN_RIGHT,
	"slight_right":   TURN_SLIGHT_RIGHT,
	"sharp_right":    TURN_SHARP_RIGHT,
	"reverse":        TURN_REVERSE,
	"merge_to_left":  TURN_MERGE_TO_LEFT,
	"merge_to_right": TURN_MERGE_TO_RIGHT,
	"none":           0,
}

// ParseTurnLanes parses value of `turn:lanes*` tag. Lanes are listed from left to right in direction of travel.
// Unknown indications are ignored. Returns nil for empty string.
func ParseTurnLanes(str string) []TurnSet {
	str = strings.TrimSpace(str)
	if str == "" {
		return nil
	}
	parts := strings.Split(str, "|")
	turns := make([]TurnSet, len(parts))
	for i, part := range parts {
		for _, indication := range strings.Split(part, ";") {
			turns[i] |= turnSetByTag[strings.TrimSpace(indication)]
		}
	}
	return turns
}

// Allows checks if lane marked with the turn set may be used for given movement.
// Unmarked (or "none") lanes and merges are treated as through lanes.
func (turns TurnSet) Allows(movement MovementType) bool {
	if turns&^(TURN_MERGE_TO_LEFT|TURN_MERGE_TO_RIGHT) == 0 {
		return movement == MOVEMENT_THRU
	}
	switch movement {
	case MOVEMENT_THRU:
		return turns&(TURN_THROUGH|TURN_SLIGHT_LEFT|TURN_SLIGHT_RIGHT) != 0
	case MOVEMENT_LEFT:
		return turns&(TURN_LEFT|TURN_SLIGHT_LEFT|TURN_SHARP_LEFT) != 0
	case MOVEMENT_RIGHT:
		return turns&(TURN_RIGHT|TURN_SLIGHT_RIGHT|TURN_SHARP_RIGHT) != 0
	case MOVEMENT_U_TURN:
		return turns&TURN_REVERSE != 0
	}
	return false
}

func (turns TurnSet) String() string {
	if turns == 0 {
		return "none"
	}
	names := []string{}
	for i, name := range [...]string{"left", "slight_left", "sharp_left", "through", "right", "slight_right", "sharp_right", "reverse", "merge_to_left", "merge_to_right"} {
		if turns&(1<<i) != 0 {
			names = append(names, name)
		}
	}
	return strings.Join(names, ";")
}
