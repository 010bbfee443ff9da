package osm2lanes

import (
	"math"

	"github.com/paulmach/orb"
)

type MovementType uint16

const (
	MOVEMENT_THRU = MovementType(iota + 1)
	MOVEMENT_RIGHT
	MOVEMENT_LEFT
	MOVEMENT_U_TURN

	MOVEMENT_UNDEFINED = MovementType(0)
)

func (iotaIdx MovementType) String() string {
	return [...]string{"undefined", "thru", "right", "left", "uturn"}[iotaIdx]
}

// MovementCompositeType is approach bound (south/east/north/west) combined with movement type
type MovementCompositeType uint16

const (
	MOVEMENT_SBT = MovementCompositeType(iota + 1)
	MOVEMENT_SBR
	MOVEMENT_SBL
	MOVEMENT_SBU
	MOVEMENT_EBT
	MOVEMENT_EBR
	MOVEMENT_EBL
	MOVEMENT_EBU
	MOVEMENT_NBT
	MOVEMENT_NBR
	MOVEMENT_NBL
	MOVEMENT_NBU
	MOVEMENT_WBT
	MOVEMENT_WBR
	MOVEMENT_WBL
	MOVEMENT_WBU
	MOVEMENT_NONE = MovementCompositeType(0)
)

func (iotaIdx MovementCompositeType) String() string {
	return [...]string{"undefined", "SBT", "SBR", "SBL", "SBU", "EBT", "EBR", "EBL", "EBU", "NBT", "NBR", "NBL", "NBU", "WBT", "WBR", "WBL", "WBU"}[iotaIdx]
}

// turnAngle returns signed angle of turn from incoming direction to outgoing direction.
// Positive values are left turns. Near-reverse angles are treated as left (U-turn) ones.
func turnAngle(inDir, outDir orb.Point) float64 {
	angle := signedAngle(inDir, outDir)
	if angle < -0.9*math.Pi {
		angle += 2 * math.Pi
	}
	return angle
}

// classifyMovement returns movement for given directions of travel before and after the junction
func classifyMovement(inDir, outDir orb.Point) MovementType {
	angleDiff := signedAngle(inDir, outDir)
	switch {
	case -0.25*math.Pi <= angleDiff && angleDiff <= 0.25*math.Pi:
		return MOVEMENT_THRU
	case angleDiff < -0.25*math.Pi && angleDiff >= -0.75*math.Pi:
		return MOVEMENT_RIGHT
	case angleDiff > 0.25*math.Pi && angleDiff <= 0.75*math.Pi:
		return MOVEMENT_LEFT
	default:
		return MOVEMENT_U_TURN
	}
}

// compositeMovement returns approach bound with movement type
func compositeMovement(inDir orb.Point, movement MovementType) MovementCompositeType {
	angle := math.Atan2(inDir[1], inDir[0])
	var bound MovementCompositeType
	switch {
	case -0.75*math.Pi <= angle && angle < -0.25*math.Pi:
		bound = MOVEMENT_SBT
	case -0.25*math.Pi <= angle && angle < 0.25*math.Pi:
		bound = MOVEMENT_EBT
	case 0.25*math.Pi <= angle && angle < 0.75*math.Pi:
		bound = MOVEMENT_NBT
	default:
		bound = MOVEMENT_WBT
	}
	switch movement {
	case MOVEMENT_RIGHT:
		return bound + 1
	case MOVEMENT_LEFT:
		return bound + 2
	case MOVEMENT_U_TURN:
		return bound + 3
	case MOVEMENT_THRU:
		return bound
	}
	return MOVEMENT_NONE
}
