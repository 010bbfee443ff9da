package osm2lanes

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
)

func TestClassifyMovement(t *testing.T) {
	east := orb.Point{1, 0}
	assert.Equal(t, MOVEMENT_THRU, classifyMovement(east, orb.Point{1, 0.2}))
	assert.Equal(t, MOVEMENT_LEFT, classifyMovement(east, orb.Point{0, 1}))
	assert.Equal(t, MOVEMENT_RIGHT, classifyMovement(east, orb.Point{0, -1}))
	assert.Equal(t, MOVEMENT_U_TURN, classifyMovement(east, orb.Point{-1, 0}))
	assert.Equal(t, "uturn", MOVEMENT_U_TURN.String())
}

func TestCompositeMovement(t *testing.T) {
	assert.Equal(t, MOVEMENT_NBT, compositeMovement(orb.Point{0, 1}, MOVEMENT_THRU))
	assert.Equal(t, MOVEMENT_SBL, compositeMovement(orb.Point{0, -1}, MOVEMENT_LEFT))
	assert.Equal(t, MOVEMENT_WBR, compositeMovement(orb.Point{-1, 0}, MOVEMENT_RIGHT))
	assert.Equal(t, MOVEMENT_EBU, compositeMovement(orb.Point{1, 0}, MOVEMENT_U_TURN))
	assert.Equal(t, MOVEMENT_NONE, compositeMovement(orb.Point{1, 0}, MOVEMENT_UNDEFINED))
	assert.Equal(t, "EBL", MOVEMENT_EBL.String())
}
