package choreo

import "math"

// NumLightSegments is the number of individually addressable segments on
// the robot's light ring.
const NumLightSegments = 6

// Action is one step of a choreography. It is a closed sum type: the only
// implementations are Move, SetLights and Finished, and consumers are
// expected to switch exhaustively over them.
type Action interface {
	isAction()
}

// Move commands the drive base.
//
// Linear is the forward (positive) / backward (negative) speed in m/s.
// Angular is the counter-clockwise (positive) / clockwise (negative)
// rotation rate in rad/s. Scripts author the angular rate in degrees per
// second; NewMove converts once at construction so nothing pays for the
// conversion per tick.
type Move struct {
	Linear  float64
	Angular float64
}

func (Move) isAction() {}

// NewMove builds a Move from authoring units.
//
// Parameters:
//   - linearMS: forward speed in m/s
//   - angularDegS: rotation rate in degrees per second
func NewMove(linearMS, angularDegS float64) Move {
	return Move{
		Linear:  linearMS,
		Angular: angularDegS * math.Pi / 180,
	}
}

// SetLights commands the light ring, one colour per segment.
type SetLights struct {
	Colors [NumLightSegments]Color
}

func (SetLights) isAction() {}

// SolidLights returns a SetLights action with every segment set to the
// same colour.
func SolidLights(c Color) SetLights {
	var a SetLights
	for i := range a.Colors {
		a.Colors[i] = c
	}
	return a
}

// Finished marks the end of a performance. Folding it resets the outputs
// to neutral: zero velocity and a light ring with the override disabled.
// Multiple Finished steps are harmless; the reset is idempotent.
type Finished struct{}

func (Finished) isAction() {}
