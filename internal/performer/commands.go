package performer

import (
	"time"

	"github.com/roverworks/choreod/internal/choreo"
)

// VelocityCommand is the wire form of a drive command on rover/cmd/cmd_vel.
//
// Linear is the forward speed in m/s, Angular the counter-clockwise
// rotation rate in rad/s.
type VelocityCommand struct {
	Linear  float64 `json:"linear"`
	Angular float64 `json:"angular"`
}

// LightRingCommand is the wire form of a light ring command on
// rover/cmd/cmd_lightring.
//
// Override reports whether the scripted colours replace the robot's own
// light pattern; with Override false the robot is back in control and
// Colors are ignored. Stamp is set to the tick time on every publish,
// even when the rest of the command is unchanged.
type LightRingCommand struct {
	Override bool                                  `json:"override"`
	Stamp    time.Time                             `json:"stamp"`
	Colors   [choreo.NumLightSegments]choreo.Color `json:"colors"`
}

// NeutralVelocity returns the idle drive command: full stop.
func NeutralVelocity() VelocityCommand {
	return VelocityCommand{}
}

// NeutralLightRing returns the idle light command: override disabled,
// handing the ring back to the robot.
func NeutralLightRing() LightRingCommand {
	return LightRingCommand{}
}
