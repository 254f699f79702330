package choreo

import "fmt"

// Color is an RGB triple with 8-bit channels, matching the light ring's
// per-segment colour depth.
type Color struct {
	R uint8 `json:"r" yaml:"r"`
	G uint8 `json:"g" yaml:"g"`
	B uint8 `json:"b" yaml:"b"`
}

// Frequently used colours for script authoring.
var (
	Red    = Color{R: 255}
	Green  = Color{G: 255}
	Blue   = Color{B: 255}
	Yellow = Color{R: 255, G: 255}
	Pink   = Color{R: 255, B: 255}
	Cyan   = Color{G: 255, B: 255}
	Purple = Color{R: 127, B: 255}
	White  = Color{R: 255, G: 255, B: 255}
	Grey   = Color{R: 189, G: 189, B: 189}
	Black  = Color{}
)

// palette maps authoring names (as used in script YAML) to colours.
var palette = map[string]Color{
	"red":    Red,
	"green":  Green,
	"blue":   Blue,
	"yellow": Yellow,
	"pink":   Pink,
	"cyan":   Cyan,
	"purple": Purple,
	"white":  White,
	"grey":   Grey,
	"gray":   Grey,
	"black":  Black,
	"off":    Black,
}

// ColorByName resolves an authoring name to a palette colour.
//
// Returns:
//   - Color: the named colour
//   - error: wrapping ErrInvalidScript if the name is unknown
func ColorByName(name string) (Color, error) {
	c, ok := palette[name]
	if !ok {
		return Color{}, fmt.Errorf("%w: unknown colour %q", ErrInvalidScript, name)
	}
	return c, nil
}
