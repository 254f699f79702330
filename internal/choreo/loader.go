package choreo

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// scriptFile is the YAML document shape for authored scripts.
//
// Example:
//
//	name: spin-and-shine
//	steps:
//	  - at: 0.0
//	    move: {linear: 0.2, angular_deg: 0}
//	  - at: 1.0
//	    lights: [red, red, red, red, red, red]
//	  - at: 2.0
//	    finished: true
type scriptFile struct {
	Name  string     `yaml:"name"`
	Steps []stepFile `yaml:"steps"`
}

// stepFile is one authored step. Exactly one of Move, Lights or Finished
// must be set.
type stepFile struct {
	At       float64   `yaml:"at"`
	Move     *moveFile `yaml:"move"`
	Lights   []string  `yaml:"lights"`
	Finished bool      `yaml:"finished"`
}

// moveFile carries drive authoring units: m/s and deg/s.
type moveFile struct {
	Linear     float64 `yaml:"linear"`
	AngularDeg float64 `yaml:"angular_deg"`
}

// LoadScript reads and validates a YAML choreography script.
//
// All validation happens here: offsets are checked by NewScript, light
// steps must name exactly NumLightSegments palette colours, and every
// step must carry exactly one action.
//
// Parameters:
//   - path: path to the script YAML file
//
// Returns:
//   - *Script: the parsed, validated script
//   - string: the script's authored name (file path if unnamed)
//   - error: read/parse failures, or wrapping ErrInvalidScript
func LoadScript(path string) (*Script, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("reading script file: %w", err)
	}

	var file scriptFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, "", fmt.Errorf("parsing script file: %w", err)
	}

	if len(file.Steps) == 0 {
		return nil, "", fmt.Errorf("%w: script has no steps", ErrInvalidScript)
	}

	steps := make([]Step, 0, len(file.Steps))
	for i, sf := range file.Steps {
		action, err := sf.action()
		if err != nil {
			return nil, "", fmt.Errorf("step %d: %w", i, err)
		}
		steps = append(steps, Step{Offset: sf.At, Action: action})
	}

	script, err := NewScript(steps)
	if err != nil {
		return nil, "", err
	}

	name := file.Name
	if name == "" {
		name = path
	}
	return script, name, nil
}

// action converts one authored step to its Action, enforcing that the
// step carries exactly one of the three variants.
func (sf stepFile) action() (Action, error) {
	count := 0
	if sf.Move != nil {
		count++
	}
	if len(sf.Lights) > 0 {
		count++
	}
	if sf.Finished {
		count++
	}
	if count != 1 {
		return nil, fmt.Errorf("%w: step must have exactly one of move, lights or finished", ErrInvalidScript)
	}

	switch {
	case sf.Move != nil:
		return NewMove(sf.Move.Linear, sf.Move.AngularDeg), nil

	case len(sf.Lights) > 0:
		if len(sf.Lights) != NumLightSegments {
			return nil, fmt.Errorf("%w: lights step needs exactly %d colours, got %d",
				ErrInvalidScript, NumLightSegments, len(sf.Lights))
		}
		var a SetLights
		for i, name := range sf.Lights {
			c, err := ColorByName(name)
			if err != nil {
				return nil, err
			}
			a.Colors[i] = c
		}
		return a, nil

	default:
		return Finished{}, nil
	}
}
