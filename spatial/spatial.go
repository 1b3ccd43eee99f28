package spatial

import (
	"fmt"

	"github.com/AlloSphere-Research-Group/polysynth"
)

// New builds a spatializer strategy by name, the runtime selection used at
// startup instead of a compile-time switch. Known names: "stereo", "ring",
// "distance", "ambisonic".
func New(name string, layout Layout) (polysynth.Spatializer, error) {
	switch name {
	case "stereo":
		return NewStereoPanner(layout), nil
	case "ring":
		return NewRingPanner(layout), nil
	case "distance":
		return NewDistancePanner(layout), nil
	case "ambisonic":
		return NewAmbisonic(layout), nil
	}
	return nil, fmt.Errorf("unknown spatializer %q", name)
}
