// Package spatial implements the spatializer strategies that distribute a
// voice's mono bus over a speaker layout: a stereo panner, an amplitude
// panning ring, an inverse-distance panner and a first-order ambisonic
// encoder/decoder. All of them share the polysynth.Spatializer contract and
// are chosen once at startup.
package spatial

import (
	"fmt"
	"io"
	"math"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// Speaker describes one output channel of a layout.
type Speaker struct {
	Channel   int     `yaml:"channel"`
	Azimuth   float32 `yaml:"azimuth"` // radians, 0 ahead, positive right
	Elevation float32 `yaml:"elevation,omitempty"`
	Radius    float32 `yaml:"radius,omitempty"`
}

// Layout is an ordered list of speakers. Channel indices must be unique;
// azimuth order does not matter, panners sort what they need at compile
// time.
type Layout []Speaker

// StereoLayout is a standard stereo pair at ±30 degrees.
func StereoLayout() Layout {
	const az = 30 * math.Pi / 180
	return Layout{
		{Channel: 0, Azimuth: -az, Radius: 1},
		{Channel: 1, Azimuth: az, Radius: 1},
	}
}

// RingLayout places n speakers evenly on a horizontal circle, the first one
// straight ahead.
func RingLayout(n int, radius float32) Layout {
	l := make(Layout, n)
	for i := range l {
		l[i] = Speaker{
			Channel: i,
			Azimuth: float32(2 * math.Pi * float64(i) / float64(n)),
			Radius:  radius,
		}
	}
	return l
}

// Channels returns the number of output channels the layout addresses.
func (l Layout) Channels() int {
	max := 0
	for _, s := range l {
		if s.Channel+1 > max {
			max = s.Channel + 1
		}
	}
	return max
}

// Validate checks that the layout is non-empty and channel indices are
// unique and non-negative.
func (l Layout) Validate() error {
	if len(l) == 0 {
		return fmt.Errorf("layout has no speakers")
	}
	seen := make(map[int]bool, len(l))
	for _, s := range l {
		if s.Channel < 0 {
			return fmt.Errorf("speaker channel %d is negative", s.Channel)
		}
		if seen[s.Channel] {
			return fmt.Errorf("speaker channel %d appears twice", s.Channel)
		}
		seen[s.Channel] = true
	}
	return nil
}

// position returns the speaker's cartesian position, defaulting the radius
// to the unit circle.
func (s Speaker) position() (x, y, z float32) {
	r := s.Radius
	if r == 0 {
		r = 1
	}
	cosEl := float32(math.Cos(float64(s.Elevation)))
	x = r * cosEl * float32(math.Sin(float64(s.Azimuth)))
	y = r * float32(math.Sin(float64(s.Elevation)))
	z = -r * cosEl * float32(math.Cos(float64(s.Azimuth)))
	return x, y, z
}

// sortedByAzimuth returns a copy of the layout ordered by azimuth, the form
// ring panners pair speakers in.
func (l Layout) sortedByAzimuth() Layout {
	c := make(Layout, len(l))
	copy(c, l)
	sort.Slice(c, func(i, j int) bool { return c[i].Azimuth < c[j].Azimuth })
	return c
}

// ReadLayout parses a YAML speaker layout.
func ReadLayout(r io.Reader) (Layout, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading layout: %w", err)
	}
	var l Layout
	if err := yaml.Unmarshal(b, &l); err != nil {
		return nil, fmt.Errorf("parsing layout: %w", err)
	}
	if err := l.Validate(); err != nil {
		return nil, err
	}
	return l, nil
}

// LoadLayout reads a YAML speaker layout from a file.
func LoadLayout(path string) (Layout, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening layout file: %w", err)
	}
	defer f.Close()
	return ReadLayout(f)
}

// WriteLayout serializes a layout as YAML.
func WriteLayout(w io.Writer, l Layout) error {
	b, err := yaml.Marshal(l)
	if err != nil {
		return fmt.Errorf("marshaling layout: %w", err)
	}
	if _, err := w.Write(b); err != nil {
		return fmt.Errorf("writing layout: %w", err)
	}
	return nil
}
