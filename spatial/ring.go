package spatial

import (
	"fmt"
	"math"

	"github.com/AlloSphere-Research-Group/polysynth"
)

// RingPanner amplitude-pans each voice between the two speakers adjacent to
// its azimuth, the horizontal-ring form of vector base amplitude panning.
// The signal always comes from at most two channels, keeping sources sharp
// on dense layouts.
type RingPanner struct {
	layout   Layout
	ring     Layout // sorted by azimuth at compile time
	compiled bool
	scratch  []float32
}

func NewRingPanner(layout Layout) *RingPanner {
	return &RingPanner{layout: layout}
}

func (r *RingPanner) Compile() error {
	if r.compiled {
		return nil
	}
	if err := r.layout.Validate(); err != nil {
		return err
	}
	if len(r.layout) < 2 {
		return fmt.Errorf("ring panner needs at least 2 speakers, layout has %d", len(r.layout))
	}
	ring := make(Layout, len(r.layout))
	copy(ring, r.layout)
	for i := range ring {
		ring[i].Azimuth = wrapAngle(ring[i].Azimuth)
	}
	r.ring = ring.sortedByAzimuth()
	r.scratch = make([]float32, maxBlockFrames)
	r.compiled = true
	return nil
}

func (r *RingPanner) Prepare(ctx *polysynth.RenderContext) {
	zeroOut(ctx)
}

func (r *RingPanner) RenderBuffer(ctx *polysynth.RenderContext, pose polysynth.Pose, src []float32) {
	az := wrapAngle(pose.Azimuth())
	lo, hi := r.pair(az)
	span := wrapPositive(r.ring[hi].Azimuth - r.ring[lo].Azimuth)
	frac := wrapPositive(az-r.ring[lo].Azimuth) / span
	angle := float64(frac) * math.Pi / 2
	accumulate(ctx, r.scratch, src, r.ring[lo].Channel, float32(math.Cos(angle)))
	accumulate(ctx, r.scratch, src, r.ring[hi].Channel, float32(math.Sin(angle)))
}

func (r *RingPanner) Finalize(ctx *polysynth.RenderContext) {}

// pair returns the indices of the ring speakers bracketing azimuth az,
// wrapping around the back of the ring.
func (r *RingPanner) pair(az float32) (lo, hi int) {
	for i := 0; i < len(r.ring); i++ {
		next := (i + 1) % len(r.ring)
		a, b := r.ring[i].Azimuth, r.ring[next].Azimuth
		if b <= a { // the wrap segment
			if az >= a || az < b {
				return i, next
			}
			continue
		}
		if az >= a && az < b {
			return i, next
		}
	}
	return len(r.ring) - 1, 0
}

// wrapAngle maps an angle into [-pi, pi).
func wrapAngle(a float32) float32 {
	x := math.Mod(float64(a)+math.Pi, 2*math.Pi)
	if x < 0 {
		x += 2 * math.Pi
	}
	return float32(x - math.Pi)
}

// wrapPositive maps an angle difference into [0, 2*pi).
func wrapPositive(a float32) float32 {
	x := math.Mod(float64(a), 2*math.Pi)
	if x < 0 {
		x += 2 * math.Pi
	}
	return float32(x)
}
