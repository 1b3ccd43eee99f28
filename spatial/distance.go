package spatial

import (
	"math"

	"github.com/AlloSphere-Research-Group/polysynth"
)

// DistancePanner weights every speaker by the inverse of its distance to
// the source, normalized so the gains sum to unit power. Sources spread
// over the whole layout and fade with distance, which suits diffuse scenes
// better than sharp panning.
type DistancePanner struct {
	layout   Layout
	pos      [][3]float32 // speaker positions, computed at compile time
	gains    []float32
	compiled bool
	scratch  []float32

	// Rolloff is the distance exponent, 1 by default. Higher values focus
	// the source harder on the nearest speakers.
	Rolloff float32
}

func NewDistancePanner(layout Layout) *DistancePanner {
	return &DistancePanner{layout: layout, Rolloff: 1}
}

func (d *DistancePanner) Compile() error {
	if d.compiled {
		return nil
	}
	if err := d.layout.Validate(); err != nil {
		return err
	}
	d.pos = make([][3]float32, len(d.layout))
	for i, s := range d.layout {
		x, y, z := s.position()
		d.pos[i] = [3]float32{x, y, z}
	}
	d.gains = make([]float32, len(d.layout))
	d.scratch = make([]float32, maxBlockFrames)
	d.compiled = true
	return nil
}

func (d *DistancePanner) Prepare(ctx *polysynth.RenderContext) {
	zeroOut(ctx)
}

func (d *DistancePanner) RenderBuffer(ctx *polysynth.RenderContext, pose polysynth.Pose, src []float32) {
	const minDist = 1e-3
	var sumSq float64
	for i, p := range d.pos {
		dx := pose.X - p[0]
		dy := pose.Y - p[1]
		dz := pose.Z - p[2]
		dist := math.Sqrt(float64(dx*dx + dy*dy + dz*dz))
		if dist < minDist {
			dist = minDist
		}
		g := math.Pow(dist, -float64(d.Rolloff))
		d.gains[i] = float32(g)
		sumSq += g * g
	}
	norm := float32(1 / math.Sqrt(sumSq))
	for i, s := range d.layout {
		accumulate(ctx, d.scratch, src, s.Channel, d.gains[i]*norm)
	}
}

func (d *DistancePanner) Finalize(ctx *polysynth.RenderContext) {}
