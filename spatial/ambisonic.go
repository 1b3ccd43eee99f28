package spatial

import (
	"math"

	"github.com/AlloSphere-Research-Group/polysynth"
	"github.com/viterin/vek/vek32"
)

// Ambisonic encodes every voice into first-order horizontal B-format (W, X,
// Y) during rendering and decodes to the speaker layout once per block in
// Finalize. Encoding is per-voice and cheap; the decode matrix multiply
// happens once regardless of voice count.
type Ambisonic struct {
	layout   Layout
	decode   [][3]float32 // per speaker: W, X, Y decode coefficients
	w, x, y  []float32
	compiled bool
	scratch  []float32
}

func NewAmbisonic(layout Layout) *Ambisonic {
	return &Ambisonic{layout: layout}
}

// Compile computes the decode matrix for the layout. Idempotent.
func (a *Ambisonic) Compile() error {
	if a.compiled {
		return nil
	}
	if err := a.layout.Validate(); err != nil {
		return err
	}
	norm := 2 / float32(len(a.layout))
	a.decode = make([][3]float32, len(a.layout))
	for i, s := range a.layout {
		a.decode[i] = [3]float32{
			norm * invSqrt2,
			norm * float32(math.Sin(float64(s.Azimuth))),
			norm * float32(math.Cos(float64(s.Azimuth))),
		}
	}
	a.w = make([]float32, maxBlockFrames)
	a.x = make([]float32, maxBlockFrames)
	a.y = make([]float32, maxBlockFrames)
	a.scratch = make([]float32, maxBlockFrames)
	a.compiled = true
	return nil
}

// Prepare clears the B-format accumulators and the output buffers.
func (a *Ambisonic) Prepare(ctx *polysynth.RenderContext) {
	n := ctx.Frames
	vek32.Zeros_Into(a.w[:n], n)
	vek32.Zeros_Into(a.x[:n], n)
	vek32.Zeros_Into(a.y[:n], n)
	zeroOut(ctx)
}

// RenderBuffer encodes src at the pose's azimuth into the B-format
// accumulators.
func (a *Ambisonic) RenderBuffer(ctx *polysynth.RenderContext, pose polysynth.Pose, src []float32) {
	n, off := ctx.Frames, ctx.Offset
	az := float64(pose.Azimuth())
	encX := float32(math.Sin(az))
	encY := float32(math.Cos(az))
	tmp := vek32.MulNumber_Into(a.scratch[:n], src[:n], invSqrt2)
	vek32.Add_Inplace(a.w[off:off+n], tmp)
	tmp = vek32.MulNumber_Into(a.scratch[:n], src[:n], encX)
	vek32.Add_Inplace(a.x[off:off+n], tmp)
	tmp = vek32.MulNumber_Into(a.scratch[:n], src[:n], encY)
	vek32.Add_Inplace(a.y[off:off+n], tmp)
}

// Finalize decodes the accumulated B-format into the output channels.
func (a *Ambisonic) Finalize(ctx *polysynth.RenderContext) {
	n := ctx.Frames
	for i, s := range a.layout {
		if s.Channel < 0 || s.Channel >= len(ctx.Out) {
			continue
		}
		out := ctx.Out[s.Channel][:n]
		c := a.decode[i]
		tmp := vek32.MulNumber_Into(a.scratch[:n], a.w[:n], c[0])
		vek32.Add_Inplace(out, tmp)
		tmp = vek32.MulNumber_Into(a.scratch[:n], a.x[:n], c[1])
		vek32.Add_Inplace(out, tmp)
		tmp = vek32.MulNumber_Into(a.scratch[:n], a.y[:n], c[2])
		vek32.Add_Inplace(out, tmp)
	}
}

const invSqrt2 = float32(0.70710678118654752)
