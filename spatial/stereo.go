package spatial

import (
	"fmt"
	"math"

	"github.com/AlloSphere-Research-Group/polysynth"
	"github.com/viterin/vek/vek32"
)

// StereoPanner pans each voice between a speaker pair with a constant-power
// law on the pose's azimuth. Poses beyond the pair's aperture clamp to the
// nearer speaker.
type StereoPanner struct {
	layout   Layout
	left     Speaker
	right    Speaker
	compiled bool
	scratch  []float32
}

func NewStereoPanner(layout Layout) *StereoPanner {
	return &StereoPanner{layout: layout}
}

// Compile validates the pair and allocates the render scratch. Idempotent.
func (s *StereoPanner) Compile() error {
	if s.compiled {
		return nil
	}
	if err := s.layout.Validate(); err != nil {
		return err
	}
	if len(s.layout) != 2 {
		return fmt.Errorf("stereo panner needs exactly 2 speakers, layout has %d", len(s.layout))
	}
	sorted := s.layout.sortedByAzimuth()
	s.left, s.right = sorted[0], sorted[1]
	s.scratch = make([]float32, maxBlockFrames)
	s.compiled = true
	return nil
}

// Prepare clears the output accumulation buffers for a new block.
func (s *StereoPanner) Prepare(ctx *polysynth.RenderContext) {
	zeroOut(ctx)
}

func (s *StereoPanner) RenderBuffer(ctx *polysynth.RenderContext, pose polysynth.Pose, src []float32) {
	az := pose.Azimuth()
	// normalized pan position 0..1 across the pair
	span := s.right.Azimuth - s.left.Azimuth
	pan := (az - s.left.Azimuth) / span
	if pan < 0 {
		pan = 0
	} else if pan > 1 {
		pan = 1
	}
	angle := float64(pan) * math.Pi / 2
	gainL := float32(math.Cos(angle))
	gainR := float32(math.Sin(angle))
	accumulate(ctx, s.scratch, src, s.left.Channel, gainL)
	accumulate(ctx, s.scratch, src, s.right.Channel, gainR)
}

// Finalize is a no-op for the stereo panner; everything was accumulated in
// RenderBuffer.
func (s *StereoPanner) Finalize(ctx *polysynth.RenderContext) {}

const maxBlockFrames = 8192

func zeroOut(ctx *polysynth.RenderContext) {
	for _, ch := range ctx.Out {
		vek32.Zeros_Into(ch, len(ch))
	}
}

// accumulate adds src scaled by gain into output channel ch, skipping
// channels the context does not carry.
func accumulate(ctx *polysynth.RenderContext, scratch, src []float32, ch int, gain float32) {
	if ch < 0 || ch >= len(ctx.Out) || gain == 0 {
		return
	}
	n, off := ctx.Frames, ctx.Offset
	tmp := vek32.MulNumber_Into(scratch[:n], src[:n], gain)
	vek32.Add_Inplace(ctx.Out[ch][off:off+n], tmp)
}
