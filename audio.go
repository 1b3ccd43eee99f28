package polysynth

import "math"

const sqrtHalf = float32(0.70710678118654752)

// NewOutputBuffer allocates channel-major output buffers for one block.
func NewOutputBuffer(channels, frames int) [][]float32 {
	out := make([][]float32, channels)
	for i := range out {
		out[i] = make([]float32, frames)
	}
	return out
}

// ZeroOutput clears all output channels in place.
func ZeroOutput(out [][]float32) {
	for _, ch := range out {
		for i := range ch {
			ch[i] = 0
		}
	}
}

// RenderDirect accumulates src into the first one or two output channels at
// equal power. It is the degenerate path for a voice rendering without a
// spatializer.
func RenderDirect(ctx *RenderContext, src []float32) {
	if len(ctx.Out) == 0 {
		return
	}
	n, off := ctx.Frames, ctx.Offset
	if len(ctx.Out) == 1 {
		ch := ctx.Out[0][off:]
		for i := 0; i < n; i++ {
			ch[i] += src[i]
		}
		return
	}
	l, r := ctx.Out[0][off:], ctx.Out[1][off:]
	for i := 0; i < n; i++ {
		s := src[i] * sqrtHalf
		l[i] += s
		r[i] += s
	}
}

// Interleave packs channel-major buffers into a single interleaved buffer,
// the layout audio sinks expect. dst must hold frames*len(out) samples.
func Interleave(dst []float32, out [][]float32, frames int) {
	channels := len(out)
	for i := 0; i < frames; i++ {
		for c := 0; c < channels; c++ {
			dst[i*channels+c] = out[c][i]
		}
	}
}

// Peak returns the largest absolute sample value over all channels.
func Peak(out [][]float32) float32 {
	var peak float32
	for _, ch := range out {
		for _, s := range ch {
			if a := float32(math.Abs(float64(s))); a > peak {
				peak = a
			}
		}
	}
	return peak
}
