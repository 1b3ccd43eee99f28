// Package polysynth contains the domain types of a polyphonic, spatialized
// software synthesizer: voices with envelope-gated tone sources, a voice pool
// that schedules them, and spatializers that distribute each voice's signal
// over a speaker layout. This package holds only pure types and contracts;
// the engine, spatial, seq, preset and player packages implement them.
package polysynth

import "math"

// Pose is the spatial state of a voice: a position relative to the listener,
// who sits at the origin facing -Z.
type Pose struct {
	X, Y, Z float32
}

// Azimuth returns the horizontal angle of the pose in radians, 0 straight
// ahead, positive to the right.
func (p Pose) Azimuth() float32 {
	return float32(math.Atan2(float64(p.X), float64(-p.Z)))
}

// Distance returns the distance of the pose from the listener.
func (p Pose) Distance() float32 {
	return float32(math.Sqrt(float64(p.X*p.X + p.Y*p.Y + p.Z*p.Z)))
}

// Voice is one schedulable sound-producing unit: an envelope-gated tone
// source with a spatial pose. Voices are constructed once, pooled, and
// retriggered indefinitely; all methods are called from the goroutine that
// renders audio.
type Voice interface {
	// Init prepares the voice for the given sample rate. Called once when
	// the voice is added to a pool, before any trigger.
	Init(sampleRate int)

	// Set assigns the full parameter set. Position, size and frequency take
	// effect immediately even on a sounding voice; attack and release only
	// matter to the envelope and apply on the next trigger.
	Set(x, y, size, freq, attack, release float32)

	// OnTriggerOn is called exactly once per Free->Active transition and
	// must leave the envelope freshly reset.
	OnTriggerOn()

	// OnTriggerOff is called exactly once per explicit release request and
	// must move the envelope into its release segment.
	OnTriggerOff()

	// Done reports whether the envelope has run out, meaning the voice can
	// be reclaimed between blocks.
	Done() bool

	// RenderAudio synthesizes one block into ctx.Bus and forwards the bus
	// to ctx.Spatializer, or to RenderDirect when no spatializer is set.
	RenderAudio(ctx *RenderContext)

	// RenderGraphics appends a proxy shape for the voice's current pose,
	// scaled by its size and current envelope amplitude.
	RenderGraphics(frame *Frame)

	ParamFielder
}

// ParamFielder is the marshaling contract a text-based sequencer relies on:
// the voice's full settable state as a flat, ordered float array.
type ParamFielder interface {
	// ParamFields copies the voice's parameter fields into dst, which must
	// have room for NumParamFields values, and returns the number of fields
	// written. A nil dst just returns the field count.
	ParamFields(dst []float32) int

	// SetParamFields applies a full parameter field array. If the length
	// does not match the voice's field count it returns false and mutates
	// nothing.
	SetParamFields(fields []float32) bool
}

// Spatializer distributes a mono signal into N output channels according to
// a layout-specific law. Implementations precompute their decode
// coefficients in Compile, which must be called before the first block and
// is safe to call more than once. Prepare and Finalize bracket all voice
// rendering for one block and must each be called exactly once per block.
type Spatializer interface {
	Compile() error
	Prepare(ctx *RenderContext)
	RenderBuffer(ctx *RenderContext, pose Pose, src []float32)
	Finalize(ctx *RenderContext)
}

// RenderContext carries the per-block buffers through a render pass. It
// replaces an untyped user-data pointer: voices get compile-time-checked
// access to the optional Spatializer without knowing its concrete type.
type RenderContext struct {
	SampleRate int
	Frames     int

	// Offset is where this render call sits inside the current
	// Prepare/Finalize bracket, in frames. A sequencer splitting a block at
	// event boundaries renders several offset sub-ranges under one bracket;
	// spatializers index their accumulation buffers with it.
	Offset int

	// Bus is the private mono bus of the voice currently rendering. The
	// pool points it at a per-voice buffer before each RenderAudio call.
	Bus []float32

	// Out holds the final output channels, accumulated over all voices.
	Out [][]float32

	// Spatializer receives each voice's bus and pose. Nil means voices
	// fall back to direct one or two channel output.
	Spatializer Spatializer
}
