// Package engine implements the synthesis core: envelopes, tone sources,
// concrete voices and the polyphonic voice pool. Everything here runs in the
// audio domain; nothing allocates or blocks once a pool is built.
package engine

const numSegments = 3

// Envelope produces a per-sample linear amplitude trajectory over three
// segments, conventionally attack, decay and release. Each segment has a
// duration in seconds and a target level reached at its end; amplitude
// starts from zero. An optional sustain point holds the envelope at the end
// of that segment until Release.
type Envelope struct {
	sampleRate float32
	lengths    [numSegments]float32
	levels     [numSegments]float32
	sustain    int // sustain segment index plus one; zero means no sustain

	seg      int
	pos      int
	segStart float32
	value    float32
	holding  bool
	released bool
	done     bool
}

// Init sets the sample rate and restarts the envelope. Lengths, levels and
// the sustain point survive Init.
func (e *Envelope) Init(sampleRate int) {
	e.sampleRate = float32(sampleRate)
	e.Reset()
}

// Lengths sets the three segment durations in seconds.
func (e *Envelope) Lengths(a, b, c float32) {
	e.lengths = [numSegments]float32{a, b, c}
}

// SetLength replaces the duration of one segment. Takes effect the next time
// the envelope enters that segment.
func (e *Envelope) SetLength(i int, secs float32) {
	e.lengths[i] = secs
}

func (e *Envelope) Length(i int) float32 { return e.lengths[i] }

// Levels sets the target amplitude reached at the end of each segment.
func (e *Envelope) Levels(l0, l1, l2 float32) {
	e.levels = [numSegments]float32{l0, l1, l2}
}

// SustainPoint marks segment i as the hold point: once the envelope reaches
// the level at the end of segment i, it holds there until Release. A
// negative index disables sustain, letting the envelope run to completion on
// its own.
func (e *Envelope) SustainPoint(i int) {
	if i < 0 || i >= numSegments {
		e.sustain = 0
		return
	}
	e.sustain = i + 1
}

// Reset restarts the envelope at segment 0 from zero amplitude, regardless
// of its current state.
func (e *Envelope) Reset() {
	e.seg = 0
	e.pos = 0
	e.segStart = 0
	e.value = 0
	e.holding = false
	e.released = false
	e.done = false
}

// Release forces the envelope into the final segment from its current
// level. Valid from any segment: releasing mid-attack skips whatever was
// left of the earlier segments. Releasing a finished envelope is a no-op.
func (e *Envelope) Release() {
	if e.done || e.released {
		e.released = true
		return
	}
	e.released = true
	e.holding = false
	last := numSegments - 1
	if e.seg != last {
		e.seg = last
		e.segStart = e.value
		e.pos = 0
	}
}

// Done reports whether the final segment has completed. It stays true until
// Reset.
func (e *Envelope) Done() bool { return e.done }

// Value returns the current amplitude without advancing the envelope.
func (e *Envelope) Value() float32 { return e.value }

// Next returns the current amplitude and advances the envelope by one
// sample. Zero-length segments complete immediately.
func (e *Envelope) Next() float32 {
	if e.done || e.holding {
		return e.value
	}
	segSamples := int(e.lengths[e.seg]*e.sampleRate + 0.5)
	for e.pos >= segSamples {
		e.value = e.levels[e.seg]
		if e.seg == e.sustain-1 && !e.released {
			e.holding = true
			return e.value
		}
		e.seg++
		e.segStart = e.value
		e.pos = 0
		if e.seg >= numSegments {
			e.done = true
			return e.value
		}
		segSamples = int(e.lengths[e.seg]*e.sampleRate + 0.5)
	}
	t := float32(e.pos) / float32(segSamples)
	e.value = e.segStart + (e.levels[e.seg]-e.segStart)*t
	e.pos++
	return e.value
}
