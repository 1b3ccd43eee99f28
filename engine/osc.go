package engine

import "math"

// Phasor is the phase accumulator shared by all tone sources. SetFreq never
// resets the phase, so frequency changes on a sounding voice glide without
// clicks.
type Phasor struct {
	sampleRate float32
	freq       float32
	delta      float32
	phase      float32
}

func (p *Phasor) Init(sampleRate int) {
	p.sampleRate = float32(sampleRate)
	if p.freq != 0 {
		p.delta = p.freq / p.sampleRate
	}
}

// SetFreq sets the oscillator frequency in Hz, clamping at the Nyquist
// limit. Phase is preserved.
func (p *Phasor) SetFreq(freq float32) {
	if nyquist := p.sampleRate / 2; p.sampleRate > 0 && freq > nyquist {
		freq = nyquist
	}
	if freq < 0 {
		freq = 0
	}
	p.freq = freq
	if p.sampleRate > 0 {
		p.delta = freq / p.sampleRate
	}
}

func (p *Phasor) Freq() float32 { return p.freq }

func (p *Phasor) next() float32 {
	ph := p.phase
	p.phase += p.delta
	p.phase -= float32(int(p.phase))
	return ph
}

// Sine is a sine wave tone source.
type Sine struct {
	Phasor
}

func (s *Sine) Next() float32 {
	return float32(math.Sin(2 * math.Pi * float64(s.next())))
}

// Trisaw morphs between triangle and sawtooth depending on Color: the wave
// rises for the Color fraction of the cycle and falls for the rest. Zero
// Color means a symmetric triangle.
type Trisaw struct {
	Phasor
	Color float32
}

func (t *Trisaw) Next() float32 {
	phase := t.next()
	color := t.Color
	if color <= 0 {
		color = 0.5
	}
	if phase >= color {
		phase = 1 - phase
		color = 1 - color
	}
	return phase/color*2 - 1
}

// Pulse is a rectangular wave with adjustable duty cycle. Zero Width means a
// square wave.
type Pulse struct {
	Phasor
	Width float32
}

func (p *Pulse) Next() float32 {
	width := p.Width
	if width <= 0 {
		width = 0.5
	}
	if p.next() < width {
		return 1
	}
	return -1
}
