// Package oto plays rendered audio through the system output using
// github.com/ebitengine/oto/v3. Oto pulls samples through an io.Reader, so
// the source renders exactly as much audio as the device asks for.
package oto

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/ebitengine/oto/v3"
)

// Source renders interleaved float32 audio on demand. It is called from
// oto's reader goroutine.
type Source interface {
	Process(buf []float32)
}

type Context struct {
	ctx      *oto.Context
	channels int
}

// NewContext initializes the audio device for float32 output. It blocks
// until the context is ready to use.
func NewContext(sampleRate, channels int) (*Context, error) {
	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: channels,
		Format:       oto.FormatFloat32LE,
	})
	if err != nil {
		return nil, fmt.Errorf("cannot create oto context: %w", err)
	}
	<-ready
	return &Context{ctx: ctx, channels: channels}, nil
}

// Play starts pulling audio from the source and returns the running player.
func (c *Context) Play(source Source) *oto.Player {
	player := c.ctx.NewPlayer(&sourceReader{source: source})
	player.Play()
	return player
}

// sourceReader adapts a Source to the byte-oriented io.Reader oto expects,
// converting float32 samples to little-endian bytes.
type sourceReader struct {
	source Source
	buf    []float32
}

func (r *sourceReader) Read(p []byte) (int, error) {
	samples := len(p) / 4
	if samples == 0 {
		return 0, nil
	}
	if cap(r.buf) < samples {
		r.buf = make([]float32, samples)
	}
	r.buf = r.buf[:samples]
	r.source.Process(r.buf)
	for i, v := range r.buf {
		binary.LittleEndian.PutUint32(p[i*4:], math.Float32bits(v))
	}
	return samples * 4, nil
}
