package polysynth

import (
	"fmt"
	"io"
	"math"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// WriteWav writes an interleaved buffer as a 16-bit PCM wav file. Samples
// outside [-1, 1] are clipped.
func WriteWav(w io.WriteSeeker, buf []float32, channels, sampleRate int) error {
	enc := wav.NewEncoder(w, sampleRate, 16, channels, 1)
	intBuf := &audio.IntBuffer{
		Format: &audio.Format{
			NumChannels: channels,
			SampleRate:  sampleRate,
		},
		Data:           make([]int, len(buf)),
		SourceBitDepth: 16,
	}
	for i, v := range buf {
		if v > 1 {
			v = 1
		} else if v < -1 {
			v = -1
		}
		intBuf.Data[i] = int(v * math.MaxInt16)
	}
	if err := enc.Write(intBuf); err != nil {
		return fmt.Errorf("writing wav data: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("finalizing wav file: %w", err)
	}
	return nil
}
