package seq

import (
	"io"

	"github.com/AlloSphere-Research-Group/polysynth/engine"
)

// Recorder observes every trigger-on and trigger-off of a pool and turns
// them back into a Sequence: paired events become timed "@" lines, voices
// still sounding at Stop stay open-ended. Attach it as the pool's observer;
// it runs on the rendering goroutine and only appends to its own slices.
type Recorder struct {
	recording  bool
	startFrame int64
	started    bool
	sampleRate int
	events     []recorded
	open       map[int]int // live key -> index into events
}

type recorded struct {
	voice    string
	onFrame  int64
	offFrame int64 // -1 while sounding
	key      int
	fields   []float32
}

func NewRecorder(sampleRate int) *Recorder {
	return &Recorder{sampleRate: sampleRate, open: make(map[int]int)}
}

// Observe is the pool observer hook. The first trigger-on after Start
// anchors time zero, so recordings begin at the first note like a recorder
// armed and waiting.
func (r *Recorder) Observe(ev engine.TriggerEvent) {
	if !r.recording {
		return
	}
	if ev.On {
		if !r.started {
			r.started = true
			r.startFrame = ev.Frame
		}
		fields := make([]float32, len(ev.Fields))
		copy(fields, ev.Fields)
		r.open[ev.Key] = len(r.events)
		r.events = append(r.events, recorded{
			voice:    ev.Voice,
			onFrame:  ev.Frame - r.startFrame,
			offFrame: -1,
			key:      ev.Key,
			fields:   fields,
		})
		return
	}
	if !r.started {
		return
	}
	if idx, ok := r.open[ev.Key]; ok {
		r.events[idx].offFrame = ev.Frame - r.startFrame
		delete(r.open, ev.Key)
	}
}

// Start arms the recorder, clearing any previous take.
func (r *Recorder) Start() {
	r.recording = true
	r.started = false
	r.events = r.events[:0]
	r.open = make(map[int]int)
}

// Stop disarms the recorder. Events still open keep their open-ended form.
func (r *Recorder) Stop() {
	r.recording = false
}

// Recording reports whether the recorder is armed.
func (r *Recorder) Recording() bool { return r.recording }

// Len returns the number of captured events.
func (r *Recorder) Len() int { return len(r.events) }

// Sequence converts the take into a playable, serializable Sequence.
func (r *Recorder) Sequence() *Sequence {
	sr := float64(r.sampleRate)
	seq := &Sequence{Events: make([]Event, 0, len(r.events))}
	for i, e := range r.events {
		ev := Event{
			Voice:    e.voice,
			Time:     float64(e.onFrame) / sr,
			Duration: -1,
			ID:       i + 1,
			Fields:   e.fields,
		}
		if e.offFrame >= 0 {
			ev.Duration = float64(e.offFrame-e.onFrame) / sr
		}
		seq.Events = append(seq.Events, ev)
	}
	seq.Sort()
	return seq
}

// Write serializes the take in the text sequence format.
func (r *Recorder) Write(w io.Writer) error {
	return Write(w, r.Sequence())
}

// Replay plays the take back through a sequencer against the same or
// another pool.
func (r *Recorder) Replay(s *Sequencer) error {
	return s.PlaySequence(r.Sequence())
}
