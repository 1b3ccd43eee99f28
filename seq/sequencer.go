package seq

import (
	"fmt"

	"github.com/AlloSphere-Research-Group/polysynth"
	"github.com/AlloSphere-Research-Group/polysynth/engine"
)

// Sequencer keys live far above MIDI note range so sequenced voices never
// collide with live-triggered ones on the same pool.
const keyBase = 1 << 20

// Sequencer plays a Sequence against a Pool with sample accuracy: the block
// is split at event boundaries so a trigger lands on its exact frame, the
// way a row-based player subdivides its render loop.
type Sequencer struct {
	pool    *engine.Pool
	actions []action
	next    int
	frame   int64
	playing bool
	skipped int
}

type action struct {
	frame  int64
	on     bool
	key    int
	voice  string
	fields []float32
}

func NewSequencer(pool *engine.Pool) *Sequencer {
	return &Sequencer{pool: pool}
}

// PlaySequence schedules seq from the next rendered frame. Events naming
// unregistered voice types or carrying the wrong field count are counted and
// skipped at trigger time, never aborting playback.
func (s *Sequencer) PlaySequence(seq *Sequence) error {
	sr := float64(s.pool.SampleRate())
	s.actions = s.actions[:0]
	for i, e := range seq.Events {
		// even keys for indexed events, odd for ID'd ones, so an event's
		// index can never collide with another event's ID
		key := keyBase + 2*i
		if e.Duration < 0 && e.ID != 0 {
			key = keyBase + 2*e.ID + 1
		}
		s.actions = append(s.actions, action{
			frame:  int64(e.Time * sr),
			on:     true,
			key:    key,
			voice:  e.Voice,
			fields: e.Fields,
		})
		if e.Duration >= 0 {
			s.actions = append(s.actions, action{
				frame: int64((e.Time + e.Duration) * sr),
				key:   key,
			})
		}
	}
	sortActions(s.actions)
	s.next = 0
	s.frame = 0
	s.skipped = 0
	s.playing = true
	return nil
}

// Playing reports whether scheduled events remain or scheduled voices are
// still sounding.
func (s *Sequencer) Playing() bool {
	return s.playing && (s.next < len(s.actions) || s.pool.ActiveCount() > 0)
}

// Skipped returns how many events were dropped for naming an unknown voice
// type or failing parameter-field validation.
func (s *Sequencer) Skipped() int { return s.skipped }

// Stop discards pending events. Sounding voices keep releasing normally.
func (s *Sequencer) Stop() {
	s.playing = false
	s.next = len(s.actions)
}

// RenderAudio renders one block, applying due events on their exact frame.
// The caller still owns the spatializer bracket: Prepare before, Finalize
// after, once per block.
func (s *Sequencer) RenderAudio(ctx *polysynth.RenderContext) {
	frames := ctx.Frames
	offset := 0
	sub := *ctx
	for offset < frames {
		for s.next < len(s.actions) && s.actions[s.next].frame <= s.frame {
			s.apply(s.actions[s.next])
			s.next++
		}
		n := frames - offset
		if s.next < len(s.actions) {
			if d := s.actions[s.next].frame - s.frame; d < int64(n) {
				n = int(d)
			}
		}
		sub.Frames = n
		sub.Offset = ctx.Offset + offset
		s.pool.RenderAudio(&sub)
		offset += n
		s.frame += int64(n)
	}
}

func (s *Sequencer) apply(a action) {
	if !a.on {
		s.pool.TriggerOff(a.key)
		return
	}
	if !s.pool.Registered(a.voice) {
		s.skipped++
		return
	}
	v, err := s.pool.Acquire(a.voice)
	if err != nil {
		s.skipped++
		return
	}
	if !v.SetParamFields(a.fields) {
		s.skipped++
		return
	}
	if err := s.pool.TriggerOn(v, 0, a.key); err != nil {
		s.skipped++
	}
}

// sortActions orders by frame, offs before ons on the same frame so a
// retriggered key releases before it restarts.
func sortActions(actions []action) {
	// insertion sort keeps equal-frame input order otherwise; action lists
	// are built mostly sorted already
	for i := 1; i < len(actions); i++ {
		for j := i; j > 0 && less(actions[j], actions[j-1]); j-- {
			actions[j], actions[j-1] = actions[j-1], actions[j]
		}
	}
}

func less(a, b action) bool {
	if a.frame != b.frame {
		return a.frame < b.frame
	}
	return !a.on && b.on
}

// Render plays a whole sequence offline into freshly allocated output
// channels, bracketing the spatializer per block. Used for file export and
// tests; real-time playback goes through the player.
func Render(pool *engine.Pool, spat polysynth.Spatializer, seq *Sequence, channels, blockFrames int) ([][]float32, error) {
	if spat != nil {
		if err := spat.Compile(); err != nil {
			return nil, fmt.Errorf("compiling spatializer: %w", err)
		}
	}
	s := NewSequencer(pool)
	if err := s.PlaySequence(seq); err != nil {
		return nil, err
	}
	sr := pool.SampleRate()
	out := make([][]float32, channels)
	block := polysynth.NewOutputBuffer(channels, blockFrames)
	ctx := &polysynth.RenderContext{
		SampleRate:  sr,
		Frames:      blockFrames,
		Out:         block,
		Spatializer: spat,
	}
	for s.Playing() {
		if spat != nil {
			spat.Prepare(ctx)
		} else {
			polysynth.ZeroOutput(block)
		}
		s.RenderAudio(ctx)
		if spat != nil {
			spat.Finalize(ctx)
		}
		for c := range out {
			out[c] = append(out[c], block[c]...)
		}
	}
	return out, nil
}
