package engine

import (
	"fmt"

	"github.com/AlloSphere-Research-Group/polysynth"
)

// VoiceState is the lifecycle state of a pooled voice.
type VoiceState int

const (
	Free VoiceState = iota
	Active
	Releasing
)

// TriggerEvent describes one trigger-on or trigger-off as observed by a
// recorder. Fields aliases a pool-internal scratch buffer and is only valid
// during the observer call; observers must copy what they keep.
type TriggerEvent struct {
	On     bool
	Key    int
	Voice  string
	Frame  int64
	Fields []float32
}

// Pool owns a fixed set of voices, hands out free ones on trigger, tracks
// active voices by key and routes per-block render calls. All voices and
// buses are allocated up front; trigger and render operations only touch
// pointer-stable slots, so the audio domain never allocates.
//
// When a voice type runs out of free slots, Acquire steals the slot longest
// since its last trigger event, preferring voices already released. The
// stolen voice's release is truncated; the alternative, dropping the new
// trigger, loses the newest note instead of the stalest one.
//
// The pool is not internally synchronized: all methods must be called from
// the goroutine driving rendering. Cross-domain triggering goes through the
// player's message channels.
type Pool struct {
	sampleRate int
	perType    int
	slots      []*slot
	slotOf     map[polysynth.Voice]*slot
	factories  map[string]func() polysynth.Voice
	buses      [][]float32
	frame      int64
	fieldsBuf  [maxParamFields]float32

	// Observer, when set, sees every trigger-on and trigger-off with its
	// timestamp and parameter fields.
	Observer func(TriggerEvent)
}

type slot struct {
	voice     polysynth.Voice
	typeName  string
	state     VoiceState
	key       int
	bus       int
	lastEvent int64
}

const (
	defaultVoicesPerType = 16
	maxParamFields       = 16
	maxBlockFrames       = 8192
)

// NewPool creates a pool rendering at the given sample rate with numBuses
// private voice buses. Buses are sized for the largest supported block.
func NewPool(sampleRate, numBuses int) *Pool {
	if numBuses < 1 {
		numBuses = 1
	}
	buses := make([][]float32, numBuses)
	for i := range buses {
		buses[i] = make([]float32, maxBlockFrames)
	}
	return &Pool{
		sampleRate: sampleRate,
		perType:    defaultVoicesPerType,
		slotOf:     make(map[polysynth.Voice]*slot),
		factories:  make(map[string]func() polysynth.Voice),
		buses:      buses,
	}
}

// SetVoicesPerType sets how many voices Register pre-allocates per type.
// Only affects types registered afterwards.
func (p *Pool) SetVoicesPerType(n int) {
	if n > 0 {
		p.perType = n
	}
}

// Register associates a voice type with a string name, so a text-described
// event can instantiate it, and pre-allocates the type's voice slots.
func (p *Pool) Register(name string, factory func() polysynth.Voice) error {
	if _, ok := p.factories[name]; ok {
		return fmt.Errorf("voice type %q already registered", name)
	}
	probe := factory()
	if n := probe.ParamFields(nil); n > maxParamFields {
		return fmt.Errorf("voice type %q has %d param fields, max is %d", name, n, maxParamFields)
	}
	p.factories[name] = factory
	for i := 0; i < p.perType; i++ {
		v := factory()
		v.Init(p.sampleRate)
		s := &slot{voice: v, typeName: name}
		p.slots = append(p.slots, s)
		p.slotOf[v] = s
	}
	return nil
}

// Registered reports whether a voice type name is known.
func (p *Pool) Registered(name string) bool {
	_, ok := p.factories[name]
	return ok
}

// Acquire returns a free voice of the named type, stealing the stalest
// voice of that type if none is free. The voice stays owned by the pool;
// set its parameters and pass it to TriggerOn.
func (p *Pool) Acquire(name string) (polysynth.Voice, error) {
	if _, ok := p.factories[name]; !ok {
		return nil, fmt.Errorf("voice type %q not registered", name)
	}
	var steal *slot
	stealReleased := false
	var age int64 = -1
	for _, s := range p.slots {
		if s.typeName != name {
			continue
		}
		if s.state == Free {
			return s.voice, nil
		}
		released := s.state == Releasing
		since := p.frame - s.lastEvent
		if (released && !stealReleased) || (released == stealReleased && since > age) {
			steal = s
			stealReleased = released
			age = since
		}
	}
	// hard steal: the reclaimed voice restarts cleanly on the next trigger.
	// A stolen sounding voice still gets its trigger-off observed, so a
	// recorder can close the note it opened for that key.
	if steal.state == Active {
		p.observe(false, steal.key, steal)
	}
	steal.state = Free
	steal.key = 0
	return steal.voice, nil
}

// TriggerOn transitions the voice Free->Active, binds it to key and bus and
// calls its OnTriggerOn. An already active voice under the same key is
// released first, so at most one voice sounds per key. The spatializer, if
// any, travels in ctx on the render calls rather than with the trigger.
func (p *Pool) TriggerOn(v polysynth.Voice, bus, key int) error {
	s, ok := p.slotOf[v]
	if !ok {
		return fmt.Errorf("voice was not acquired from this pool")
	}
	if bus < 0 || bus >= len(p.buses) {
		return fmt.Errorf("bus %d out of range (%d buses)", bus, len(p.buses))
	}
	p.releaseKey(key)
	s.state = Active
	s.key = key
	s.bus = bus
	s.lastEvent = p.frame
	v.OnTriggerOn()
	p.observe(true, key, s)
	return nil
}

// TriggerOff releases the active voice under key. Unknown or stale keys are
// silently ignored; duplicate note-offs are normal in live input.
func (p *Pool) TriggerOff(key int) {
	p.releaseKey(key)
}

func (p *Pool) releaseKey(key int) {
	for _, s := range p.slots {
		if s.state == Active && s.key == key {
			s.voice.OnTriggerOff()
			s.state = Releasing
			s.lastEvent = p.frame
			p.observe(false, key, s)
			return
		}
	}
}

func (p *Pool) observe(on bool, key int, s *slot) {
	if p.Observer == nil {
		return
	}
	n := s.voice.ParamFields(p.fieldsBuf[:])
	p.Observer(TriggerEvent{
		On:     on,
		Key:    key,
		Voice:  s.typeName,
		Frame:  p.frame,
		Fields: p.fieldsBuf[:n],
	})
}

// RenderAudio renders one block: every Active and Releasing voice fills its
// private bus and accumulates through ctx. Voices whose envelope completed
// are reclaimed after the block, never during it.
func (p *Pool) RenderAudio(ctx *polysynth.RenderContext) {
	frames := ctx.Frames
	if frames > maxBlockFrames {
		frames = maxBlockFrames
		ctx.Frames = frames
	}
	voiceCtx := *ctx
	for _, s := range p.slots {
		if s.state == Free {
			continue
		}
		bus := p.buses[s.bus][:frames]
		for i := range bus {
			bus[i] = 0
		}
		voiceCtx.Bus = bus
		s.voice.RenderAudio(&voiceCtx)
	}
	for _, s := range p.slots {
		if s.state != Free && s.voice.Done() {
			s.state = Free
			s.key = 0
		}
	}
	p.frame += int64(frames)
}

// RenderGraphics asks every sounding voice for its proxy shape.
func (p *Pool) RenderGraphics(frame *polysynth.Frame) {
	for _, s := range p.slots {
		if s.state != Free {
			s.voice.RenderGraphics(frame)
		}
	}
}

// ActiveCount returns how many voices are currently Active or Releasing.
func (p *Pool) ActiveCount() int {
	n := 0
	for _, s := range p.slots {
		if s.state != Free {
			n++
		}
	}
	return n
}

// Frame returns the pool's running sample clock.
func (p *Pool) Frame() int64 { return p.frame }

// SampleRate returns the rate the pool renders at.
func (p *Pool) SampleRate() int { return p.sampleRate }
