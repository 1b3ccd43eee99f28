package player

import (
	"github.com/AlloSphere-Research-Group/polysynth"
	"github.com/AlloSphere-Research-Group/polysynth/engine"
	"github.com/AlloSphere-Research-Group/polysynth/preset"
	"github.com/AlloSphere-Research-Group/polysynth/seq"
)

// Params are the live-play parameters of a Player. Triggering a note without
// explicit fields reads them, so a GUI, preset morphs and OSC all steer the
// same values.
type Params struct {
	X           *polysynth.Parameter
	Y           *polysynth.Parameter
	Size        *polysynth.Parameter
	AttackTime  *polysynth.Parameter
	ReleaseTime *polysynth.Parameter
}

func NewParams() *Params {
	return &Params{
		X:           polysynth.NewParameter("x", "synth", 0, "", -1, 1),
		Y:           polysynth.NewParameter("y", "synth", 0, "", -1, 1),
		Size:        polysynth.NewParameter("size", "synth", 0.4, "", 0.01, 2),
		AttackTime:  polysynth.NewParameter("attackTime", "synth", 0.1, "s", 0.001, 3),
		ReleaseTime: polysynth.NewParameter("releaseTime", "synth", 0.5, "s", 0.001, 10),
	}
}

// All returns the parameters in a fixed order, for registering with a preset
// handler or a control server.
func (p *Params) All() []*polysynth.Parameter {
	return []*polysynth.Parameter{p.X, p.Y, p.Size, p.AttackTime, p.ReleaseTime}
}

// Player renders audio block by block, run in the audio goroutine. It is
// controlled by messages from the broker, which it drains at block
// boundaries; it never blocks on a channel while rendering.
type Player struct {
	pool      *engine.Pool
	sequencer *seq.Sequencer
	recorder  *seq.Recorder
	spat      polysynth.Spatializer
	presets   *preset.Handler
	params    *Params
	broker    *Broker

	voiceName   string
	blockFrames int
	out         [][]float32
	frame       polysynth.Frame

	// interleaved samples rendered past the end of the previous Process call
	leftover []float32
}

// NewPlayer wires a player around a pool. spat may be nil for plain stereo;
// presets may be nil when preset messages should be ignored. voiceName is
// the registered voice type triggered by note messages that do not name one.
func NewPlayer(broker *Broker, pool *engine.Pool, spat polysynth.Spatializer, presets *preset.Handler, voiceName string, channels, blockFrames int) *Player {
	p := &Player{
		pool:        pool,
		sequencer:   seq.NewSequencer(pool),
		recorder:    seq.NewRecorder(pool.SampleRate()),
		spat:        spat,
		presets:     presets,
		params:      NewParams(),
		broker:      broker,
		voiceName:   voiceName,
		blockFrames: blockFrames,
		out:         polysynth.NewOutputBuffer(channels, blockFrames),
	}
	pool.Observer = p.recorder.Observe
	if presets != nil {
		presets.Add(p.params.All()...)
	}
	return p
}

func (p *Player) Params() *Params         { return p.params }
func (p *Player) Recorder() *seq.Recorder { return p.recorder }

// Process fills buf, interleaved, rendering as many whole blocks as needed.
// Messages are handled only between blocks so triggers stay aligned to block
// boundaries, like the rest of the voice lifecycle.
func (p *Player) Process(buf []float32) {
	channels := len(p.out)
	for len(buf) > 0 {
		if len(p.leftover) > 0 {
			n := copy(buf, p.leftover)
			p.leftover = p.leftover[n:]
			buf = buf[n:]
			continue
		}
		p.processMessages()
		if p.presets != nil {
			p.presets.Process(p.blockFrames)
		}
		ctx := polysynth.RenderContext{
			SampleRate:  p.pool.SampleRate(),
			Frames:      p.blockFrames,
			Out:         p.out,
			Spatializer: p.spat,
		}
		if p.spat != nil {
			p.spat.Prepare(&ctx)
		} else {
			polysynth.ZeroOutput(p.out)
		}
		p.sequencer.RenderAudio(&ctx)
		if p.spat != nil {
			p.spat.Finalize(&ctx)
		}
		if cap(p.leftover) < p.blockFrames*channels {
			p.leftover = make([]float32, p.blockFrames*channels)
		}
		p.leftover = p.leftover[:p.blockFrames*channels]
		polysynth.Interleave(p.leftover, p.out, p.blockFrames)
		p.publishFrame()
	}
}

func (p *Player) processMessages() {
	for {
		select {
		case msg := <-p.broker.ToPlayer:
			p.handleMessage(msg)
		default:
			return
		}
	}
}

func (p *Player) handleMessage(msg any) {
	switch m := msg.(type) {
	case NoteOnMsg:
		p.noteOn(m)
	case NoteOffMsg:
		p.pool.TriggerOff(m.Key)
	case PlayMsg:
		p.sequencer.Stop()
		if err := p.sequencer.PlaySequence(m.Sequence); err != nil {
			TrySend(p.broker.ToUI, any(err))
		}
	case StopMsg:
		p.sequencer.Stop()
	case PresetMsg:
		if p.presets == nil {
			return
		}
		if m.Store {
			if err := p.presets.Store(m.Name); err != nil {
				TrySend(p.broker.ToUI, any(err))
			}
		} else if err := p.presets.Recall(m.Name, p.pool.SampleRate()); err != nil {
			TrySend(p.broker.ToUI, any(err))
		}
	case RecordMsg:
		if m.On {
			p.recorder.Start()
		} else {
			p.recorder.Stop()
		}
	case ReplayMsg:
		p.recorder.Stop()
		p.sequencer.Stop()
		if err := p.recorder.Replay(p.sequencer); err != nil {
			TrySend(p.broker.ToUI, any(err))
		}
	}
}

func (p *Player) noteOn(m NoteOnMsg) {
	name := m.Voice
	if name == "" {
		name = p.voiceName
	}
	v, err := p.pool.Acquire(name)
	if err != nil {
		TrySend(p.broker.ToUI, any(err))
		return
	}
	if m.Fields != nil {
		if !v.SetParamFields(m.Fields) {
			return
		}
	} else {
		v.Set(p.params.X.Get(), p.params.Y.Get(), p.params.Size.Get(),
			KeyToFreq(m.Key),
			p.params.AttackTime.Get(), p.params.ReleaseTime.Get())
	}
	if err := p.pool.TriggerOn(v, 0, m.Key); err != nil {
		TrySend(p.broker.ToUI, any(err))
	}
}

func (p *Player) publishFrame() {
	p.frame.Reset()
	p.pool.RenderGraphics(&p.frame)
	snapshot := polysynth.Frame{Shapes: append([]polysynth.Shape(nil), p.frame.Shapes...)}
	TrySend(p.broker.ToUI, any(FrameMsg{Frame: &snapshot}))
}
