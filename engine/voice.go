package engine

import (
	"github.com/AlloSphere-Research-Group/polysynth"
)

// Voice output is scaled by a fixed gain so a full pool of voices sums
// without clipping.
const voiceGain = 0.05

// NumVoiceParams is the parameter field count shared by the built-in
// voices: x, y, size, frequency, attack, release, in that order.
const NumVoiceParams = 6

// voiceBase carries the state common to the built-in voices: the envelope,
// the pose and the scalar parameters that marshal to param fields. Attack
// and release are staged here and applied to the envelope on trigger-on, so
// changing them never distorts an envelope mid-flight.
type voiceBase struct {
	env     Envelope
	pose    polysynth.Pose
	size    float32
	attack  float32
	release float32
}

func (v *voiceBase) set(x, y, size, attack, release float32) {
	v.pose = polysynth.Pose{X: x, Y: y}
	v.size = size
	v.attack = attack
	v.release = release
}

func (v *voiceBase) OnTriggerOn() {
	v.env.SetLength(0, v.attack)
	v.env.SetLength(2, v.release)
	v.env.Reset()
}

func (v *voiceBase) OnTriggerOff() {
	v.env.Release()
}

func (v *voiceBase) Done() bool { return v.env.Done() }

func (v *voiceBase) RenderGraphics(frame *polysynth.Frame) {
	frame.Add(v.pose, v.size*v.env.Value())
}

func (v *voiceBase) fields(dst []float32, freq float32) int {
	if dst == nil {
		return NumVoiceParams
	}
	dst[0] = v.pose.X
	dst[1] = v.pose.Y
	dst[2] = v.size
	dst[3] = freq
	dst[4] = v.attack
	dst[5] = v.release
	return NumVoiceParams
}

// render runs the shared tone-times-envelope loop and hands the bus to the
// spatializer, falling back to direct output when there is none.
func (v *voiceBase) render(ctx *polysynth.RenderContext, tone func() float32) {
	bus := ctx.Bus[:ctx.Frames]
	for i := range bus {
		bus[i] = v.env.Next() * tone() * voiceGain
	}
	if ctx.Spatializer != nil {
		ctx.Spatializer.RenderBuffer(ctx, v.pose, bus)
	} else {
		polysynth.RenderDirect(ctx, bus)
	}
}

// SineVoice is the default voice: a sine oscillator gated by an
// attack-release envelope with no sustain, so a triggered voice completes on
// its own after attack+release seconds unless released earlier.
type SineVoice struct {
	voiceBase
	osc Sine
}

func NewSineVoice() *SineVoice { return &SineVoice{} }

func (v *SineVoice) Init(sampleRate int) {
	v.osc.Init(sampleRate)
	v.env.Init(sampleRate)
	v.env.Lengths(0.1, 0, 0.5)
	v.env.Levels(1, 1, 0)
	v.env.SustainPoint(-1)
	v.attack, v.release = 0.1, 0.5
	if v.size == 0 {
		v.size = 1
	}
}

func (v *SineVoice) Set(x, y, size, freq, attack, release float32) {
	v.set(x, y, size, attack, release)
	v.osc.SetFreq(freq)
}

func (v *SineVoice) RenderAudio(ctx *polysynth.RenderContext) {
	v.render(ctx, v.osc.Next)
}

func (v *SineVoice) ParamFields(dst []float32) int {
	return v.fields(dst, v.osc.Freq())
}

func (v *SineVoice) SetParamFields(fields []float32) bool {
	if len(fields) != NumVoiceParams {
		return false
	}
	v.Set(fields[0], fields[1], fields[2], fields[3], fields[4], fields[5])
	return true
}

// PadVoice is a sustaining voice: a trisaw oscillator with a decay to a held
// sustain level, released only by an explicit trigger-off.
type PadVoice struct {
	voiceBase
	osc Trisaw
}

func NewPadVoice() *PadVoice { return &PadVoice{} }

func (v *PadVoice) Init(sampleRate int) {
	v.osc.Init(sampleRate)
	v.osc.Color = 0.3
	v.env.Init(sampleRate)
	v.env.Lengths(0.1, 0.2, 0.5)
	v.env.Levels(1, 0.7, 0)
	v.env.SustainPoint(1)
	v.attack, v.release = 0.1, 0.5
	if v.size == 0 {
		v.size = 1
	}
}

func (v *PadVoice) Set(x, y, size, freq, attack, release float32) {
	v.set(x, y, size, attack, release)
	v.osc.SetFreq(freq)
}

func (v *PadVoice) RenderAudio(ctx *polysynth.RenderContext) {
	v.render(ctx, v.osc.Next)
}

func (v *PadVoice) ParamFields(dst []float32) int {
	return v.fields(dst, v.osc.Freq())
}

func (v *PadVoice) SetParamFields(fields []float32) bool {
	if len(fields) != NumVoiceParams {
		return false
	}
	v.Set(fields[0], fields[1], fields[2], fields[3], fields[4], fields[5])
	return true
}
