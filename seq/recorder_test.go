package seq_test

import (
	"bytes"
	"testing"

	"github.com/AlloSphere-Research-Group/polysynth"
	"github.com/AlloSphere-Research-Group/polysynth/engine"
	"github.com/AlloSphere-Research-Group/polysynth/seq"
)

func TestRecorderCapturesLiveTriggering(t *testing.T) {
	pool := newSeqPool(t)
	rec := seq.NewRecorder(pool.SampleRate())
	pool.Observer = rec.Observe
	rec.Start()

	out := polysynth.NewOutputBuffer(2, 100)
	render := func(blocks int) {
		for i := 0; i < blocks; i++ {
			polysynth.ZeroOutput(out)
			pool.RenderAudio(&polysynth.RenderContext{SampleRate: 1000, Frames: 100, Out: out})
		}
	}

	render(2) // recorder is armed but nothing plays yet
	v, err := pool.Acquire("sine")
	if err != nil {
		t.Fatal(err)
	}
	v.Set(0.5, 0, 1, 440, 0.01, 0.5)
	if err := pool.TriggerOn(v, 0, 60); err != nil {
		t.Fatal(err)
	}
	render(3)
	pool.TriggerOff(60)
	render(1)
	v2, err := pool.Acquire("sine")
	if err != nil {
		t.Fatal(err)
	}
	v2.Set(-0.5, 0, 1, 550, 0.01, 0.5)
	if err := pool.TriggerOn(v2, 0, 64); err != nil {
		t.Fatal(err)
	}
	rec.Stop()

	if rec.Len() != 2 {
		t.Fatalf("recorded %d events, want 2", rec.Len())
	}
	s := rec.Sequence()
	// time zero is the first trigger, not Start
	first := s.Events[0]
	if first.Time != 0 {
		t.Errorf("first event at %v, want 0", first.Time)
	}
	if first.Duration != 0.3 {
		t.Errorf("first event duration %v, want 0.3", first.Duration)
	}
	if len(first.Fields) != engine.NumVoiceParams || first.Fields[3] != 440 {
		t.Errorf("first event fields = %v, want frequency 440", first.Fields)
	}
	second := s.Events[1]
	if second.Time != 0.4 {
		t.Errorf("second event at %v, want 0.4", second.Time)
	}
	if second.Duration >= 0 {
		t.Errorf("never-released event has duration %v, want open-ended", second.Duration)
	}
}

func TestRecorderWriteReplayRoundTrip(t *testing.T) {
	pool := newSeqPool(t)
	rec := seq.NewRecorder(pool.SampleRate())
	pool.Observer = rec.Observe
	rec.Start()

	out := polysynth.NewOutputBuffer(2, 100)
	v, _ := pool.Acquire("sine")
	v.Set(0, 0, 1, 330, 0.01, 0.5)
	pool.TriggerOn(v, 0, 60)
	for i := 0; i < 2; i++ {
		polysynth.ZeroOutput(out)
		pool.RenderAudio(&polysynth.RenderContext{SampleRate: 1000, Frames: 100, Out: out})
	}
	pool.TriggerOff(60)
	rec.Stop()

	var buf bytes.Buffer
	if err := rec.Write(&buf); err != nil {
		t.Fatalf("writing take: %v", err)
	}
	parsed, err := seq.Parse(&buf)
	if err != nil {
		t.Fatalf("parsing written take: %v", err)
	}
	if len(parsed.Events) != 1 {
		t.Fatalf("written take has %d events, want 1", len(parsed.Events))
	}
	if e := parsed.Events[0]; e.Voice != "sine" || e.Duration != 0.2 {
		t.Errorf("round-tripped event = %+v, want sine with duration 0.2", e)
	}

	// observer fields alias pool scratch; the take must have copied them
	v2, _ := pool.Acquire("sine")
	v2.Set(1, 1, 2, 999, 0.5, 0.5)
	pool.TriggerOn(v2, 0, 61)
	if f := rec.Sequence().Events[0].Fields[3]; f != 330 {
		t.Errorf("recorded fields changed to %v after later triggering, want 330", f)
	}

	replayPool := newSeqPool(t)
	s := seq.NewSequencer(replayPool)
	if err := rec.Replay(s); err != nil {
		t.Fatalf("replaying take: %v", err)
	}
	var frames []int64
	replayPool.Observer = func(ev engine.TriggerEvent) {
		frames = append(frames, ev.Frame)
	}
	ctx := &polysynth.RenderContext{SampleRate: 1000, Frames: 100, Out: out}
	for s.Playing() {
		polysynth.ZeroOutput(out)
		s.RenderAudio(ctx)
	}
	if len(frames) != 2 || frames[0] != 0 || frames[1] != 200 {
		t.Errorf("replay triggered at frames %v, want [0 200]", frames)
	}
}
