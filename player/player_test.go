package player_test

import (
	"testing"

	"github.com/AlloSphere-Research-Group/polysynth"
	"github.com/AlloSphere-Research-Group/polysynth/engine"
	"github.com/AlloSphere-Research-Group/polysynth/player"
)

func newTestPlayer(t *testing.T) (*player.Player, *player.Broker) {
	t.Helper()
	pool := engine.NewPool(44100, 1)
	if err := pool.Register("sine", func() polysynth.Voice { return &engine.SineVoice{} }); err != nil {
		t.Fatal(err)
	}
	broker := player.NewBroker()
	p := player.NewPlayer(broker, pool, nil, nil, "sine", 2, 512)
	return p, broker
}

func TestPlayerIdleRendersSilence(t *testing.T) {
	p, _ := newTestPlayer(t)
	buf := make([]float32, 2048)
	p.Process(buf)
	for i, v := range buf {
		if v != 0 {
			t.Fatalf("idle player wrote %v at sample %d", v, i)
		}
	}
}

func TestPlayerFillsArbitraryBufferSizes(t *testing.T) {
	p, _ := newTestPlayer(t)
	// deliberately not multiples of the block size
	for _, n := range []int{2, 700, 1023, 5000} {
		buf := make([]float32, n)
		for i := range buf {
			buf[i] = 42
		}
		p.Process(buf)
		for i, v := range buf {
			if v == 42 {
				t.Fatalf("Process left sample %d of a %d-sample buffer unfilled", i, n)
			}
		}
	}
}

func TestPlayerRendersTriggeredNotes(t *testing.T) {
	p, broker := newTestPlayer(t)
	if !player.TrySend(broker.ToPlayer, any(player.NoteOnMsg{Key: 69})) {
		t.Fatal("broker dropped the note-on")
	}
	buf := make([]float32, 4*512*2)
	p.Process(buf)
	var peak float32
	for _, v := range buf {
		if v > peak {
			peak = v
		}
	}
	if peak == 0 {
		t.Fatal("triggered note rendered silence")
	}
	player.TrySend(broker.ToPlayer, any(player.NoteOffMsg{Key: 69}))
	// drain the release: 0.5s at 44100 is under 50 blocks
	for i := 0; i < 50; i++ {
		p.Process(buf)
	}
	p.Process(buf)
	for i, v := range buf {
		if v != 0 {
			t.Fatalf("released note still audible at sample %d: %v", i, v)
		}
	}
}

func TestPlayerPublishesFrames(t *testing.T) {
	p, broker := newTestPlayer(t)
	player.TrySend(broker.ToPlayer, any(player.NoteOnMsg{Key: 60}))
	buf := make([]float32, 512*2)
	p.Process(buf)
	var frame *polysynth.Frame
	for done := false; !done; {
		select {
		case msg := <-broker.ToUI:
			if m, ok := msg.(player.FrameMsg); ok {
				frame = m.Frame
			}
		default:
			done = true
		}
	}
	if frame == nil {
		t.Fatal("no frame published after a processed buffer")
	}
	if len(frame.Shapes) != 1 {
		t.Fatalf("frame has %d shapes, want 1", len(frame.Shapes))
	}
}

func TestBrokerTrySendDropsWhenFull(t *testing.T) {
	c := make(chan int, 1)
	if !player.TrySend(c, 1) {
		t.Fatal("send to an empty channel failed")
	}
	if player.TrySend(c, 2) {
		t.Fatal("send to a full channel did not report the drop")
	}
	if v := <-c; v != 1 {
		t.Fatalf("channel holds %d, want the first value", v)
	}
}

func TestKeyToFreq(t *testing.T) {
	cases := []struct {
		key  int
		want float32
	}{
		{69, 440},
		{81, 880},
		{57, 220},
	}
	for _, c := range cases {
		got := player.KeyToFreq(c.key)
		if d := got/c.want - 1; d > 1e-5 || d < -1e-5 {
			t.Errorf("KeyToFreq(%d) = %v, want %v", c.key, got, c.want)
		}
	}
}
