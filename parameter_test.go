package polysynth_test

import (
	"math"
	"testing"

	"github.com/AlloSphere-Research-Group/polysynth"
)

func TestParameterClampsToRange(t *testing.T) {
	p := polysynth.NewParameter("size", "synth", 0.4, "", 0.01, 2)
	p.Set(5)
	if v := p.Get(); v != 2 {
		t.Errorf("value above max clamped to %v, want 2", v)
	}
	p.Set(-1)
	if v := p.Get(); v != 0.01 {
		t.Errorf("value below min clamped to %v, want 0.01", v)
	}
	p.Set(1.3)
	if v := p.Get(); v != 1.3 {
		t.Errorf("in-range value stored as %v, want 1.3", v)
	}
}

func TestParameterDefaultAndReset(t *testing.T) {
	p := polysynth.NewParameter("x", "synth", 0.25, "", -1, 1)
	if v := p.Get(); v != 0.25 {
		t.Errorf("initial value = %v, want the default 0.25", v)
	}
	p.Set(0.9)
	p.Reset()
	if v := p.Get(); v != 0.25 {
		t.Errorf("value after Reset = %v, want 0.25", v)
	}
}

func TestParameterNotifiesListeners(t *testing.T) {
	p := polysynth.NewParameter("x", "synth", 0, "", -1, 1)
	var got []float32
	p.AddListener(func(v float32) { got = append(got, v) })
	p.Set(0.5)
	p.Set(3) // clamped before notification
	if len(got) != 2 || got[0] != 0.5 || got[1] != 1 {
		t.Errorf("listener saw %v, want [0.5 1]", got)
	}
}

func TestParameterAddress(t *testing.T) {
	p := polysynth.NewParameter("attackTime", "synth", 0.1, "s", 0.001, 3)
	if a := p.Address(); a != "/synth/attackTime" {
		t.Errorf("Address() = %q, want /synth/attackTime", a)
	}
}

func TestPoseAzimuth(t *testing.T) {
	cases := []struct {
		pose polysynth.Pose
		want float64
	}{
		{polysynth.Pose{Z: -1}, 0},
		{polysynth.Pose{X: 1}, math.Pi / 2},
		{polysynth.Pose{X: -1}, -math.Pi / 2},
		{polysynth.Pose{X: 1, Z: -1}, math.Pi / 4},
	}
	for _, c := range cases {
		if got := float64(c.pose.Azimuth()); math.Abs(got-c.want) > 1e-6 {
			t.Errorf("Azimuth of %+v = %v, want %v", c.pose, got, c.want)
		}
	}
	if d := (polysynth.Pose{X: 3, Y: 4}).Distance(); d != 5 {
		t.Errorf("Distance = %v, want 5", d)
	}
}

func TestInterleave(t *testing.T) {
	out := [][]float32{{1, 2, 3}, {4, 5, 6}}
	dst := make([]float32, 6)
	polysynth.Interleave(dst, out, 3)
	want := []float32{1, 4, 2, 5, 3, 6}
	for i := range want {
		if dst[i] != want[i] {
			t.Fatalf("interleaved = %v, want %v", dst, want)
		}
	}
}

func TestRenderDirectAccumulatesEqualPower(t *testing.T) {
	out := polysynth.NewOutputBuffer(2, 4)
	ctx := &polysynth.RenderContext{Frames: 4, Out: out}
	src := []float32{1, 1, 1, 1}
	polysynth.RenderDirect(ctx, src)
	polysynth.RenderDirect(ctx, src) // accumulate, not overwrite
	want := 2 * float32(math.Sqrt(0.5))
	for c := range out {
		for i, v := range out[c] {
			if d := v - want; d > 1e-6 || d < -1e-6 {
				t.Fatalf("channel %d sample %d = %v, want %v", c, i, v, want)
			}
		}
	}
}
