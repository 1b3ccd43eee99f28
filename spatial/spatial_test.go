package spatial_test

import (
	"bytes"
	"math"
	"testing"

	"github.com/AlloSphere-Research-Group/polysynth"
	"github.com/AlloSphere-Research-Group/polysynth/spatial"
)

const frames = 64

func ones(n int) []float32 {
	src := make([]float32, n)
	for i := range src {
		src[i] = 1
	}
	return src
}

func renderPose(t *testing.T, spat polysynth.Spatializer, channels int, pose polysynth.Pose) [][]float32 {
	t.Helper()
	if err := spat.Compile(); err != nil {
		t.Fatalf("compiling spatializer: %v", err)
	}
	out := polysynth.NewOutputBuffer(channels, frames)
	ctx := &polysynth.RenderContext{SampleRate: 44100, Frames: frames, Out: out}
	spat.Prepare(ctx)
	spat.RenderBuffer(ctx, pose, ones(frames))
	spat.Finalize(ctx)
	return out
}

func approx(a, b float32) bool {
	d := a - b
	return d < 1e-4 && d > -1e-4
}

func TestStereoPannerCenterIsEqualPower(t *testing.T) {
	out := renderPose(t, spatial.NewStereoPanner(spatial.StereoLayout()), 2,
		polysynth.Pose{Z: -1})
	want := float32(math.Sqrt(0.5))
	if !approx(out[0][0], want) || !approx(out[1][0], want) {
		t.Errorf("center gains = %v, %v, want both %v", out[0][0], out[1][0], want)
	}
	power := out[0][0]*out[0][0] + out[1][0]*out[1][0]
	if !approx(power, 1) {
		t.Errorf("center power = %v, want 1", power)
	}
}

func TestStereoPannerClampsBeyondAperture(t *testing.T) {
	// far left, well past the -30 degree speaker
	out := renderPose(t, spatial.NewStereoPanner(spatial.StereoLayout()), 2,
		polysynth.Pose{X: -1})
	if !approx(out[0][0], 1) {
		t.Errorf("hard-left gain on left channel = %v, want 1", out[0][0])
	}
	if !approx(out[1][0], 0) {
		t.Errorf("hard-left gain on right channel = %v, want 0", out[1][0])
	}
}

func TestStereoPannerCompileRejectsBadLayouts(t *testing.T) {
	if err := spatial.NewStereoPanner(spatial.RingLayout(4, 1)).Compile(); err == nil {
		t.Error("compiling a stereo panner on 4 speakers did not fail")
	}
	if err := spatial.NewStereoPanner(nil).Compile(); err == nil {
		t.Error("compiling on an empty layout did not fail")
	}
	dup := spatial.Layout{{Channel: 0}, {Channel: 0, Azimuth: 1}}
	if err := spatial.NewStereoPanner(dup).Compile(); err == nil {
		t.Error("compiling with duplicate channels did not fail")
	}
}

func TestCompileIsIdempotent(t *testing.T) {
	s := spatial.NewStereoPanner(spatial.StereoLayout())
	if err := s.Compile(); err != nil {
		t.Fatal(err)
	}
	if err := s.Compile(); err != nil {
		t.Errorf("second Compile failed: %v", err)
	}
}

func TestPrepareClearsPreviousBlock(t *testing.T) {
	s := spatial.NewStereoPanner(spatial.StereoLayout())
	if err := s.Compile(); err != nil {
		t.Fatal(err)
	}
	out := polysynth.NewOutputBuffer(2, frames)
	ctx := &polysynth.RenderContext{SampleRate: 44100, Frames: frames, Out: out}
	s.Prepare(ctx)
	s.RenderBuffer(ctx, polysynth.Pose{Z: -1}, ones(frames))
	s.Finalize(ctx)
	s.Prepare(ctx)
	s.Finalize(ctx)
	if p := polysynth.Peak(out); p != 0 {
		t.Errorf("empty block after Prepare still carries audio, peak %v", p)
	}
}

func TestRingPannerOnSpeakerIsDiscrete(t *testing.T) {
	out := renderPose(t, spatial.NewRingPanner(spatial.RingLayout(8, 1)), 8,
		polysynth.Pose{Z: -1}) // exactly on speaker 0
	if !approx(out[0][0], 1) {
		t.Errorf("on-speaker gain = %v, want 1", out[0][0])
	}
	for c := 1; c < 8; c++ {
		if !approx(out[c][0], 0) {
			t.Errorf("channel %d gain = %v, want 0", c, out[c][0])
		}
	}
}

func TestRingPannerBetweenSpeakersIsEqualPower(t *testing.T) {
	// 4 speakers at 0, 90, 180, 270 degrees; pose at 45 degrees
	out := renderPose(t, spatial.NewRingPanner(spatial.RingLayout(4, 1)), 4,
		polysynth.Pose{X: 1, Z: -1})
	want := float32(math.Sqrt(0.5))
	if !approx(out[0][0], want) || !approx(out[1][0], want) {
		t.Errorf("between-speaker gains = %v, %v, want both %v", out[0][0], out[1][0], want)
	}
	if !approx(out[2][0], 0) || !approx(out[3][0], 0) {
		t.Errorf("far channels = %v, %v, want 0", out[2][0], out[3][0])
	}
}

func TestRingPannerBehindWrapsAround(t *testing.T) {
	// directly behind on a 4-ring is speaker 2
	out := renderPose(t, spatial.NewRingPanner(spatial.RingLayout(4, 1)), 4,
		polysynth.Pose{Z: 1})
	if !approx(out[2][0], 1) {
		t.Errorf("behind gain on rear speaker = %v, want 1", out[2][0])
	}
}

func TestDistancePannerFavorsNearestSpeaker(t *testing.T) {
	layout := spatial.RingLayout(4, 1)
	out := renderPose(t, spatial.NewDistancePanner(layout), 4,
		polysynth.Pose{Z: -1}) // sitting on speaker 0
	for c := 1; c < 4; c++ {
		if out[0][0] <= out[c][0] {
			t.Errorf("nearest speaker gain %v not above channel %d gain %v", out[0][0], c, out[c][0])
		}
	}
	var power float32
	for c := 0; c < 4; c++ {
		power += out[c][0] * out[c][0]
	}
	if !approx(power, 1) {
		t.Errorf("distance panner power = %v, want 1", power)
	}
}

func TestAmbisonicDecodesTowardsTheSource(t *testing.T) {
	out := renderPose(t, spatial.NewAmbisonic(spatial.RingLayout(4, 1)), 4,
		polysynth.Pose{Z: -1})
	front, rear := out[0][0], out[2][0]
	if front <= 0 {
		t.Fatalf("front channel gain = %v, want positive", front)
	}
	if front <= rear {
		t.Errorf("front gain %v not above rear gain %v for a frontal source", front, rear)
	}
	for _, c := range []int{1, 3} {
		if out[c][0] >= front {
			t.Errorf("side channel %d gain %v not below front %v", c, out[c][0], front)
		}
	}
}

func TestNewSelectsStrategyByName(t *testing.T) {
	layout := spatial.StereoLayout()
	for _, name := range []string{"stereo", "ring", "distance", "ambisonic"} {
		if _, err := spatial.New(name, layout); err != nil {
			t.Errorf("New(%q) failed: %v", name, err)
		}
	}
	if _, err := spatial.New("vbap3d", layout); err == nil {
		t.Error("New with an unknown name did not fail")
	}
}

func TestLayoutYAMLRoundTrip(t *testing.T) {
	orig := spatial.RingLayout(6, 2.5)
	var buf bytes.Buffer
	if err := spatial.WriteLayout(&buf, orig); err != nil {
		t.Fatalf("writing layout: %v", err)
	}
	back, err := spatial.ReadLayout(&buf)
	if err != nil {
		t.Fatalf("reading layout: %v", err)
	}
	if len(back) != len(orig) {
		t.Fatalf("round trip changed speaker count from %d to %d", len(orig), len(back))
	}
	for i := range orig {
		if back[i] != orig[i] {
			t.Errorf("speaker %d changed: %+v -> %+v", i, orig[i], back[i])
		}
	}
}
