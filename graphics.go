package polysynth

// Frame collects the proxy shapes of all sounding voices for one graphics
// frame. The render loop clears it, asks the pool to fill it, and draws the
// shapes however it likes; the audio core never touches a window.
type Frame struct {
	Shapes []Shape
}

// Shape is one voice proxy: a position and a scale, the voice's size
// modulated by its current envelope amplitude.
type Shape struct {
	X, Y, Z float32
	Scale   float32
}

// Reset empties the frame, keeping its capacity.
func (f *Frame) Reset() {
	f.Shapes = f.Shapes[:0]
}

func (f *Frame) Add(pose Pose, scale float32) {
	f.Shapes = append(f.Shapes, Shape{X: pose.X, Y: pose.Y, Z: pose.Z, Scale: scale})
}
