package player

import (
	"github.com/AlloSphere-Research-Group/polysynth"
	"github.com/AlloSphere-Research-Group/polysynth/seq"
)

type (
	// Broker carries messages between the audio goroutine and everything
	// else. Each recipient gets its own buffered channel; senders use
	// TrySend so a stalled recipient can never block the audio thread.
	//
	// CloseUI has capacity 1 so requesting closure never blocks; if the
	// channel is already full, someone else already asked and dropping the
	// message is fine. FinishedUI is closed (never sent to) when the UI
	// goroutine has cleaned up.
	Broker struct {
		ToPlayer chan any
		ToUI     chan any

		CloseUI    chan struct{}
		FinishedUI chan struct{}
	}

	// NoteOnMsg triggers a voice of the named type. Fields, when non-nil,
	// are applied through SetParamFields before the trigger.
	NoteOnMsg struct {
		Voice  string
		Key    int
		Fields []float32
	}

	// NoteOffMsg releases the voice holding Key. Unknown keys are ignored.
	NoteOffMsg struct {
		Key int
	}

	// PlayMsg starts playing a sequence from its beginning, replacing any
	// sequence currently playing.
	PlayMsg struct {
		Sequence *seq.Sequence
	}

	// StopMsg stops sequence playback and releases all voices.
	StopMsg struct{}

	// PresetMsg stores or recalls a named preset.
	PresetMsg struct {
		Store bool
		Name  string
	}

	// RecordMsg starts or stops the event recorder.
	RecordMsg struct {
		On bool
	}

	// ReplayMsg stops recording and plays back what the recorder captured.
	ReplayMsg struct{}

	// FrameMsg carries a snapshot of the active voices to the UI, drawn
	// once per processed buffer.
	FrameMsg struct {
		Frame *polysynth.Frame
	}
)

func NewBroker() *Broker {
	return &Broker{
		ToPlayer:   make(chan any, 1024),
		ToUI:       make(chan any, 1024),
		CloseUI:    make(chan struct{}, 1),
		FinishedUI: make(chan struct{}),
	}
}

// TrySend sends a value to a channel if it is not full, returning false
// when the value was dropped.
func TrySend[T any](c chan<- T, v T) bool {
	select {
	case c <- v:
	default:
		return false
	}
	return true
}
