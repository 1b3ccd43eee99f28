package player

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	"gitlab.com/gomidi/midi/v2/drivers/rtmididrv"
)

// KeyToFreq converts a MIDI key number to its equal-tempered frequency,
// A4 (key 69) = 440 Hz.
func KeyToFreq(key int) float32 {
	return float32(440 * math.Pow(2, float64(key-69)/12))
}

// MIDIInput listens to a MIDI input device and forwards note on/off events
// to the player through the broker. Non-note messages are dropped.
type MIDIInput struct {
	driver *rtmididrv.Driver
	in     drivers.In
	stop   func()
	broker *Broker
}

// NewMIDIInput opens the RTMIDI driver. A nil driver (no MIDI backend on
// this system) is not an error; Open will report it.
func NewMIDIInput(broker *Broker) *MIDIInput {
	m := &MIDIInput{broker: broker}
	// nothing we can do if this fails; nil driver means no MIDI available
	m.driver, _ = rtmididrv.New()
	return m
}

// Devices returns the names of the available input devices.
func (m *MIDIInput) Devices() []string {
	if m.driver == nil {
		return nil
	}
	ins, err := m.driver.Ins()
	if err != nil {
		return nil
	}
	names := make([]string, len(ins))
	for i, in := range ins {
		names[i] = in.String()
	}
	return names
}

// Open starts listening to the first input device whose name has the given
// prefix. An empty prefix opens the first device found.
func (m *MIDIInput) Open(namePrefix string) error {
	if m.driver == nil {
		return errors.New("no MIDI driver available")
	}
	ins, err := m.driver.Ins()
	if err != nil {
		return fmt.Errorf("listing MIDI inputs: %w", err)
	}
	for _, in := range ins {
		if namePrefix != "" && !strings.HasPrefix(in.String(), namePrefix) {
			continue
		}
		if err := in.Open(); err != nil {
			return fmt.Errorf("opening MIDI input %v: %w", in, err)
		}
		stop, err := midi.ListenTo(in, m.handleMessage)
		if err != nil {
			in.Close()
			return fmt.Errorf("listening to MIDI input %v: %w", in, err)
		}
		m.in = in
		m.stop = stop
		return nil
	}
	return fmt.Errorf("no MIDI input matching %q", namePrefix)
}

func (m *MIDIInput) handleMessage(msg midi.Message, timestampms int32) {
	var channel, key, velocity uint8
	switch {
	case msg.GetNoteOn(&channel, &key, &velocity):
		TrySend(m.broker.ToPlayer, any(NoteOnMsg{Key: int(key)}))
	case msg.GetNoteOff(&channel, &key, &velocity):
		TrySend(m.broker.ToPlayer, any(NoteOffMsg{Key: int(key)}))
	}
}

func (m *MIDIInput) Close() {
	if m.stop != nil {
		m.stop()
		m.stop = nil
	}
	if m.in != nil && m.in.IsOpen() {
		m.in.Close()
		m.in = nil
	}
	if m.driver != nil {
		m.driver.Close()
	}
}
