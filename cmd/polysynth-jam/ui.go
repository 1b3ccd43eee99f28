package main

import (
	"fmt"
	"image"
	"image/color"
	"log"

	"gioui.org/app"
	"gioui.org/io/event"
	"gioui.org/io/key"
	"gioui.org/io/pointer"
	"gioui.org/io/system"
	"gioui.org/layout"
	"gioui.org/op"
	"gioui.org/op/clip"
	"gioui.org/op/paint"
	"gioui.org/unit"

	"github.com/AlloSphere-Research-Group/polysynth"
	"github.com/AlloSphere-Research-Group/polysynth/player"
	"github.com/AlloSphere-Research-Group/polysynth/preset"
)

// noteKeys lays two chromatic octaves on the keyboard, C4 on Z and C5 on Q.
var noteKeys = map[key.Name]int{
	"Z": 60, "S": 61, "X": 62, "D": 63, "C": 64, "V": 65, "G": 66,
	"B": 67, "H": 68, "N": 69, "J": 70, "M": 71,
	"Q": 72, "2": 73, "W": 74, "3": 75, "E": 76, "R": 77, "5": 78,
	"T": 79, "6": 80, "Y": 81, "7": 82, "U": 83, "I": 84,
}

// presetKeys are the digits not taken by the upper note row.
var presetKeys = map[key.Name]int{
	"0": 0, "1": 1, "4": 4, "8": 8, "9": 9,
}

type UI struct {
	broker  *player.Broker
	params  *player.Params
	presets *preset.Handler

	frame     *polysynth.Frame
	filters   []event.Filter
	pressed   map[key.Name]int
	recording bool
	focused   bool
}

func NewUI(broker *player.Broker, params *player.Params, presets *preset.Handler) *UI {
	u := &UI{
		broker:  broker,
		params:  params,
		presets: presets,
		pressed: make(map[key.Name]int),
	}
	for name := range noteKeys {
		u.filters = append(u.filters, key.Filter{Focus: u, Name: name})
	}
	for name := range presetKeys {
		u.filters = append(u.filters, key.Filter{Focus: u, Name: name, Optional: key.ModShift})
	}
	u.filters = append(u.filters,
		key.Filter{Focus: u, Name: key.NameSpace},
		key.Filter{Focus: u, Name: key.NameReturn},
		key.Filter{Focus: u, Name: key.NameEscape},
		pointer.Filter{Target: u, Kinds: pointer.Press | pointer.Drag},
	)
	return u
}

func (u *UI) Main() {
	var ops op.Ops
	w := new(app.Window)
	w.Option(app.Title("polysynth jam"), app.Size(unit.Dp(800), unit.Dp(600)))
	acks := make(chan struct{})
	events := make(chan event.Event)
	go func() {
		for {
			ev := w.Event()
			events <- ev
			<-acks
			if _, ok := ev.(app.DestroyEvent); ok {
				return
			}
		}
	}()
	for {
		select {
		case msg := <-u.broker.ToUI:
			switch m := msg.(type) {
			case player.FrameMsg:
				u.frame = m.Frame
			case error:
				log.Printf("player: %v", m)
			}
			w.Invalidate()
		case <-u.broker.CloseUI:
			w.Perform(system.ActionClose)
		case e := <-events:
			switch e := e.(type) {
			case app.DestroyEvent:
				acks <- struct{}{}
				close(u.broker.FinishedUI)
				return
			case app.FrameEvent:
				gtx := app.NewContext(&ops, e)
				u.layout(gtx)
				e.Frame(gtx.Ops)
			}
			acks <- struct{}{}
		}
	}
}

func (u *UI) layout(gtx layout.Context) {
	size := gtx.Constraints.Max
	defer clip.Rect(image.Rectangle{Max: size}).Push(gtx.Ops).Pop()
	paint.Fill(gtx.Ops, color.NRGBA{R: 0x10, G: 0x10, B: 0x18, A: 0xff})
	event.Op(gtx.Ops, u)
	if !u.focused {
		gtx.Execute(key.FocusCmd{Tag: u})
		u.focused = true
	}
	for {
		ev, ok := gtx.Event(u.filters...)
		if !ok {
			break
		}
		switch e := ev.(type) {
		case key.Event:
			u.keyEvent(e)
		case pointer.Event:
			u.params.X.Set(2*float32(e.Position.X)/float32(size.X) - 1)
			u.params.Y.Set(1 - 2*float32(e.Position.Y)/float32(size.Y))
		}
	}
	u.drawVoices(gtx, size)
}

func (u *UI) keyEvent(e key.Event) {
	if note, ok := noteKeys[e.Name]; ok {
		switch e.State {
		case key.Press:
			if _, playing := u.pressed[e.Name]; playing {
				return // key repeat
			}
			u.pressed[e.Name] = note
			player.TrySend(u.broker.ToPlayer, any(player.NoteOnMsg{Key: note}))
		case key.Release:
			delete(u.pressed, e.Name)
			player.TrySend(u.broker.ToPlayer, any(player.NoteOffMsg{Key: note}))
		}
		return
	}
	if e.State != key.Press {
		return
	}
	if slot, ok := presetKeys[e.Name]; ok {
		name := fmt.Sprintf("preset%d", slot)
		store := e.Modifiers.Contain(key.ModShift)
		player.TrySend(u.broker.ToPlayer, any(player.PresetMsg{Store: store, Name: name}))
		return
	}
	switch e.Name {
	case key.NameSpace:
		u.recording = !u.recording
		player.TrySend(u.broker.ToPlayer, any(player.RecordMsg{On: u.recording}))
	case key.NameReturn:
		u.recording = false
		player.TrySend(u.broker.ToPlayer, any(player.ReplayMsg{}))
	case key.NameEscape:
		player.TrySend(u.broker.ToPlayer, any(player.StopMsg{}))
	}
}

// drawVoices draws one circle per sounding voice, placed from its pose and
// sized by its envelope level, like the synth's graphics proxy.
func (u *UI) drawVoices(gtx layout.Context, size image.Point) {
	if u.frame == nil {
		return
	}
	for _, s := range u.frame.Shapes {
		cx := (s.X + 1) / 2 * float32(size.X)
		cy := (1 - s.Y) / 2 * float32(size.Y)
		r := s.Scale / 4 * float32(min(size.X, size.Y))
		if r <= 0 {
			continue
		}
		bounds := image.Rect(int(cx-r), int(cy-r), int(cx+r), int(cy+r))
		c := clip.Ellipse(bounds).Push(gtx.Ops)
		paint.ColorOp{Color: color.NRGBA{R: 0x66, G: 0xbb, B: 0xff, A: 0xb0}}.Add(gtx.Ops)
		paint.PaintOp{}.Add(gtx.Ops)
		c.Pop()
	}
}
