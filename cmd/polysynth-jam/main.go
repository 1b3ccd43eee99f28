// polysynth-jam is a small keyboard instrument: play notes with the computer
// keyboard or a MIDI device, steer the voice parameters with the mouse, and
// store and recall presets on the number keys.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"gioui.org/app"

	"github.com/AlloSphere-Research-Group/polysynth"
	"github.com/AlloSphere-Research-Group/polysynth/control"
	"github.com/AlloSphere-Research-Group/polysynth/engine"
	"github.com/AlloSphere-Research-Group/polysynth/oto"
	"github.com/AlloSphere-Research-Group/polysynth/player"
	"github.com/AlloSphere-Research-Group/polysynth/preset"
	"github.com/AlloSphere-Research-Group/polysynth/spatial"
	"github.com/AlloSphere-Research-Group/polysynth/version"
)

var (
	sampleRate  = flag.Int("sr", 44100, "sample rate in Hz")
	blockFrames = flag.Int("block", 512, "render block size in frames")
	voiceName   = flag.String("voice", "pad", "voice type to jam with: sine or pad")
	midiInput   = flag.String("midi-input", "", "connect MIDI input to matching device name prefix")
	oscAddr     = flag.String("osc", "", "serve parameters over OSC on this host:port")
	presetDir   = flag.String("presets", "", "preset directory (default: user config dir)")
	versionFlag = flag.Bool("v", false, "print version and exit")
)

func main() {
	flag.Parse()
	if *versionFlag {
		fmt.Println(version.String())
		os.Exit(0)
	}

	audioContext, err := oto.NewContext(*sampleRate, 2)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	dir := *presetDir
	if dir == "" {
		if configDir, err := os.UserConfigDir(); err == nil {
			dir = filepath.Join(configDir, "polysynth", "presets")
		} else {
			dir = "presets"
		}
	}
	presets, err := preset.NewHandler(dir)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	presets.SetMorphTime(1)

	pool := engine.NewPool(*sampleRate, 1)
	pool.Register("sine", func() polysynth.Voice { return &engine.SineVoice{} })
	pool.Register("pad", func() polysynth.Voice { return &engine.PadVoice{} })

	broker := player.NewBroker()
	spat := spatial.NewStereoPanner(spatial.StereoLayout())
	if err := spat.Compile(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	p := player.NewPlayer(broker, pool, spat, presets, *voiceName, 2, *blockFrames)

	midi := player.NewMIDIInput(broker)
	defer midi.Close()
	if *midiInput != "" {
		if err := midi.Open(*midiInput); err != nil {
			log.Printf("could not open MIDI input: %v", err)
		}
	}

	if *oscAddr != "" {
		server, err := control.NewServer(*oscAddr, p.Params().All()...)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		defer server.Close()
		go func() {
			if err := server.ListenAndServe(); err != nil {
				log.Printf("OSC server stopped: %v", err)
			}
		}()
	}

	otoPlayer := audioContext.Play(p)

	ui := NewUI(broker, p.Params(), presets)
	go func() {
		ui.Main()
		otoPlayer.Close()
		os.Exit(0)
	}()
	app.Main()
}
