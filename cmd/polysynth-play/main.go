package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/AlloSphere-Research-Group/polysynth"
	"github.com/AlloSphere-Research-Group/polysynth/engine"
	"github.com/AlloSphere-Research-Group/polysynth/oto"
	"github.com/AlloSphere-Research-Group/polysynth/seq"
	"github.com/AlloSphere-Research-Group/polysynth/spatial"
	"github.com/AlloSphere-Research-Group/polysynth/version"
)

func main() {
	help := flag.Bool("h", false, "Show help.")
	directory := flag.String("o", "", "Directory where to output all files. The directory and its parents are created if needed. By default, everything is placed in the same directory where the original sequence file is.")
	play := flag.Bool("p", false, "Play the input sequences (default behaviour when no other output is defined).")
	wavOut := flag.Bool("w", false, "Render the sequence to a .wav file.")
	sampleRate := flag.Int("sr", 44100, "Sample rate in Hz.")
	channels := flag.Int("ch", 2, "Number of output channels.")
	blockFrames := flag.Int("block", 512, "Render block size in frames.")
	spatName := flag.String("spat", "stereo", "Spatializer: stereo, ring, distance or ambisonic.")
	layoutFile := flag.String("layout", "", "Speaker layout .yml file. Defaults to a layout matching the channel count.")
	voices := flag.Int("voices", 16, "Maximum simultaneous voices per voice type.")
	versionFlag := flag.Bool("v", false, "Print version.")
	flag.Usage = printUsage
	flag.Parse()
	if *versionFlag {
		fmt.Println(version.String())
		os.Exit(0)
	}
	if flag.NArg() == 0 || *help {
		flag.Usage()
		os.Exit(0)
	}
	if !*wavOut {
		*play = true // if the user gives nothing to output, then the default behaviour is just to play the file
	}
	layout, err := loadLayout(*layoutFile, *channels)
	if err != nil {
		fmt.Fprintf(os.Stderr, "could not load speaker layout: %v\n", err)
		os.Exit(1)
	}
	if *layoutFile != "" {
		*channels = layout.Channels()
	}
	var audioContext *oto.Context
	if *play {
		var err error
		audioContext, err = oto.NewContext(*sampleRate, *channels)
		if err != nil {
			fmt.Fprintf(os.Stderr, "could not acquire audio output: %v\n", err)
			os.Exit(1)
		}
	}
	process := func(filename string) error {
		f, err := os.Open(filename)
		if err != nil {
			return fmt.Errorf("could not read file %v: %v", filename, err)
		}
		sequence, err := seq.Parse(f)
		f.Close()
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: %v has malformed events: %v\n", filename, err)
		}
		pool := engine.NewPool(*sampleRate, 1)
		pool.SetVoicesPerType(*voices)
		registerVoices(pool)
		spat, err := spatial.New(*spatName, layout)
		if err != nil {
			return err
		}
		out, err := seq.Render(pool, spat, sequence, *channels, *blockFrames)
		if err != nil {
			return fmt.Errorf("could not render %v: %v", filename, err)
		}
		frames := 0
		if len(out) > 0 {
			frames = len(out[0])
		}
		buf := make([]float32, frames**channels)
		polysynth.Interleave(buf, out, frames)
		if *play {
			playBuffer(audioContext, buf, *sampleRate, *channels)
		}
		if *wavOut {
			if err := writeWav(filename, *directory, buf, *channels, *sampleRate); err != nil {
				return err
			}
		}
		return nil
	}
	retval := 0
	for _, param := range flag.Args() {
		if info, err := os.Stat(param); err == nil && info.IsDir() {
			files, err := filepath.Glob(filepath.Join(param, "*.synthseq"))
			if err != nil {
				fmt.Fprintf(os.Stderr, "could not glob the path %v for sequence files: %v\n", param, err)
				retval = 1
				continue
			}
			for _, file := range files {
				if err := process(file); err != nil {
					fmt.Fprintf(os.Stderr, "could not process file %v: %v\n", file, err)
					retval = 1
				}
			}
		} else {
			if err := process(param); err != nil {
				fmt.Fprintf(os.Stderr, "could not process file %v: %v\n", param, err)
				retval = 1
			}
		}
	}
	os.Exit(retval)
}

func registerVoices(pool *engine.Pool) {
	pool.Register("sine", func() polysynth.Voice { return &engine.SineVoice{} })
	pool.Register("pad", func() polysynth.Voice { return &engine.PadVoice{} })
}

func loadLayout(file string, channels int) (spatial.Layout, error) {
	if file != "" {
		return spatial.LoadLayout(file)
	}
	if channels == 2 {
		return spatial.StereoLayout(), nil
	}
	return spatial.RingLayout(channels, 1), nil
}

func writeWav(filename, directory string, buf []float32, channels, sampleRate int) error {
	dir, name := filepath.Split(filename)
	if directory != "" {
		dir = directory
		if err := os.MkdirAll(dir, os.ModePerm); err != nil {
			return fmt.Errorf("could not create output directory %v: %v", dir, err)
		}
	}
	name = strings.TrimSuffix(name, filepath.Ext(name)) + ".wav"
	f, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		return fmt.Errorf("could not create file %v: %v", name, err)
	}
	defer f.Close()
	if err := polysynth.WriteWav(f, buf, channels, sampleRate); err != nil {
		return fmt.Errorf("could not write wav file %v: %v", name, err)
	}
	return nil
}

// playBuffer plays a fully rendered buffer and blocks until the device has
// drained it.
func playBuffer(ctx *oto.Context, buf []float32, sampleRate, channels int) {
	src := &bufferSource{buf: buf, done: make(chan struct{})}
	player := ctx.Play(src)
	<-src.done
	// let the device buffer drain before tearing the player down
	time.Sleep(200 * time.Millisecond)
	player.Close()
}

type bufferSource struct {
	buf  []float32
	done chan struct{}
	over bool
}

func (s *bufferSource) Process(buf []float32) {
	n := copy(buf, s.buf)
	s.buf = s.buf[n:]
	for i := n; i < len(buf); i++ {
		buf[i] = 0
	}
	if len(s.buf) == 0 && !s.over {
		s.over = true
		close(s.done)
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, "Command line utility for playing and rendering .synthseq sequence files.\nUsage: %s [flags] [path ...]\n", os.Args[0])
	flag.PrintDefaults()
}
