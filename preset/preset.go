// Package preset stores and recalls named snapshots of a parameter set.
// Recalling does not jump: values morph linearly from their current state to
// the stored one over a configurable time, driven from the playback domain
// one block at a time.
package preset

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/AlloSphere-Research-Group/polysynth"
)

// Handler groups parameters and persists their snapshots as YAML files,
// one file per preset, under a directory.
type Handler struct {
	dir    string
	params []*polysynth.Parameter

	mu        sync.Mutex
	morphTime float32
	remaining int
	total     int
	from      []float32
	to        []float32
}

// NewHandler creates a handler storing presets under dir, creating it if
// needed.
func NewHandler(dir string) (*Handler, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating preset directory %v: %w", dir, err)
	}
	return &Handler{dir: dir, morphTime: 0}, nil
}

// Add registers parameters with the handler. Register everything before the
// first Store or Recall.
func (h *Handler) Add(params ...*polysynth.Parameter) {
	h.params = append(h.params, params...)
	h.from = make([]float32, len(h.params))
	h.to = make([]float32, len(h.params))
}

// SetMorphTime sets how many seconds a recall takes to reach the stored
// values. Zero means recalls apply immediately.
func (h *Handler) SetMorphTime(secs float32) {
	h.mu.Lock()
	h.morphTime = secs
	h.mu.Unlock()
}

func (h *Handler) MorphTime() float32 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.morphTime
}

// Store snapshots the current parameter values under name.
func (h *Handler) Store(name string) error {
	snapshot := make(map[string]float32, len(h.params))
	for _, p := range h.params {
		snapshot[p.Address()] = p.Get()
	}
	b, err := yaml.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("marshaling preset %q: %w", name, err)
	}
	if err := os.WriteFile(h.path(name), b, 0644); err != nil {
		return fmt.Errorf("writing preset %q: %w", name, err)
	}
	return nil
}

// Recall loads the named preset and starts a morph towards it at the
// handler's sample rate. Parameters missing from the file keep their
// current value.
func (h *Handler) Recall(name string, sampleRate int) error {
	b, err := os.ReadFile(h.path(name))
	if err != nil {
		return fmt.Errorf("reading preset %q: %w", name, err)
	}
	var snapshot map[string]float32
	if err := yaml.Unmarshal(b, &snapshot); err != nil {
		return fmt.Errorf("parsing preset %q: %w", name, err)
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for i, p := range h.params {
		h.from[i] = p.Get()
		if v, ok := snapshot[p.Address()]; ok {
			h.to[i] = v
		} else {
			h.to[i] = p.Get()
		}
	}
	frames := int(h.morphTime * float32(sampleRate))
	if frames <= 0 {
		for i, p := range h.params {
			p.Set(h.to[i])
		}
		h.remaining = 0
		h.total = 0
		return nil
	}
	h.remaining = frames
	h.total = frames
	return nil
}

// Process advances an in-flight morph by one block of frames, writing the
// interpolated values back through the parameters' Set. Call once per audio
// block; a no-op when no morph is running.
func (h *Handler) Process(frames int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.remaining <= 0 {
		return
	}
	h.remaining -= frames
	if h.remaining <= 0 {
		h.remaining = 0
		for i, p := range h.params {
			p.Set(h.to[i])
		}
		return
	}
	t := 1 - float32(h.remaining)/float32(h.total)
	for i, p := range h.params {
		p.Set(h.from[i] + (h.to[i]-h.from[i])*t)
	}
}

// Morphing reports whether a recall is still interpolating.
func (h *Handler) Morphing() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.remaining > 0
}

// List returns the stored preset names in sorted order.
func (h *Handler) List() ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(h.dir, "*.yml"))
	if err != nil {
		return nil, fmt.Errorf("listing presets: %w", err)
	}
	names := make([]string, 0, len(matches))
	for _, m := range matches {
		base := filepath.Base(m)
		names = append(names, base[:len(base)-len(".yml")])
	}
	sort.Strings(names)
	return names, nil
}

func (h *Handler) path(name string) string {
	return filepath.Join(h.dir, name+".yml")
}
