package polysynth

import (
	"math"
	"sync"
	"sync/atomic"
)

// Parameter is a named, ranged scalar an external control surface can read
// and write. Get is a single atomic load so the audio domain can poll values
// without locking; Set clamps to the range and notifies listeners.
type Parameter struct {
	name  string
	group string
	unit  string
	min   float32
	max   float32
	def   float32

	bits atomic.Uint32

	mu        sync.Mutex
	listeners []func(float32)
}

func NewParameter(name, group string, def float32, unit string, min, max float32) *Parameter {
	p := &Parameter{name: name, group: group, unit: unit, min: min, max: max, def: def}
	p.bits.Store(math.Float32bits(p.clamp(def)))
	return p
}

func (p *Parameter) Name() string  { return p.name }
func (p *Parameter) Group() string { return p.group }
func (p *Parameter) Unit() string  { return p.unit }
func (p *Parameter) Min() float32  { return p.min }
func (p *Parameter) Max() float32  { return p.max }
func (p *Parameter) Default() float32 {
	return p.def
}

// Address returns the parameter's control address, "/<group>/<name>".
func (p *Parameter) Address() string {
	return "/" + p.group + "/" + p.name
}

func (p *Parameter) Get() float32 {
	return math.Float32frombits(p.bits.Load())
}

// Set clamps value to [min, max], stores it and notifies listeners. Safe to
// call from any goroutine; listeners run on the calling goroutine.
func (p *Parameter) Set(value float32) {
	v := p.clamp(value)
	p.bits.Store(math.Float32bits(v))
	p.mu.Lock()
	ls := p.listeners
	p.mu.Unlock()
	for _, l := range ls {
		l(v)
	}
}

// Reset restores the default value.
func (p *Parameter) Reset() { p.Set(p.def) }

// AddListener registers a callback invoked on every Set.
func (p *Parameter) AddListener(f func(float32)) {
	p.mu.Lock()
	p.listeners = append(p.listeners, f)
	p.mu.Unlock()
}

func (p *Parameter) clamp(v float32) float32 {
	if v < p.min {
		return p.min
	}
	if v > p.max {
		return p.max
	}
	return v
}
