// Package control exposes parameters over Open Sound Control. A server
// listens for float messages on each parameter's address and pushes changes
// back out to any registered listener clients, so several machines can share
// one parameter state.
package control

import (
	"fmt"
	"net"
	"sync"

	"github.com/hypebeast/go-osc/osc"

	"github.com/AlloSphere-Research-Group/polysynth"
)

// Server serves a set of parameters over OSC/UDP. Setting a parameter
// locally also notifies the remote listeners.
type Server struct {
	addr   string
	server *osc.Server
	params []*polysynth.Parameter

	mu        sync.Mutex
	listeners []*osc.Client
}

// NewServer builds a server for the given parameters listening on addr
// (host:port). Call ListenAndServe to start it.
func NewServer(addr string, params ...*polysynth.Parameter) (*Server, error) {
	s := &Server{addr: addr, params: params}
	d := osc.NewStandardDispatcher()
	for _, p := range params {
		p := p
		err := d.AddMsgHandler(p.Address(), func(msg *osc.Message) {
			v, ok := floatArg(msg)
			if !ok {
				return
			}
			p.Set(v)
		})
		if err != nil {
			return nil, fmt.Errorf("registering OSC address %v: %w", p.Address(), err)
		}
		p.AddListener(func(v float32) { s.notify(p.Address(), v) })
	}
	s.server = &osc.Server{Addr: addr, Dispatcher: d}
	return s, nil
}

// AddListener registers a remote endpoint that receives every parameter
// change as an OSC message.
func (s *Server) AddListener(host string, port int) {
	s.mu.Lock()
	s.listeners = append(s.listeners, osc.NewClient(host, port))
	s.mu.Unlock()
}

// ListenAndServe blocks serving OSC packets until Close is called.
func (s *Server) ListenAndServe() error {
	return s.server.ListenAndServe()
}

func (s *Server) Close() error {
	return s.server.CloseConnection()
}

// SendCurrent pushes the current value of every parameter to the listeners,
// so a newly attached endpoint can sync up.
func (s *Server) SendCurrent() {
	for _, p := range s.params {
		s.notify(p.Address(), p.Get())
	}
}

func (s *Server) notify(address string, v float32) {
	s.mu.Lock()
	clients := s.listeners
	s.mu.Unlock()
	for _, c := range clients {
		msg := osc.NewMessage(address)
		msg.Append(v)
		// a dead listener should not stop the rest
		_ = c.Send(msg)
	}
}

func floatArg(msg *osc.Message) (float32, bool) {
	if len(msg.Arguments) < 1 {
		return 0, false
	}
	switch v := msg.Arguments[0].(type) {
	case float32:
		return v, true
	case float64:
		return float32(v), true
	case int32:
		return float32(v), true
	}
	return 0, false
}

// Client steers a remote parameter server.
type Client struct {
	client *osc.Client
}

func NewClient(host string, port int) *Client {
	return &Client{client: osc.NewClient(host, port)}
}

// Set sends a new value for the parameter at address.
func (c *Client) Set(address string, v float32) error {
	msg := osc.NewMessage(address)
	msg.Append(v)
	if err := c.client.Send(msg); err != nil {
		return fmt.Errorf("sending OSC message to %v: %w", address, err)
	}
	return nil
}

// SplitAddr splits a host:port address, for building clients from flags.
func SplitAddr(addr string) (string, int, error) {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return "", 0, fmt.Errorf("parsing address %v: %w", addr, err)
	}
	var port int
	if _, err := fmt.Sscanf(portStr, "%d", &port); err != nil {
		return "", 0, fmt.Errorf("parsing port %v: %w", portStr, err)
	}
	return host, port, nil
}
