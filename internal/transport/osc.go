package transport

import (
	"context"
	"encoding/json"
	"net"
	"sync"

	"github.com/Conceptual-Machines/battito/internal/logger"
	"github.com/Conceptual-Machines/battito/pkg/pattern"
	"github.com/pkg/errors"
	"github.com/scgolang/osc"
)

// Destination is where a payload goes: a UDP host:port and an OSC address.
type Destination struct {
	Addr    string `json:"addr"`
	Address string `json:"address"`
}

func (d Destination) String() string {
	return d.Addr + d.Address
}

// Sender ships payloads as OSC messages over UDP. One connection is dialed
// per destination on first use and kept until Close or a failed send.
type Sender struct {
	mu    sync.Mutex
	conns map[string]*osc.UDPConn
}

func NewSender() *Sender {
	return &Sender{conns: map[string]*osc.UDPConn{}}
}

// NewMessage wraps the JSON form of payload as the single string argument
// of an OSC message.
func NewMessage(address string, payload pattern.Payload) (osc.Message, int, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return osc.Message{}, 0, errors.Wrap(err, "encoding payload")
	}
	return osc.Message{
		Address:   address,
		Arguments: []osc.Argument{osc.String(string(body))},
	}, len(body), nil
}

// Send returns the size of the encoded payload.
func (s *Sender) Send(ctx context.Context, dest Destination, payload pattern.Payload) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	msg, size, err := NewMessage(dest.Address, payload)
	if err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	conn, err := s.conn(dest.Addr)
	if err != nil {
		return 0, err
	}
	if err := conn.Send(msg); err != nil {
		_ = conn.Close()
		delete(s.conns, dest.Addr)
		return 0, errors.Wrapf(err, "sending to %s", dest)
	}
	return size, nil
}

// conn must be called with s.mu held.
func (s *Sender) conn(addr string) (*osc.UDPConn, error) {
	if c, ok := s.conns[addr]; ok {
		return c, nil
	}
	raddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return nil, errors.Wrapf(err, "resolving %s", addr)
	}
	c, err := osc.DialUDP("udp", nil, raddr)
	if err != nil {
		return nil, errors.Wrapf(err, "dialing %s", addr)
	}
	s.conns[addr] = c
	logger.Debug("OSC destination dialed", logger.Fields{"addr": addr})
	return c, nil
}

// Close closes every open connection.
func (s *Sender) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var first error
	for addr, c := range s.conns {
		if err := c.Close(); err != nil && first == nil {
			first = errors.Wrapf(err, "closing %s", addr)
		}
		delete(s.conns, addr)
	}
	return first
}

// PayloadFromMessage decodes a message built by NewMessage.
func PayloadFromMessage(m osc.Message) (pattern.Payload, error) {
	var p pattern.Payload
	if expected, got := 1, len(m.Arguments); expected != got {
		return p, errors.Errorf("expected %d arguments, got %d", expected, got)
	}
	body, err := m.Arguments[0].ReadString()
	if err != nil {
		return p, errors.Wrap(err, "reading payload")
	}
	if err := json.Unmarshal([]byte(body), &p); err != nil {
		return p, errors.Wrap(err, "decoding payload")
	}
	return p, nil
}

// Listen serves OSC on the UDP address listen until ctx is done, decoding
// messages sent to address and passing them to handle. Messages that fail to
// decode are logged and dropped.
func Listen(ctx context.Context, listen, address string, handle func(pattern.Payload)) error {
	laddr, err := net.ResolveUDPAddr("udp", listen)
	if err != nil {
		return errors.Wrapf(err, "resolving %s", listen)
	}
	conn, err := osc.ListenUDP("udp", laddr)
	if err != nil {
		return errors.Wrapf(err, "listening on %s", listen)
	}

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-done:
		}
	}()

	err = conn.Serve(1, osc.PatternMatching{
		address: osc.Method(func(m osc.Message) error {
			p, err := PayloadFromMessage(m)
			if err != nil {
				logger.Warn("Dropping OSC message", logger.Fields{"address": m.Address, "error": err.Error()})
				return nil
			}
			handle(p)
			return nil
		}),
	})
	if ctx.Err() != nil {
		return nil
	}
	_ = conn.Close()
	return errors.Wrap(err, "serving OSC")
}
