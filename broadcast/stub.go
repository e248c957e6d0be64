package broadcast

import (
	"errors"
	"sync"
)

// StubConn records sent frames for testing. FailSends makes every Send
// return an error, simulating a dead peer.
type StubConn struct {
	ConnID    string
	FailSends bool

	mu     sync.Mutex
	frames [][]byte
	closed bool
}

// NewStubConn creates a recording connection with the given id.
func NewStubConn(id string) *StubConn {
	return &StubConn{ConnID: id}
}

// ID implements Conn.
func (c *StubConn) ID() string { return c.ConnID }

// Send implements Conn by recording the frame.
func (c *StubConn) Send(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.FailSends {
		return errors.New("stub send failure")
	}
	frame := make([]byte, len(data))
	copy(frame, data)
	c.frames = append(c.frames, frame)
	return nil
}

// Close implements Conn.
func (c *StubConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

// Frames returns a copy of all recorded frames in send order.
func (c *StubConn) Frames() [][]byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([][]byte, len(c.frames))
	copy(out, c.frames)
	return out
}

// Closed reports whether Close was called.
func (c *StubConn) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// Verify StubConn implements Conn.
var _ Conn = (*StubConn)(nil)
