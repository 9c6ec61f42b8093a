package transport

import (
	"net"
	"time"

	"github.com/indigo-web/connector/internal/timer"
)

// Client wraps the connection, providing pull-style reads from the internal buffer and
// the ability to return unconsumed bytes back, so the next reader sees them first.
type Client interface {
	Read() ([]byte, error)
	Pushback([]byte)
	Write([]byte) (int, error)
	// CloseWrite half-closes the connection, if supported by it. The peer observes the
	// end of stream, while reading is still possible.
	CloseWrite() error
	Remote() net.Addr
	Local() net.Addr
	Close() error
}

type client struct {
	conn    net.Conn
	buff    []byte
	pending []byte
	timeout time.Duration
}

// NewClient wraps the connection. Zero timeout disables read deadlines completely.
func NewClient(conn net.Conn, timeout time.Duration, buff []byte) Client {
	return &client{
		buff:    buff,
		conn:    conn,
		timeout: timeout,
	}
}

// Read reads data into the internal buffer and returns a piece of it back. The returned
// slice is valid until the next call.
func (c *client) Read() ([]byte, error) {
	if len(c.pending) > 0 {
		pending := c.pending
		c.pending = nil

		return pending, nil
	}

	if c.timeout > 0 {
		if err := c.conn.SetReadDeadline(timer.Now().Add(c.timeout)); err != nil {
			return nil, err
		}
	}

	n, err := c.conn.Read(c.buff)
	if n > 0 {
		// the error, if any, will be reported again by the next read
		return c.buff[:n], nil
	}

	return nil, err
}

// Pushback preserves a chunk of data from previous read for the next read.
func (c *client) Pushback(b []byte) {
	c.pending = b
}

// Write writes data into the underlying connection.
func (c *client) Write(b []byte) (int, error) {
	return c.conn.Write(b)
}

type halfCloser interface {
	CloseWrite() error
}

func (c *client) CloseWrite() error {
	if hc, ok := c.conn.(halfCloser); ok {
		return hc.CloseWrite()
	}

	return nil
}

// Remote returns the remote address of the connection.
func (c *client) Remote() net.Addr {
	return c.conn.RemoteAddr()
}

// Local returns the local address of the connection.
func (c *client) Local() net.Addr {
	return c.conn.LocalAddr()
}

// Close closes the connection.
func (c *client) Close() error {
	return c.conn.Close()
}
