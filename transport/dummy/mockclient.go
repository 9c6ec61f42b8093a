package dummy

import (
	"io"
	"net"

	"github.com/indigo-web/connector/transport"
)

var _ transport.Client = new(Client)

// Client returns the data it was initialised with, piece by piece, and io.EOF afterwards,
// unless set to loop. It also tracks all the written data, making it thereby a universal
// mock suitable for most of the tests.
type Client struct {
	closed      bool
	writeClosed bool
	loop        bool
	pointer     int
	tmp         []byte
	written     []byte
	data        [][]byte
	remote      net.Addr
}

func NewMockClient(data ...[]byte) *Client {
	return &Client{
		data: data,
	}
}

// NewMockClientString is a shorthand for NewMockClient, accepting strings.
func NewMockClientString(data ...string) *Client {
	pieces := make([][]byte, len(data))
	for i, str := range data {
		pieces[i] = []byte(str)
	}

	return NewMockClient(pieces...)
}

func (c *Client) Read() (data []byte, err error) {
	if c.closed {
		return nil, io.EOF
	}

	if len(c.tmp) > 0 {
		data, c.tmp = c.tmp, nil

		return data, nil
	}

	if c.pointer >= len(c.data) {
		if !c.loop || len(c.data) == 0 {
			return nil, io.EOF
		}

		c.pointer = 0
	}

	piece := c.data[c.pointer]
	c.pointer++

	return piece, nil
}

func (c *Client) Pushback(takeback []byte) {
	c.tmp = takeback
}

func (c *Client) Write(p []byte) (int, error) {
	if c.closed || c.writeClosed {
		return 0, net.ErrClosed
	}

	c.written = append(c.written, p...)
	return len(p), nil
}

func (c *Client) CloseWrite() error {
	c.writeClosed = true
	return nil
}

func (c *Client) Remote() net.Addr {
	return c.remote
}

func (c *Client) Local() net.Addr {
	return nil
}

func (c *Client) Close() error {
	c.closed = true
	return nil
}

// LoopReads makes the client start over after the last piece, instead of reporting io.EOF.
func (c *Client) LoopReads() *Client {
	c.loop = true
	return c
}

// WithRemote sets the address returned by Remote.
func (c *Client) WithRemote(addr net.Addr) *Client {
	c.remote = addr
	return c
}

// Written returns everything written so far.
func (c *Client) Written() string {
	return string(c.written)
}

// Closed reports whether the client was closed entirely.
func (c *Client) Closed() bool {
	return c.closed
}

// WriteClosed reports whether the client was half-closed.
func (c *Client) WriteClosed() bool {
	return c.writeClosed
}
