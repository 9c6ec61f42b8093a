package http1

import (
	"io"
)

// BoundedReader reads exactly the declared amount of bytes from the source. Whatever
// follows them is pushed back, so the source can be passed on untouched.
type BoundedReader struct {
	src     Source
	remain  int64
	pending []byte
}

func NewBoundedReader(src Source, length int64) *BoundedReader {
	return &BoundedReader{
		src:    src,
		remain: max(length, 0),
	}
}

func (b *BoundedReader) Read(p []byte) (n int, err error) {
	if len(b.pending) == 0 {
		if b.remain == 0 {
			return 0, io.EOF
		}

		data, err := b.src.Read()
		if len(data) == 0 {
			if err == nil || err == io.EOF {
				// truncated entity is visible to the consumer only by the amount of bytes.
				b.remain = 0
				return 0, io.EOF
			}

			return 0, err
		}

		if int64(len(data)) > b.remain {
			b.src.Pushback(data[b.remain:])
			data = data[:b.remain]
		}

		b.remain -= int64(len(data))
		b.pending = data
	}

	n = copy(p, b.pending)
	b.pending = b.pending[n:]

	return n, nil
}

// Remaining returns the number of bytes left to be read.
func (b *BoundedReader) Remaining() int64 {
	return b.remain + int64(len(b.pending))
}

// Close abandons the rest of the entity. The source isn't touched.
func (b *BoundedReader) Close() error {
	b.remain = 0
	b.pending = nil
	return nil
}

// CloseDelimitedReader reads the source until the peer closes the connection. It's used
// for responses declaring neither Content-Length nor chunked coding.
type CloseDelimitedReader struct {
	src     Source
	pending []byte
	done    bool
}

func NewCloseDelimitedReader(src Source) *CloseDelimitedReader {
	return &CloseDelimitedReader{src: src}
}

func (c *CloseDelimitedReader) Read(p []byte) (n int, err error) {
	for len(c.pending) == 0 {
		if c.done {
			return 0, io.EOF
		}

		data, err := c.src.Read()
		if len(data) == 0 && err != nil {
			if err == io.EOF {
				c.done = true
			}

			return 0, err
		}

		c.pending = data
	}

	n = copy(p, c.pending)
	c.pending = c.pending[n:]

	return n, nil
}

func (c *CloseDelimitedReader) Close() error {
	c.done = true
	c.pending = nil
	return nil
}
