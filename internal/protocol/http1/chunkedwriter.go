package http1

import (
	"errors"
	"io"
	"math/bits"
	"strconv"
)

var ErrWriterClosed = errors.New("write to the closed chunked writer")

const (
	crlf             = "\r\n"
	chunkZeroTrailer = "0\r\n\r\n"
)

// ChunkedWriter encodes the data using the chunked transfer coding. Every non-empty Write
// results in exactly one chunk, transmitted via a single write to the underlying writer.
// ReadFrom pulls the data directly into the frame buffer, so no copying happens at all.
type ChunkedWriter struct {
	dst    io.Writer
	buff   []byte
	closed bool
}

// NewChunkedWriter returns a writer emitting chunks of at most chunkSize bytes when data
// is pulled via ReadFrom. Writes are never split regardless of their size.
func NewChunkedWriter(dst io.Writer, chunkSize int) *ChunkedWriter {
	chunkSize = max(chunkSize, 1)

	return &ChunkedWriter{
		dst:  dst,
		buff: make([]byte, maxhex(chunkSize)+chunkSize+2*len(crlf)),
	}
}

// maxhex returns the number of hexadecimal digits required to represent n.
func maxhex(n int) int {
	return (bits.Len64(uint64(n))-1)>>2 + 1
}

func (c *ChunkedWriter) Write(p []byte) (n int, err error) {
	if c.closed {
		return 0, ErrWriterClosed
	}

	if len(p) == 0 {
		return 0, nil
	}

	frameLen := maxhex(len(p)) + len(p) + 2*len(crlf)
	if frameLen > len(c.buff) {
		c.buff = make([]byte, frameLen)
	}

	frame := strconv.AppendUint(c.buff[:0], uint64(len(p)), 16)
	frame = append(frame, crlf...)
	frame = append(frame, p...)
	frame = append(frame, crlf...)

	if _, err = c.dst.Write(frame); err != nil {
		return 0, err
	}

	return len(p), nil
}

// ReadFrom implements io.ReaderFrom. The data is read right into the space reserved for
// chunk payload, then the chunk length is right-aligned against it, avoiding copying.
func (c *ChunkedWriter) ReadFrom(r io.Reader) (total int64, err error) {
	if c.closed {
		return 0, ErrWriterClosed
	}

	var (
		payloadLen = len(c.buff) - 2*len(crlf)
		hexLen     = maxhex(payloadLen)
	)
	payloadLen -= hexLen
	dataOffset := hexLen + len(crlf)

	for {
		n, rerr := r.Read(c.buff[dataOffset : dataOffset+payloadLen])
		if n > 0 {
			total += int64(n)

			digits := len(strconv.AppendUint(c.buff[:0], uint64(n), 16))
			offset := hexLen - digits
			copy(c.buff[offset:], c.buff[:digits])
			copy(c.buff[hexLen:], crlf)
			copy(c.buff[dataOffset+n:], crlf)

			if _, err = c.dst.Write(c.buff[offset : dataOffset+n+len(crlf)]); err != nil {
				return total, err
			}
		}

		switch rerr {
		case nil:
		case io.EOF:
			return total, nil
		default:
			return total, rerr
		}
	}
}

// Close writes the terminating chunk. Consequent calls do nothing.
func (c *ChunkedWriter) Close() error {
	if c.closed {
		return nil
	}

	c.closed = true
	_, err := io.WriteString(c.dst, chunkZeroTrailer)
	return err
}

// identityWriter passes the data through, refusing to write more than declared.
type identityWriter struct {
	dst    io.Writer
	remain int64
}

var errEntityOverflow = errors.New("entity exceeds its declared length")

func (i *identityWriter) Write(p []byte) (int, error) {
	if int64(len(p)) > i.remain {
		return 0, errEntityOverflow
	}

	n, err := i.dst.Write(p)
	i.remain -= int64(n)
	return n, err
}

func (i *identityWriter) Close() error {
	if i.remain > 0 {
		return io.ErrShortWrite
	}

	return nil
}
