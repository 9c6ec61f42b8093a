package http1

import (
	"bytes"
	"fmt"
	"io"

	"github.com/indigo-web/connector/http/status"
	"github.com/indigo-web/connector/internal/hexconv"
)

type chunkedParserState uint8

const (
	eChunkLength chunkedParserState = iota
	eChunkLengthWS
	eChunkExt
	eChunkLengthCR
	eChunkBody
	eChunkBodyDone
	eChunkBodyCRLF
	eChunkTrailer
	eChunkTrailerCRLF
	eChunkTrailerFieldLine
)

// maxChunkLengthDigits limits the chunk length to 15 hexadecimal digits, so it always
// fits into a signed 64-bit integer.
const maxChunkLengthDigits = 15

type chunkedParser struct {
	state        chunkedParserState
	lengthDigits uint8
	chunkLength  uint64
}

func newChunkedParser() chunkedParser {
	return chunkedParser{state: eChunkLength}
}

// Parse returns a chunk when it's ready, nil otherwise. io.EOF signals that the body
// is complete. Trailer field lines are consumed and dropped. The parser resets
// automatically.
func (c *chunkedParser) Parse(data []byte) (chunk, extra []byte, err error) {
	switch c.state {
	case eChunkLength:
		goto chunkLength
	case eChunkLengthWS:
		goto chunkLengthWS
	case eChunkExt:
		goto chunkExt
	case eChunkLengthCR:
		goto chunkLengthCR
	case eChunkBody:
		goto chunkBody
	case eChunkBodyDone:
		goto chunkBodyDone
	case eChunkBodyCRLF:
		goto chunkBodyCRLF
	case eChunkTrailer:
		goto trailer
	case eChunkTrailerCRLF:
		goto chunkTrailerCRLF
	case eChunkTrailerFieldLine:
		goto chunkTrailerFieldLine
	default:
		panic("unreachable code")
	}

chunkLength:
	for i := 0; i < len(data); i++ {
		switch char := data[i]; char {
		case ' ', '\t':
			if c.lengthDigits == 0 {
				continue
			}

			data = data[i+1:]
			goto chunkLengthWS
		case '\r', '\n', ';':
			data = data[i:]
			goto chunkLengthWS
		default:
			val, ok := hexconv.Parse(char)
			if !ok {
				return nil, nil, status.ErrBadChunk
			}

			c.chunkLength = (c.chunkLength << 4) | uint64(val)
			if c.lengthDigits++; c.lengthDigits > maxChunkLengthDigits {
				return nil, nil, status.ErrBadChunk
			}
		}
	}

	c.state = eChunkLength
	return nil, nil, nil

chunkLengthWS:
	if c.lengthDigits == 0 {
		return nil, nil, status.ErrBadChunk
	}

	for i := 0; i < len(data); i++ {
		switch data[i] {
		case ' ', '\t':
		case '\r':
			data = data[i+1:]
			goto chunkLengthCR
		case '\n':
			data = data[i:]
			goto chunkLengthCR
		case ';':
			data = data[i+1:]
			goto chunkExt
		default:
			return nil, nil, status.ErrBadChunk
		}
	}

	c.state = eChunkLengthWS
	return nil, nil, nil

chunkExt:
	{
		// chunk extensions are not supported, therefore completely ignored.
		boundary := bytes.IndexByte(data, '\n')
		if boundary == -1 {
			c.state = eChunkExt
			return nil, nil, nil
		}

		data = data[boundary+1:]
		goto chunkHead
	}

chunkLengthCR:
	if len(data) == 0 {
		c.state = eChunkLengthCR
		return nil, nil, nil
	}

	if data[0] != '\n' {
		return nil, nil, status.ErrBadChunk
	}

	data = data[1:]

chunkHead:
	c.lengthDigits = 0
	if c.chunkLength == 0 {
		goto trailer
	}

	goto chunkBody

chunkBody:
	{
		if len(data) == 0 {
			c.state = eChunkBody
			return nil, nil, nil
		}

		n := min(c.chunkLength, uint64(len(data)))
		c.chunkLength -= n
		chunk = data[:n]

		if c.chunkLength == 0 {
			c.state = eChunkBodyDone
		} else {
			c.state = eChunkBody
		}

		return chunk, data[n:], nil
	}

chunkBodyDone:
	if len(data) == 0 {
		c.state = eChunkBodyDone
		return nil, nil, nil
	}

	switch data[0] {
	case '\r':
		data = data[1:]
		goto chunkBodyCRLF
	case '\n':
		data = data[1:]
		goto chunkLength
	default:
		return nil, nil, status.ErrBadChunk
	}

chunkBodyCRLF:
	if len(data) == 0 {
		c.state = eChunkBodyCRLF
		return nil, nil, nil
	}

	if data[0] != '\n' {
		return nil, nil, status.ErrBadChunk
	}

	data = data[1:]
	goto chunkLength

trailer:
	if len(data) == 0 {
		c.state = eChunkTrailer
		return nil, nil, nil
	}

	switch data[0] {
	case '\r':
		data = data[1:]
		goto chunkTrailerCRLF
	case '\n':
		c.state = eChunkLength
		return nil, data[1:], io.EOF
	default:
		goto chunkTrailerFieldLine
	}

chunkTrailerCRLF:
	if len(data) == 0 {
		c.state = eChunkTrailerCRLF
		return nil, nil, nil
	}

	if data[0] != '\n' {
		return nil, nil, status.ErrBadChunk
	}

	c.state = eChunkLength
	return nil, data[1:], io.EOF

chunkTrailerFieldLine:
	{
		boundary := bytes.IndexByte(data, '\n')
		if boundary == -1 {
			c.state = eChunkTrailerFieldLine
			return nil, nil, nil
		}

		data = data[boundary+1:]
		goto trailer
	}
}

// ChunkedReader decodes the chunked transfer coding. Bytes following the terminating
// chunk are pushed back to the source.
type ChunkedReader struct {
	src     Source
	parser  chunkedParser
	pending []byte
	done    bool
}

func NewChunkedReader(src Source) *ChunkedReader {
	return &ChunkedReader{
		src:    src,
		parser: newChunkedParser(),
	}
}

// Read implements io.Reader. Once the terminating chunk is met, all the consequent calls
// return io.EOF without touching the source.
func (c *ChunkedReader) Read(p []byte) (n int, err error) {
	for len(c.pending) == 0 {
		if c.done {
			return 0, io.EOF
		}

		if err = c.fetch(); err != nil {
			return 0, err
		}
	}

	n = copy(p, c.pending)
	c.pending = c.pending[n:]

	return n, nil
}

func (c *ChunkedReader) fetch() error {
	data, err := c.src.Read()
	if len(data) == 0 && err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}

		return fmt.Errorf("%w: %w", status.ErrBadChunk, err)
	}

	chunk, extra, err := c.parser.Parse(data)
	switch err {
	case nil:
	case io.EOF:
		c.done = true
	default:
		return err
	}

	c.pending = chunk
	if len(extra) > 0 {
		c.src.Pushback(extra)
	}

	return nil
}

// Done reports whether the terminating chunk was met or the reader was closed.
func (c *ChunkedReader) Done() bool {
	return c.done
}

// Close stops the decoding. The source is left intact, as it's owned by the connection.
func (c *ChunkedReader) Close() error {
	c.done = true
	c.pending = nil
	return nil
}
