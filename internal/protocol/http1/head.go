package http1

import (
	"bytes"
	"fmt"
	"io"

	"github.com/indigo-web/connector/config"
	"github.com/indigo-web/connector/http/status"
	"github.com/indigo-web/connector/internal/buffer"
	"github.com/indigo-web/connector/kv"
	"github.com/indigo-web/utils/uf"
)

type headParserState uint8

const (
	eFirstToken headParserState = iota
	eFirstTokenSP
	eSecondToken
	eSecondTokenSP
	eThirdToken
	eHeaderKey
	eHeaderKeyBegin
	eHeaderValueSP
	eHeaderValue
	eHeadersEndLF
)

// HeadParser is a push-style parser of a message head: the start line followed by the
// header block. It's used for both requests and responses, the difference is only in
// the requirements to the start line: a request line must consist of exactly three
// tokens, while the reason phrase of a status line may be omitted.
//
// Strings returned by the parser reference its internal buffers, so they stay valid
// until Reset is called.
type HeadParser struct {
	cfg           *config.Config
	request       bool
	state         headParserState
	startLine     *buffer.Buffer
	headerBuff    *buffer.Buffer
	headers       *kv.Storage
	tokens        [3]string
	headerKey     string
	headersNumber int
	touched       bool
}

// NewHeadParser returns a parser of request heads if request is true, and of response
// heads otherwise.
func NewHeadParser(cfg *config.Config, request bool) *HeadParser {
	return &HeadParser{
		cfg:        cfg,
		request:    request,
		state:      eFirstToken,
		startLine:  buffer.New(cfg.Headers.MaxLineLength, cfg.Headers.MaxLineLength),
		headerBuff: buffer.New(cfg.Headers.Space.Default, cfg.Headers.Space.Maximal),
		headers:    kv.NewPrealloc(cfg.Headers.Number.Default),
	}
}

// StartLine returns the tokens of the start line. For requests those are method, request
// URI and protocol, for responses protocol, status code and reason phrase.
func (p *HeadParser) StartLine() (first, second, third string) {
	return p.tokens[0], p.tokens[1], p.tokens[2]
}

// Headers returns the header block in the order of appearance.
func (p *HeadParser) Headers() *kv.Storage {
	return p.headers
}

// Touched reports whether at least a single byte was fed to the parser since the last reset.
func (p *HeadParser) Touched() bool {
	return p.touched
}

func (p *HeadParser) startLineErr() error {
	if p.request {
		return status.ErrBadRequestLine
	}

	return status.ErrBadStatusLine
}

// Parse consumes the data. It returns true when the whole head is parsed, in which case
// extra holds the bytes following it.
func (p *HeadParser) Parse(data []byte) (done bool, extra []byte, err error) {
	if len(data) > 0 {
		p.touched = true
	}

	switch p.state {
	case eFirstToken:
		goto firstToken
	case eFirstTokenSP:
		goto firstTokenSP
	case eSecondToken:
		goto secondToken
	case eSecondTokenSP:
		goto secondTokenSP
	case eThirdToken:
		goto thirdToken
	case eHeaderKeyBegin:
		goto headerKeyBegin
	case eHeaderKey:
		goto headerKey
	case eHeaderValueSP:
		goto headerValueSP
	case eHeaderValue:
		goto headerValue
	case eHeadersEndLF:
		goto headersEndLF
	default:
		panic("unreachable code")
	}

firstToken:
	for i, char := range data {
		switch char {
		case ' ':
			if !p.startLine.Append(data[:i]) {
				return true, nil, status.ErrTooLongRequestLine
			}

			if p.startLine.SegmentLength() == 0 {
				return true, nil, p.startLineErr()
			}

			p.tokens[0] = uf.B2S(p.startLine.Finish())
			data = data[i+1:]
			goto firstTokenSP
		case '\r', '\n':
			return true, nil, p.startLineErr()
		}
	}

	if !p.startLine.Append(data) {
		return true, nil, status.ErrTooLongRequestLine
	}

	p.state = eFirstToken
	return false, nil, nil

firstTokenSP:
	for i, char := range data {
		if char != ' ' {
			data = data[i:]
			goto secondToken
		}
	}

	p.state = eFirstTokenSP
	return false, nil, nil

secondToken:
	for i, char := range data {
		switch char {
		case ' ', '\r', '\n':
			if !p.startLine.Append(data[:i]) {
				return true, nil, status.ErrTooLongRequestLine
			}

			p.tokens[1] = uf.B2S(p.startLine.Finish())

			if char == ' ' {
				data = data[i+1:]
				goto secondTokenSP
			}

			if p.request {
				return true, nil, status.ErrBadRequestLine
			}

			data = data[i:]
			goto thirdToken
		}
	}

	if !p.startLine.Append(data) {
		return true, nil, status.ErrTooLongRequestLine
	}

	p.state = eSecondToken
	return false, nil, nil

secondTokenSP:
	for i, char := range data {
		if char != ' ' {
			if p.request && (char == '\r' || char == '\n') {
				return true, nil, status.ErrBadRequestLine
			}

			data = data[i:]
			goto thirdToken
		}
	}

	p.state = eSecondTokenSP
	return false, nil, nil

thirdToken:
	{
		lf := bytes.IndexByte(data, '\n')
		if lf == -1 {
			if !p.startLine.Append(data) {
				return true, nil, status.ErrTooLongRequestLine
			}

			p.state = eThirdToken
			return false, nil, nil
		}

		if !p.startLine.Append(data[:lf]) {
			return true, nil, status.ErrTooLongRequestLine
		}

		if segment := p.startLine.Preview(); len(segment) > 0 && segment[len(segment)-1] == '\r' {
			p.startLine.Trunc(1)
		}

		p.tokens[2] = uf.B2S(p.startLine.Finish())
		if p.request && len(p.tokens[2]) == 0 {
			return true, nil, status.ErrBadRequestLine
		}

		data = data[lf+1:]
		goto headerKeyBegin
	}

headerKeyBegin:
	if len(data) == 0 {
		p.state = eHeaderKeyBegin
		return false, nil, nil
	}

	switch data[0] {
	case '\r':
		data = data[1:]
		goto headersEndLF
	case '\n':
		p.state = eFirstToken
		return true, data[1:], nil
	case ' ', '\t':
		// obsolete line folding isn't supported.
		return true, nil, status.ErrBadHeader
	}

	if p.headersNumber++; p.headersNumber > p.cfg.Headers.Number.Maximal {
		return true, nil, status.ErrTooManyHeaders
	}

headerKey:
	for i, char := range data {
		switch char {
		case ':':
			if !p.headerBuff.Append(data[:i]) {
				return true, nil, status.ErrHeaderFieldsTooLarge
			}

			if p.headerBuff.SegmentLength() == 0 {
				return true, nil, status.ErrBadHeader
			}

			p.headerKey = uf.B2S(p.headerBuff.Finish())
			data = data[i+1:]
			goto headerValueSP
		case '\r', '\n', ' ', '\t':
			return true, nil, status.ErrBadHeader
		}
	}

	if !p.headerBuff.Append(data) {
		return true, nil, status.ErrHeaderFieldsTooLarge
	}

	p.state = eHeaderKey
	return false, nil, nil

headerValueSP:
	for i, char := range data {
		switch char {
		case ' ', '\t':
		default:
			data = data[i:]
			goto headerValue
		}
	}

	p.state = eHeaderValueSP
	return false, nil, nil

headerValue:
	{
		lf := bytes.IndexByte(data, '\n')
		if lf == -1 {
			if !p.headerBuff.Append(data) {
				return true, nil, status.ErrHeaderFieldsTooLarge
			}

			p.state = eHeaderValue
			return false, nil, nil
		}

		if !p.headerBuff.Append(data[:lf]) {
			return true, nil, status.ErrHeaderFieldsTooLarge
		}

		p.headerBuff.Trunc(trailingWS(p.headerBuff.Preview()))
		p.headers.Add(p.headerKey, uf.B2S(p.headerBuff.Finish()))
		data = data[lf+1:]
		goto headerKeyBegin
	}

headersEndLF:
	if len(data) == 0 {
		p.state = eHeadersEndLF
		return false, nil, nil
	}

	if data[0] != '\n' {
		return true, nil, status.ErrBadHeader
	}

	p.state = eFirstToken
	return true, data[1:], nil
}

// trailingWS returns the number of trailing CR, space and tab characters.
func trailingWS(data []byte) (n int) {
	for i := len(data); i > 0; i-- {
		switch data[i-1] {
		case ' ', '\t', '\r':
			n++
		default:
			return n
		}
	}

	return n
}

// Reset prepares the parser for a new message. All the strings returned before become
// invalid.
func (p *HeadParser) Reset() {
	p.state = eFirstToken
	p.startLine.Clear()
	p.headerBuff.Clear()
	p.headers = kv.NewPrealloc(p.cfg.Headers.Number.Default)
	p.tokens = [3]string{}
	p.headerKey = ""
	p.headersNumber = 0
	p.touched = false
}

// ReadHead drives the parser until the head is complete. Bytes following the head are
// pushed back to the source. Clean end of stream before any byte was received results in
// io.EOF, otherwise a truncated head is reported as status.ErrBadRequest.
func ReadHead(src Source, p *HeadParser) error {
	for {
		data, err := src.Read()
		if len(data) == 0 {
			switch {
			case err == nil:
				continue
			case err == io.EOF && !p.Touched():
				return io.EOF
			case err == io.EOF:
				return fmt.Errorf("%w: %w", status.ErrBadRequest, io.ErrUnexpectedEOF)
			default:
				return err
			}
		}

		done, extra, perr := p.Parse(data)
		if perr != nil {
			return perr
		}

		if done {
			if len(extra) > 0 {
				src.Pushback(extra)
			}

			return nil
		}
	}
}
