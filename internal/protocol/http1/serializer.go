package http1

import (
	"io"
	"strconv"

	"github.com/indigo-web/connector/config"
	"github.com/indigo-web/connector/http/proto"
	"github.com/indigo-web/connector/http/status"
	"github.com/indigo-web/connector/kv"
	"golang.org/x/net/http/httpguts"
)

// Serializer renders message heads into the write buffer. The buffer is flushed either
// explicitly or when its maximal size would otherwise be exceeded.
type Serializer struct {
	dst     io.Writer
	buff    []byte
	maxSize int
}

func NewSerializer(dst io.Writer, cfg *config.Config) *Serializer {
	return &Serializer{
		dst:     dst,
		buff:    make([]byte, 0, cfg.NET.WriteBufferSize.Default),
		maxSize: cfg.NET.WriteBufferSize.Maximal,
	}
}

// RequestLine appends METHOD SP URI SP VERSION CRLF.
func (s *Serializer) RequestLine(method, uri string, protocol proto.Proto) error {
	if !validURI(uri) {
		return status.ErrBadURI
	}

	if err := s.ensure(len(method) + len(uri) + len("HTTP/1.1") + 2 + len(crlf)); err != nil {
		return err
	}

	s.buff = append(s.buff, method...)
	s.sp()
	s.buff = append(s.buff, uri...)
	s.sp()
	s.buff = append(s.buff, protocol.String()...)
	s.crlf()

	return nil
}

// StatusLine appends VERSION SP CODE SP REASON CRLF. Empty reason is substituted by the
// standard one.
func (s *Serializer) StatusLine(protocol proto.Proto, code status.Code, reason string) error {
	if len(reason) == 0 {
		reason = status.Text(code)
	}

	if !httpguts.ValidHeaderFieldValue(reason) {
		return status.ErrInvalidHeader
	}

	if err := s.ensure(len("HTTP/1.1") + len(" 200 ") + len(reason) + len(crlf)); err != nil {
		return err
	}

	s.buff = append(s.buff, protocol.String()...)
	s.sp()
	s.buff = strconv.AppendUint(s.buff, uint64(code), 10)
	s.sp()
	s.buff = append(s.buff, reason...)
	s.crlf()

	return nil
}

// Header appends a single header line. Names and values unable to be transmitted as is,
// e.g. containing line breaks, are rejected.
func (s *Serializer) Header(key, value string) error {
	if !httpguts.ValidHeaderFieldName(key) || !httpguts.ValidHeaderFieldValue(value) {
		return status.ErrInvalidHeader
	}

	if err := s.ensure(len(key) + len(": ") + len(value) + len(crlf)); err != nil {
		return err
	}

	s.buff = append(s.buff, key...)
	s.buff = append(s.buff, ':', ' ')
	s.buff = append(s.buff, value...)
	s.crlf()

	return nil
}

// Headers appends all the pairs in their order.
func (s *Serializer) Headers(headers *kv.Storage) error {
	for key, value := range headers.Pairs() {
		if err := s.Header(key, value); err != nil {
			return err
		}
	}

	return nil
}

// End terminates the header block.
func (s *Serializer) End() error {
	if err := s.ensure(len(crlf)); err != nil {
		return err
	}

	s.crlf()
	return nil
}

// Flush writes out everything buffered so far.
func (s *Serializer) Flush() error {
	if len(s.buff) == 0 {
		return nil
	}

	_, err := s.dst.Write(s.buff)
	s.buff = s.buff[:0]
	return err
}

// Buffered returns the number of bytes awaiting the flush.
func (s *Serializer) Buffered() int {
	return len(s.buff)
}

func (s *Serializer) ensure(n int) error {
	if len(s.buff)+n <= s.maxSize {
		return nil
	}

	return s.Flush()
}

func (s *Serializer) sp() {
	s.buff = append(s.buff, ' ')
}

func (s *Serializer) crlf() {
	s.buff = append(s.buff, crlf...)
}

// validURI rejects empty targets and those with spaces, control or non-ASCII characters,
// as any of them breaks the request line apart.
func validURI(uri string) bool {
	if len(uri) == 0 {
		return false
	}

	for i := 0; i < len(uri); i++ {
		if c := uri[i]; c <= ' ' || c >= 0x7f {
			return false
		}
	}

	return true
}
