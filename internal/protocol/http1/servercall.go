package http1

import (
	"fmt"
	"io"
	"net"
	"strconv"

	"github.com/indigo-web/connector/config"
	"github.com/indigo-web/connector/http"
	"github.com/indigo-web/connector/http/headers"
	"github.com/indigo-web/connector/http/method"
	"github.com/indigo-web/connector/http/proto"
	"github.com/indigo-web/connector/http/status"
	"github.com/indigo-web/connector/kv"
	"github.com/indigo-web/connector/transport"
)

const continueResponse = "HTTP/1.1 100 Continue\r\n\r\n"

// ServerCall is a single exchange on the server side: the request read from the client
// and the response written back. The stream connector serves exactly one call per
// connection.
type ServerCall struct {
	cfg        *config.Config
	client     transport.Client
	parser     *HeadParser
	serializer *Serializer

	method    method.Method
	rawMethod string
	uri       string
	protocol  proto.Proto
	headers   *kv.Storage

	entitySize    int64
	entityChunked bool
	entity        io.ReadCloser
	entityBuilt   bool

	responseChunked bool
	responded       bool
}

func NewServerCall(client transport.Client, cfg *config.Config) *ServerCall {
	return &ServerCall{
		cfg:        cfg,
		client:     client,
		parser:     NewHeadParser(cfg, true),
		serializer: NewSerializer(client, cfg),
	}
}

// ReadRequest synchronously reads and parses the request head. Clean end of stream before
// any byte was received is reported as io.EOF.
func (s *ServerCall) ReadRequest() error {
	if err := ReadHead(s.client, s.parser); err != nil {
		return err
	}

	rawMethod, uri, protocol := s.parser.StartLine()
	if len(uri) == 0 {
		return status.ErrBadRequestLine
	}

	s.rawMethod = rawMethod
	s.method = method.Parse(rawMethod)
	s.uri = uri
	s.headers = s.parser.Headers()

	if s.protocol = proto.Parse(protocol); s.protocol == proto.Unknown {
		return status.ErrUnsupportedProtocol
	}

	size, chunked, err := EntityLength(s.headers, true)
	if err != nil {
		return err
	}

	s.entitySize, s.entityChunked = size, chunked

	return nil
}

// HeadRead reports whether the request head was read and is well-formed, even though
// ReadRequest might fail on the protocol version or the entity framing.
func (s *ServerCall) HeadRead() bool {
	return s.headers != nil
}

func (s *ServerCall) Method() method.Method {
	return s.method
}

// RawMethod returns the method token exactly as received, useful when Method is
// method.Unknown.
func (s *ServerCall) RawMethod() string {
	return s.rawMethod
}

func (s *ServerCall) RequestURI() string {
	return s.uri
}

func (s *ServerCall) Protocol() proto.Proto {
	return s.protocol
}

// Headers returns the request header block.
func (s *ServerCall) Headers() *kv.Storage {
	return s.headers
}

// RequestChunked reports whether the request entity is transmitted using chunked coding.
func (s *ServerCall) RequestChunked() bool {
	return s.entityChunked
}

// RequestSize returns the declared entity length or http.UnknownSize.
func (s *ServerCall) RequestSize() int64 {
	return s.entitySize
}

// ResponseChunked reports whether the response entity was sent using chunked coding.
func (s *ServerCall) ResponseChunked() bool {
	return s.responseChunked
}

func (s *ServerCall) Remote() net.Addr {
	return s.client.Remote()
}

func (s *ServerCall) Local() net.Addr {
	return s.client.Local()
}

// Confidential is always false, as the connector doesn't terminate TLS.
func (s *ServerCall) Confidential() bool {
	return false
}

// EntityStream implements EntitySource.
func (s *ServerCall) EntityStream() io.Reader {
	if entity := s.RequestEntity(); entity != nil {
		return entity
	}

	return nil
}

// RequestEntity returns the stream of the request entity, or nil if there's none. If
// the client awaits the confirmation before sending the entity, it's sent on the first
// read of the stream.
func (s *ServerCall) RequestEntity() io.ReadCloser {
	if s.entityBuilt {
		return s.entity
	}

	s.entityBuilt = true

	var stream io.ReadCloser
	switch {
	case s.entityChunked:
		stream = NewChunkedReader(s.client)
	case s.entitySize > 0:
		stream = NewBoundedReader(s.client, s.entitySize)
	default:
		return nil
	}

	s.entity = &requestEntity{
		ReadCloser: stream,
		call:       s,
		confirmed:  s.protocol != proto.HTTP11 || !headers.HasToken(s.headers.Values(headers.Expect), "100-continue"),
	}

	return s.entity
}

// requestEntity sends 100 Continue on the first read, if the client awaits it. Once
// the final response is sent, the confirmation is never sent anymore.
type requestEntity struct {
	io.ReadCloser
	call      *ServerCall
	confirmed bool
}

func (r *requestEntity) Read(p []byte) (int, error) {
	if !r.confirmed {
		if r.call.responded {
			// the client doesn't send the entity without the confirmation
			return 0, io.EOF
		}

		r.confirmed = true
		if _, err := io.WriteString(r.call.client, continueResponse); err != nil {
			return 0, communicationErr(err)
		}
	}

	return r.ReadCloser.Read(p)
}

// SendResponse writes the status line, the header block and the entity. Framing headers
// are managed by the call itself: passed Content-Length and Transfer-Encoding are
// overridden. The entity is transmitted only if the status code and the request method
// allow it, however HEAD and 304 responses still advertise its length.
func (s *ServerCall) SendResponse(
	code status.Code, reason string, hdrs *kv.Storage, entity *http.Representation,
) error {
	s.responded = true
	hdrs.Delete(headers.ContentLength).Delete(headers.TransferEncoding)

	withBody := EntityExpected(s.method, code) && entity != nil
	switch {
	case code.Informational() || code == status.NoContent || code == status.ResetContent:
	case entity == nil:
		if code != status.NotModified {
			hdrs.Set(headers.ContentLength, "0")
		}
	case entity.Size == http.UnknownSize:
		if withBody {
			s.responseChunked = true
			hdrs.Set(headers.TransferEncoding, "chunked")
		}
	default:
		hdrs.Set(headers.ContentLength, strconv.FormatInt(entity.Size, 10))
	}

	protocol := proto.HTTP11
	if s.protocol == proto.HTTP10 {
		protocol = proto.HTTP10
	}

	if err := s.serializer.StatusLine(protocol, code, reason); err != nil {
		return err
	}

	if err := s.serializer.Headers(hdrs); err != nil {
		return err
	}

	if err := s.serializer.End(); err != nil {
		return err
	}

	if err := s.serializer.Flush(); err != nil {
		return communicationErr(err)
	}

	if !withBody {
		return nil
	}

	if entity.Stream == nil {
		if s.responseChunked {
			if _, err := io.WriteString(s.client, chunkZeroTrailer); err != nil {
				return communicationErr(err)
			}
		}

		return nil
	}

	return writeEntity(s.client, s.cfg, entity, s.responseChunked)
}

// Complete finishes the exchange: the output is half-closed, so the client observes the
// end of the response, and the unread part of the request entity is drained within the
// configured limit.
func (s *ServerCall) Complete() error {
	if err := s.serializer.Flush(); err != nil {
		return communicationErr(err)
	}

	err := s.client.CloseWrite()

	if s.entityBuilt && s.entity != nil {
		_, _ = io.CopyN(io.Discard, s.entity, s.cfg.Body.DrainLimit)
	}

	if err != nil {
		return communicationErr(err)
	}

	return nil
}

// writeEntity transmits the entity either using the chunked coding or as is, refusing
// to write more or less than declared.
func writeEntity(dst io.Writer, cfg *config.Config, entity *http.Representation, chunked bool) error {
	if chunked {
		writer := NewChunkedWriter(dst, cfg.Body.ChunkSize)
		if _, err := writer.ReadFrom(entity.Stream); err != nil {
			return communicationErr(err)
		}

		if err := writer.Close(); err != nil {
			return communicationErr(err)
		}

		return nil
	}

	writer := &identityWriter{dst: dst, remain: entity.Size}
	if _, err := io.CopyN(writer, entity.Stream, entity.Size); err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}

		return communicationErr(err)
	}

	if err := writer.Close(); err != nil {
		return communicationErr(err)
	}

	return nil
}

func communicationErr(err error) error {
	return fmt.Errorf("%w: %w", status.ErrConnectorCommunication, err)
}
