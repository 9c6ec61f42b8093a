package http1

import (
	"io"
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

// ClientCall is a single exchange on the client side. The request is fully sent before
// the response is read, so the server can't answer prematurely.
type ClientCall struct {
	cfg        *config.Config
	client     transport.Client
	parser     *HeadParser
	serializer *Serializer

	method         method.Method
	uri            string
	requestHeaders *kv.Storage

	protocol        proto.Proto
	status          status.Code
	reason          string
	responseHeaders *kv.Storage
	responseChunked bool
	responseSize    int64
	entity          *http.Representation
	entityBuilt     bool
}

func NewClientCall(client transport.Client, cfg *config.Config, m method.Method, uri string) *ClientCall {
	return &ClientCall{
		cfg:            cfg,
		client:         client,
		parser:         NewHeadParser(cfg, false),
		serializer:     NewSerializer(client, cfg),
		method:         m,
		uri:            uri,
		requestHeaders: kv.NewPrealloc(cfg.Headers.Number.Default),
	}
}

func (c *ClientCall) Method() method.Method {
	return c.method
}

func (c *ClientCall) RequestURI() string {
	return c.uri
}

// RequestHeaders returns the header block of the request to be sent. It's safe to modify
// it until SendRequest is called.
func (c *ClientCall) RequestHeaders() *kv.Storage {
	return c.requestHeaders
}

// SendRequest transmits the request with the entity, notifying the service before and
// after the entity is written, and then reads the response head. Returned errors are
// always of the status.ConnectorCommunication class.
func (c *ClientCall) SendRequest(entity *http.Representation, svc http.ConnectorService) (status.Code, error) {
	if svc == nil {
		svc = http.NopService{}
	}

	hdrs := c.requestHeaders.Delete(headers.ContentLength).Delete(headers.TransferEncoding)
	chunked := false

	switch {
	case entity == nil:
		switch c.method {
		case method.POST, method.PUT, method.PATCH:
			hdrs.Set(headers.ContentLength, "0")
		}
	case entity.Size == http.UnknownSize:
		chunked = true
		hdrs.Set(headers.TransferEncoding, "chunked")
	default:
		hdrs.Set(headers.ContentLength, strconv.FormatInt(entity.Size, 10))
	}

	if err := c.writeHead(hdrs); err != nil {
		return status.ConnectorCommunication, communicationErr(err)
	}

	if entity != nil {
		svc.BeforeSend(entity)

		if entity.Stream != nil {
			if err := writeEntity(c.client, c.cfg, entity, chunked); err != nil {
				return status.ConnectorCommunication, err
			}
		} else if chunked {
			if _, err := io.WriteString(c.client, chunkZeroTrailer); err != nil {
				return status.ConnectorCommunication, communicationErr(err)
			}
		}

		svc.AfterSend(entity)
	}

	if err := c.readResponse(); err != nil {
		return status.ConnectorCommunication, communicationErr(err)
	}

	return c.status, nil
}

func (c *ClientCall) writeHead(hdrs *kv.Storage) error {
	if err := c.serializer.RequestLine(c.method.String(), c.uri, proto.HTTP11); err != nil {
		return err
	}

	if err := c.serializer.Headers(hdrs); err != nil {
		return err
	}

	if err := c.serializer.End(); err != nil {
		return err
	}

	return c.serializer.Flush()
}

// readResponse reads the final response head. Interim responses are skipped, except
// for 101 Switching Protocols, which is final by its nature. The framing of the entity
// is validated right away, so a malformed one fails the exchange.
func (c *ClientCall) readResponse() error {
	for {
		c.parser.Reset()

		if err := ReadHead(c.client, c.parser); err != nil {
			if err == io.EOF {
				err = io.ErrUnexpectedEOF
			}

			return err
		}

		protocol, code, reason := c.parser.StartLine()
		if c.protocol = proto.Parse(protocol); c.protocol == proto.Unknown {
			return status.ErrUnsupportedProtocol
		}

		var err error
		if c.status, err = status.Parse(code); err != nil {
			return err
		}

		if c.status.Informational() && c.status != status.SwitchingProtocols {
			continue
		}

		c.reason = reason
		c.responseHeaders = c.parser.Headers()

		if EntityExpected(c.method, c.status) {
			c.responseSize, c.responseChunked, err = EntityLength(c.responseHeaders, false)
		}

		return err
	}
}

func (c *ClientCall) Status() status.Code {
	return c.status
}

func (c *ClientCall) ReasonPhrase() string {
	return c.reason
}

// Protocol returns the protocol of the response.
func (c *ClientCall) Protocol() proto.Proto {
	return c.protocol
}

// ResponseHeaders returns the header block of the response. It's nil until the response
// is received.
func (c *ClientCall) ResponseHeaders() *kv.Storage {
	return c.responseHeaders
}

// Headers implements MessageHead for the response.
func (c *ClientCall) Headers() *kv.Storage {
	return c.responseHeaders
}

func (c *ClientCall) ResponseChunked() bool {
	return c.responseChunked
}

// EntityStream implements EntitySource.
func (c *ClientCall) EntityStream() io.Reader {
	if entity := c.ResponseEntity(); entity != nil {
		return entity.Stream
	}

	return nil
}

// ResponseEntity returns the representation of the response entity, or nil if the
// response can't have one. Releasing the representation closes the connection.
func (c *ClientCall) ResponseEntity() *http.Representation {
	if c.entityBuilt {
		return c.entity
	}

	if c.responseHeaders == nil || !EntityExpected(c.method, c.status) {
		return nil
	}

	c.entityBuilt = true

	var stream io.Reader
	switch {
	case c.responseChunked:
		stream = NewChunkedReader(c.client)
	case c.responseSize == http.UnknownSize:
		stream = NewCloseDelimitedReader(c.client)
	default:
		stream = NewBoundedReader(c.client, c.responseSize)
	}

	entity := http.NewRepresentation(stream, c.responseSize)
	CopyEntityHeaders(c.responseHeaders, entity)
	entity.OnRelease(func() {
		_ = c.client.Close()
	})
	c.entity = entity

	return entity
}

// Close closes the connection. It's required only if the response has no entity,
// otherwise releasing the entity does the same.
func (c *ClientCall) Close() error {
	return c.client.Close()
}
