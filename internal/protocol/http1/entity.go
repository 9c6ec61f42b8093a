package http1

import (
	"io"
	"strconv"
	"strings"

	"github.com/indigo-web/connector/http"
	"github.com/indigo-web/connector/http/headers"
	"github.com/indigo-web/connector/http/method"
	"github.com/indigo-web/connector/http/mime"
	"github.com/indigo-web/connector/http/proto"
	"github.com/indigo-web/connector/http/status"
	"github.com/indigo-web/connector/internal/strutil"
	"github.com/indigo-web/connector/kv"
	"golang.org/x/net/http/httpguts"
)

// MessageHead is the common part of both requests and responses as they are seen on
// the wire.
type MessageHead interface {
	Protocol() proto.Proto
	Headers() *kv.Storage
}

// EntitySource provides the entity of an incoming message.
type EntitySource interface {
	EntityStream() io.Reader
}

// EntitySink accepts the entity of an outgoing message.
type EntitySink interface {
	EntityWriter() io.Writer
}

// EntityExpected reports whether a message of the given method (for requests) or of the
// status code in response to the method may carry an entity. Zero code means a request.
func EntityExpected(m method.Method, code status.Code) bool {
	if code == 0 {
		return true
	}

	if m == method.HEAD || code.Informational() {
		return false
	}

	switch code {
	case status.NoContent, status.ResetContent, status.PartialContent, status.NotModified:
		return false
	default:
		return true
	}
}

// EntityLength determines the message framing. Transfer-Encoding overrides Content-Length:
// the chunked coding must be the final one, except for responses, which are then read
// until the connection is closed. Otherwise, Content-Length is used. Requests without either have no entity at
// all, while responses are read until the connection is closed. Duplicate Content-Length
// values are tolerated only if they are identical.
func EntityLength(hdrs *kv.Storage, request bool) (size int64, chunked bool, err error) {
	if hdrs.Has(headers.TransferEncoding) {
		switch {
		case isChunked(hdrs):
			return http.UnknownSize, true, nil
		case request:
			return 0, false, status.ErrNotImplemented
		default:
			return http.UnknownSize, false, nil
		}
	}

	values := hdrs.Values(headers.ContentLength)
	if len(values) == 0 {
		if request {
			return 0, false, nil
		}

		return http.UnknownSize, false, nil
	}

	size = -1
	for _, value := range headers.List(values) {
		n, perr := strconv.ParseUint(value, 10, 63)
		if perr != nil || (size != -1 && int64(n) != size) {
			return 0, false, status.ErrBadContentLength
		}

		size = int64(n)
	}

	if size == -1 {
		return 0, false, status.ErrBadContentLength
	}

	return size, false, nil
}

// CopyEntityHeaders fills the representation's metadata from the header block.
// Malformed values are skipped.
func CopyEntityHeaders(hdrs *kv.Storage, entity *http.Representation) {
	if value, found := hdrs.Get(headers.ContentType); found {
		if ct, err := mime.ParseContentType(value); err == nil {
			entity.MediaType = ct.MediaType
			entity.Charset = ct.Charset
		}
	}

	entity.Encodings = headers.List(hdrs.Values(headers.ContentEncoding))
	entity.Languages = headers.List(hdrs.Values(headers.ContentLanguage))
	entity.Tag = hdrs.Value(headers.ETag)
	entity.Location = hdrs.Value(headers.ContentLocation)
	entity.Disposition = hdrs.Value(headers.ContentDisposition)
	entity.Range = hdrs.Value(headers.ContentRange)

	if t, ok := headers.ParseDate(hdrs.Value(headers.Expires)); ok {
		entity.Expires = t
	}

	if t, ok := headers.ParseDate(hdrs.Value(headers.LastModified)); ok {
		entity.Modified = t
	}
}

// WriteEntityHeaders is the inverse of CopyEntityHeaders. The framing headers
// (Content-Length, Transfer-Encoding) aren't touched.
func WriteEntityHeaders(hdrs *kv.Storage, entity *http.Representation) {
	if len(entity.MediaType) > 0 {
		ct := mime.ContentType{MediaType: entity.MediaType, Charset: entity.Charset}
		hdrs.Set(headers.ContentType, ct.String())
	}

	if len(entity.Encodings) > 0 {
		hdrs.Set(headers.ContentEncoding, strings.Join(entity.Encodings, ", "))
	}

	if len(entity.Languages) > 0 {
		hdrs.Set(headers.ContentLanguage, strings.Join(entity.Languages, ", "))
	}

	setNonEmpty(hdrs, headers.ETag, entity.Tag)
	setNonEmpty(hdrs, headers.ContentLocation, entity.Location)
	setNonEmpty(hdrs, headers.ContentDisposition, entity.Disposition)
	setNonEmpty(hdrs, headers.ContentRange, entity.Range)

	if !entity.Expires.IsZero() {
		hdrs.Set(headers.Expires, headers.FormatDate(entity.Expires))
	}

	if !entity.Modified.IsZero() {
		hdrs.Set(headers.LastModified, headers.FormatDate(entity.Modified))
	}
}

func setNonEmpty(hdrs *kv.Storage, key, value string) {
	if len(value) > 0 {
		hdrs.Set(key, value)
	}
}

// KeepAlive reports whether the peer is willing to keep the connection open after the
// exchange. The stream connectors close it anyway.
func KeepAlive(protocol proto.Proto, hdrs *kv.Storage) bool {
	connection := hdrs.Values(headers.Connection)

	switch protocol {
	case proto.HTTP11:
		return !httpguts.HeaderValuesContainsToken(connection, "close")
	case proto.HTTP10:
		return httpguts.HeaderValuesContainsToken(connection, "keep-alive")
	default:
		return false
	}
}

// isChunked reports whether chunked is the final transfer coding.
func isChunked(hdrs *kv.Storage) bool {
	codings := headers.List(hdrs.Values(headers.TransferEncoding))
	return len(codings) > 0 && strutil.CmpFold(codings[len(codings)-1], "chunked")
}
