package http

import (
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/indigo-web/connector/http/cookie"
	"github.com/indigo-web/connector/http/headers"
	"github.com/indigo-web/connector/http/method"
	"github.com/indigo-web/connector/http/proto"
	"github.com/indigo-web/connector/internal/strutil"
	"github.com/indigo-web/connector/kv"
)

type (
	Headers = *kv.Storage
	Header  = kv.Pair
)

// Request is the protocol-independent view of a request. On the server side it's filled
// from the received message, on the client side it describes the message to send.
type Request struct {
	// Method is an enum representing the request method. Methods outside the enum are
	// represented by method.Unknown.
	Method method.Method
	// URI is the request target exactly as it appears in the request line.
	URI string
	// Path and Query are the URI split by the first question mark. Neither is decoded.
	Path, Query string
	// Protocol is the version of the protocol used for the request.
	Protocol proto.Proto
	// Headers holds the original header block. Header keys and values aren't validated,
	// therefore may contain ASCII-nonprintable and/or Unicode characters.
	Headers Headers
	// Host is the value of the Host header.
	Host string
	// Client describes the agent the request came from or is sent by.
	Client ClientInfo
	// Conditions are conditional request headers.
	Conditions Conditions
	// Cookies are received via the Cookie header.
	Cookies cookie.Jar
	// Challenge holds credentials from the Authorization header. Nil if there were none.
	Challenge *ChallengeResponse
	// Ranges are the requested byte ranges. Empty means the whole entity.
	Ranges []Range
	// Entity is the request body with its metadata. Nil for requests without an entity.
	Entity *Representation
	// Confidential reports whether the request was transferred over a secure channel.
	Confidential bool
}

// NewRequest returns a request with an empty header block, meant to be sent by a client.
func NewRequest(m method.Method, uri string) *Request {
	r := &Request{
		Method:   m,
		Protocol: proto.HTTP11,
		Headers:  kv.New(),
		Cookies:  cookie.NewJar(),
	}

	return r.SetURI(uri)
}

// SetURI sets the request target, splitting it into path and query.
func (r *Request) SetURI(uri string) *Request {
	r.URI = uri
	r.Path, r.Query, _ = strings.Cut(uri, "?")
	return r
}

// ClientInfo describes the user agent.
type ClientInfo struct {
	// Address is the remote address of the connection. It isn't set on outgoing requests.
	Address net.Addr
	// Agent is the User-Agent value.
	Agent string
	// Accepted preferences, as sent via the Accept family of headers.
	MediaTypes []headers.Preference
	Charsets   []headers.Preference
	Encodings  []headers.Preference
	Languages  []headers.Preference
}

// Conditions are the preconditions of the request, evaluated by the server against the
// current state of the resource.
type Conditions struct {
	// Match and NoneMatch contain entity tags. A single "*" matches any tag.
	Match, NoneMatch []string
	// Zero time means the condition is absent.
	ModifiedSince, UnmodifiedSince time.Time
}

func (c Conditions) Empty() bool {
	return len(c.Match) == 0 && len(c.NoneMatch) == 0 &&
		c.ModifiedSince.IsZero() && c.UnmodifiedSince.IsZero()
}

// ChallengeResponse is the content of the Authorization header.
type ChallengeResponse struct {
	Scheme string
	// Credentials are kept raw, because their format depends on the scheme.
	Credentials string
}

func ParseChallengeResponse(value string) *ChallengeResponse {
	scheme, credentials, _ := strings.Cut(strutil.StripWS(value), " ")
	if len(scheme) == 0 {
		return nil
	}

	return &ChallengeResponse{
		Scheme:      scheme,
		Credentials: strutil.LStripWS(credentials),
	}
}

func (c ChallengeResponse) String() string {
	if len(c.Credentials) == 0 {
		return c.Scheme
	}

	return c.Scheme + " " + c.Credentials
}

// Range is a single byte range. Index of UnknownSize denotes a suffix range, where Size
// is the number of trailing bytes. Size of UnknownSize denotes an open range lasting
// till the end of the entity.
type Range struct {
	Index, Size int64
}

// ParseRanges parses the value of the Range header. Only byte ranges are supported,
// anything else or any malformed range results in no ranges at all, as the header
// must be ignored then.
func ParseRanges(value string) []Range {
	unit, set, found := strings.Cut(strutil.StripWS(value), "=")
	if !found || !strutil.CmpFold(strutil.StripWS(unit), "bytes") {
		return nil
	}

	var ranges []Range

	for _, spec := range strutil.AppendList(nil, set) {
		first, last, found := strings.Cut(spec, "-")
		if !found {
			return nil
		}

		first, last = strutil.StripWS(first), strutil.StripWS(last)
		r := Range{Index: UnknownSize, Size: UnknownSize}

		switch {
		case len(first) == 0:
			n, err := strconv.ParseInt(last, 10, 64)
			if err != nil || n < 0 {
				return nil
			}

			r.Size = n
		case len(last) == 0:
			n, err := strconv.ParseInt(first, 10, 64)
			if err != nil || n < 0 {
				return nil
			}

			r.Index = n
		default:
			from, err1 := strconv.ParseInt(first, 10, 64)
			to, err2 := strconv.ParseInt(last, 10, 64)
			if err1 != nil || err2 != nil || from < 0 || to < from {
				return nil
			}

			r.Index, r.Size = from, to-from+1
		}

		ranges = append(ranges, r)
	}

	return ranges
}

// RenderRanges is the inverse of ParseRanges.
func RenderRanges(ranges []Range) string {
	buff := []byte("bytes=")

	for i, r := range ranges {
		if i > 0 {
			buff = append(buff, ',')
		}

		switch {
		case r.Index == UnknownSize:
			buff = append(buff, '-')
			buff = strconv.AppendInt(buff, r.Size, 10)
		case r.Size == UnknownSize:
			buff = strconv.AppendInt(buff, r.Index, 10)
			buff = append(buff, '-')
		default:
			buff = strconv.AppendInt(buff, r.Index, 10)
			buff = append(buff, '-')
			buff = strconv.AppendInt(buff, r.Index+r.Size-1, 10)
		}
	}

	return string(buff)
}
