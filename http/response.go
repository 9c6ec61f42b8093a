package http

import (
	"io"
	"strings"
	"time"

	"github.com/indigo-web/connector/http/cookie"
	"github.com/indigo-web/connector/http/dimension"
	"github.com/indigo-web/connector/http/method"
	"github.com/indigo-web/connector/http/mime"
	"github.com/indigo-web/connector/http/status"
	"github.com/indigo-web/connector/internal/strutil"
	"github.com/indigo-web/connector/kv"
	"github.com/indigo-web/utils/uf"
	json "github.com/json-iterator/go"
)

// Handler produces a response to the request. Returning nil is equal to returning an
// empty 200 OK.
type Handler func(*Request) *Response

// Response is the protocol-independent view of a response. Handlers build it via
// chainable methods, the client connector fills it from the received message.
type Response struct {
	// Status is the response code. Codes produced by the connector itself (see
	// status.Code.Connector) are never transmitted.
	Status status.Code
	// Reason is a custom reason phrase. Empty means the standard one.
	Reason string
	// Headers are additional headers transmitted as is. Headers the connector manages
	// itself are overridden.
	Headers Headers
	// Entity is the response body with its metadata.
	Entity *Representation
	// Dimensions are the negotiation axes the response depends on.
	Dimensions dimension.Set
	// Location is the target of a redirect or of the newly created resource.
	Location string
	// Allowed lists methods supported by the resource, reported via the Allow header.
	Allowed []method.Method
	// Challenges request authentication.
	Challenges []ChallengeRequest
	// Cookies are cookie settings, transmitted as Set-Cookie headers.
	Cookies []cookie.Cookie
	// Age is the age of a cached response in seconds. Negative means absent.
	Age int
	// RetryAfter advises the client when to retry. Zero means absent.
	RetryAfter time.Duration
	// ServerAgent is the Server header value.
	ServerAgent string
	// Request is the request the response answers.
	Request *Request
}

// NewResponse returns a new instance of the Response object with status code set to 200 OK
// and no entity.
func NewResponse(request *Request) *Response {
	return &Response{
		Status:  status.OK,
		Headers: kv.New(),
		Age:     -1,
		Request: request,
	}
}

// Code sets a Response code.
func (r *Response) Code(code status.Code) *Response {
	r.Status = code
	return r
}

// ReasonPhrase sets a custom reason phrase.
func (r *Response) ReasonPhrase(reason string) *Response {
	r.Reason = reason
	return r
}

// Header adds the values of the header.
func (r *Response) Header(key string, values ...string) *Response {
	for _, value := range values {
		r.Headers.Add(key, value)
	}

	return r
}

// String sets the response's body to the passed string
func (r *Response) String(body string) *Response {
	return r.Bytes(uf.S2B(body))
}

// Bytes sets the response's body to passed slice WITHOUT COPYING. Changing
// the passed slice later will affect the response by itself
func (r *Response) Bytes(body []byte) *Response {
	r.Entity.Release()
	r.Entity = BytesRepresentation(body, mime.Plain)
	return r
}

// Stream sets the response's body to the reader. Negative size makes the entity be
// transmitted with the chunked coding.
func (r *Response) Stream(reader io.Reader, size int64, mediaType mime.MIME) *Response {
	if size < 0 {
		size = UnknownSize
	}

	r.Entity.Release()
	r.Entity = NewRepresentation(reader, size)
	r.Entity.MediaType = mediaType
	return r
}

// ContentType sets the media type of the already set entity.
func (r *Response) ContentType(value mime.MIME) *Response {
	if r.Entity != nil {
		r.Entity.MediaType = value
	}

	return r
}

// Cookie adds cookies. They'll be later rendered as a set of Set-Cookie headers
func (r *Response) Cookie(cookies ...cookie.Cookie) *Response {
	r.Cookies = append(r.Cookies, cookies...)
	return r
}

// Vary adds the dimensions the response depends on.
func (r *Response) Vary(dims ...dimension.Dimension) *Response {
	for _, d := range dims {
		r.Dimensions = r.Dimensions.Add(d)
	}

	return r
}

// Redirect sets the location and the status code. The code defaults to 303 See Other.
func (r *Response) Redirect(location string, code ...status.Code) *Response {
	r.Location = location
	if len(code) > 0 {
		return r.Code(code[0])
	}

	return r.Code(status.SeeOther)
}

// Allow sets methods reported via the Allow header.
func (r *Response) Allow(methods ...method.Method) *Response {
	r.Allowed = methods
	return r
}

// Challenge requests authentication using the scheme.
func (r *Response) Challenge(challenges ...ChallengeRequest) *Response {
	r.Challenges = append(r.Challenges, challenges...)
	return r
}

// TryJSON receives a model (must be a pointer to the structure) and returns a new Response
// object and an error
func (r *Response) TryJSON(model any) (*Response, error) {
	data, err := json.ConfigDefault.Marshal(model)
	if err != nil {
		return r, err
	}

	return r.Bytes(data).ContentType(mime.JSON), nil
}

// JSON does the same as TryJSON does, except returned error is being implicitly wrapped
// by Error
func (r *Response) JSON(model any) *Response {
	resp, err := r.TryJSON(model)
	if err != nil {
		return r.Error(err)
	}

	return resp
}

// Error returns a response builder with an error set. If passed err is nil, nothing will happen.
// If an instance of status.HTTPError is passed, error code will be automatically set. Custom
// codes can be passed, however only first will be used. By default, the error is
// status.ErrInternalServerError
func (r *Response) Error(err error, code ...status.Code) *Response {
	if err == nil {
		return r
	}

	if http, ok := err.(status.HTTPError); ok {
		return r.Code(http.Code).String(http.Message)
	}

	c := status.InternalServerError
	if len(code) > 0 {
		// peek the first, ignore the rest
		c = code[0]
	}

	return r.
		Code(c).
		String(err.Error())
}

// ChallengeRequest is the content of a single WWW-Authenticate header.
type ChallengeRequest struct {
	Scheme string
	Realm  string
	// Params are the rest of auth-params, kept raw.
	Params string
}

func (c ChallengeRequest) String() string {
	var b strings.Builder
	b.WriteString(c.Scheme)

	if len(c.Realm) > 0 {
		b.WriteString(` realm="`)
		b.WriteString(c.Realm)
		b.WriteByte('"')
	}

	if len(c.Params) > 0 {
		if len(c.Realm) > 0 {
			b.WriteByte(',')
		}

		b.WriteByte(' ')
		b.WriteString(c.Params)
	}

	return b.String()
}

// ParseChallengeRequest parses a WWW-Authenticate value. The realm is extracted, other
// parameters are kept as they are.
func ParseChallengeRequest(value string) ChallengeRequest {
	scheme, rest, _ := strings.Cut(strutil.StripWS(value), " ")
	c := ChallengeRequest{Scheme: scheme}

	var params []string
	for _, param := range strings.Split(rest, ",") {
		param = strutil.StripWS(param)
		if len(param) == 0 {
			continue
		}

		key, val, found := strings.Cut(param, "=")
		if found && strutil.CmpFold(strutil.StripWS(key), "realm") {
			c.Realm = strutil.Unquote(strutil.StripWS(val))
			continue
		}

		params = append(params, param)
	}

	c.Params = strings.Join(params, ", ")
	return c
}

// ConnectorService is notified around the transmission of every entity.
type ConnectorService interface {
	BeforeSend(entity *Representation)
	AfterSend(entity *Representation)
}

// NopService is a ConnectorService doing nothing.
type NopService struct{}

func (NopService) BeforeSend(*Representation) {}
func (NopService) AfterSend(*Representation)  {}
