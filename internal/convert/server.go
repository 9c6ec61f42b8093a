package convert

import (
	"math"
	"strconv"
	"strings"

	"github.com/indigo-web/connector/config"
	"github.com/indigo-web/connector/http"
	"github.com/indigo-web/connector/http/cookie"
	"github.com/indigo-web/connector/http/headers"
	"github.com/indigo-web/connector/http/method"
	"github.com/indigo-web/connector/http/mime"
	"github.com/indigo-web/connector/http/status"
	"github.com/indigo-web/connector/internal/protocol/http1"
	"github.com/indigo-web/connector/internal/strutil"
	"github.com/indigo-web/connector/internal/timer"
	"github.com/indigo-web/connector/kv"
	"github.com/rs/zerolog"
)

// buggyAgent is a substring of User-Agent values of clients known to mishandle the
// Vary header, disabling caching of the response completely.
const buggyAgent = "MSIE"

// ServerConverter translates server calls into high-level requests and commits
// high-level responses back into the calls.
type ServerConverter struct {
	Logger   zerolog.Logger
	Defaults mime.Defaults
	cfg      *config.Config
}

func NewServerConverter(cfg *config.Config, logger zerolog.Logger) *ServerConverter {
	return &ServerConverter{
		Logger:   logger,
		Defaults: mime.DefaultMetadata(),
		cfg:      cfg,
	}
}

// ToRequest builds the request out of the call. The original header block is kept
// as is, well-known headers are additionally mapped onto the request fields. Malformed
// values of those are ignored.
func (s *ServerConverter) ToRequest(call *http1.ServerCall) *http.Request {
	hdrs := call.Headers()
	req := http.NewRequest(call.Method(), call.RequestURI())
	req.Protocol = call.Protocol()
	req.Headers = hdrs
	req.Host = hdrs.Value(headers.Host)
	req.Confidential = call.Confidential()
	req.Client = http.ClientInfo{
		Address:    call.Remote(),
		Agent:      hdrs.Value(headers.UserAgent),
		MediaTypes: headers.Preferences(hdrs.Values(headers.Accept)),
		Charsets:   headers.Preferences(hdrs.Values(headers.AcceptCharset)),
		Encodings:  headers.Preferences(hdrs.Values(headers.AcceptEncoding)),
		Languages:  headers.Preferences(hdrs.Values(headers.AcceptLanguage)),
	}
	req.Conditions = http.Conditions{
		Match:     headers.List(hdrs.Values(headers.IfMatch)),
		NoneMatch: headers.List(hdrs.Values(headers.IfNoneMatch)),
	}

	if t, ok := headers.ParseDate(hdrs.Value(headers.IfModifiedSince)); ok {
		req.Conditions.ModifiedSince = t
	}

	if t, ok := headers.ParseDate(hdrs.Value(headers.IfUnmodifiedSince)); ok {
		req.Conditions.UnmodifiedSince = t
	}

	for _, value := range hdrs.Values(headers.Cookie) {
		if err := cookie.Parse(req.Cookies, value); err != nil {
			s.Logger.Debug().Err(err).Str("value", value).Msg("ignoring malformed cookies")
		}
	}

	if value, found := hdrs.Get(headers.Authorization); found {
		req.Challenge = http.ParseChallengeResponse(value)
	}

	if value, found := hdrs.Get(headers.Range); found {
		req.Ranges = http.ParseRanges(value)
	}

	if stream := call.RequestEntity(); stream != nil {
		req.Entity = http.NewRepresentation(stream, call.RequestSize())
		http1.CopyEntityHeaders(hdrs, req.Entity)
	}

	return req
}

// Commit writes the response into the call and completes it. The response is corrected
// whenever it contradicts the protocol, e.g. an entity of a 204 response is dropped.
// The entity is released in any case.
func (s *ServerConverter) Commit(call *http1.ServerCall, resp *http.Response) error {
	req := resp.Request
	if req == nil {
		req = http.NewRequest(call.Method(), call.RequestURI())
	}

	code := resp.Status
	if code == 0 {
		code = status.OK
	}

	if code.Connector() {
		s.Logger.Warn().Stringer("code", code).Msg("connector status code can't be transmitted")
		code = status.InternalServerError
	}

	hdrs := resp.Headers
	if hdrs == nil {
		hdrs = kv.New()
	}

	s.writeGeneral(hdrs, req, resp)

	entity := s.prepareEntity(req, code, resp.Entity)
	if entity != nil {
		http1.WriteEntityHeaders(hdrs, entity)
	}

	err := call.SendResponse(code, resp.Reason, hdrs, entity)
	resp.Entity.Release()
	if err != nil {
		return err
	}

	return call.Complete()
}

func (s *ServerConverter) writeGeneral(hdrs *kv.Storage, req *http.Request, resp *http.Response) {
	hdrs.Set(headers.Date, timer.Date())

	if server := strutil.StripWS(resp.ServerAgent); len(server) > 0 {
		hdrs.Set(headers.Server, server)
	} else if len(s.cfg.Headers.Server) > 0 {
		hdrs.Set(headers.Server, s.cfg.Headers.Server)
	}

	hdrs.Set(headers.Connection, "close")

	if len(resp.Location) > 0 {
		hdrs.Set(headers.Location, resp.Location)
	}

	if len(resp.Allowed) > 0 {
		hdrs.Set(headers.Allow, renderMethods(resp.Allowed))
	}

	if len(resp.Challenges) > 0 {
		hdrs.Delete(headers.WWWAuthenticate)
		for _, challenge := range resp.Challenges {
			hdrs.Add(headers.WWWAuthenticate, challenge.String())
		}
	}

	for _, c := range resp.Cookies {
		hdrs.Add(headers.SetCookie, c.Render())
	}

	if len(resp.Dimensions) > 0 {
		if strutil.ContainsFold(req.Client.Agent, buggyAgent) {
			s.Logger.Debug().Str("agent", req.Client.Agent).Msg("Vary omitted for the user agent")
		} else {
			hdrs.Set(headers.Vary, resp.Dimensions.Vary())
		}
	}

	if resp.Age >= 0 {
		hdrs.Set(headers.Age, strconv.Itoa(resp.Age))
	}

	if resp.RetryAfter > 0 {
		seconds := int64(math.Ceil(resp.RetryAfter.Seconds()))
		hdrs.Set(headers.RetryAfter, strconv.FormatInt(seconds, 10))
	}

	if resp.Entity != nil && len(resp.Entity.Range) > 0 {
		hdrs.Set(headers.AcceptRanges, "bytes")
	}
}

// prepareEntity decides whether the entity is transmitted. Unavailable entities are
// replaced by an empty one. Entities of responses unable to carry one are dropped,
// except for HEAD and 304 responses, which still advertise the metadata.
func (s *ServerConverter) prepareEntity(req *http.Request, code status.Code, entity *http.Representation) *http.Representation {
	if entity == nil {
		return nil
	}

	if !entity.Available() {
		s.Logger.Warn().
			Stringer("code", code).
			Str("uri", req.URI).
			Msg("response entity is unavailable, sending an empty one")

		return nil
	}

	if !http1.EntityExpected(req.Method, code) {
		s.Logger.Debug().
			Stringer("code", code).
			Stringer("method", req.Method).
			Msg("response entity is not transmitted")

		// the metadata is still advertised for HEAD and 304, as a GET would carry it
		advertised := code == status.NotModified ||
			(req.Method == method.HEAD && http1.EntityExpected(method.GET, code))
		if !advertised {
			return nil
		}
	}

	if len(entity.MediaType) == 0 {
		entity.MediaType = s.Defaults.Guess(entity.Location)
	}

	if len(entity.Charset) == 0 && mime.Textual(entity.MediaType) {
		entity.Charset = s.Defaults.Charset
	}

	return entity
}

func renderMethods(methods []method.Method) string {
	names := make([]string, len(methods))
	for i, m := range methods {
		names[i] = m.String()
	}

	return strings.Join(names, ", ")
}
