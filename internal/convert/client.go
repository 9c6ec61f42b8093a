package convert

import (
	"strconv"
	"strings"
	"time"

	"github.com/indigo-web/connector/config"
	"github.com/indigo-web/connector/http"
	"github.com/indigo-web/connector/http/cookie"
	"github.com/indigo-web/connector/http/dimension"
	"github.com/indigo-web/connector/http/headers"
	"github.com/indigo-web/connector/http/method"
	"github.com/indigo-web/connector/http/status"
	"github.com/indigo-web/connector/internal/protocol/http1"
	"github.com/indigo-web/connector/transport"
	"github.com/rs/zerolog"
)

// ClientConverter translates high-level requests into client calls and received
// responses back into high-level responses.
type ClientConverter struct {
	Logger zerolog.Logger
	cfg    *config.Config
}

func NewClientConverter(cfg *config.Config, logger zerolog.Logger) *ClientConverter {
	return &ClientConverter{
		Logger: logger,
		cfg:    cfg,
	}
}

// ToSpecific creates a call over the client, filling its header block out of the request.
// Custom request headers are sent as well, but those managed by the connector override them.
func (c *ClientConverter) ToSpecific(req *http.Request, client transport.Client) (*http1.ClientCall, error) {
	if req.Method == method.Unknown {
		return nil, status.ErrMethodNotImplemented
	}

	uri := req.URI
	if len(uri) == 0 {
		uri = "/"
	}

	call := http1.NewClientCall(client, c.cfg, req.Method, uri)
	hdrs := call.RequestHeaders()

	if req.Headers != nil {
		for key, value := range req.Headers.Pairs() {
			hdrs.Add(key, value)
		}
	}

	if len(req.Host) > 0 {
		hdrs.Set(headers.Host, req.Host)
	}

	if agent := req.Client.Agent; len(agent) > 0 {
		hdrs.Set(headers.UserAgent, agent)
	} else if len(c.cfg.Headers.UserAgent) > 0 && !hdrs.Has(headers.UserAgent) {
		hdrs.Set(headers.UserAgent, c.cfg.Headers.UserAgent)
	}

	setPreferences(hdrs, headers.Accept, req.Client.MediaTypes)
	setPreferences(hdrs, headers.AcceptCharset, req.Client.Charsets)
	setPreferences(hdrs, headers.AcceptEncoding, req.Client.Encodings)
	setPreferences(hdrs, headers.AcceptLanguage, req.Client.Languages)

	if cond := req.Conditions; !cond.Empty() {
		if len(cond.Match) > 0 {
			hdrs.Set(headers.IfMatch, strings.Join(cond.Match, ", "))
		}

		if len(cond.NoneMatch) > 0 {
			hdrs.Set(headers.IfNoneMatch, strings.Join(cond.NoneMatch, ", "))
		}

		if !cond.ModifiedSince.IsZero() {
			hdrs.Set(headers.IfModifiedSince, headers.FormatDate(cond.ModifiedSince))
		}

		if !cond.UnmodifiedSince.IsZero() {
			hdrs.Set(headers.IfUnmodifiedSince, headers.FormatDate(cond.UnmodifiedSince))
		}
	}

	if req.Cookies != nil && !req.Cookies.Empty() {
		hdrs.Set(headers.Cookie, cookie.Render(req.Cookies))
	}

	if req.Challenge != nil {
		hdrs.Set(headers.Authorization, req.Challenge.String())
	}

	if len(req.Ranges) > 0 {
		hdrs.Set(headers.Range, http.RenderRanges(req.Ranges))
	}

	if req.Entity != nil {
		http1.WriteEntityHeaders(hdrs, req.Entity)
	}

	hdrs.Set(headers.Connection, "close")

	return call, nil
}

func setPreferences(hdrs http.Headers, key string, prefs []headers.Preference) {
	if len(prefs) > 0 {
		hdrs.Set(key, headers.RenderPreferences(prefs))
	}
}

// Commit sends the request and builds the response out of what was received. It never
// returns nil: failures are reported via connector status codes, with the reason phrase
// describing the error.
func (c *ClientConverter) Commit(call *http1.ClientCall, req *http.Request, svc http.ConnectorService) *http.Response {
	resp := http.NewResponse(req)

	code, err := call.SendRequest(req.Entity, svc)
	req.Entity.Release()
	if err != nil {
		event := c.Logger.Warn()
		if http1.IsConnectionBroken(err) {
			event = c.Logger.Debug()
		}

		event.Err(err).Str("uri", req.URI).Msg("exchange failed")
		_ = call.Close()

		resp.Status = status.CodeOf(err)
		resp.Reason = err.Error()
		return resp
	}

	hdrs := call.ResponseHeaders()
	resp.Status = code
	resp.Reason = call.ReasonPhrase()
	resp.Headers = hdrs
	resp.ServerAgent = hdrs.Value(headers.Server)
	resp.Location = hdrs.Value(headers.Location)
	resp.Dimensions = dimension.ParseVary(hdrs.Values(headers.Vary))

	for _, name := range headers.List(hdrs.Values(headers.Allow)) {
		if m := method.Parse(name); m != method.Unknown {
			resp.Allowed = append(resp.Allowed, m)
		}
	}

	for _, value := range hdrs.Values(headers.WWWAuthenticate) {
		resp.Challenges = append(resp.Challenges, http.ParseChallengeRequest(value))
	}

	for _, value := range hdrs.Values(headers.SetCookie) {
		setting, err := cookie.ParseSetting(value)
		if err != nil {
			c.Logger.Debug().Err(err).Str("value", value).Msg("ignoring malformed cookie setting")
			continue
		}

		resp.Cookies = append(resp.Cookies, setting)
	}

	if age, err := strconv.Atoi(hdrs.Value(headers.Age)); err == nil && age >= 0 {
		resp.Age = age
	}

	resp.RetryAfter = parseRetryAfter(hdrs.Value(headers.RetryAfter))

	if resp.Entity = call.ResponseEntity(); resp.Entity == nil {
		_ = call.Close()
	}

	return resp
}

// parseRetryAfter accepts both the delay in seconds and the HTTP date.
func parseRetryAfter(value string) time.Duration {
	if len(value) == 0 {
		return 0
	}

	if seconds, err := strconv.ParseUint(value, 10, 32); err == nil {
		return time.Duration(seconds) * time.Second
	}

	if t, ok := headers.ParseDate(value); ok {
		return max(time.Until(t), 0)
	}

	return 0
}
