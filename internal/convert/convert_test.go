package convert

import (
	"bufio"
	"bytes"
	"io"
	stdhttp "net/http"
	"strings"
	"testing"
	"time"

	"github.com/indigo-web/connector/config"
	"github.com/indigo-web/connector/http"
	"github.com/indigo-web/connector/http/cookie"
	"github.com/indigo-web/connector/http/dimension"
	"github.com/indigo-web/connector/http/headers"
	"github.com/indigo-web/connector/http/method"
	"github.com/indigo-web/connector/http/mime"
	"github.com/indigo-web/connector/http/status"
	"github.com/indigo-web/connector/internal/protocol/http1"
	"github.com/indigo-web/connector/transport/dummy"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func newServerCall(t *testing.T, request string) (*http1.ServerCall, *dummy.Client) {
	client := dummy.NewMockClientString(request)
	call := http1.NewServerCall(client, config.Default())
	require.NoError(t, call.ReadRequest())
	return call, client
}

func readResponse(t *testing.T, data, m string) *stdhttp.Response {
	stdreq, err := stdhttp.NewRequest(m, "/", nil)
	require.NoError(t, err)
	resp, err := stdhttp.ReadResponse(bufio.NewReader(strings.NewReader(data)), stdreq)
	require.NoError(t, err)
	return resp
}

func TestServerConverter_ToRequest(t *testing.T) {
	const request = "PUT /files/a.txt?overwrite=1 HTTP/1.1\r\n" +
		"Host: example.com\r\n" +
		"User-Agent: tester/1.0\r\n" +
		"Accept: text/html;q=0.5, application/json\r\n" +
		"Accept-Language: uk, en;q=0.8\r\n" +
		"If-None-Match: \"v1\", \"v2\"\r\n" +
		"If-Modified-Since: Sun, 06 Nov 1994 08:49:37 GMT\r\n" +
		"Cookie: session=abc; theme=dark\r\n" +
		"Authorization: Bearer token123\r\n" +
		"Range: bytes=0-99\r\n" +
		"Content-Type: text/plain; charset=utf-8\r\n" +
		"Content-Length: 5\r\n" +
		"\r\nhello"

	call, _ := newServerCall(t, request)
	conv := NewServerConverter(config.Default(), zerolog.Nop())
	req := conv.ToRequest(call)

	require.Equal(t, method.PUT, req.Method)
	require.Equal(t, "/files/a.txt", req.Path)
	require.Equal(t, "overwrite=1", req.Query)
	require.Equal(t, "example.com", req.Host)
	require.Equal(t, "tester/1.0", req.Client.Agent)
	require.Equal(t, []headers.Preference{{"text/html", 0.5}, {"application/json", 1}}, req.Client.MediaTypes)
	require.Equal(t, []headers.Preference{{"uk", 1}, {"en", 0.8}}, req.Client.Languages)
	require.Equal(t, []string{`"v1"`, `"v2"`}, req.Conditions.NoneMatch)
	require.Equal(t, 1994, req.Conditions.ModifiedSince.Year())
	require.Equal(t, "abc", req.Cookies.Value("session"))
	require.Equal(t, "dark", req.Cookies.Value("theme"))
	require.Equal(t, &http.ChallengeResponse{Scheme: "Bearer", Credentials: "token123"}, req.Challenge)
	require.Equal(t, []http.Range{{Index: 0, Size: 100}}, req.Ranges)
	require.Equal(t, "example.com", req.Headers.Value("host"))

	require.NotNil(t, req.Entity)
	require.Equal(t, int64(5), req.Entity.Size)
	require.Equal(t, mime.Plain, req.Entity.MediaType)
	text, err := req.Entity.Text()
	require.NoError(t, err)
	require.Equal(t, "hello", text)
}

func TestServerConverter_Commit(t *testing.T) {
	t.Run("general headers", func(t *testing.T) {
		call, client := newServerCall(t, "GET /page HTTP/1.1\r\nUser-Agent: curl/8.0\r\n\r\n")
		conv := NewServerConverter(config.Default(), zerolog.Nop())
		req := conv.ToRequest(call)

		resp := http.NewResponse(req).
			String("<h1>hi</h1>").
			ContentType(mime.HTML).
			Vary(dimension.MediaType, dimension.Language).
			Allow(method.GET, method.HEAD).
			Cookie(cookie.Build("session", "xyz").Path("/").Cookie()).
			Challenge(http.ChallengeRequest{Scheme: "Basic", Realm: "site"})
		resp.Age = 30
		resp.RetryAfter = 1500 * time.Millisecond

		require.NoError(t, conv.Commit(call, resp))
		require.True(t, client.WriteClosed())

		stdresp := readResponse(t, client.Written(), stdhttp.MethodGet)
		require.Equal(t, 200, stdresp.StatusCode)
		require.Equal(t, "close", stdresp.Header.Get("Connection"))
		require.Equal(t, "indigo-connector", stdresp.Header.Get("Server"))
		require.NotEmpty(t, stdresp.Header.Get("Date"))
		require.Equal(t, "Accept, Accept-Language", stdresp.Header.Get("Vary"))
		require.Equal(t, "GET, HEAD", stdresp.Header.Get("Allow"))
		require.Equal(t, "session=xyz; Path=/", stdresp.Header.Get("Set-Cookie"))
		require.Equal(t, `Basic realm="site"`, stdresp.Header.Get("WWW-Authenticate"))
		require.Equal(t, "30", stdresp.Header.Get("Age"))
		require.Equal(t, "2", stdresp.Header.Get("Retry-After"))
		require.Equal(t, "text/html; charset=UTF-8", stdresp.Header.Get("Content-Type"))

		body, err := io.ReadAll(stdresp.Body)
		require.NoError(t, err)
		require.Equal(t, "<h1>hi</h1>", string(body))
	})

	t.Run("vary is omitted for buggy agents", func(t *testing.T) {
		call, client := newServerCall(t, "GET / HTTP/1.1\r\nUser-Agent: Mozilla/4.0 (compatible; MSIE 6.0)\r\n\r\n")
		conv := NewServerConverter(config.Default(), zerolog.Nop())
		resp := http.NewResponse(conv.ToRequest(call)).String("x").Vary(dimension.MediaType)
		require.NoError(t, conv.Commit(call, resp))
		require.NotContains(t, client.Written(), "Vary")
	})

	t.Run("no content", func(t *testing.T) {
		call, client := newServerCall(t, "DELETE /x HTTP/1.1\r\n\r\n")
		logs := new(bytes.Buffer)
		conv := NewServerConverter(config.Default(), zerolog.New(logs).Level(zerolog.DebugLevel))

		released := false
		resp := http.NewResponse(conv.ToRequest(call)).Code(status.NoContent).String("dropped")
		resp.Entity.OnRelease(func() { released = true })

		require.NoError(t, conv.Commit(call, resp))
		require.True(t, released)
		require.Contains(t, logs.String(), "response entity is not transmitted")

		stdresp := readResponse(t, client.Written(), stdhttp.MethodDelete)
		require.Equal(t, 204, stdresp.StatusCode)
		require.Empty(t, stdresp.Header.Get("Content-Length"))
		require.Empty(t, stdresp.Header.Get("Content-Type"))
		require.NotContains(t, client.Written(), "dropped")
	})

	t.Run("head", func(t *testing.T) {
		call, client := newServerCall(t, "HEAD /doc.json HTTP/1.1\r\n\r\n")
		conv := NewServerConverter(config.Default(), zerolog.Nop())
		resp := http.NewResponse(conv.ToRequest(call)).String(`{"a":1}`).ContentType(mime.JSON)
		require.NoError(t, conv.Commit(call, resp))

		written := client.Written()
		require.Contains(t, written, "Content-Length: 7\r\n")
		require.Contains(t, written, "Content-Type: application/json; charset=UTF-8\r\n")
		require.True(t, strings.HasSuffix(written, "\r\n\r\n"))
	})

	t.Run("head answered with reset content", func(t *testing.T) {
		call, client := newServerCall(t, "HEAD /form HTTP/1.1\r\n\r\n")
		conv := NewServerConverter(config.Default(), zerolog.Nop())
		resp := http.NewResponse(conv.ToRequest(call)).Code(status.ResetContent).String("hello")
		require.NoError(t, conv.Commit(call, resp))

		written := client.Written()
		require.True(t, strings.HasPrefix(written, "HTTP/1.1 205 "), written)
		require.NotContains(t, written, "Content-Length")
		require.NotContains(t, written, "Content-Type")
		require.True(t, strings.HasSuffix(written, "\r\n\r\n"))
	})

	t.Run("unavailable entity", func(t *testing.T) {
		call, client := newServerCall(t, "GET / HTTP/1.1\r\n\r\n")
		logs := new(bytes.Buffer)
		conv := NewServerConverter(config.Default(), zerolog.New(logs))
		resp := http.NewResponse(conv.ToRequest(call)).String("secret")
		resp.Entity.SetAvailable(false)

		require.NoError(t, conv.Commit(call, resp))
		require.Contains(t, logs.String(), `"level":"warn"`)
		stdresp := readResponse(t, client.Written(), stdhttp.MethodGet)
		require.Equal(t, int64(0), stdresp.ContentLength)
	})

	t.Run("guessed media type", func(t *testing.T) {
		call, client := newServerCall(t, "GET / HTTP/1.1\r\n\r\n")
		conv := NewServerConverter(config.Default(), zerolog.Nop())
		entity := http.NewRepresentation(strings.NewReader("body{}"), 6)
		entity.Location = "/static/style.css"
		resp := http.NewResponse(conv.ToRequest(call))
		resp.Entity = entity

		require.NoError(t, conv.Commit(call, resp))
		stdresp := readResponse(t, client.Written(), stdhttp.MethodGet)
		require.Equal(t, "text/css; charset=UTF-8", stdresp.Header.Get("Content-Type"))
		require.Equal(t, "/static/style.css", stdresp.Header.Get("Content-Location"))
	})

	t.Run("connector code", func(t *testing.T) {
		call, client := newServerCall(t, "GET / HTTP/1.1\r\n\r\n")
		conv := NewServerConverter(config.Default(), zerolog.Nop())
		resp := http.NewResponse(conv.ToRequest(call)).Code(status.ConnectorInternal)
		require.NoError(t, conv.Commit(call, resp))
		require.True(t, strings.HasPrefix(client.Written(), "HTTP/1.1 500 "))
	})
}

func TestClientConverter(t *testing.T) {
	t.Run("round trip", func(t *testing.T) {
		client := dummy.NewMockClientString(
			"HTTP/1.1 200 OK\r\n" +
				"Server: upstream/2\r\n" +
				"Allow: GET, HEAD, BREW\r\n" +
				"Set-Cookie: id=42; Path=/; HttpOnly\r\n" +
				"Vary: Accept-Encoding, User-Agent\r\n" +
				"Age: 12\r\n" +
				"Retry-After: 120\r\n" +
				"WWW-Authenticate: Basic realm=\"api\", charset=\"UTF-8\"\r\n" +
				"Content-Type: application/json\r\n" +
				"Content-Length: 2\r\n" +
				"\r\n{}",
		)

		conv := NewClientConverter(config.Default(), zerolog.Nop())
		req := http.NewRequest(method.POST, "/api?x=1")
		req.Host = "api.example.com"
		req.Client.MediaTypes = []headers.Preference{{Value: "application/json", Quality: 1}, {Value: "*/*", Quality: 0.1}}
		req.Cookies.Add("session", "abc")
		req.Challenge = &http.ChallengeResponse{Scheme: "Bearer", Credentials: "t0ken"}
		req.Conditions.Match = []string{`"etag"`}
		req.Ranges = []http.Range{{Index: http.UnknownSize, Size: 500}}
		req.Headers.Add("X-Custom", "yes")
		req.Entity = http.StringRepresentation(`{"q":1}`, mime.JSON)

		call, err := conv.ToSpecific(req, client)
		require.NoError(t, err)
		resp := conv.Commit(call, req, nil)

		sent, err := stdhttp.ReadRequest(bufio.NewReader(strings.NewReader(client.Written())))
		require.NoError(t, err)
		require.Equal(t, "/api?x=1", sent.RequestURI)
		require.Equal(t, "api.example.com", sent.Host)
		require.Equal(t, "indigo-connector", sent.Header.Get("User-Agent"))
		require.Equal(t, "application/json, */*;q=0.1", sent.Header.Get("Accept"))
		require.Equal(t, "session=abc", sent.Header.Get("Cookie"))
		require.Equal(t, "Bearer t0ken", sent.Header.Get("Authorization"))
		require.Equal(t, `"etag"`, sent.Header.Get("If-Match"))
		require.Equal(t, "bytes=-500", sent.Header.Get("Range"))
		require.Equal(t, "yes", sent.Header.Get("X-Custom"))
		require.Equal(t, "application/json", sent.Header.Get("Content-Type"))
		require.True(t, sent.Close)
		body, err := io.ReadAll(sent.Body)
		require.NoError(t, err)
		require.Equal(t, `{"q":1}`, string(body))

		require.Equal(t, status.OK, resp.Status)
		require.Equal(t, "upstream/2", resp.ServerAgent)
		require.Equal(t, []method.Method{method.GET, method.HEAD}, resp.Allowed)
		require.Len(t, resp.Cookies, 1)
		require.Equal(t, "42", resp.Cookies[0].Value)
		require.True(t, resp.Cookies[0].HttpOnly)
		require.Equal(t, dimension.Set{dimension.Encoding, dimension.ClientAgent}, resp.Dimensions)
		require.Equal(t, 12, resp.Age)
		require.Equal(t, 2*time.Minute, resp.RetryAfter)
		require.Equal(t, "api", resp.Challenges[0].Realm)

		var model map[string]int
		require.NoError(t, resp.Entity.JSON(&model))
		require.Empty(t, model)
		resp.Entity.Release()
		require.True(t, client.Closed())
	})

	t.Run("no entity closes the connection", func(t *testing.T) {
		client := dummy.NewMockClientString("HTTP/1.1 304 Not Modified\r\nETag: \"v1\"\r\n\r\n")
		conv := NewClientConverter(config.Default(), zerolog.Nop())
		req := http.NewRequest(method.GET, "/")
		call, err := conv.ToSpecific(req, client)
		require.NoError(t, err)

		resp := conv.Commit(call, req, nil)
		require.Equal(t, status.NotModified, resp.Status)
		require.Nil(t, resp.Entity)
		require.True(t, client.Closed())
	})

	t.Run("failure never results in nil", func(t *testing.T) {
		conv := NewClientConverter(config.Default(), zerolog.Nop())
		req := http.NewRequest(method.GET, "/")
		call, err := conv.ToSpecific(req, dummy.NewMockClient())
		require.NoError(t, err)

		resp := conv.Commit(call, req, nil)
		require.NotNil(t, resp)
		require.Equal(t, status.ConnectorCommunication, resp.Status)
		require.True(t, resp.Status.Connector())
	})

	t.Run("malformed content length", func(t *testing.T) {
		client := dummy.NewMockClientString("HTTP/1.1 200 OK\r\nContent-Length: abc\r\n\r\nhello")
		conv := NewClientConverter(config.Default(), zerolog.Nop())
		req := http.NewRequest(method.GET, "/")
		call, err := conv.ToSpecific(req, client)
		require.NoError(t, err)

		resp := conv.Commit(call, req, nil)
		require.Equal(t, status.ConnectorCommunication, resp.Status)
		require.Contains(t, resp.Reason, status.ErrBadContentLength.Error())
		require.Nil(t, resp.Entity)
		require.True(t, client.Closed())
	})

	t.Run("request target with forbidden characters", func(t *testing.T) {
		client := dummy.NewMockClientString("HTTP/1.1 200 OK\r\nContent-Length: 0\r\n\r\n")
		conv := NewClientConverter(config.Default(), zerolog.Nop())
		req := http.NewRequest(method.GET, "/a HTTP/1.1\r\nX-Injected: yes\r\n\r\nGET /smuggled")
		call, err := conv.ToSpecific(req, client)
		require.NoError(t, err)

		resp := conv.Commit(call, req, nil)
		require.Equal(t, status.ConnectorCommunication, resp.Status)
		require.Empty(t, client.Written())
	})

	t.Run("unknown method", func(t *testing.T) {
		conv := NewClientConverter(config.Default(), zerolog.Nop())
		_, err := conv.ToSpecific(http.NewRequest(method.Unknown, "/"), dummy.NewMockClient())
		require.ErrorIs(t, err, status.ErrMethodNotImplemented)
	})
}
