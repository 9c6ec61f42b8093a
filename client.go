package connector

import (
	"context"
	"net"
	"os"

	"github.com/indigo-web/connector/config"
	"github.com/indigo-web/connector/http"
	"github.com/indigo-web/connector/http/status"
	"github.com/indigo-web/connector/internal/address"
	"github.com/indigo-web/connector/internal/convert"
	"github.com/indigo-web/connector/transport"
	"github.com/rs/zerolog"
)

// Client is the HTTP/1.x stream client connector. Every request is sent over its own
// connection, which is closed as soon as the response entity is released.
type Client struct {
	cfg     *config.Config
	logger  zerolog.Logger
	service http.ConnectorService
	dialer  net.Dialer
}

// NewClient returns a client using the config. Nil config means the default one.
func NewClient(cfg *config.Config) *Client {
	if cfg == nil {
		cfg = config.Default()
	}

	return &Client{
		cfg:     cfg,
		logger:  zerolog.New(os.Stderr).With().Timestamp().Str("connector", "http").Logger(),
		service: http.NopService{},
		dialer: net.Dialer{
			Timeout: cfg.Client.DialTimeout,
		},
	}
}

// Logger replaces the default logger, which writes to stderr.
func (c *Client) Logger(logger zerolog.Logger) *Client {
	c.logger = logger
	return c
}

// Service sets the service notified around sending every request entity.
func (c *Client) Service(svc http.ConnectorService) *Client {
	c.service = svc
	return c
}

// Do is DoContext with the background context.
func (c *Client) Do(req *http.Request) *http.Response {
	return c.DoContext(context.Background(), req)
}

// DoContext sends the request to the host, named by its Host field. The context limits
// only establishing the connection. The response is never nil: failures are reported via
// connector status codes.
func (c *Client) DoContext(ctx context.Context, req *http.Request) *http.Response {
	logger := c.logger.With().Str("host", req.Host).Str("uri", req.URI).Logger()

	conn, err := c.dialer.DialContext(ctx, "tcp", address.Dial(req.Host))
	if err != nil {
		logger.Warn().Err(err).Msg("can't connect")
		req.Entity.Release()

		return failure(req, status.ConnectorConnection, err)
	}

	client := transport.NewClient(conn, c.cfg.NET.ReadTimeout, make([]byte, c.cfg.NET.ReadBufferSize))
	conv := convert.NewClientConverter(c.cfg, logger)

	call, err := conv.ToSpecific(req, client)
	if err != nil {
		logger.Warn().Err(err).Msg("can't convert the request")
		_ = conn.Close()
		req.Entity.Release()

		return failure(req, status.ConnectorInternal, err)
	}

	return conv.Commit(call, req, c.service)
}

func failure(req *http.Request, code status.Code, err error) *http.Response {
	resp := http.NewResponse(req)
	resp.Status = code
	resp.Reason = err.Error()
	return resp
}
