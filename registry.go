package connector

import (
	"net"
	"slices"
	"strings"

	"github.com/indigo-web/connector/config"
	"github.com/indigo-web/connector/http"
	"github.com/rs/zerolog"
)

// ServerConnector accepts connections of a protocol, passing requests to the handler.
type ServerConnector interface {
	Serve() error
	Stop()
	Addr() net.Addr
}

// ClientConnector sends requests using a protocol.
type ClientConnector interface {
	Do(req *http.Request) *http.Response
}

type (
	ServerFactory func(addr string, cfg *config.Config, logger zerolog.Logger, handler http.Handler) ServerConnector
	ClientFactory func(cfg *config.Config, logger zerolog.Logger) ClientConnector
)

// Entry binds connector constructors to the protocol. Either of constructors may be nil.
type Entry struct {
	Protocol string
	Server   ServerFactory
	Client   ClientFactory
}

// Registry is an immutable table of connectors by the protocol name. Protocol names are
// case-insensitive.
type Registry struct {
	entries map[string]Entry
}

// NewRegistry builds the registry. Later entries override earlier ones of the same protocol.
func NewRegistry(entries ...Entry) Registry {
	r := Registry{entries: make(map[string]Entry, len(entries))}
	for _, entry := range entries {
		r.entries[strings.ToUpper(entry.Protocol)] = entry
	}

	return r
}

// DefaultRegistry contains the HTTP connectors.
func DefaultRegistry() Registry {
	return NewRegistry(Entry{
		Protocol: "HTTP",
		Server:   newHTTPServer,
		Client:   newHTTPClient,
	})
}

func newHTTPServer(addr string, cfg *config.Config, logger zerolog.Logger, handler http.Handler) ServerConnector {
	return New(addr).Tune(cfg).Logger(logger).Handle(handler)
}

func newHTTPClient(cfg *config.Config, logger zerolog.Logger) ClientConnector {
	return NewClient(cfg).Logger(logger)
}

func (r Registry) Server(protocol string) (ServerFactory, bool) {
	entry, found := r.entries[strings.ToUpper(protocol)]
	return entry.Server, found && entry.Server != nil
}

func (r Registry) Client(protocol string) (ClientFactory, bool) {
	entry, found := r.entries[strings.ToUpper(protocol)]
	return entry.Client, found && entry.Client != nil
}

// Protocols lists the registered protocols in the alphabetical order.
func (r Registry) Protocols() []string {
	protocols := make([]string, 0, len(r.entries))
	for protocol := range r.entries {
		protocols = append(protocols, protocol)
	}

	slices.Sort(protocols)
	return protocols
}
