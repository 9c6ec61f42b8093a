package config

import (
	"time"

	json "github.com/json-iterator/go"
)

type (
	HeadersNumber struct {
		Default, Maximal int
	}

	HeadersSpace struct {
		Default, Maximal int
	}

	NETWriteBufferSize struct {
		Default, Maximal int
	}
)

type (
	Headers struct {
		// MaxLineLength limits the length of the request line and the status line. Both
		// are stored in a separate buffer, which is reused among messages.
		MaxLineLength int
		// Number is responsible for headers storage size.
		// Default value is an initial size of allocated headers storage.
		// Maximal value is maximum number of headers allowed to be presented
		Number HeadersNumber
		// Space limits the amount of memory occupied by the header block.
		Space HeadersSpace
		// Server is the value of the Server header put into every response. Empty value
		// disables the header.
		Server string `test:"nullable"`
		// UserAgent is the value of the User-Agent header put into every request, unless
		// the request carries its own agent.
		UserAgent string `test:"nullable"`
	}

	Body struct {
		// ChunkSize is the size of a single chunk emitted by the chunked writer when the
		// data is pulled from a reader instead of being pushed via Write.
		ChunkSize int
		// DrainLimit controls, how many unread bytes of a request entity are consumed on
		// completion of the call. Anything beyond is left in the socket, which is closed
		// afterwards anyway.
		DrainLimit int64
	}

	NET struct {
		// ReadBufferSize is a size of buffer in bytes which will be used to read from
		// socket
		ReadBufferSize int
		// ReadTimeout sets a deadline on every socket read. Zero disables deadlines, so a
		// stalled peer occupies a worker for as long as it stays connected.
		ReadTimeout time.Duration `test:"nullable"`
		// AcceptLoopInterruptPeriod controls how often will the Accept() call be interrupted
		// in order to check whether it's time to stop. Defaults to 5 seconds.
		AcceptLoopInterruptPeriod time.Duration
		// StopTimeout limits the time spent on waiting for connections being served when
		// stopping. Workers still busy afterwards are abandoned.
		StopTimeout time.Duration
		// Workers is the number of connections served simultaneously. Each connection
		// occupies a worker for the whole duration of the exchange.
		Workers int
		// WriteBufferSize is the size of the buffer the message head is rendered into.
		WriteBufferSize NETWriteBufferSize
	}

	Client struct {
		// DialTimeout limits the time spent on establishing an outgoing connection.
		DialTimeout time.Duration
	}
)

// Config holds settings used across various parts of the connector, mainly restrictions,
// limitations and pre-allocations.
//
// You must ALWAYS modify defaults (returned via Default()) and NEVER try to initialize the
// config manually, because most likely this will result in ambiguous errors.
type Config struct {
	Headers Headers
	Body    Body
	NET     NET
	Client  Client
}

// Default returns default config. Those are initially well-balanced, however maximal defaults
// are pretty permitting.
func Default() *Config {
	return &Config{
		Headers: Headers{
			MaxLineLength: 8 * 1024,
			Number: HeadersNumber{
				Default: 10,
				Maximal: 100,
			},
			Space: HeadersSpace{
				Default: 1 * 1024,  // 1kb for headers must be fairly enough in most cases.
				Maximal: 64 * 1024, // However, there also might be extremely long cookies.
			},
			Server:    "indigo-connector",
			UserAgent: "indigo-connector",
		},
		Body: Body{
			ChunkSize:  4 * 1024,
			DrainLimit: 64 * 1024,
		},
		NET: NET{
			ReadBufferSize:            4 * 1024,
			AcceptLoopInterruptPeriod: 5 * time.Second,
			StopTimeout:               10 * time.Second,
			Workers:                   10,
			WriteBufferSize: NETWriteBufferSize{
				Default: 1 * 1024,
				Maximal: 64 * 1024,
			},
		},
		Client: Client{
			DialTimeout: 30 * time.Second,
		},
	}
}

// FromJSON overlays the passed JSON document on top of the default config. Fields absent
// in the document keep their default values.
func FromJSON(data []byte) (*Config, error) {
	cfg := Default()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}
