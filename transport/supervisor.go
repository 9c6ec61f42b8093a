package transport

import (
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/indigo-web/connector/config"
	"github.com/rs/zerolog"
)

// Transport is a listener, passing every accepted connection to the callback.
type Transport interface {
	Bind(addr string) error
	Addr() net.Addr
	Listen(cfg config.NET, cb func(conn net.Conn)) error
	// Stop makes Listen return as soon as possible.
	Stop()
	Close()
	// Wait reports whether all the connections were released in time.
	Wait(timeout time.Duration) bool
}

type boundTransport struct {
	addr string
	cb   func(conn net.Conn)
	t    Transport
}

// Supervisor owns a set of bound transports. They are listening together and stop
// together, as soon as any of them fails or the stop is requested.
type Supervisor struct {
	logger   zerolog.Logger
	ts       []boundTransport
	stopOnce sync.Once
	stopch   chan struct{}
	done     chan struct{}
}

func NewSupervisor(logger zerolog.Logger) *Supervisor {
	return &Supervisor{
		logger: logger,
		stopch: make(chan struct{}),
		done:   make(chan struct{}),
	}
}

// Add binds the transport. If binding fails, all the previously added transports are
// closed and the supervisor must not be used anymore.
func (s *Supervisor) Add(addr string, t Transport, cb func(net.Conn)) error {
	if err := t.Bind(addr); err != nil {
		s.close()
		return fmt.Errorf("bind %s: %w", addr, err)
	}

	s.ts = append(s.ts, boundTransport{
		addr: addr,
		cb:   cb,
		t:    t,
	})

	return nil
}

// Addrs returns the addresses all the transports are bound to, in the order of adding.
func (s *Supervisor) Addrs() []net.Addr {
	addrs := make([]net.Addr, 0, len(s.ts))
	for _, bt := range s.ts {
		addrs = append(addrs, bt.t.Addr())
	}

	return addrs
}

// Run blocks until either any of transports fails or Stop is called. The first failure
// is returned, Stop results in nil. Must be called at most once.
func (s *Supervisor) Run(cfg config.NET) error {
	defer close(s.done)

	if len(s.ts) == 0 {
		return nil
	}

	errch := make(chan error, len(s.ts))

	for _, bt := range s.ts {
		go func(bt boundTransport) {
			if err := bt.t.Listen(cfg, bt.cb); err != nil {
				errch <- fmt.Errorf("listen %s: %w", bt.addr, err)
				return
			}

			errch <- nil
		}(bt)
	}

	var err error
	pending := len(s.ts)

	select {
	case err = <-errch:
		pending--
	case <-s.stopch:
	}

	s.shutdown(cfg.StopTimeout)

	for range pending {
		// transports returning after the shutdown began are not failures
		<-errch
	}

	return err
}

// Stop requests the stop and waits until Run returns, so Run must be either running or
// about to be called. Calling it concurrently from multiple goroutines is safe.
func (s *Supervisor) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopch)
	})

	<-s.done
}

func (s *Supervisor) shutdown(timeout time.Duration) {
	for _, bt := range s.ts {
		bt.t.Stop()
		// closing the listener interrupts pending Accept() immediately instead of
		// waiting for the interrupt period
		bt.t.Close()
	}

	for _, bt := range s.ts {
		if !bt.t.Wait(timeout) {
			s.logger.Warn().
				Str("addr", bt.addr).
				Dur("timeout", timeout).
				Msg("connections are still being served, abandoning them")
		}
	}
}

func (s *Supervisor) close() {
	for _, bt := range s.ts {
		bt.t.Close()
	}
}
