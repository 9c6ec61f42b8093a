package transport

import (
	"bytes"
	"errors"
	"net"
	"sync/atomic"
	"testing"
	"time"

	"github.com/indigo-web/connector/config"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

var (
	errListen = errors.New("listen failed")
	errBind   = errors.New("bind failed")
)

// fakeTransport listens until stopped, or returns immediately with failWith if exit is set.
type fakeTransport struct {
	bindErr  error
	failWith error
	exit     bool
	stuck    bool
	stopped  atomic.Bool
	closed   atomic.Bool
}

func (f *fakeTransport) Bind(string) error {
	return f.bindErr
}

func (f *fakeTransport) Addr() net.Addr {
	return &net.TCPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 8080}
}

func (f *fakeTransport) Listen(config.NET, func(conn net.Conn)) error {
	for !f.exit && !f.stopped.Load() {
		time.Sleep(time.Millisecond)
	}

	return f.failWith
}

func (f *fakeTransport) Stop() {
	f.stopped.Store(true)
}

func (f *fakeTransport) Close() {
	f.closed.Store(true)
}

func (f *fakeTransport) Wait(time.Duration) bool {
	return !f.stuck
}

func runSupervisor(t *testing.T, sup *Supervisor) <-chan error {
	errch := make(chan error, 1)
	cfg := config.Default().NET
	go func() {
		errch <- sup.Run(cfg)
	}()

	return errch
}

func awaitRun(t *testing.T, errch <-chan error) error {
	select {
	case err := <-errch:
		return err
	case <-time.After(time.Second):
		require.FailNow(t, "supervisor didn't return in time")
		return nil
	}
}

func TestSupervisor(t *testing.T) {
	t.Run("transport exits cleanly", func(t *testing.T) {
		sup := NewSupervisor(zerolog.Nop())
		first, second := new(fakeTransport), &fakeTransport{exit: true}
		require.NoError(t, sup.Add(":1", first, nil))
		require.NoError(t, sup.Add(":2", second, nil))
		require.NoError(t, awaitRun(t, runSupervisor(t, sup)))
		require.True(t, first.stopped.Load())
		require.True(t, first.closed.Load())
	})

	t.Run("transport fails", func(t *testing.T) {
		sup := NewSupervisor(zerolog.Nop())
		require.NoError(t, sup.Add(":1", new(fakeTransport), nil))
		require.NoError(t, sup.Add(":2", &fakeTransport{exit: true, failWith: errListen}, nil))
		err := awaitRun(t, runSupervisor(t, sup))
		require.ErrorIs(t, err, errListen)
		require.Contains(t, err.Error(), ":2")
	})

	t.Run("stop", func(t *testing.T) {
		sup := NewSupervisor(zerolog.Nop())
		transports := []*fakeTransport{new(fakeTransport), new(fakeTransport)}
		for _, tr := range transports {
			require.NoError(t, sup.Add("", tr, nil))
		}

		errch := runSupervisor(t, sup)
		time.Sleep(20 * time.Millisecond)
		sup.Stop()
		require.NoError(t, awaitRun(t, errch))

		for _, tr := range transports {
			require.True(t, tr.stopped.Load())
		}
	})

	t.Run("stop before run", func(t *testing.T) {
		sup := NewSupervisor(zerolog.Nop())
		require.NoError(t, sup.Add("", new(fakeTransport), nil))
		go sup.Stop()
		require.NoError(t, awaitRun(t, runSupervisor(t, sup)))
	})

	t.Run("stop after exit", func(t *testing.T) {
		sup := NewSupervisor(zerolog.Nop())
		require.NoError(t, sup.Add("", &fakeTransport{exit: true}, nil))
		require.NoError(t, awaitRun(t, runSupervisor(t, sup)))
		// must not block, as Run has already returned
		sup.Stop()
		sup.Stop()
	})

	t.Run("bind failure closes the rest", func(t *testing.T) {
		sup := NewSupervisor(zerolog.Nop())
		bound := new(fakeTransport)
		require.NoError(t, sup.Add(":1", bound, nil))
		err := sup.Add(":2", &fakeTransport{bindErr: errBind}, nil)
		require.ErrorIs(t, err, errBind)
		require.True(t, bound.closed.Load())
	})

	t.Run("addrs", func(t *testing.T) {
		sup := NewSupervisor(zerolog.Nop())
		require.NoError(t, sup.Add("", new(fakeTransport), nil))
		addrs := sup.Addrs()
		require.Len(t, addrs, 1)
		require.Equal(t, "127.0.0.1:8080", addrs[0].String())
	})

	t.Run("abandoned connections are reported", func(t *testing.T) {
		logs := new(bytes.Buffer)
		sup := NewSupervisor(zerolog.New(logs))
		require.NoError(t, sup.Add(":1", &fakeTransport{exit: true, stuck: true}, nil))
		require.NoError(t, awaitRun(t, runSupervisor(t, sup)))
		require.Contains(t, logs.String(), `"level":"warn"`)
		require.Contains(t, logs.String(), "abandoning")
	})
}
