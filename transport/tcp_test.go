package transport

import (
	"io"
	"net"
	"sync/atomic"
	"testing"
	"time"

	"github.com/indigo-web/connector/config"
	"github.com/stretchr/testify/require"
)

func TestTCP(t *testing.T) {
	newConfig := func(workers int) config.NET {
		cfg := config.Default().NET
		cfg.Workers = workers
		cfg.AcceptLoopInterruptPeriod = 10 * time.Millisecond
		return cfg
	}

	t.Run("workers limit", func(t *testing.T) {
		const (
			workers = 2
			clients = 6
		)

		tcp := NewTCP()
		require.NoError(t, tcp.Bind("127.0.0.1:0"))

		var active, peak atomic.Int32
		release := make(chan struct{})
		served := make(chan struct{}, clients)

		go func() {
			_ = tcp.Listen(newConfig(workers), func(conn net.Conn) {
				n := active.Add(1)
				for {
					p := peak.Load()
					if n <= p || peak.CompareAndSwap(p, n) {
						break
					}
				}

				<-release
				active.Add(-1)
				served <- struct{}{}
			})
		}()

		var conns []net.Conn
		for range clients {
			conn, err := net.Dial("tcp", tcp.Addr().String())
			require.NoError(t, err)
			conns = append(conns, conn)
		}

		time.Sleep(50 * time.Millisecond)
		require.Equal(t, int32(workers), active.Load())
		close(release)

		for range clients {
			select {
			case <-served:
			case <-time.After(time.Second):
				require.Fail(t, "connection wasn't served")
			}
		}

		require.Equal(t, int32(workers), peak.Load())
		tcp.Stop()
		tcp.Close()
		require.True(t, tcp.Wait(time.Second))

		for _, conn := range conns {
			_ = conn.Close()
		}
	})

	t.Run("connection is closed after callback", func(t *testing.T) {
		tcp := NewTCP()
		require.NoError(t, tcp.Bind("127.0.0.1:0"))

		go func() {
			_ = tcp.Listen(newConfig(1), func(conn net.Conn) {
				_, _ = conn.Write([]byte("bye"))
			})
		}()

		conn, err := net.Dial("tcp", tcp.Addr().String())
		require.NoError(t, err)
		data, err := io.ReadAll(conn)
		require.NoError(t, err)
		require.Equal(t, "bye", string(data))

		tcp.Stop()
		tcp.Close()
		require.True(t, tcp.Wait(time.Second))
	})

	t.Run("stuck worker doesn't block wait forever", func(t *testing.T) {
		tcp := NewTCP()
		require.NoError(t, tcp.Bind("127.0.0.1:0"))
		stuck := make(chan struct{})
		entered := make(chan struct{})

		go func() {
			_ = tcp.Listen(newConfig(1), func(net.Conn) {
				close(entered)
				<-stuck
			})
		}()

		conn, err := net.Dial("tcp", tcp.Addr().String())
		require.NoError(t, err)
		<-entered

		tcp.Stop()
		tcp.Close()
		require.False(t, tcp.Wait(20*time.Millisecond))
		close(stuck)
		require.True(t, tcp.Wait(time.Second))
		_ = conn.Close()
	})
}

func TestClient(t *testing.T) {
	server, peer := net.Pipe()
	defer peer.Close()

	client := NewClient(server, 0, make([]byte, 16))

	go func() {
		_, _ = peer.Write([]byte("Hello, world!"))
		_ = peer.Close()
	}()

	data, err := client.Read()
	require.NoError(t, err)
	require.Equal(t, "Hello, world!", string(data))

	client.Pushback(data[7:])
	data, err = client.Read()
	require.NoError(t, err)
	require.Equal(t, "world!", string(data))

	_, err = client.Read()
	require.ErrorIs(t, err, io.EOF)
	// pipes don't support half-closing, therefore it is a no-op
	require.NoError(t, client.CloseWrite())
	require.NoError(t, client.Close())
}
