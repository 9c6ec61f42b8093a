package timer

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/indigo-web/connector/http/headers"
)

// Resolution is how often the clock is refreshed. Half a second is precise enough for
// I/O deadlines and for the Date header, which carries seconds only.
const Resolution = 500 * time.Millisecond

type tick struct {
	now  time.Time
	date string
}

var (
	current atomic.Pointer[tick]
	start   sync.Once
)

// Now returns the coarse current time. The clock goroutine is started on the first call.
func Now() time.Time {
	return load().now
}

// Date returns the current time rendered as an HTTP-date. The value is shared between
// callers and re-rendered once per Resolution.
func Date() string {
	return load().date
}

func load() *tick {
	start.Do(func() {
		refresh()

		go func() {
			for {
				time.Sleep(Resolution)
				refresh()
			}
		}()
	})

	return current.Load()
}

func refresh() {
	now := time.Now()
	current.Store(&tick{
		now:  now,
		date: headers.FormatDate(now),
	})
}
