package timer

import (
	"testing"
	"time"

	"github.com/indigo-web/connector/http/headers"
	"github.com/stretchr/testify/require"
)

func TestTimer(t *testing.T) {
	// the clock may lag behind by a single tick, so tolerate a bit more than Resolution
	const tolerance = Resolution + Resolution/2

	t.Run("now", func(t *testing.T) {
		for range 5 {
			require.WithinDuration(t, time.Now(), Now(), tolerance)
			time.Sleep(Resolution / 3)
		}
	})

	t.Run("date", func(t *testing.T) {
		date, ok := headers.ParseDate(Date())
		require.True(t, ok)
		require.WithinDuration(t, time.Now(), date, tolerance+time.Second)
	})
}

func BenchmarkNow(b *testing.B) {
	b.Run("time.Now", func(b *testing.B) {
		for range b.N {
			_ = time.Now()
		}
	})

	b.Run("timer.Now", func(b *testing.B) {
		for range b.N {
			_ = Now()
		}
	})
}
