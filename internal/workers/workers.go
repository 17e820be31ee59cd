package workers

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"qrpack/internal/engine/session"
)

// RunSessionSweeper drops idle sessions and their artifacts every interval
// until ctx is done.
func RunSessionSweeper(ctx context.Context, m *session.Manager, interval time.Duration) {
	Every(ctx, interval, func() { SweepSessions(m) })
}

// Every calls fn once per interval until ctx is done.
func Every(ctx context.Context, interval time.Duration, fn func()) {
	if interval <= 0 {
		interval = time.Minute
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fn()
		}
	}
}

func SweepSessions(m *session.Manager) int {
	removed := m.Sweep()
	if removed > 0 {
		log.Debug().Int("removed", removed).Int("live", m.Len()).Msg("swept idle sessions")
	}
	return removed
}
