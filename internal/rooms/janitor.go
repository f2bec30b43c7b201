package rooms

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	DefaultSweepInterval = 5 * time.Minute
	DefaultIdleTimeout   = 30 * time.Minute
)

// RunJanitor sweeps idle rooms every interval until ctx is done.
// onSweep, if non-nil, is called after each pass with the number of live rooms.
func (m *Manager) RunJanitor(ctx context.Context, interval, idle time.Duration, onSweep func(live int)) {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	if idle <= 0 {
		idle = DefaultIdleTimeout
	}
	t := time.NewTicker(interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if n := m.Sweep(idle); n > 0 {
				log.Info().Int("removed", n).Msg("swept idle rooms")
			}
			if onSweep != nil {
				onSweep(m.Count())
			}
		}
	}
}
