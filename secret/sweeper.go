// SPDX-License-Identifier: LGPL-3.0-or-later

package secret

import (
	"context"
	"time"
)

// Sweeper periodically removes expired shared-secret rows (spec.md §4.E
// "Expiration sweep"), mirroring the session manager's own cleanup
// ticker so both periodic jobs share one shape in the codebase.
type Sweeper struct {
	engine   *Engine
	interval time.Duration
	ticker   *time.Ticker
	stop     chan struct{}
}

// NewSweeper starts a background sweep of engine's store every interval.
// Call Close to stop it.
func NewSweeper(engine *Engine, interval time.Duration) *Sweeper {
	s := &Sweeper{
		engine:   engine,
		interval: interval,
		ticker:   time.NewTicker(interval),
		stop:     make(chan struct{}),
	}
	go s.run()
	return s
}

func (s *Sweeper) run() {
	for {
		select {
		case <-s.ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), s.interval)
			_, _ = s.engine.store.SecretStore().DeleteExpired(ctx)
			cancel()
		case <-s.stop:
			return
		}
	}
}

// Close stops the sweeper. Safe to call once.
func (s *Sweeper) Close() error {
	s.ticker.Stop()
	close(s.stop)
	return nil
}
