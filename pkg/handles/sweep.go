package handles

import (
	"context"
	"time"
)

// Start launches the background sweep. Calling Start on a running store is a
// no-op. The sweep only bounds memory: reads expire lazily whether or not it
// runs.
func (s *Store) Start(ctx context.Context) {
	s.sweepMu.Lock()
	defer s.sweepMu.Unlock()

	if s.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	s.cancel = cancel
	s.done = done

	go s.sweepLoop(ctx, s.cfg.SweepInterval, done)
	s.log.Debugf("sweep started, interval %s", s.cfg.SweepInterval)
}

// Stop cancels the sweep and waits for it to exit. Safe to call when the
// sweep is not running.
func (s *Store) Stop() {
	s.sweepMu.Lock()
	defer s.sweepMu.Unlock()

	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done
	s.cancel = nil
	s.done = nil
	s.log.Debugf("sweep stopped")
}

// Running reports whether the background sweep is active.
func (s *Store) Running() bool {
	s.sweepMu.Lock()
	defer s.sweepMu.Unlock()
	return s.cancel != nil
}

func (s *Store) sweepLoop(ctx context.Context, interval time.Duration, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep()
		}
	}
}

// Sweep deletes every expired record and returns how many were removed.
func (s *Store) Sweep() int {
	now := s.now()

	s.mu.Lock()
	var removed []string
	for handle, rec := range s.records {
		if rec.Expired(now) {
			delete(s.records, handle)
			removed = append(removed, handle)
		}
	}
	s.mu.Unlock()

	for _, handle := range removed {
		s.evicted(handle, "swept")
	}
	if len(removed) > 0 {
		s.log.Infof("sweep removed %d expired handle(s)", len(removed))
	}
	return len(removed)
}
