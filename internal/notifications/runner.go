package notifications

import (
	"context"
	"time"

	"tarifaluz/internal/types"
)

// regenRunner is the cancellable scheduled task that re-runs generation
// every RegenerationIntervalMinutes. It is owned by the store's lifecycle:
// started on activation, cancelled on teardown, rescheduled when the
// interval changes. Rescheduling replaces the timer instead of stacking a
// second one.
type regenRunner struct {
	cancel context.CancelFunc
	resets chan time.Duration
	done   chan struct{}
}

// reschedule swaps the timer interval. Safe to call from any goroutine;
// if a previous reset is still pending it is replaced.
func (r *regenRunner) reschedule(interval time.Duration) {
	select {
	case r.resets <- interval:
	default:
		// Drain the stale pending reset and push the newest one.
		select {
		case <-r.resets:
		default:
		}
		r.resets <- interval
	}
}

// StartAutoRegeneration begins periodic regeneration driven by the
// configured interval, fetching today's series from the price source on
// every tick. One generation runs immediately on start. Calling it while
// a runner is active restarts the runner.
func (s *Store) StartAutoRegeneration(ctx context.Context, source types.PriceSource) {
	s.StopAutoRegeneration()

	runCtx, cancel := context.WithCancel(ctx)
	runner := &regenRunner{
		cancel: cancel,
		resets: make(chan time.Duration, 1),
		done:   make(chan struct{}),
	}

	s.mu.Lock()
	interval := time.Duration(s.config.RegenerationIntervalMinutes) * time.Minute
	s.runner = runner
	s.mu.Unlock()

	go s.runRegeneration(runCtx, runner, source, interval)
}

// StopAutoRegeneration cancels the running timer, if any, and waits for
// the regeneration goroutine to exit.
func (s *Store) StopAutoRegeneration() {
	s.mu.Lock()
	runner := s.runner
	s.runner = nil
	s.mu.Unlock()

	if runner == nil {
		return
	}
	runner.cancel()
	<-runner.done
}

func (s *Store) runRegeneration(ctx context.Context, r *regenRunner, source types.PriceSource, interval time.Duration) {
	defer close(r.done)

	s.regenerateOnce(ctx, source)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case next := <-r.resets:
			ticker.Reset(next)
			s.logger.Info("regeneration timer rescheduled", "interval", next.String())
		case <-ticker.C:
			s.regenerateOnce(ctx, source)
		}
	}
}

// regenerateOnce fetches today's series and funnels it through the same
// entry point manual triggers use. Upstream failures are logged and the
// tick is skipped; the next tick retries.
func (s *Store) regenerateOnce(ctx context.Context, source types.PriceSource) {
	series, err := source.Today(ctx)
	if err != nil {
		s.logger.Warn("skipping regeneration, price source unavailable", "error", err)
		return
	}
	s.GenerateRecommendations(ctx, series, s.clock.Now().Hour())
}
