package notifications

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tarifaluz/internal/types"
)

// stubSource serves a fixed series and counts fetches.
type stubSource struct {
	mu     sync.Mutex
	series types.PriceSeries
	err    error
	calls  int
}

func (s *stubSource) Today(context.Context) (types.PriceSeries, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return s.series, s.err
}

func (s *stubSource) MonthToDate(context.Context) (types.PriceSeries, error) {
	return s.series, s.err
}

func (s *stubSource) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func TestAutoRegeneration_RunsImmediatelyOnStart(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	source := &stubSource{series: daySeries(0.10, nil)}

	f.store.StartAutoRegeneration(ctx, source)
	defer f.store.StopAutoRegeneration()

	require.Eventually(t, func() bool {
		return len(f.store.Notifications(ctx)) > 0
	}, time.Second, 5*time.Millisecond)
	assert.GreaterOrEqual(t, source.callCount(), 1)
}

func TestAutoRegeneration_StopTerminatesRunner(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	source := &stubSource{series: daySeries(0.10, nil)}

	f.store.StartAutoRegeneration(ctx, source)
	f.store.StopAutoRegeneration()

	// Stopping again is a no-op, never a panic or deadlock.
	f.store.StopAutoRegeneration()
}

func TestAutoRegeneration_SourceFailureSkipsTick(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	source := &stubSource{err: errors.New("market data down")}

	f.store.StartAutoRegeneration(ctx, source)
	defer f.store.StopAutoRegeneration()

	require.Eventually(t, func() bool {
		return source.callCount() >= 1
	}, time.Second, 5*time.Millisecond)
	assert.Empty(t, f.store.Notifications(ctx))
}

func TestAutoRegeneration_IntervalChangeReschedules(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	source := &stubSource{series: daySeries(0.10, nil)}

	f.store.StartAutoRegeneration(ctx, source)
	defer f.store.StopAutoRegeneration()

	// Changing the interval while the runner is active must replace the
	// timer without deadlocking or stacking a second one.
	interval := 1
	f.store.UpdateConfig(ctx, types.NotificationConfigPatch{RegenerationIntervalMinutes: &interval})
	interval2 := 2
	f.store.UpdateConfig(ctx, types.NotificationConfigPatch{RegenerationIntervalMinutes: &interval2})

	require.Eventually(t, func() bool {
		return len(f.store.Notifications(ctx)) > 0
	}, time.Second, 5*time.Millisecond)
}

func TestAutoRegeneration_RestartReplacesRunner(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	source := &stubSource{series: daySeries(0.10, nil)}

	f.store.StartAutoRegeneration(ctx, source)
	f.store.StartAutoRegeneration(ctx, source)
	f.store.StopAutoRegeneration()
}
