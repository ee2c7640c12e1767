package recommend

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tarifaluz/internal/types"
)

// fixedRand always returns the same index, making tip selection
// deterministic.
func fixedRand(idx int) func(int) int {
	return func(n int) int { return idx % n }
}

func newTestEngine() *Engine {
	return NewEngine(EngineConfig{IntN: fixedRand(0)})
}

// daySeries builds a full 24-hour series at the base price, then applies
// per-hour overrides.
func daySeries(base float64, overrides map[int]float64) types.PriceSeries {
	day := time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC)
	s := make(types.PriceSeries, 0, 24)
	for h := 0; h < 24; h++ {
		price := base
		if v, ok := overrides[h]; ok {
			price = v
		}
		s = append(s, types.PricePoint{Hour: h, Price: price, Timestamp: day.Add(time.Duration(h) * time.Hour)})
	}
	return s
}

func byType(cands []types.RecommendationCandidate, t types.RecommendationType) []types.RecommendationCandidate {
	var out []types.RecommendationCandidate
	for _, c := range cands {
		if c.Type == t {
			out = append(out, c)
		}
	}
	return out
}

func TestGenerate_LowPriceEmitsActNow(t *testing.T) {
	// 24 points averaging 0.15 with the current hour at 0.09 (below
	// 0.7 * avg) must classify low and emit an immediate optimal_time
	// candidate with high priority.
	series := daySeries(0.15, map[int]float64{10: 0.09, 20: 0.21})
	require.InDelta(t, 0.15, series.Average(), 1e-9)

	cands := newTestEngine().Generate(series, 10)
	optimal := byType(cands, types.RecOptimalTime)
	require.Len(t, optimal, 1)

	assert.Equal(t, types.PriorityHigh, optimal[0].Priority)
	require.NotNil(t, optimal[0].ActionData)
	assert.Nil(t, optimal[0].ActionData.TimeWindow, "act-now candidate carries no window")

	hour, ok := optimal[0].Metadata.CurrentHour()
	require.True(t, ok)
	assert.Equal(t, 10, hour)
}

func TestGenerate_TipOfDayAlwaysExactlyOnce(t *testing.T) {
	engine := NewEngine(EngineConfig{IntN: fixedRand(2)})

	for _, hour := range []int{0, 10, 23} {
		cands := engine.Generate(daySeries(0.12, nil), hour)
		tips := byType(cands, types.RecTipOfDay)
		require.Len(t, tips, 1, "hour %d", hour)
		assert.Equal(t, dailyTips[2], tips[0].Message)
		assert.Equal(t, types.PriorityLow, tips[0].Priority)
	}
}

func TestGenerate_AvoidUsageOnlyWhenCurrentIsHigh(t *testing.T) {
	// Current hour at 0.12 against a 0.10 mean classifies high; hour 15
	// is a further high-classified future hour, so avoid_usage fires
	// with a window from now to one hour past it.
	series := daySeries(0.10, map[int]float64{
		10: 0.12, 5: 0.08,
		15: 0.12, 3: 0.08,
	})
	require.InDelta(t, 0.10, series.Average(), 1e-9)

	cands := newTestEngine().Generate(series, 10)
	avoid := byType(cands, types.RecAvoidUsage)
	require.Len(t, avoid, 1)
	assert.Equal(t, types.PriorityHigh, avoid[0].Priority)
	require.NotNil(t, avoid[0].ActionData.TimeWindow)
	assert.Equal(t, "10:00", avoid[0].ActionData.TimeWindow.Start)
	assert.Equal(t, "16:00", avoid[0].ActionData.TimeWindow.End)
}

func TestGenerate_AvoidUsageAbsentWhenNotHigh(t *testing.T) {
	// Flat series: every price classifies medium, so avoid_usage may
	// never fire regardless of the hour.
	series := daySeries(0.10, nil)
	for _, hour := range []int{0, 8, 22} {
		cands := newTestEngine().Generate(series, hour)
		assert.Empty(t, byType(cands, types.RecAvoidUsage), "hour %d", hour)
	}
}

func TestGenerate_ScheduleDeviceUsesNearestOptimalHour(t *testing.T) {
	// Hours 11, 12, 13 are the cheapest future hours; the proposed
	// four-hour window starts at the nearest of them.
	series := daySeries(0.15, map[int]float64{11: 0.08, 12: 0.09, 13: 0.10})

	cands := newTestEngine().Generate(series, 10)
	sched := byType(cands, types.RecScheduleDevice)
	require.Len(t, sched, 1)

	require.NotNil(t, sched[0].ActionData)
	assert.Equal(t, "11:00", sched[0].ActionData.TimeWindow.Start)
	assert.Equal(t, "15:00", sched[0].ActionData.TimeWindow.End)
	assert.Equal(t, scheduleSavings, sched[0].ActionData.SavingsPercent)
	assert.Equal(t, scheduleDeviceType, sched[0].ActionData.DeviceType)
	assert.Equal(t, types.PriorityMedium, sched[0].Priority)
}

func TestGenerate_HourArithmeticWrapsMidnight(t *testing.T) {
	// The only cheap future hour is 23; windows past midnight must wrap
	// to 01:00 and 03:00 rather than 25:00/27:00.
	series := daySeries(0.10, map[int]float64{23: 0.05})

	cands := newTestEngine().Generate(series, 22)

	optimal := byType(cands, types.RecOptimalTime)
	require.Len(t, optimal, 1)
	assert.Equal(t, types.PriorityMedium, optimal[0].Priority)
	assert.Equal(t, "23:00", optimal[0].ActionData.TimeWindow.Start)
	assert.Equal(t, "01:00", optimal[0].ActionData.TimeWindow.End)

	sched := byType(cands, types.RecScheduleDevice)
	require.Len(t, sched, 1)
	assert.Equal(t, "03:00", sched[0].ActionData.TimeWindow.End)
}

func TestGenerate_CandidateOrderIsFixed(t *testing.T) {
	series := daySeries(0.10, map[int]float64{
		10: 0.12, 5: 0.08,
		15: 0.12, 3: 0.08,
	})

	cands := newTestEngine().Generate(series, 10)
	require.Len(t, cands, 4)
	assert.Equal(t, types.RecOptimalTime, cands[0].Type)
	assert.Equal(t, types.RecAvoidUsage, cands[1].Type)
	assert.Equal(t, types.RecScheduleDevice, cands[2].Type)
	assert.Equal(t, types.RecTipOfDay, cands[3].Type)
}

func TestGenerate_EmptySeries(t *testing.T) {
	assert.Empty(t, newTestEngine().Generate(nil, 10))
	assert.Empty(t, newTestEngine().Generate(types.PriceSeries{}, 10))
}

func TestGenerate_LastHourHasNoFutureCandidates(t *testing.T) {
	// At hour 23 there are no future hours: no later-window candidates,
	// but the tip still fires.
	series := daySeries(0.10, nil)
	cands := newTestEngine().Generate(series, 23)

	assert.Empty(t, byType(cands, types.RecScheduleDevice))
	require.Len(t, byType(cands, types.RecTipOfDay), 1)
}

func TestFormatHour(t *testing.T) {
	assert.Equal(t, "00:00", formatHour(0))
	assert.Equal(t, "09:00", formatHour(9))
	assert.Equal(t, "01:00", formatHour(25))
	assert.Equal(t, "23:00", formatHour(-1))
}
