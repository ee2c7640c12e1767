package pricing

import (
	"fmt"
	"sort"
	"time"

	"tarifaluz/internal/types"
)

// Aggregator buckets raw hourly series into weekly and monthly averages.
// The clock defines "current month" and "current year"; injecting it keeps
// the bucketing deterministic under test.
type Aggregator struct {
	clock types.Clock
}

// NewAggregator creates an Aggregator. A nil clock falls back to the
// system clock.
func NewAggregator(clock types.Clock) *Aggregator {
	if clock == nil {
		clock = types.SystemClock{}
	}
	return &Aggregator{clock: clock}
}

// AggregateByWeek buckets points by week-of-month (ceil(dayOfMonth/7)),
// restricted to the current calendar month and year. Points outside that
// window are silently dropped; aggregates therefore cannot span a
// month boundary. That is a known limitation carried over from the
// product, not a bug to fix here.
//
// Buckets with no contributing points are never emitted. The result is
// sorted ascending by week number.
func (a *Aggregator) AggregateByWeek(series types.PriceSeries) []types.AggregateBucket {
	now := a.clock.Now()

	sums := map[int]float64{}
	counts := map[int]int{}
	for _, p := range series {
		ts := p.Timestamp
		if ts.Year() != now.Year() || ts.Month() != now.Month() {
			continue
		}
		week := (ts.Day() + 6) / 7
		sums[week] += p.Price
		counts[week]++
	}

	return buildBuckets(sums, counts, func(week int) string {
		return fmt.Sprintf("Week %d", week)
	})
}

// AggregateByMonth buckets points by calendar month, restricted to the
// current year. Points from other years are silently dropped (same
// limitation as AggregateByWeek). Buckets are sorted ascending by month
// number and never emitted empty.
func (a *Aggregator) AggregateByMonth(series types.PriceSeries) []types.AggregateBucket {
	now := a.clock.Now()

	sums := map[int]float64{}
	counts := map[int]int{}
	for _, p := range series {
		ts := p.Timestamp
		if ts.Year() != now.Year() {
			continue
		}
		month := int(ts.Month())
		sums[month] += p.Price
		counts[month]++
	}

	return buildBuckets(sums, counts, func(month int) string {
		return time.Month(month).String()
	})
}

// buildBuckets converts the accumulated sums and counts into sorted
// AggregateBuckets.
func buildBuckets(sums map[int]float64, counts map[int]int, label func(int) string) []types.AggregateBucket {
	keys := make([]int, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Ints(keys)

	buckets := make([]types.AggregateBucket, 0, len(keys))
	for _, k := range keys {
		buckets = append(buckets, types.AggregateBucket{
			BucketKey:    k,
			Label:        label(k),
			AveragePrice: sums[k] / float64(counts[k]),
			SourceCount:  counts[k],
		})
	}
	return buckets
}
