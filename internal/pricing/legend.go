package pricing

import (
	"fmt"

	"tarifaluz/internal/types"
)

// legendSuffix returns the period-specific description appended to each
// band label.
func legendSuffix(period types.LegendPeriod) string {
	switch period {
	case types.PeriodWeek:
		return "weekly average"
	case types.PeriodMonth:
		return "monthly average"
	default:
		return "per hour"
	}
}

// GenerateLegend splits the series' [min, max] range into four contiguous
// bands of equal width, labeled low through very_high, for chart legends.
//
// This quartile-of-range scheme is independent of Classify's
// fraction-of-mean thresholds; the two disagree near boundaries on
// purpose (see the package comment).
//
// Bounds are derived solely from the series passed in. An empty series
// yields an empty band list. A single-price series yields four degenerate
// bands sharing the same bounds.
func GenerateLegend(series types.PriceSeries, period types.LegendPeriod) []types.LegendBand {
	if len(series) == 0 {
		return nil
	}

	min := series.Min()
	max := series.Max()
	quarter := (max - min) / 4
	suffix := legendSuffix(period)

	levels := []types.PriceLevel{
		types.LevelLow,
		types.LevelMedium,
		types.LevelHigh,
		types.LevelVeryHigh,
	}

	bands := make([]types.LegendBand, 0, 4)
	for i, level := range levels {
		lower := min + quarter*float64(i)
		upper := min + quarter*float64(i+1)
		if i == len(levels)-1 {
			// Pin the final bound to the exact maximum so the bands cover
			// [min, max] without float drift.
			upper = max
		}
		bands = append(bands, types.LegendBand{
			Level:        level,
			LowerBound:   lower,
			UpperBound:   upper,
			DisplayLabel: fmt.Sprintf("%.3f - %.3f €/kWh %s", lower, upper, suffix),
		})
	}
	return bands
}
