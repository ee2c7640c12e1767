// Package pricing contains the pure computations over a day's price
// series: relative price-level classification, calendar aggregation and
// legend band generation.
//
// Classify and GenerateLegend are two deliberately independent
// classification schemes: Classify buckets a price against fractions of
// the series mean, while GenerateLegend splits the min-max range into
// equal quarters. They disagree near boundaries; that mirrors the product
// behaviour and must not be unified.
package pricing

import "tarifaluz/internal/types"

// Threshold multipliers applied to the series mean. Fixed constants, not
// configurable.
const (
	lowThreshold    = 0.7
	mediumThreshold = 1.1
	highThreshold   = 1.3
)

// Classify buckets a price relative to the mean of the reference series.
//
// An empty series yields LevelMedium, a defined neutral default: callers
// may classify opportunistically before any data has arrived.
func Classify(price float64, series types.PriceSeries) types.PriceLevel {
	if len(series) == 0 {
		return types.LevelMedium
	}
	avg := series.Average()
	switch {
	case price <= avg*lowThreshold:
		return types.LevelLow
	case price <= avg*mediumThreshold:
		return types.LevelMedium
	case price <= avg*highThreshold:
		return types.LevelHigh
	default:
		return types.LevelVeryHigh
	}
}
