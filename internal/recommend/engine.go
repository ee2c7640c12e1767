// Package recommend turns a day's hourly price curve into ranked,
// time-windowed consumption recommendations.
//
// Generation is deterministic given a series, an hour and the injected
// randomness source (used only for the tip of the day). The engine holds
// no state and performs no I/O; the notification store owns identity,
// deduplication and persistence of what it emits.
package recommend

import (
	"fmt"
	"math"
	"math/rand"
	"sort"

	"tarifaluz/internal/pricing"
	"tarifaluz/internal/types"
)

// Fixed window lengths and savings figures used by the candidate rules.
const (
	optimalWindowHours  = 2
	scheduleWindowHours = 4
	scheduleSavings     = 60
	scheduleDeviceType  = "washing_machine"

	maxOptimalHours = 3
	maxAvoidHours   = 2
)

// Engine generates recommendation candidates from a price series.
type Engine struct {
	intn   func(n int) int
	logger types.Logger
}

// EngineConfig configures an Engine. IntN is the randomness source for
// tip selection; nil uses math/rand. Logger may be nil.
type EngineConfig struct {
	IntN   func(n int) int
	Logger types.Logger
}

// NewEngine creates an Engine from the given configuration.
func NewEngine(cfg EngineConfig) *Engine {
	intn := cfg.IntN
	if intn == nil {
		intn = rand.Intn
	}
	logger := cfg.Logger
	if logger == nil {
		logger = types.NopLogger{}
	}
	return &Engine{intn: intn, logger: logger}
}

// analysis is the per-call summary of the price curve the candidate rules
// decide on.
type analysis struct {
	currentPrice   float64
	avg, min, max  float64
	classification types.PriceLevel

	// nextOptimalHours are the hours of the 3 lowest-priced future points,
	// sorted ascending by hour so the first entry is the nearest one.
	nextOptimalHours []int

	// nextAvoidHours are up to 2 future hours classified high, ascending.
	nextAvoidHours []int

	// savingsOpportunity is the percentage saved by shifting consumption
	// from the current price to the day's minimum, clamped to >= 0.
	savingsOpportunity int
}

// analyze computes the summary feeding the candidate rules.
func analyze(series types.PriceSeries, currentHour int) analysis {
	a := analysis{
		avg: series.Average(),
		min: series.Min(),
		max: series.Max(),
	}

	if p, ok := series.At(currentHour); ok {
		a.currentPrice = p.Price
	}
	a.classification = pricing.Classify(a.currentPrice, series)

	future := series.After(currentHour)

	cheapest := future
	if len(cheapest) > maxOptimalHours {
		cheapest = cheapest[:maxOptimalHours]
	}
	for _, p := range cheapest {
		a.nextOptimalHours = append(a.nextOptimalHours, p.Hour)
	}
	sort.Ints(a.nextOptimalHours)

	for _, p := range future {
		if len(a.nextAvoidHours) == maxAvoidHours {
			break
		}
		if pricing.Classify(p.Price, series) == types.LevelHigh {
			a.nextAvoidHours = append(a.nextAvoidHours, p.Hour)
		}
	}
	sort.Ints(a.nextAvoidHours)

	if a.currentPrice > 0 {
		savings := int(math.Round((a.currentPrice - a.min) / a.currentPrice * 100))
		if savings > 0 {
			a.savingsOpportunity = savings
		}
	}
	return a
}

// Generate produces the candidate recommendations for the given series
// and current hour, in the fixed order optimal_time, avoid_usage,
// schedule_device, tip_of_day. Each rule fires independently; an empty
// series produces no candidates.
func (e *Engine) Generate(series types.PriceSeries, currentHour int) []types.RecommendationCandidate {
	if len(series) == 0 {
		return nil
	}

	a := analyze(series, currentHour)

	var out []types.RecommendationCandidate
	if c := e.optimalTime(a, currentHour); c != nil {
		out = append(out, *c)
	}
	if c := e.avoidUsage(a, currentHour); c != nil {
		out = append(out, *c)
	}
	if c := e.scheduleDevice(a, currentHour); c != nil {
		out = append(out, *c)
	}
	out = append(out, e.tipOfDay(currentHour))

	e.logger.Info("recommendations generated",
		"count", len(out),
		"current_hour", currentHour,
		"classification", string(a.classification),
	)
	return out
}

// optimalTime emits an "act now" candidate while the current price is
// classified low, or a "later" candidate pointing at the nearest optimal
// hour otherwise.
func (e *Engine) optimalTime(a analysis, currentHour int) *types.RecommendationCandidate {
	if a.classification == types.LevelLow {
		return &types.RecommendationCandidate{
			Type:     types.RecOptimalTime,
			Title:    "Cheap electricity right now",
			Message:  fmt.Sprintf("The current price of %.3f €/kWh is well below today's average. Run your high-consumption appliances now and save up to %d%%.", a.currentPrice, a.savingsOpportunity),
			Priority: types.PriorityHigh,
			ActionData: &types.ActionData{
				SavingsPercent: a.savingsOpportunity,
			},
			Metadata: metadataFor(currentHour),
		}
	}

	if len(a.nextOptimalHours) == 0 {
		return nil
	}
	start := a.nextOptimalHours[0]
	return &types.RecommendationCandidate{
		Type:     types.RecOptimalTime,
		Title:    "Cheaper window coming up",
		Message:  fmt.Sprintf("Prices drop at %s. Plan your consumption for the %s-%s window.", formatHour(start), formatHour(start), formatHour(start+optimalWindowHours)),
		Priority: types.PriorityMedium,
		ActionData: &types.ActionData{
			TimeWindow: &types.TimeWindow{
				Start: formatHour(start),
				End:   formatHour(start + optimalWindowHours),
			},
		},
		Metadata: metadataFor(currentHour),
	}
}

// avoidUsage fires only while the current price is classified high and a
// further expensive hour lies ahead; the window runs from now to one hour
// past the next expensive hour.
func (e *Engine) avoidUsage(a analysis, currentHour int) *types.RecommendationCandidate {
	if a.classification != types.LevelHigh || len(a.nextAvoidHours) == 0 {
		return nil
	}
	end := a.nextAvoidHours[0] + 1
	return &types.RecommendationCandidate{
		Type:     types.RecAvoidUsage,
		Title:    "Expensive hours ahead",
		Message:  fmt.Sprintf("Electricity is expensive until around %s. Postpone high-consumption appliances if you can.", formatHour(end)),
		Priority: types.PriorityHigh,
		ActionData: &types.ActionData{
			TimeWindow: &types.TimeWindow{
				Start: formatHour(currentHour),
				End:   formatHour(end),
			},
		},
		Metadata: metadataFor(currentHour),
	}
}

// scheduleDevice proposes a fixed four-hour appliance window starting at
// the nearest optimal hour. Hour arithmetic wraps modulo 24.
func (e *Engine) scheduleDevice(a analysis, currentHour int) *types.RecommendationCandidate {
	if len(a.nextOptimalHours) == 0 {
		return nil
	}
	start := a.nextOptimalHours[0]
	return &types.RecommendationCandidate{
		Type:     types.RecScheduleDevice,
		Title:    "Schedule your washing machine",
		Message:  fmt.Sprintf("Set the delay timer for %s and save around %d%% on the cycle.", formatHour(start), scheduleSavings),
		Priority: types.PriorityMedium,
		ActionData: &types.ActionData{
			TimeWindow: &types.TimeWindow{
				Start: formatHour(start),
				End:   formatHour(start + scheduleWindowHours),
			},
			SavingsPercent: scheduleSavings,
			DeviceType:     scheduleDeviceType,
		},
		Metadata: metadataFor(currentHour),
	}
}

// tipOfDay always emits exactly one candidate, chosen uniformly from the
// static tip set.
func (e *Engine) tipOfDay(currentHour int) types.RecommendationCandidate {
	tip := dailyTips[e.intn(len(dailyTips))]
	return types.RecommendationCandidate{
		Type:     types.RecTipOfDay,
		Title:    "Tip of the day",
		Message:  tip,
		Priority: types.PriorityLow,
		Metadata: metadataFor(currentHour),
	}
}

func metadataFor(currentHour int) types.Metadata {
	return types.Metadata{types.MetadataKeyCurrentHour: currentHour}
}

// formatHour renders an hour as "HH:00", normalizing with 24-hour
// wraparound (handles negatives and values past 23).
func formatHour(hour int) string {
	h := ((hour % 24) + 24) % 24
	return fmt.Sprintf("%02d:00", h)
}
