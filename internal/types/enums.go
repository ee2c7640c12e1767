package types

// PriceLevel is a discrete bucket describing how expensive a price is
// relative to a reference series.
type PriceLevel string

const (
	LevelLow      PriceLevel = "low"
	LevelMedium   PriceLevel = "medium"
	LevelHigh     PriceLevel = "high"
	LevelVeryHigh PriceLevel = "very_high"
)

// BandIndex returns the ordinal position of the level (0 = low, 3 = very_high).
// Useful for monotonicity comparisons between classifications.
func (l PriceLevel) BandIndex() int {
	switch l {
	case LevelLow:
		return 0
	case LevelMedium:
		return 1
	case LevelHigh:
		return 2
	case LevelVeryHigh:
		return 3
	}
	return -1
}

// RecommendationType identifies the kind of consumption advice a
// recommendation carries.
type RecommendationType string

const (
	RecOptimalTime    RecommendationType = "optimal_time"
	RecAvoidUsage     RecommendationType = "avoid_usage"
	RecScheduleDevice RecommendationType = "schedule_device"
	RecTipOfDay       RecommendationType = "tip_of_day"
	RecPriceAlert     RecommendationType = "price_alert"
)

// AllRecommendationTypes lists every recommendation type. Used as the
// default for NotificationConfig.EnabledTypes.
func AllRecommendationTypes() []RecommendationType {
	return []RecommendationType{
		RecOptimalTime,
		RecAvoidUsage,
		RecScheduleDevice,
		RecTipOfDay,
		RecPriceAlert,
	}
}

// Priority ranks how prominently a notification should be surfaced.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// LegendPeriod selects which aggregation view a legend describes.
type LegendPeriod string

const (
	PeriodHour  LegendPeriod = "hour"
	PeriodWeek  LegendPeriod = "week"
	PeriodMonth LegendPeriod = "month"
)
