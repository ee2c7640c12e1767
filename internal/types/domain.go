// Package types defines the domain entities, enumerations, error taxonomy
// and collaborator interfaces shared by every tarifaluz package.
package types

import (
	"encoding/json"
	"sort"
	"time"
)

// PricePoint is one hour's settled or forecast spot price for a single day.
// Immutable once produced by the market-data collaborator.
type PricePoint struct {
	Hour      int       `json:"hour"`
	Price     float64   `json:"price"`
	Timestamp time.Time `json:"timestamp"`
}

// PriceSeries is an ordered collection of PricePoints for a single day,
// one entry per distinct hour. Hours need not be contiguous or sorted on
// input; derived computations always use the full set.
type PriceSeries []PricePoint

// Average returns the arithmetic mean price of the series, or 0 for an
// empty series.
func (s PriceSeries) Average() float64 {
	if len(s) == 0 {
		return 0
	}
	var sum float64
	for _, p := range s {
		sum += p.Price
	}
	return sum / float64(len(s))
}

// Min returns the lowest price in the series, or 0 for an empty series.
func (s PriceSeries) Min() float64 {
	if len(s) == 0 {
		return 0
	}
	min := s[0].Price
	for _, p := range s[1:] {
		if p.Price < min {
			min = p.Price
		}
	}
	return min
}

// Max returns the highest price in the series, or 0 for an empty series.
func (s PriceSeries) Max() float64 {
	if len(s) == 0 {
		return 0
	}
	max := s[0].Price
	for _, p := range s[1:] {
		if p.Price > max {
			max = p.Price
		}
	}
	return max
}

// At returns the point for the given hour, if present.
func (s PriceSeries) At(hour int) (PricePoint, bool) {
	for _, p := range s {
		if p.Hour == hour {
			return p, true
		}
	}
	return PricePoint{}, false
}

// After returns the points with Hour strictly greater than the given hour,
// sorted ascending by price and, for equal prices, ascending by hour.
func (s PriceSeries) After(hour int) PriceSeries {
	var out PriceSeries
	for _, p := range s {
		if p.Hour > hour {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Price != out[j].Price {
			return out[i].Price < out[j].Price
		}
		return out[i].Hour < out[j].Hour
	})
	return out
}

// AggregateBucket is one aggregation period (week-of-month or
// month-of-year) with its averaged price. Ephemeral, recomputed on every
// request, never persisted.
type AggregateBucket struct {
	BucketKey    int     `json:"bucket_key"`
	Label        string  `json:"label"`
	AveragePrice float64 `json:"average_price"`
	SourceCount  int     `json:"source_count"`
}

// LegendBand is one of the four contiguous display bands a legend is built
// from. Bounds are derived solely from the series passed in that call.
type LegendBand struct {
	Level        PriceLevel `json:"level"`
	LowerBound   float64    `json:"lower_bound"`
	UpperBound   float64    `json:"upper_bound"`
	DisplayLabel string     `json:"display_label"`
}

// TimeWindow is a consumption window expressed as "HH:00" wall-clock
// strings with 24-hour wraparound.
type TimeWindow struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// ActionData carries the optional actionable payload of a recommendation.
type ActionData struct {
	TimeWindow     *TimeWindow `json:"time_window,omitempty"`
	SavingsPercent int         `json:"savings_percent,omitempty"`
	DeviceType     string      `json:"device_type,omitempty"`
}

// RecommendationCandidate is an ephemeral, not-yet-persisted suggestion
// produced by the engine. It carries no identity until the notification
// store assigns one.
type RecommendationCandidate struct {
	Type       RecommendationType `json:"type"`
	Title      string             `json:"title"`
	Message    string             `json:"message"`
	Priority   Priority           `json:"priority"`
	ActionData *ActionData        `json:"action_data,omitempty"`
	Metadata   Metadata           `json:"metadata,omitempty"`
}

// Metadata is a free-form annotation map attached to a candidate. The
// "current_hour" entry is set on every candidate and participates in
// ledger deduplication.
type Metadata map[string]any

// MetadataKeyCurrentHour is the metadata entry holding the hour a
// candidate was generated for.
const MetadataKeyCurrentHour = "current_hour"

// CurrentHour extracts the generation hour from the metadata, tolerating
// the float64 representation produced by a JSON round trip. The second
// return value is false when the entry is absent or not numeric.
func (m Metadata) CurrentHour() (int, bool) {
	v, ok := m[MetadataKeyCurrentHour]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case int:
		return n, true
	case float64:
		return int(n), true
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, false
		}
		return int(i), true
	}
	return 0, false
}

// Notification is a RecommendationCandidate that the store has given
// identity and lifecycle. Mutated only by read-marking; destroyed on
// explicit removal, clear-all, or expiry sweep.
type Notification struct {
	RecommendationCandidate

	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	IsRead    bool      `json:"is_read"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired reports whether the notification's expiry has passed at the
// given instant.
func (n Notification) Expired(now time.Time) bool {
	return !n.ExpiresAt.After(now)
}

// QuietHours is a time-of-day window, expressed as "HH:MM" strings,
// during which no new notifications are generated. A window whose start
// is later than its end wraps past midnight.
type QuietHours struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// NotificationConfig is the user-mutable configuration of the
// notification store. Persisted; survives restarts.
type NotificationConfig struct {
	RegenerationIntervalMinutes int                  `json:"regeneration_interval_minutes"`
	MaxNotifications            int                  `json:"max_notifications"`
	EnabledTypes                []RecommendationType `json:"enabled_types"`
	QuietHours                  *QuietHours          `json:"quiet_hours,omitempty"`
	AutoExpireHours             int                  `json:"auto_expire_hours"`
}

// DefaultNotificationConfig returns the configuration used until the user
// changes it: regenerate every 30 minutes, keep at most 10 notifications,
// expire after 24 hours, all types enabled, no quiet hours.
func DefaultNotificationConfig() NotificationConfig {
	return NotificationConfig{
		RegenerationIntervalMinutes: 30,
		MaxNotifications:            10,
		EnabledTypes:                AllRecommendationTypes(),
		AutoExpireHours:             24,
	}
}

// TypeEnabled reports whether candidates of the given type may enter the
// ledger. An empty EnabledTypes list enables every type.
func (c NotificationConfig) TypeEnabled(t RecommendationType) bool {
	if len(c.EnabledTypes) == 0 {
		return true
	}
	for _, e := range c.EnabledTypes {
		if e == t {
			return true
		}
	}
	return false
}

// NotificationConfigPatch is a partial config update. Nil fields leave the
// current value untouched. Setting ClearQuietHours removes the quiet-hours
// window regardless of the QuietHours field.
type NotificationConfigPatch struct {
	RegenerationIntervalMinutes *int                 `json:"regeneration_interval_minutes,omitempty"`
	MaxNotifications            *int                 `json:"max_notifications,omitempty"`
	EnabledTypes                []RecommendationType `json:"enabled_types,omitempty"`
	QuietHours                  *QuietHours          `json:"quiet_hours,omitempty"`
	ClearQuietHours             bool                 `json:"clear_quiet_hours,omitempty"`
	AutoExpireHours             *int                 `json:"auto_expire_hours,omitempty"`
}

// StoreStatus is the single read model the store exposes to the UI layer.
type StoreStatus struct {
	Notifications []Notification     `json:"notifications"`
	UnreadCount   int                `json:"unread_count"`
	Config        NotificationConfig `json:"config"`
	IsLoading     bool               `json:"is_loading"`
	LastGenerated *time.Time         `json:"last_generated,omitempty"`
}
