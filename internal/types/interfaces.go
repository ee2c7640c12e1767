package types

import (
	"context"
	"time"
)

// Clock abstracts time.Now so time-dependent logic (aggregation windows,
// quiet hours, expiry sweeps) can be tested deterministically.
type Clock interface {
	Now() time.Time
}

// SystemClock is the production Clock backed by time.Now.
type SystemClock struct{}

// Now returns the current wall-clock time.
func (SystemClock) Now() time.Time { return time.Now() }

// Logger defines the structured logging interface used throughout the
// application.
type Logger interface {
	Info(msg string, args ...any)
	Error(msg string, args ...any)
	Warn(msg string, args ...any)
	With(args ...any) Logger
}

// Persistence is the durable key->string store the notification ledger,
// config and last-generation timestamp are written to. Implementations
// must treat an absent key as a normal condition, not an error.
type Persistence interface {
	// Get returns the value for key. The boolean is false when the key is
	// absent.
	Get(ctx context.Context, key string) (string, bool, error)
	// Set stores value under key, overwriting any previous value.
	Set(ctx context.Context, key string, value string) error
}

// PriceSource supplies ready-made price series from the market-data
// collaborator. The core never fetches prices itself.
type PriceSource interface {
	// Today returns the hourly series for the current day.
	Today(ctx context.Context) (PriceSeries, error)
	// MonthToDate returns the series backing week/month aggregation views.
	MonthToDate(ctx context.Context) (PriceSeries, error)
}
