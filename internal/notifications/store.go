// Package notifications owns the notification ledger: creation from
// recommendation candidates, deduplication, the size cap, expiry sweeps,
// read-marking, quiet-hours gating and periodic regeneration.
//
// The in-memory ledger is authoritative for the current session. The
// persistence collaborator is written on every mutation, but its failures
// are logged and swallowed; no storage fault ever reaches a caller. If
// another tab or process updates the same storage keys, the most recently
// loaded snapshot wins -- cross-session races are not reconciled.
package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"tarifaluz/internal/recommend"
	"tarifaluz/internal/types"
)

// Storage keys used with the persistence collaborator.
const (
	keyLedger        = "tarifaluz:notifications"
	keyConfig        = "tarifaluz:notification_config"
	keyLastGenerated = "tarifaluz:last_generated"
)

// dedupeWindow is how far back an unread notification of the same
// (type, current hour) pair suppresses a fresh candidate.
const dedupeWindow = time.Hour

// Store is the stateful notification ledger.
type Store struct {
	mu sync.Mutex

	engine  *recommend.Engine
	persist types.Persistence
	clock   types.Clock
	logger  types.Logger
	newID   func() string

	ledger        []types.Notification // newest first
	config        types.NotificationConfig
	defaults      types.NotificationConfig
	lastGenerated *time.Time
	isLoading     bool

	// regen collapses concurrent generation triggers into one execution,
	// so no two regenerations interleave their ledger writes.
	regen singleflight.Group

	runner *regenRunner
}

// StoreConfig holds the dependencies for creating a Store.
type StoreConfig struct {
	Engine      *recommend.Engine
	Persistence types.Persistence
	Clock       types.Clock
	Logger      types.Logger

	// NewID overrides notification ID generation. Defaults to a
	// "notif_"-prefixed UUID.
	NewID func() string

	// Defaults overrides the built-in notification config used until a
	// user-persisted config exists.
	Defaults *types.NotificationConfig
}

// NewStore creates a Store with the default configuration. Call Load to
// hydrate it from the persistence collaborator.
func NewStore(cfg StoreConfig) *Store {
	clock := cfg.Clock
	if clock == nil {
		clock = types.SystemClock{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = types.NopLogger{}
	}
	newID := cfg.NewID
	if newID == nil {
		newID = func() string { return "notif_" + uuid.NewString() }
	}
	defaults := types.DefaultNotificationConfig()
	if cfg.Defaults != nil {
		defaults = *cfg.Defaults
	}
	return &Store{
		engine:   cfg.Engine,
		persist:  cfg.Persistence,
		clock:    clock,
		logger:   logger,
		newID:    newID,
		config:   defaults,
		defaults: defaults,
	}
}

// Load hydrates the ledger, config and last-generation timestamp from the
// persistence collaborator. Missing keys and malformed payloads fall back
// to the defaults; Load never fails.
func (s *Store) Load(ctx context.Context) {
	s.mu.Lock()
	s.isLoading = true
	s.mu.Unlock()

	ledger := s.loadLedger(ctx)
	config := s.loadConfig(ctx)
	lastGen := s.loadLastGenerated(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.ledger = ledger
	s.config = config
	s.lastGenerated = lastGen
	s.isLoading = false
	s.sweepLocked(ctx)
}

func (s *Store) loadLedger(ctx context.Context) []types.Notification {
	raw, ok, err := s.persist.Get(ctx, keyLedger)
	if err != nil {
		s.logger.Warn("failed to read notification ledger, starting empty", "error", err)
		return nil
	}
	if !ok {
		return nil
	}
	var ledger []types.Notification
	if err := json.Unmarshal([]byte(raw), &ledger); err != nil {
		s.logger.Warn("discarding malformed notification ledger", "error", err)
		return nil
	}
	return ledger
}

func (s *Store) loadConfig(ctx context.Context) types.NotificationConfig {
	defaults := s.defaults
	raw, ok, err := s.persist.Get(ctx, keyConfig)
	if err != nil {
		s.logger.Warn("failed to read notification config, using defaults", "error", err)
		return defaults
	}
	if !ok {
		return defaults
	}
	var cfg types.NotificationConfig
	if err := json.Unmarshal([]byte(raw), &cfg); err != nil {
		s.logger.Warn("discarding malformed notification config", "error", err)
		return defaults
	}
	// Guard against persisted nonsense that would break the ledger cap or
	// the regeneration timer.
	if cfg.RegenerationIntervalMinutes <= 0 {
		cfg.RegenerationIntervalMinutes = defaults.RegenerationIntervalMinutes
	}
	if cfg.MaxNotifications <= 0 {
		cfg.MaxNotifications = defaults.MaxNotifications
	}
	if cfg.AutoExpireHours <= 0 {
		cfg.AutoExpireHours = defaults.AutoExpireHours
	}
	return cfg
}

func (s *Store) loadLastGenerated(ctx context.Context) *time.Time {
	raw, ok, err := s.persist.Get(ctx, keyLastGenerated)
	if err != nil || !ok {
		if err != nil {
			s.logger.Warn("failed to read last-generation timestamp", "error", err)
		}
		return nil
	}
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		s.logger.Warn("discarding malformed last-generation timestamp", "error", err)
		return nil
	}
	return &t
}

// GenerateRecommendations runs the engine over the series and folds the
// surviving candidates into the ledger. It is a no-op during quiet hours
// and for an empty series. Concurrent calls are collapsed into a single
// execution. Returns the number of notifications appended.
func (s *Store) GenerateRecommendations(ctx context.Context, series types.PriceSeries, currentHour int) int {
	added, _, _ := s.regen.Do("generate", func() (any, error) {
		return s.generate(ctx, series, currentHour), nil
	})
	return added.(int)
}

func (s *Store) generate(ctx context.Context, series types.PriceSeries, currentHour int) int {
	if len(series) == 0 {
		return 0
	}
	if s.IsInQuietHours() {
		s.logger.Info("skipping generation during quiet hours", "current_hour", currentHour)
		return 0
	}

	candidates := s.engine.Generate(series, currentHour)

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	s.sweepExpiredLocked(now)

	var fresh []types.Notification
	for _, c := range candidates {
		if !s.config.TypeEnabled(c.Type) {
			continue
		}
		if s.isDuplicateLocked(c, now) {
			continue
		}
		fresh = append(fresh, types.Notification{
			RecommendationCandidate: c,
			ID:                      s.newID(),
			CreatedAt:               now,
			IsRead:                  false,
			ExpiresAt:               now.Add(time.Duration(s.config.AutoExpireHours) * time.Hour),
		})
	}

	if len(fresh) > 0 {
		s.ledger = append(fresh, s.ledger...)
		if len(s.ledger) > s.config.MaxNotifications {
			s.ledger = s.ledger[:s.config.MaxNotifications]
		}
	}

	s.lastGenerated = &now
	s.persistLedgerLocked(ctx)
	s.persistLastGeneratedLocked(ctx, now)

	s.logger.Info("notification ledger updated",
		"candidates", len(candidates),
		"added", len(fresh),
		"ledger_size", len(s.ledger),
	)
	return len(fresh)
}

// isDuplicateLocked reports whether an unread, unexpired notification with
// the same (type, current hour) pair was created within the dedupe window.
func (s *Store) isDuplicateLocked(c types.RecommendationCandidate, now time.Time) bool {
	ch, ok := c.Metadata.CurrentHour()
	if !ok {
		return false
	}
	for _, n := range s.ledger {
		if n.Type != c.Type || n.IsRead || n.Expired(now) {
			continue
		}
		nh, ok := n.Metadata.CurrentHour()
		if !ok || nh != ch {
			continue
		}
		if now.Sub(n.CreatedAt) < dedupeWindow {
			return true
		}
	}
	return false
}

// MarkAsRead flips a single notification to read. Returns a not-found
// error when the ID does not exist in the current ledger.
func (s *Store) MarkAsRead(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.ledger {
		if s.ledger[i].ID == id {
			s.ledger[i].IsRead = true
			s.persistLedgerLocked(ctx)
			return nil
		}
	}
	return types.NewAppError(types.ErrCodeNotFoundNotification,
		fmt.Sprintf("notification %s not found", id), nil)
}

// MarkAllAsRead flips every ledger entry to read.
func (s *Store) MarkAllAsRead(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.ledger {
		s.ledger[i].IsRead = true
	}
	s.persistLedgerLocked(ctx)
}

// RemoveNotification removes a single notification. Returns a not-found
// error when the ID does not exist.
func (s *Store) RemoveNotification(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.ledger {
		if s.ledger[i].ID == id {
			s.ledger = append(s.ledger[:i], s.ledger[i+1:]...)
			s.persistLedgerLocked(ctx)
			return nil
		}
	}
	return types.NewAppError(types.ErrCodeNotFoundNotification,
		fmt.Sprintf("notification %s not found", id), nil)
}

// ClearAllNotifications empties the ledger.
func (s *Store) ClearAllNotifications(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ledger = nil
	s.persistLedgerLocked(ctx)
}

// UpdateConfig merges a partial update into the notification config and
// persists it. Existing notifications keep the expiry they were created
// with; only future ones pick up a changed AutoExpireHours. A changed
// regeneration interval reschedules the running timer.
func (s *Store) UpdateConfig(ctx context.Context, patch types.NotificationConfigPatch) types.NotificationConfig {
	s.mu.Lock()

	prevInterval := s.config.RegenerationIntervalMinutes
	if patch.RegenerationIntervalMinutes != nil && *patch.RegenerationIntervalMinutes > 0 {
		s.config.RegenerationIntervalMinutes = *patch.RegenerationIntervalMinutes
	}
	if patch.MaxNotifications != nil && *patch.MaxNotifications > 0 {
		s.config.MaxNotifications = *patch.MaxNotifications
		if len(s.ledger) > s.config.MaxNotifications {
			s.ledger = s.ledger[:s.config.MaxNotifications]
			s.persistLedgerLocked(ctx)
		}
	}
	if patch.AutoExpireHours != nil && *patch.AutoExpireHours > 0 {
		s.config.AutoExpireHours = *patch.AutoExpireHours
	}
	if patch.EnabledTypes != nil {
		s.config.EnabledTypes = patch.EnabledTypes
	}
	if patch.ClearQuietHours {
		s.config.QuietHours = nil
	} else if patch.QuietHours != nil {
		s.config.QuietHours = patch.QuietHours
	}

	updated := s.config
	s.persistConfigLocked(ctx)
	runner := s.runner
	s.mu.Unlock()

	if runner != nil && updated.RegenerationIntervalMinutes != prevInterval {
		runner.reschedule(time.Duration(updated.RegenerationIntervalMinutes) * time.Minute)
	}
	return updated
}

// IsInQuietHours reports whether the current minute of day falls inside
// the configured quiet-hours window. Window ends are inclusive; a window
// whose start is later than its end wraps past midnight. Quiet-hours
// strings are assumed well-formed ("HH:MM"); a malformed value fails open
// (never quiet) rather than suppressing generation forever.
func (s *Store) IsInQuietHours() bool {
	s.mu.Lock()
	qh := s.config.QuietHours
	s.mu.Unlock()
	if qh == nil {
		return false
	}

	start, err := minuteOfDay(qh.Start)
	if err != nil {
		s.logger.Warn("malformed quiet hours start", "value", qh.Start, "error", err)
		return false
	}
	end, err := minuteOfDay(qh.End)
	if err != nil {
		s.logger.Warn("malformed quiet hours end", "value", qh.End, "error", err)
		return false
	}

	now := s.clock.Now()
	minute := now.Hour()*60 + now.Minute()

	if start <= end {
		return minute >= start && minute <= end
	}
	// Wraps past midnight, e.g. 23:00-07:00.
	return minute >= start || minute <= end
}

// minuteOfDay parses "HH:MM" into minutes since midnight.
func minuteOfDay(s string) (int, error) {
	var h, m int
	n, err := fmt.Sscanf(s, "%d:%d", &h, &m)
	if err != nil || n != 2 {
		return 0, fmt.Errorf("expected HH:MM, got %q", s)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("time out of range: %q", s)
	}
	return h*60 + m, nil
}

// Notifications returns the current ledger, newest first, with expired
// entries swept out.
func (s *Store) Notifications(ctx context.Context) []types.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweepLocked(ctx)
	out := make([]types.Notification, len(s.ledger))
	copy(out, s.ledger)
	return out
}

// UnreadCount returns the number of unread, unexpired ledger entries.
func (s *Store) UnreadCount(ctx context.Context) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweepLocked(ctx)
	return s.unreadCountLocked()
}

func (s *Store) unreadCountLocked() int {
	count := 0
	for _, n := range s.ledger {
		if !n.IsRead {
			count++
		}
	}
	return count
}

// Config returns the current notification configuration.
func (s *Store) Config() types.NotificationConfig {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.config
}

// Status returns the full read model the UI consumes, with expired
// entries swept out.
func (s *Store) Status(ctx context.Context) types.StoreStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweepLocked(ctx)

	ledger := make([]types.Notification, len(s.ledger))
	copy(ledger, s.ledger)

	return types.StoreStatus{
		Notifications: ledger,
		UnreadCount:   s.unreadCountLocked(),
		Config:        s.config,
		IsLoading:     s.isLoading,
		LastGenerated: s.lastGenerated,
	}
}

// sweepLocked drops expired entries and persists the ledger when anything
// was removed. Callers must hold s.mu.
func (s *Store) sweepLocked(ctx context.Context) {
	if s.sweepExpiredLocked(s.clock.Now()) {
		s.persistLedgerLocked(ctx)
	}
}

// sweepExpiredLocked removes expired entries in place and reports whether
// any were removed. Callers must hold s.mu.
func (s *Store) sweepExpiredLocked(now time.Time) bool {
	kept := s.ledger[:0]
	for _, n := range s.ledger {
		if !n.Expired(now) {
			kept = append(kept, n)
		}
	}
	removed := len(kept) != len(s.ledger)
	s.ledger = kept
	return removed
}

// Persistence writers. Failures are logged and swallowed: the in-memory
// state stays authoritative for the session.

func (s *Store) persistLedgerLocked(ctx context.Context) {
	raw, err := json.Marshal(s.ledger)
	if err != nil {
		s.logger.Error("failed to serialize notification ledger", "error", err)
		return
	}
	if err := s.persist.Set(ctx, keyLedger, string(raw)); err != nil {
		s.logger.Warn("failed to persist notification ledger", "error", err)
	}
}

func (s *Store) persistConfigLocked(ctx context.Context) {
	raw, err := json.Marshal(s.config)
	if err != nil {
		s.logger.Error("failed to serialize notification config", "error", err)
		return
	}
	if err := s.persist.Set(ctx, keyConfig, string(raw)); err != nil {
		s.logger.Warn("failed to persist notification config", "error", err)
	}
}

func (s *Store) persistLastGeneratedLocked(ctx context.Context, t time.Time) {
	if err := s.persist.Set(ctx, keyLastGenerated, t.Format(time.RFC3339Nano)); err != nil {
		s.logger.Warn("failed to persist last-generation timestamp", "error", err)
	}
}
