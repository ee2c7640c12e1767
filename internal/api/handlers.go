package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"tarifaluz/internal/pricing"
	"tarifaluz/internal/types"
)

// handleStatus returns the full store read model the dashboard binds to.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, APIResponse{Data: s.store.Status(r.Context())})
}

// listNotificationsResponse pairs the ledger with its unread count so the
// badge and the list never disagree.
type listNotificationsResponse struct {
	Notifications []types.Notification `json:"notifications"`
	UnreadCount   int                  `json:"unread_count"`
}

func (s *Server) handleListNotifications(w http.ResponseWriter, r *http.Request) {
	ledger := s.store.Notifications(r.Context())
	unread := 0
	for _, n := range ledger {
		if !n.IsRead {
			unread++
		}
	}
	writeJSON(w, http.StatusOK, APIResponse{Data: listNotificationsResponse{
		Notifications: ledger,
		UnreadCount:   unread,
	}})
}

// handleGenerate is the manual regeneration trigger. It fetches today's
// series and funnels it through the same entry point the timer uses.
func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	series, err := s.source.Today(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	added := s.store.GenerateRecommendations(r.Context(), series, s.clock.Now().Hour())
	writeJSON(w, http.StatusOK, APIResponse{Data: map[string]int{"added": added}})
}

func (s *Server) handleMarkRead(w http.ResponseWriter, r *http.Request) {
	if err := s.store.MarkAsRead(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleMarkAllRead(w http.ResponseWriter, r *http.Request) {
	s.store.MarkAllAsRead(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRemoveNotification(w http.ResponseWriter, r *http.Request) {
	if err := s.store.RemoveNotification(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleClearNotifications(w http.ResponseWriter, r *http.Request) {
	s.store.ClearAllNotifications(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, APIResponse{Data: s.store.Config()})
}

// configPatchRequest is the wire shape of a partial config update. Quiet
// hours are validated here so malformed HH:MM strings never reach the
// store, which assumes well-formed values.
type configPatchRequest struct {
	RegenerationIntervalMinutes *int                       `json:"regeneration_interval_minutes" validate:"omitempty,gt=0"`
	MaxNotifications            *int                       `json:"max_notifications" validate:"omitempty,gt=0"`
	AutoExpireHours             *int                       `json:"auto_expire_hours" validate:"omitempty,gt=0"`
	EnabledTypes                []types.RecommendationType `json:"enabled_types"`
	QuietHours                  *quietHoursRequest         `json:"quiet_hours"`
	ClearQuietHours             bool                       `json:"clear_quiet_hours"`
}

type quietHoursRequest struct {
	Start string `json:"start" validate:"required,hhmm"`
	End   string `json:"end" validate:"required,hhmm"`
}

func (s *Server) handlePatchConfig(w http.ResponseWriter, r *http.Request) {
	var req configPatchRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := s.validate.Struct(&req); err != nil {
		writeError(w, types.NewAppError(types.ErrCodeValidationConfig, "invalid configuration update", err))
		return
	}

	patch := types.NotificationConfigPatch{
		RegenerationIntervalMinutes: req.RegenerationIntervalMinutes,
		MaxNotifications:            req.MaxNotifications,
		AutoExpireHours:             req.AutoExpireHours,
		EnabledTypes:                req.EnabledTypes,
		ClearQuietHours:             req.ClearQuietHours,
	}
	if req.QuietHours != nil {
		patch.QuietHours = &types.QuietHours{Start: req.QuietHours.Start, End: req.QuietHours.End}
	}

	updated := s.store.UpdateConfig(r.Context(), patch)
	writeJSON(w, http.StatusOK, APIResponse{Data: updated})
}

// handleLegend returns the four display bands for the requested period,
// computed fresh from today's series (hour period) or the month-to-date
// series (week/month periods).
func (s *Server) handleLegend(w http.ResponseWriter, r *http.Request) {
	period := types.LegendPeriod(r.URL.Query().Get("period"))
	if period == "" {
		period = types.PeriodHour
	}

	var series types.PriceSeries
	var err error
	switch period {
	case types.PeriodHour:
		series, err = s.source.Today(r.Context())
	case types.PeriodWeek, types.PeriodMonth:
		series, err = s.source.MonthToDate(r.Context())
	default:
		writeError(w, types.NewAppError(types.ErrCodeValidationInvalidPeriod,
			"period must be one of hour, week, month", nil))
		return
	}
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, APIResponse{Data: pricing.GenerateLegend(series, period)})
}

func (s *Server) handleWeeklyAggregates(w http.ResponseWriter, r *http.Request) {
	series, err := s.source.MonthToDate(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{Data: s.aggregator.AggregateByWeek(series)})
}

func (s *Server) handleMonthlyAggregates(w http.ResponseWriter, r *http.Request) {
	series, err := s.source.MonthToDate(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{Data: s.aggregator.AggregateByMonth(series)})
}
