// Package api exposes the recommendation core to the dashboard UI as a
// thin JSON surface: the notification ledger and its mutations, the
// notification config, and the computed legend/aggregate views used by
// the chart components. Rendering, routing and SEO live entirely in the
// frontend; nothing here owns presentation.
package api

import (
	"net/http"
	"regexp"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"

	"tarifaluz/internal/notifications"
	"tarifaluz/internal/pricing"
	"tarifaluz/internal/types"
)

var hhmmPattern = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)

// Server encapsulates the API dependencies, allowing injection during
// testing.
type Server struct {
	store      *notifications.Store
	source     types.PriceSource
	aggregator *pricing.Aggregator
	clock      types.Clock
	logger     types.Logger
	validate   *validator.Validate
	router     *chi.Mux
}

// ServerConfig holds the dependencies for creating a Server.
type ServerConfig struct {
	Store      *notifications.Store
	Source     types.PriceSource
	Aggregator *pricing.Aggregator
	Clock      types.Clock
	Logger     types.Logger
}

// NewServer builds the router and mounts all routes.
func NewServer(cfg ServerConfig) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = types.NopLogger{}
	}
	clock := cfg.Clock
	if clock == nil {
		clock = types.SystemClock{}
	}

	validate := validator.New()
	// "hhmm" validates quiet-hours boundaries as strict 24h wall-clock strings.
	_ = validate.RegisterValidation("hhmm", func(fl validator.FieldLevel) bool {
		return hhmmPattern.MatchString(fl.Field().String())
	})

	s := &Server{
		store:      cfg.Store,
		source:     cfg.Source,
		aggregator: cfg.Aggregator,
		clock:      clock,
		logger:     logger,
		validate:   validate,
		router:     chi.NewRouter(),
	}
	s.mountRoutes()
	return s
}

// Handler returns the http.Handler for the router.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) mountRoutes() {
	r := s.router
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/v1", func(r chi.Router) {
		r.Get("/status", s.handleStatus)

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", s.handleListNotifications)
			r.Delete("/", s.handleClearNotifications)
			r.Post("/generate", s.handleGenerate)
			r.Post("/read-all", s.handleMarkAllRead)
			r.Post("/{id}/read", s.handleMarkRead)
			r.Delete("/{id}", s.handleRemoveNotification)

			r.Get("/config", s.handleGetConfig)
			r.Patch("/config", s.handlePatchConfig)
		})

		r.Get("/legend", s.handleLegend)
		r.Get("/aggregates/weekly", s.handleWeeklyAggregates)
		r.Get("/aggregates/monthly", s.handleMonthlyAggregates)
	})
}
