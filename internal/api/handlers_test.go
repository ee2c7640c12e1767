package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tarifaluz/internal/notifications"
	"tarifaluz/internal/pricing"
	"tarifaluz/internal/recommend"
	"tarifaluz/internal/storage"
	"tarifaluz/internal/types"
)

// fixedClock pins the server clock for deterministic generation hours.
type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time { return c.now }

// stubSource serves fixed series to the handlers.
type stubSource struct {
	today   types.PriceSeries
	monthly types.PriceSeries
	err     error
}

func (s *stubSource) Today(context.Context) (types.PriceSeries, error) {
	return s.today, s.err
}

func (s *stubSource) MonthToDate(context.Context) (types.PriceSeries, error) {
	return s.monthly, s.err
}

func testSeries(day time.Time, prices ...float64) types.PriceSeries {
	s := make(types.PriceSeries, 0, len(prices))
	for h, p := range prices {
		s = append(s, types.PricePoint{Hour: h, Price: p, Timestamp: day.Add(time.Duration(h) * time.Hour)})
	}
	return s
}

func newTestServer(t *testing.T) (*Server, *notifications.Store) {
	t.Helper()

	now := time.Date(2026, 8, 15, 10, 0, 0, 0, time.UTC)
	day := time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC)

	store := notifications.NewStore(notifications.StoreConfig{
		Engine:      recommend.NewEngine(recommend.EngineConfig{IntN: func(int) int { return 0 }}),
		Persistence: storage.NewMemoryStore(),
		Clock:       fixedClock{now: now},
	})

	source := &stubSource{
		today:   testSeries(day, 0.10, 0.12, 0.08, 0.15, 0.09, 0.11, 0.14, 0.10, 0.13, 0.12, 0.10, 0.09),
		monthly: testSeries(day, 0.10, 0.12, 0.08, 0.15),
	}

	srv := NewServer(ServerConfig{
		Store:      store,
		Source:     source,
		Aggregator: pricing.NewAggregator(fixedClock{now: now}),
		Clock:      fixedClock{now: now},
	})
	return srv, store
}

func doRequest(t *testing.T, srv *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := doRequest(t, srv, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestGenerateAndList(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doRequest(t, srv, http.MethodPost, "/v1/notifications/generate", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var gen struct {
		Data struct {
			Added int `json:"added"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &gen))
	require.Greater(t, gen.Data.Added, 0)

	rec = doRequest(t, srv, http.MethodGet, "/v1/notifications/", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var list struct {
		Data struct {
			Notifications []types.Notification `json:"notifications"`
			UnreadCount   int                  `json:"unread_count"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Len(t, list.Data.Notifications, gen.Data.Added)
	assert.Equal(t, gen.Data.Added, list.Data.UnreadCount)
}

func TestMarkReadFlow(t *testing.T) {
	srv, store := newTestServer(t)
	doRequest(t, srv, http.MethodPost, "/v1/notifications/generate", "")

	ledger := store.Notifications(context.Background())
	require.NotEmpty(t, ledger)

	rec := doRequest(t, srv, http.MethodPost, "/v1/notifications/"+ledger[0].ID+"/read", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = doRequest(t, srv, http.MethodPost, "/v1/notifications/notif_missing/read", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	var errResp APIErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &errResp))
	assert.Equal(t, string(types.ErrCodeNotFoundNotification), errResp.Error.Code)

	rec = doRequest(t, srv, http.MethodPost, "/v1/notifications/read-all", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Zero(t, store.UnreadCount(context.Background()))
}

func TestRemoveAndClear(t *testing.T) {
	srv, store := newTestServer(t)
	doRequest(t, srv, http.MethodPost, "/v1/notifications/generate", "")

	ledger := store.Notifications(context.Background())
	require.NotEmpty(t, ledger)

	rec := doRequest(t, srv, http.MethodDelete, "/v1/notifications/"+ledger[0].ID, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = doRequest(t, srv, http.MethodDelete, "/v1/notifications/", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, store.Notifications(context.Background()))
}

func TestPatchConfig(t *testing.T) {
	srv, store := newTestServer(t)

	rec := doRequest(t, srv, http.MethodPatch, "/v1/notifications/config",
		`{"max_notifications": 5, "quiet_hours": {"start": "23:00", "end": "07:00"}}`)
	require.Equal(t, http.StatusOK, rec.Code)

	cfg := store.Config()
	assert.Equal(t, 5, cfg.MaxNotifications)
	require.NotNil(t, cfg.QuietHours)
	assert.Equal(t, "23:00", cfg.QuietHours.Start)
}

func TestPatchConfig_RejectsMalformedQuietHours(t *testing.T) {
	srv, store := newTestServer(t)

	for _, body := range []string{
		`{"quiet_hours": {"start": "25:00", "end": "07:00"}}`,
		`{"quiet_hours": {"start": "23:00", "end": "7pm"}}`,
		`{"quiet_hours": {"start": "23:00"}}`,
	} {
		rec := doRequest(t, srv, http.MethodPatch, "/v1/notifications/config", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, "body: %s", body)
	}
	assert.Nil(t, store.Config().QuietHours, "rejected patches must not reach the store")
}

func TestPatchConfig_RejectsUnknownFields(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := doRequest(t, srv, http.MethodPatch, "/v1/notifications/config", `{"bogus": 1}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLegendEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	for _, period := range []string{"", "hour", "week", "month"} {
		path := "/v1/legend"
		if period != "" {
			path += "?period=" + period
		}
		rec := doRequest(t, srv, http.MethodGet, path, "")
		require.Equal(t, http.StatusOK, rec.Code, "period %q", period)

		var resp struct {
			Data []types.LegendBand `json:"data"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Len(t, resp.Data, 4)
	}

	rec := doRequest(t, srv, http.MethodGet, "/v1/legend?period=decade", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAggregateEndpoints(t *testing.T) {
	srv, _ := newTestServer(t)

	for _, path := range []string{"/v1/aggregates/weekly", "/v1/aggregates/monthly"} {
		rec := doRequest(t, srv, http.MethodGet, path, "")
		require.Equal(t, http.StatusOK, rec.Code)

		var resp struct {
			Data []types.AggregateBucket `json:"data"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.NotEmpty(t, resp.Data)
		for _, b := range resp.Data {
			assert.Greater(t, b.SourceCount, 0)
		}
	}
}

func TestUpstreamFailureMapsToBadGateway(t *testing.T) {
	srv, _ := newTestServer(t)
	// Replace the source with a failing one.
	srv.source = &stubSource{err: types.NewAppError(types.ErrCodeUpstreamPrices, "down", nil)}

	rec := doRequest(t, srv, http.MethodPost, "/v1/notifications/generate", "")
	assert.Equal(t, http.StatusBadGateway, rec.Code)

	rec = doRequest(t, srv, http.MethodGet, "/v1/legend", "")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestStatusEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)
	doRequest(t, srv, http.MethodPost, "/v1/notifications/generate", "")

	rec := doRequest(t, srv, http.MethodGet, "/v1/status", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data types.StoreStatus `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Data.Notifications)
	assert.Equal(t, resp.Data.UnreadCount, len(resp.Data.Notifications))
	assert.NotNil(t, resp.Data.LastGenerated)
}
