package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/woozymasta/mtabot/internal/ase"
	"github.com/woozymasta/mtabot/internal/config"
	"github.com/woozymasta/mtabot/internal/models"
	"github.com/woozymasta/mtabot/internal/ntp"
)

type stubQuerier struct {
	res *ase.Result
	err error
}

func (s stubQuerier) Query(context.Context, string) (*ase.Result, error) { return s.res, s.err }

func (s stubQuerier) Country(context.Context) string { return "AR" }

type stubHistory struct {
	records []models.QueryRecord
	limit   int
}

func (s *stubHistory) RecentQueries(limit int) ([]models.QueryRecord, error) {
	s.limit = limit
	return s.records, nil
}

func (s *stubHistory) Stats(since time.Time) (*models.Stats, error) {
	return &models.Stats{Since: since, Queries: 10, Failures: 2, PeakPlayer: 37}, nil
}

type stubClock struct{ last *ntp.Result }

func (s stubClock) Last() *ntp.Result { return s.last }

func testConfig() *config.Config {
	return &config.Config{
		Server:    config.Server{AuthToken: "secret"},
		RateLimit: config.RateLimit{HardLimitCount: 2, HardLimitWin: time.Minute},
	}
}

func newTestServer(t *testing.T, q PlayerQuerier, h History, c ClockReporter) http.Handler {
	t.Helper()
	s := New(q, h, c, testConfig())
	handler := s.Run()
	t.Cleanup(s.Stop)
	return handler
}

func do(h http.Handler, method, target, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHandlePlayers(t *testing.T) {
	res := ase.Assemble(ase.ServerInfo{Name: "Test"}, []ase.Player{{Name: "Bob", Score: 5, Ping: 42}},
		ase.AssembleInfo{Variant: "tagged"})

	rec := do(newTestServer(t, stubQuerier{res: res}, &stubHistory{}, nil), http.MethodGet, "/api/players", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body struct {
		Players []ase.Player `json:"players"`
		Stop    string       `json:"stop"`
		Country string       `json:"country"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, []ase.Player{{Name: "Bob", Score: 5, Ping: 42}}, body.Players)
	assert.Equal(t, "exhausted", body.Stop)
	assert.Equal(t, "AR", body.Country)
}

func TestHandlePlayersFailures(t *testing.T) {
	tests := []struct {
		err  error
		name string
		kind string
		want int
	}{
		{&ase.Error{Kind: ase.KindTimeout}, "timeout", "timeout", http.StatusGatewayTimeout},
		{&ase.Error{Kind: ase.KindInvalidHeader}, "bad header", "invalid_header", http.StatusBadGateway},
		{errors.New("boom"), "foreign", "unknown", http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestServer(t, stubQuerier{err: tt.err}, &stubHistory{}, nil)
			rec := do(h, http.MethodGet, "/api/players", "")

			assert.Equal(t, tt.want, rec.Code)

			var body map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.kind, body["kind"])
		})
	}
}

func TestPlayersRateLimit(t *testing.T) {
	h := newTestServer(t, stubQuerier{res: ase.Assemble(ase.ServerInfo{}, nil, ase.AssembleInfo{})}, &stubHistory{}, nil)

	assert.Equal(t, http.StatusOK, do(h, http.MethodGet, "/api/players", "").Code)
	assert.Equal(t, http.StatusOK, do(h, http.MethodGet, "/api/players", "").Code)

	rec := do(h, http.MethodGet, "/api/players", "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
	assert.JSONEq(t, `{"error":"too many requests","kind":"rate_limited"}`, rec.Body.String())
}

func TestIPLimiters(t *testing.T) {
	l := newIPLimiters(2, 2*time.Second)
	now := time.Unix(1700000000, 0)

	assert.Zero(t, l.reserve("a", now))
	assert.Zero(t, l.reserve("a", now))
	assert.Equal(t, time.Second, l.reserve("a", now))
	assert.Equal(t, time.Second, l.reserve("a", now), "a rejected request must not consume a token")
	assert.Zero(t, l.reserve("b", now))
	assert.Zero(t, l.reserve("a", now.Add(time.Second)))

	assert.Equal(t, 0, l.sweep(now.Add(limiterIdleAfter)))
	assert.Equal(t, 2, l.sweep(now.Add(limiterIdleAfter+time.Minute)))
}

func TestHandleHistory(t *testing.T) {
	history := &stubHistory{records: []models.QueryRecord{{QueryID: "a", Outcome: models.OutcomeOK}}}
	h := newTestServer(t, stubQuerier{}, history, nil)

	assert.Equal(t, http.StatusUnauthorized, do(h, http.MethodGet, "/api/history", "").Code)
	assert.Equal(t, http.StatusUnauthorized, do(h, http.MethodGet, "/api/history", "wrong").Code)
	assert.Equal(t, http.StatusBadRequest, do(h, http.MethodGet, "/api/history?limit=x", "secret").Code)

	rec := do(h, http.MethodGet, "/api/history?limit=9999", "secret")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, maxHistoryLimit, history.limit)

	var records []models.QueryRecord
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &records))
	require.Len(t, records, 1)
	assert.Equal(t, "a", records[0].QueryID)
}

func TestHandleStats(t *testing.T) {
	h := newTestServer(t, stubQuerier{}, &stubHistory{}, nil)

	rec := do(h, http.MethodGet, "/api/stats", "secret")
	require.Equal(t, http.StatusOK, rec.Code)

	var stats models.Stats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Equal(t, 37, stats.PeakPlayer)
	assert.Equal(t, int64(2), stats.Failures)
}

func TestHandleClock(t *testing.T) {
	assert.Equal(t, http.StatusNotFound,
		do(newTestServer(t, stubQuerier{}, &stubHistory{}, nil), http.MethodGet, "/api/clock", "").Code)
	assert.Equal(t, http.StatusServiceUnavailable,
		do(newTestServer(t, stubQuerier{}, &stubHistory{}, stubClock{}), http.MethodGet, "/api/clock", "").Code)

	last := &ntp.Result{Host: "time.windows.com", Offset: 3 * time.Second, Drifted: true}
	rec := do(newTestServer(t, stubQuerier{}, &stubHistory{}, stubClock{last: last}), http.MethodGet, "/api/clock", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var got ntp.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.True(t, got.Drifted)
	assert.Equal(t, 3*time.Second, got.Offset)
}

func TestHandleVersion(t *testing.T) {
	rec := do(newTestServer(t, stubQuerier{}, &stubHistory{}, nil), http.MethodGet, "/api/version", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"name":"MTABot"`)
}

func TestAdminAuthEmptyToken(t *testing.T) {
	h := AdminAuthMiddleware("", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer ")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestGetRealIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.1:5555"
	req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")

	assert.Equal(t, "10.0.0.1", GetRealIP(req, false))
	assert.Equal(t, "203.0.113.7", GetRealIP(req, true))
}
