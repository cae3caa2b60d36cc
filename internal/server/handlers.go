package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/woozymasta/mtabot/internal/ase"
	"github.com/woozymasta/mtabot/internal/game"
	"github.com/woozymasta/mtabot/internal/vars"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 500
	statsWindow         = 24 * time.Hour
)

// errorResponse is the JSON body of every failed API request.
type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

// playersResponse is the roster plus the country of the server host when GeoIP is enabled.
type playersResponse struct {
	*ase.Result
	Country string `json:"country,omitempty"`
}

// handlePlayers performs a live ASE query against the configured MTA server.
// A timeout answers 504, every other failure 502.
func (s *Server) handlePlayers(w http.ResponseWriter, r *http.Request) {
	res, err := s.querier.Query(r.Context(), game.SourceAPI)
	if err != nil {
		status := http.StatusBadGateway
		if game.IsTimeout(err) {
			status = http.StatusGatewayTimeout
		}
		writeJSON(w, status, errorResponse{Error: err.Error(), Kind: ase.KindOf(err).String()})
		return
	}

	writeJSON(w, http.StatusOK, playersResponse{Result: res, Country: s.querier.Country(r.Context())})
}

// handleHistory returns recent query outcomes, newest first.
// Query params: ?limit=50
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := defaultHistoryLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid limit"})
			return
		}
		limit = min(n, maxHistoryLimit)
	}

	records, err := s.history.RecentQueries(limit)
	if err != nil {
		log.Error().Err(err).Msg("Failed to fetch query history")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "database error"})
		return
	}

	writeJSON(w, http.StatusOK, records)
}

// handleStats returns the peak player count and failure rate of the last 24 hours.
func (s *Server) handleStats(w http.ResponseWriter, _ *http.Request) {
	stats, err := s.history.Stats(time.Now().Add(-statsWindow))
	if err != nil {
		log.Error().Err(err).Msg("Failed to compute stats")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "database error"})
		return
	}

	writeJSON(w, http.StatusOK, stats)
}

// handleClock returns the latest NTP offset check.
func (s *Server) handleClock(w http.ResponseWriter, r *http.Request) {
	if s.clock == nil {
		http.NotFound(w, r)
		return
	}

	last := s.clock.Last()
	if last == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "clock not checked yet"})
		return
	}

	writeJSON(w, http.StatusOK, last)
}

func (s *Server) handleVersion(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, vars.Info())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
