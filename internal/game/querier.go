// Package game binds the configured MTA server to ASE queries and keeps the query history.
package game

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/woozymasta/mtabot/internal/ase"
	"github.com/woozymasta/mtabot/internal/config"
	"github.com/woozymasta/mtabot/internal/models"
)

// Query sources recorded with each outcome.
const (
	SourceBot     = "bot"
	SourceAPI     = "api"
	SourceWatcher = "watcher"
)

// Recorder persists query outcomes. *storage.Repository satisfies it.
type Recorder interface {
	SaveQuery(models.QueryRecord) error
	SaveSnapshot(models.Snapshot) error
	LastSnapshot() (*models.Snapshot, error)
}

// CountryResolver maps a host to an ISO country code. *geoip.Provider satisfies it.
type CountryResolver interface {
	HostCountry(ctx context.Context, host string) string
}

// QueryFunc performs one ASE query. ase.QueryPlayers is the production implementation.
type QueryFunc func(ctx context.Context, host string, port int, opts ...ase.Option) (*ase.Result, error)

// Querier runs queries against the configured server.
type Querier struct {
	rec   Recorder
	geo   CountryResolver
	query QueryFunc
	cfg   config.MTA

	mu          sync.Mutex
	fingerprint string
	country     string
	loaded      bool
}

// NewQuerier creates a Querier. rec may be nil to disable history.
func NewQuerier(cfg config.MTA, rec Recorder) *Querier {
	return &Querier{cfg: cfg, rec: rec, query: ase.QueryPlayers}
}

// WithQueryFunc replaces the transport, mostly for tests.
func (q *Querier) WithQueryFunc(fn QueryFunc) *Querier {
	q.query = fn
	return q
}

// WithGeo enables country lookup of the server host.
func (q *Querier) WithGeo(geo CountryResolver) *Querier {
	q.geo = geo
	return q
}

// Country returns the ISO country code of the server host, or "" when unknown.
// A successful lookup is cached for the life of the querier.
func (q *Querier) Country(ctx context.Context) string {
	if q.geo == nil {
		return ""
	}

	q.mu.Lock()
	country := q.country
	q.mu.Unlock()
	if country != "" {
		return country
	}

	// Resolved without q.mu held: it may block on DNS.
	country = q.geo.HostCountry(ctx, q.cfg.Host)
	if country != "" {
		q.mu.Lock()
		q.country = country
		q.mu.Unlock()
	}
	return country
}

// Config returns the queried server settings.
func (q *Querier) Config() config.MTA {
	return q.cfg
}

// Query asks the server for its roster and records the outcome.
// source names the caller in history (bot, api, watcher).
func (q *Querier) Query(ctx context.Context, source string) (*ase.Result, error) {
	id := uuid.NewString()
	logger := log.With().
		Str("query_id", id).
		Str("source", source).
		Str("host", q.cfg.Host).
		Int("port", q.cfg.Port).
		Logger()

	opts := append(q.cfg.QueryOptions(), ase.WithLogger(&logger))

	start := time.Now()
	res, err := q.query(ctx, q.cfg.Host, q.cfg.Port, opts...)
	elapsed := time.Since(start)

	record := models.QueryRecord{
		QueryID:   id,
		Host:      q.cfg.Host,
		Port:      q.cfg.Port,
		Source:    source,
		Duration:  elapsed.Milliseconds(),
		CreatedAt: time.Now(),
	}

	if err != nil {
		record.Outcome = ase.KindOf(err).String()
		logger.Warn().Err(err).Str("kind", record.Outcome).Dur("elapsed", elapsed).Msg("Server query failed")
		q.save(record, nil)
		return nil, err
	}

	record.Outcome = models.OutcomeOK
	record.Players = res.Roster.Len()
	logger.Info().
		Int("players", record.Players).
		Str("stop", res.Stop.String()).
		Dur("elapsed", elapsed).
		Msg("Server query succeeded")
	q.save(record, res)

	return res, nil
}

func (q *Querier) save(record models.QueryRecord, res *ase.Result) {
	if q.rec == nil {
		return
	}

	if err := q.rec.SaveQuery(record); err != nil {
		log.Error().Err(err).Str("query_id", record.QueryID).Msg("Failed to save query")
	}
	if res == nil {
		return
	}

	if err := q.saveSnapshot(res); err != nil {
		log.Error().Err(err).Str("query_id", record.QueryID).Msg("Failed to save roster snapshot")
	}
}

// saveSnapshot writes the roster only when its fingerprint differs from the last stored one.
func (q *Querier) saveSnapshot(res *ase.Result) error {
	players := res.Roster.Players()
	fp := Fingerprint(players)

	q.mu.Lock()
	defer q.mu.Unlock()

	if !q.loaded {
		last, err := q.rec.LastSnapshot()
		if err != nil {
			return fmt.Errorf("load last snapshot: %w", err)
		}
		if last != nil {
			q.fingerprint = last.Fingerprint
		}
		q.loaded = true
	}
	if fp == q.fingerprint {
		return nil
	}

	err := q.rec.SaveSnapshot(models.Snapshot{
		Fingerprint: fp,
		ServerName:  res.Server.Name,
		Players:     players,
	})
	if err != nil {
		return err
	}
	q.fingerprint = fp

	return nil
}

// Fingerprint hashes the set of player names. Score and ping are left out so
// that only joins and leaves produce a new value.
func Fingerprint(players []ase.Player) string {
	names := make([]string, len(players))
	for i, p := range players {
		names[i] = p.Name
	}
	sort.Strings(names)

	d := xxhash.New()
	for _, n := range names {
		_, _ = d.WriteString(n)
		_, _ = d.Write([]byte{0})
	}

	return fmt.Sprintf("%016x", d.Sum64())
}

// IsTimeout reports whether err means the server did not answer in time.
func IsTimeout(err error) bool {
	return errors.Is(err, ase.ErrTimeout)
}
