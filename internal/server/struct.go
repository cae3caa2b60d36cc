package server

import (
	"context"
	"sync"
	"time"

	"github.com/woozymasta/mtabot/internal/ase"
	"github.com/woozymasta/mtabot/internal/models"
	"github.com/woozymasta/mtabot/internal/ntp"
)

// PlayerQuerier runs a live roster query. *game.Querier satisfies it.
type PlayerQuerier interface {
	Query(ctx context.Context, source string) (*ase.Result, error)
	Country(ctx context.Context) string
}

// History reads recorded query outcomes. *storage.Repository satisfies it.
type History interface {
	RecentQueries(limit int) ([]models.QueryRecord, error)
	Stats(since time.Time) (*models.Stats, error)
}

// ClockReporter exposes the latest NTP check. *ntp.Checker satisfies it.
type ClockReporter interface {
	Last() *ntp.Result
}

// Server holds the dependencies, configuration, and runtime state required
// to handle HTTP requests.
type Server struct {
	// querier performs live ASE queries against the configured MTA server.
	querier PlayerQuerier

	// history provides access to recorded query outcomes and snapshots.
	history History

	// clock reports the latest clock offset check. It can be nil if NTP checks are disabled.
	clock ClockReporter

	// shutdown is a signal channel used to stop background cleanup during a graceful shutdown.
	shutdown chan struct{}

	// authToken is the secret token required to access history endpoints.
	// An empty token disables them.
	authToken string

	// wg is used to wait for background goroutines before the server shuts down completely.
	wg sync.WaitGroup

	// hardLimitCount is the maximum number of requests allowed per IP address
	// within the hardLimitWin duration.
	hardLimitCount int

	// hardLimitWin is the time window duration for the hard rate limiter.
	hardLimitWin time.Duration

	// trustProxy indicates whether the server should trust headers like X-Forwarded-For
	// or CF-Connecting-IP when determining the client's real IP address.
	trustProxy bool
}
