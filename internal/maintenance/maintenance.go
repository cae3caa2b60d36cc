// Package maintenance provide tools for pruning and seeding the history database
package maintenance

import (
	"time"

	"github.com/rs/zerolog/log"
	"github.com/woozymasta/mtabot/internal/config"
	"github.com/woozymasta/mtabot/internal/fake"
	"github.com/woozymasta/mtabot/internal/storage"
)

// Run checks if any maintenance flags are set and executes the corresponding tasks.
// Returns true if a maintenance task was executed (indicating the program should exit).
func Run(cfg *config.Config, store *storage.Repository) bool {
	switch {
	case cfg.Storage.GenerateCount > 0:
		log.Info().Int("count", cfg.Storage.GenerateCount).Msg("Generating fake history...")
		fake.GenerateData(store, cfg.Storage.GenerateCount)
		log.Info().Msg("Fake history generated")
		return true

	case cfg.Storage.Prune:
		Prune(store, cfg.Storage.Retention, time.Now())
		return true
	}

	return false
}

// Prune deletes history older than retention, counted back from now.
func Prune(store *storage.Repository, retention time.Duration, now time.Time) int64 {
	cutoff := now.Add(-retention)
	log.Info().Time("before", cutoff).Msg("Pruning history...")

	count, err := store.PruneBefore(cutoff)
	if err != nil {
		log.Error().Err(err).Msg("Failed to prune history")
		return 0
	}

	log.Info().Int64("deleted", count).Msg("Prune finished")
	return count
}
