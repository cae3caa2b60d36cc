// Package fake provides random rosters, a local ASE responder and history data for testing and development.
package fake

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/woozymasta/mtabot/internal/ase"
	"github.com/woozymasta/mtabot/internal/models"
	"github.com/woozymasta/mtabot/internal/storage"
)

var (
	firstNames = []string{"Carlos", "Lucia", "Mateo", "Sofia", "Diego", "Valentina", "Pablo", "Camila", "Andres", "Elena"}
	nickTags   = []string{"", "[RP]", "[LSPD]", "#", "_", "xX", "[EMS]"}
	outcomes   = []string{
		ase.KindTimeout.String(),
		ase.KindNetwork.String(),
		ase.KindInvalidHeader.String(),
		ase.KindTruncatedField.String(),
	}
)

// Players returns n random players with plausible scores and pings.
func Players(n int) []ase.Player {
	players := make([]ase.Player, n)
	for i := range players {
		tag := nickTags[rand.Intn(len(nickTags))]
		name := fmt.Sprintf("%s%s_%d", tag, firstNames[rand.Intn(len(firstNames))], rand.Intn(1000))
		players[i] = ase.Player{
			Name:  name,
			Score: rand.Intn(500),
			Ping:  15 + rand.Intn(250),
		}
	}
	return players
}

// GenerateData populates the storage with count randomized query records spread
// over the last 30 days, plus a snapshot whenever the roster changes.
func GenerateData(store *storage.Repository, count int) {
	roster := Players(20 + rand.Intn(40))

	for i := 0; i < count; i++ {
		// Random date-time in 30 days range
		daysAgo := rand.Intn(30)
		seenTime := time.Now().Add(-time.Duration(daysAgo) * 24 * time.Hour).
			Add(-time.Duration(rand.Intn(1440)) * time.Minute)

		record := models.QueryRecord{
			QueryID:   fmt.Sprintf("fake-%06d", i),
			Host:      "127.0.0.1",
			Port:      22003,
			Source:    "fake",
			Duration:  int64(20 + rand.Intn(200)),
			CreatedAt: seenTime,
		}

		// 10% chance of a failed query
		if rand.Float32() < 0.1 {
			record.Outcome = outcomes[rand.Intn(len(outcomes))]
			record.Duration = 3000
		} else {
			record.Outcome = models.OutcomeOK
			record.Players = len(roster)
		}

		if err := store.SaveQuery(record); err != nil {
			log.Warn().Err(err).Msg("Failed to generate fake query")
		}

		// 30% chance the roster changed
		if record.Outcome == models.OutcomeOK && rand.Float32() < 0.3 {
			roster = Players(rand.Intn(80))
			err := store.SaveSnapshot(models.Snapshot{
				Fingerprint: fmt.Sprintf("%016x", rand.Uint64()),
				ServerName:  "Fake MTA Server",
				Players:     roster,
				CreatedAt:   seenTime,
			})
			if err != nil {
				log.Warn().Err(err).Msg("Failed to generate fake snapshot")
			}
		}
	}
}
