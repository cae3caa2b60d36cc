// Package models defines the data structures used for API responses and database persistence.
package models

import (
	"time"

	"github.com/woozymasta/mtabot/internal/ase"
)

// OutcomeOK marks a query that produced a roster. Failed queries store the ase kind name.
const OutcomeOK = "ok"

// QueryRecord is one persisted query attempt.
type QueryRecord struct {
	CreatedAt time.Time `json:"created_at"`
	QueryID   string    `json:"query_id"`
	Host      string    `json:"host"`
	Outcome   string    `json:"outcome"`
	Source    string    `json:"source"`
	ID        int64     `json:"id"`
	Duration  int64     `json:"duration_ms"`
	Port      int       `json:"port"`
	Players   int       `json:"players"`
}

// Snapshot is a roster persisted when its fingerprint changes.
type Snapshot struct {
	CreatedAt   time.Time    `json:"created_at"`
	Fingerprint string       `json:"fingerprint"`
	ServerName  string       `json:"server_name"`
	Players     []ase.Player `json:"players"`
	ID          int64        `json:"id"`
}

// Stats aggregates history for the stats endpoint.
type Stats struct {
	Since      time.Time `json:"since"`
	Last       *Snapshot `json:"last,omitempty"`
	Queries    int64     `json:"queries"`
	Failures   int64     `json:"failures"`
	PeakPlayer int       `json:"peak_players"`
}
