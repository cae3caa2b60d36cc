// Package storage handles database connections, schema migrations, and query history using SQLite.
package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/woozymasta/mtabot/assets"
	"github.com/woozymasta/mtabot/internal/ase"
	"github.com/woozymasta/mtabot/internal/models"
	_ "modernc.org/sqlite" // Driver sqlite
)

// Repository manages the SQLite database connection.
type Repository struct {
	db *sql.DB
}

// New initializes a new SQLite connection, sets connection pool parameters, and runs migrations.
func New(dbPath string) (*Repository, error) {
	dsn := dbPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(1 * time.Hour)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}

	if _, err := migrate(db, assets.Migrations()); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Repository{db: db}, nil
}

// Close closes the underlying database connection.
func (r *Repository) Close() error {
	return r.db.Close()
}

// SaveQuery appends one query outcome to the history.
func (r *Repository) SaveQuery(q models.QueryRecord) error {
	if q.CreatedAt.IsZero() {
		q.CreatedAt = time.Now()
	}

	_, err := r.db.Exec(`
		INSERT INTO queries (query_id, host, port, outcome, players, duration_ms, source, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		q.QueryID, q.Host, q.Port, q.Outcome, q.Players, q.Duration, q.Source, q.CreatedAt.UTC(),
	)

	return err
}

// SaveSnapshot stores a roster. Players are kept as a JSON array.
func (r *Repository) SaveSnapshot(s models.Snapshot) error {
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now()
	}

	players := s.Players
	if players == nil {
		players = []ase.Player{}
	}
	data, err := json.Marshal(players)
	if err != nil {
		return fmt.Errorf("encode players: %w", err)
	}

	_, err = r.db.Exec(`
		INSERT INTO snapshots (fingerprint, server_name, players_count, players, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		s.Fingerprint, s.ServerName, len(players), string(data), s.CreatedAt.UTC(),
	)

	return err
}

// LastSnapshot returns the most recent snapshot, or nil when none was stored.
func (r *Repository) LastSnapshot() (*models.Snapshot, error) {
	row := r.db.QueryRow(`
		SELECT id, fingerprint, server_name, players, created_at
		FROM snapshots
		ORDER BY created_at DESC, id DESC
		LIMIT 1
	`)

	var (
		s    models.Snapshot
		data string
	)
	err := row.Scan(&s.ID, &s.Fingerprint, &s.ServerName, &data, &s.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil // Not found
	}
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(data), &s.Players); err != nil {
		return nil, fmt.Errorf("decode snapshot %d: %w", s.ID, err)
	}

	return &s, nil
}

// RecentQueries returns up to limit query records, newest first.
func (r *Repository) RecentQueries(limit int) ([]models.QueryRecord, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := r.db.Query(`
		SELECT id, query_id, host, port, outcome, players, duration_ms, source, created_at
		FROM queries
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	records := make([]models.QueryRecord, 0, limit)
	for rows.Next() {
		var q models.QueryRecord
		if err := rows.Scan(
			&q.ID, &q.QueryID, &q.Host, &q.Port, &q.Outcome,
			&q.Players, &q.Duration, &q.Source, &q.CreatedAt,
		); err != nil {
			continue
		}
		records = append(records, q)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return records, nil
}

// PeakPlayers returns the highest successful player count recorded since t.
func (r *Repository) PeakPlayers(since time.Time) (int, error) {
	var peak sql.NullInt64
	err := r.db.QueryRow(
		`SELECT MAX(players) FROM queries WHERE outcome = ? AND created_at >= ?`,
		models.OutcomeOK, since.UTC(),
	).Scan(&peak)
	if err != nil {
		return 0, err
	}

	return int(peak.Int64), nil
}

// Stats summarizes the history recorded since t.
func (r *Repository) Stats(since time.Time) (*models.Stats, error) {
	st := &models.Stats{Since: since.UTC()}

	err := r.db.QueryRow(`
		SELECT COUNT(*), COALESCE(SUM(CASE WHEN outcome != ? THEN 1 ELSE 0 END), 0)
		FROM queries
		WHERE created_at >= ?`,
		models.OutcomeOK, since.UTC(),
	).Scan(&st.Queries, &st.Failures)
	if err != nil {
		return nil, err
	}

	if st.PeakPlayer, err = r.PeakPlayers(since); err != nil {
		return nil, err
	}
	if st.Last, err = r.LastSnapshot(); err != nil {
		return nil, err
	}

	return st, nil
}

// PruneBefore deletes history rows older than t and returns how many were removed.
// The latest snapshot is always kept so change detection survives a prune.
func (r *Repository) PruneBefore(t time.Time) (int64, error) {
	tx, err := r.db.Begin()
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.Exec(`DELETE FROM queries WHERE created_at < ?`, t.UTC())
	if err != nil {
		return 0, err
	}
	queries, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}

	res, err = tx.Exec(`
		DELETE FROM snapshots
		WHERE created_at < ?
		  AND id != (SELECT id FROM snapshots ORDER BY created_at DESC, id DESC LIMIT 1)`,
		t.UTC(),
	)
	if err != nil {
		return 0, err
	}
	snapshots, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}

	return queries + snapshots, nil
}
