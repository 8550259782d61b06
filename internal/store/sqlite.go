package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/i474232898/fishing-log/internal/weather"
)

// SQLiteStore persists forecast snapshots in a SQLite database so spot
// history survives restarts. It applies the same retention rules as MemoryStore.
type SQLiteStore struct {
	db *sql.DB

	maxHistory int
	maxAge     time.Duration

	now func() time.Time
}

// NewSQLiteStore opens (or creates) the database at path and runs the schema
// migration. Use ":memory:" for a throwaway database.
func NewSQLiteStore(path string, maxHistory int, maxAge time.Duration) (*SQLiteStore, error) {
	dsn := path
	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create data directory %q: %w", dir, err)
			}
		}
		dsn = fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %q: %w", path, err)
	}
	// One connection: writes are serialised and ":memory:" stays a single database.
	db.SetMaxOpenConns(1)

	if err := migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return &SQLiteStore{
		db:         db,
		maxHistory: maxHistory,
		maxAge:     maxAge,
		now:        time.Now,
	}, nil
}

func migrate(db *sql.DB) error {
	_, err := db.Exec(`
CREATE TABLE IF NOT EXISTS forecast_snapshots (
    id              TEXT    PRIMARY KEY,
    spot_id         TEXT    NOT NULL,
    source          TEXT    NOT NULL,
    fetched_at_unix INTEGER NOT NULL,
    forecast_json   TEXT    NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_forecast_snapshots_spot_fetched
    ON forecast_snapshots (spot_id, fetched_at_unix DESC);
`)
	return err
}

// SaveSnapshot inserts a snapshot and enforces retention for its spot.
func (s *SQLiteStore) SaveSnapshot(snapshot weather.Snapshot) error {
	if snapshot.SpotID == "" {
		return errors.New("snapshot has no spot id")
	}

	raw, err := json.Marshal(snapshot.Forecast)
	if err != nil {
		return fmt.Errorf("marshal forecast_json: %w", err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO forecast_snapshots (id, spot_id, source, fetched_at_unix, forecast_json)
		 VALUES (?, ?, ?, ?, ?)`,
		snapshot.ID,
		snapshot.SpotID,
		string(snapshot.Source),
		snapshot.FetchedAt.UnixNano(),
		string(raw),
	)
	if err != nil {
		return fmt.Errorf("insert snapshot: %w", err)
	}

	if s.maxHistory > 0 {
		_, err = tx.Exec(
			`DELETE FROM forecast_snapshots
			 WHERE spot_id = ? AND id NOT IN (
			     SELECT id FROM forecast_snapshots WHERE spot_id = ?
			     ORDER BY fetched_at_unix DESC, rowid DESC LIMIT ?)`,
			snapshot.SpotID, snapshot.SpotID, s.maxHistory,
		)
		if err != nil {
			return fmt.Errorf("enforce history limit: %w", err)
		}
	}

	if s.maxAge > 0 {
		cutoff := s.now().Add(-s.maxAge).UnixNano()
		_, err = tx.Exec(
			`DELETE FROM forecast_snapshots
			 WHERE spot_id = ? AND fetched_at_unix < ? AND id <> (
			     SELECT id FROM forecast_snapshots WHERE spot_id = ?
			     ORDER BY fetched_at_unix DESC, rowid DESC LIMIT 1)`,
			snapshot.SpotID, cutoff, snapshot.SpotID,
		)
		if err != nil {
			return fmt.Errorf("enforce max age: %w", err)
		}
	}

	return tx.Commit()
}

// GetLatest returns the most recent snapshot for a spot.
func (s *SQLiteStore) GetLatest(spotID string) (weather.Snapshot, error) {
	row := s.db.QueryRow(
		`SELECT id, spot_id, source, fetched_at_unix, forecast_json
		 FROM forecast_snapshots WHERE spot_id = ?
		 ORDER BY fetched_at_unix DESC, rowid DESC LIMIT 1`,
		spotID,
	)
	snap, err := scanSnapshot(row)
	if errors.Is(err, sql.ErrNoRows) {
		return weather.Snapshot{}, ErrNotFound
	}
	return snap, err
}

// GetRange returns all snapshots for a spot between from and to (inclusive),
// oldest first.
func (s *SQLiteStore) GetRange(spotID string, from, to time.Time) ([]weather.Snapshot, error) {
	rows, err := s.db.Query(
		`SELECT id, spot_id, source, fetched_at_unix, forecast_json
		 FROM forecast_snapshots
		 WHERE spot_id = ? AND fetched_at_unix >= ? AND fetched_at_unix <= ?
		 ORDER BY fetched_at_unix ASC, rowid ASC`,
		spotID, from.UnixNano(), to.UnixNano(),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []weather.Snapshot
	for rows.Next() {
		snap, err := scanSnapshot(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(result) == 0 {
		return nil, ErrNotFound
	}
	return result, nil
}

// Ping returns nil if the database is reachable.
func (s *SQLiteStore) Ping() error {
	return s.db.Ping()
}

// Close releases all database resources.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSnapshot(row scanner) (weather.Snapshot, error) {
	var (
		snap    weather.Snapshot
		source  string
		fetched int64
		raw     string
	)
	if err := row.Scan(&snap.ID, &snap.SpotID, &source, &fetched, &raw); err != nil {
		return weather.Snapshot{}, err
	}
	if err := json.Unmarshal([]byte(raw), &snap.Forecast); err != nil {
		return weather.Snapshot{}, fmt.Errorf("decode forecast_json for %s: %w", snap.ID, err)
	}
	snap.Source = weather.Source(source)
	snap.FetchedAt = time.Unix(0, fetched).UTC()
	return snap, nil
}
