package storage

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"siros_tracker/internal/tracker"
)

// SQLiteDB is the local track-event log: one row per first sight and per
// eviction. It implements tracker.Sink.
type SQLiteDB struct {
	db *sql.DB
}

// OpenSQLite opens or creates the event log at the given path.
func OpenSQLite(path string) (*SQLiteDB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// WAL keeps readers (ad-hoc queries) out of the writer's way.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable WAL: %w", err)
	}

	schema := `
	CREATE TABLE IF NOT EXISTS track_events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		event TEXT NOT NULL,
		callsign TEXT NOT NULL,
		code INTEGER NOT NULL,
		first_seen TEXT NOT NULL,
		last_seen TEXT NOT NULL,
		deviation_ms INTEGER NOT NULL,
		recorded_at TEXT DEFAULT (datetime('now'))
	);

	CREATE INDEX IF NOT EXISTS idx_track_events_callsign ON track_events(callsign);
	CREATE INDEX IF NOT EXISTS idx_track_events_event ON track_events(event);
	`
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &SQLiteDB{db: db}, nil
}

// Close closes the database connection.
func (d *SQLiteDB) Close() error {
	return d.db.Close()
}

// FirstSight records a track creation.
func (d *SQLiteDB) FirstSight(t *tracker.Track) {
	d.record("first_sight", t)
}

// Evicted records a track eviction with its final state.
func (d *SQLiteDB) Evicted(t *tracker.Track, _ time.Time) {
	d.record("evicted", t)
}

func (d *SQLiteDB) record(event string, t *tracker.Track) {
	_, err := d.db.Exec(`
		INSERT INTO track_events (event, callsign, code, first_seen, last_seen, deviation_ms)
		VALUES (?, ?, ?, ?, ?, ?)
	`, event, t.Callsign.String(), t.Code,
		t.FirstSeen.UTC().Format(time.RFC3339), t.LastSeen.UTC().Format(time.RFC3339),
		t.Deviation.Milliseconds())
	// Silently ignore errors - the event log is best-effort.
	_ = err
}

// Events returns the callsigns recorded for a given event type, newest
// first. Used by tests and ad-hoc inspection.
func (d *SQLiteDB) Events(event string) ([]string, error) {
	rows, err := d.db.Query(`SELECT callsign FROM track_events WHERE event = ? ORDER BY id DESC`, event)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []string
	for rows.Next() {
		var cs string
		if err := rows.Scan(&cs); err != nil {
			continue
		}
		out = append(out, cs)
	}
	return out, rows.Err()
}
