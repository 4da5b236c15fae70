package storage

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"siros_tracker/internal/tracker"
)

// PostgresConfig holds PostgreSQL connection settings.
type PostgresConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Database string
	User     string
	Password string
}

// PostgresDB keeps queryable track history: one row per tracked flight per
// day, updated on eviction with the final last-seen. It implements
// tracker.Sink.
type PostgresDB struct {
	pool *pgxpool.Pool
}

// OpenPostgres opens a connection pool and ensures the schema exists.
func OpenPostgres(ctx context.Context, cfg PostgresConfig) (*PostgresDB, error) {
	connStr := fmt.Sprintf("postgres://%s:%s@%s:%d/%s",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Database)

	poolCfg, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	poolCfg.MaxConns = 4

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}

	db := &PostgresDB{pool: pool}
	if err := db.createSchema(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return db, nil
}

// Close closes the connection pool.
func (d *PostgresDB) Close() {
	d.pool.Close()
}

func (d *PostgresDB) createSchema(ctx context.Context) error {
	_, err := d.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS track_history (
			callsign     TEXT NOT NULL,
			code         INTEGER NOT NULL,
			first_seen   TIMESTAMPTZ NOT NULL,
			last_seen    TIMESTAMPTZ NOT NULL,
			deviation_ms BIGINT NOT NULL,
			evicted_at   TIMESTAMPTZ,
			PRIMARY KEY (callsign, first_seen)
		);

		CREATE INDEX IF NOT EXISTS idx_track_history_first_seen
			ON track_history(first_seen);
	`)
	return err
}

// FirstSight inserts the track's initial state.
func (d *PostgresDB) FirstSight(t *tracker.Track) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := d.pool.Exec(ctx, `
		INSERT INTO track_history (callsign, code, first_seen, last_seen, deviation_ms)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (callsign, first_seen) DO NOTHING
	`, t.Callsign.String(), t.Code, t.FirstSeen, t.LastSeen, t.Deviation.Milliseconds())
	if err != nil {
		log.Printf("postgres: record first sight of %s: %v", t.Callsign, err)
	}
}

// Evicted finalizes the track's row with its last-seen and eviction time.
func (d *PostgresDB) Evicted(t *tracker.Track, at time.Time) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := d.pool.Exec(ctx, `
		UPDATE track_history
		SET last_seen = $3, evicted_at = $4
		WHERE callsign = $1 AND first_seen = $2
	`, t.Callsign.String(), t.FirstSeen, t.LastSeen, at)
	if err != nil {
		log.Printf("postgres: record eviction of %s: %v", t.Callsign, err)
	}
}
