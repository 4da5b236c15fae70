// Package storage provides optional persistence for track lifecycle events
// and raw sightings. Everything here is best-effort: the tracking engine
// works entirely in memory and a storage failure never interrupts it.
package storage

import (
	"context"
	"fmt"
)

// Config holds settings for all storage backends. Backends are independent
// and individually optional: SQLite keeps a local track-event log,
// ClickHouse archives raw sightings, PostgreSQL keeps queryable track
// history.
type Config struct {
	SQLitePath string // empty disables the local event log
	ClickHouse ClickHouseConfig
	Postgres   PostgresConfig
}

// Stores bundles the opened backends; unconfigured ones are nil.
type Stores struct {
	SQL *SQLiteDB
	CH  *ClickHouseDB
	PG  *PostgresDB
}

// Open opens every configured backend. Failing to open a configured
// backend is an error; the caller decides whether to run without it.
func Open(ctx context.Context, cfg Config) (*Stores, error) {
	st := &Stores{}

	if cfg.SQLitePath != "" {
		db, err := OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("sqlite: %w", err)
		}
		st.SQL = db
	}

	if cfg.ClickHouse.Enabled {
		ch, err := OpenClickHouse(ctx, cfg.ClickHouse)
		if err != nil {
			st.Close()
			return nil, fmt.Errorf("clickhouse: %w", err)
		}
		st.CH = ch
	}

	if cfg.Postgres.Enabled {
		pg, err := OpenPostgres(ctx, cfg.Postgres)
		if err != nil {
			st.Close()
			return nil, fmt.Errorf("postgres: %w", err)
		}
		st.PG = pg
	}

	return st, nil
}

// Close closes whatever was opened.
func (s *Stores) Close() {
	if s.SQL != nil {
		_ = s.SQL.Close()
	}
	if s.CH != nil {
		_ = s.CH.Close()
	}
	if s.PG != nil {
		s.PG.Close()
	}
}
