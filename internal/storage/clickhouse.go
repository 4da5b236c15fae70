package storage

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"siros_tracker/internal/callsign"
)

// ClickHouseConfig holds ClickHouse connection settings.
type ClickHouseConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Database string
	User     string
	Password string
}

// sightingBatchSize is how many buffered rows trigger an automatic flush.
const sightingBatchSize = 500

// ClickHouseDB archives every resolved sighting for offline analysis. Rows
// are buffered and written in batches; the archive implements
// tracker.Archiver.
type ClickHouseDB struct {
	conn driver.Conn

	mu   sync.Mutex
	rows []sightingRow
}

type sightingRow struct {
	callsign string
	code     int32
	seenAt   time.Time
	matched  uint8
}

// OpenClickHouse opens a connection and ensures the schema exists.
func OpenClickHouse(ctx context.Context, cfg ClickHouseConfig) (*ClickHouseDB, error) {
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)},
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.User,
			Password: cfg.Password,
		},
		DialTimeout:     10 * time.Second,
		MaxOpenConns:    4,
		MaxIdleConns:    2,
		ConnMaxLifetime: time.Hour,
	})
	if err != nil {
		return nil, fmt.Errorf("open clickhouse: %w", err)
	}
	if err := conn.Ping(ctx); err != nil {
		return nil, fmt.Errorf("ping clickhouse: %w", err)
	}

	db := &ClickHouseDB{conn: conn}
	if err := db.createSchema(ctx); err != nil {
		_ = conn.Close()
		return nil, err
	}
	return db, nil
}

// Close flushes any buffered rows and closes the connection.
func (d *ClickHouseDB) Close() error {
	if err := d.Flush(context.Background()); err != nil {
		log.Printf("clickhouse: final flush: %v", err)
	}
	return d.conn.Close()
}

func (d *ClickHouseDB) createSchema(ctx context.Context) error {
	err := d.conn.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS sightings (
			callsign    LowCardinality(String),
			code        Int32,
			seen_at     DateTime64(3),
			matched     UInt8,
			recorded_at DateTime64(3) DEFAULT now64(3)
		)
		ENGINE = MergeTree()
		PARTITION BY toYYYYMMDD(seen_at)
		ORDER BY (callsign, seen_at)
	`)
	if err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Sighted buffers one resolved sighting for archival.
func (d *ClickHouseDB) Sighted(cs callsign.Callsign, code int, at time.Time, matched bool) {
	var m uint8
	if matched {
		m = 1
	}

	d.mu.Lock()
	d.rows = append(d.rows, sightingRow{
		callsign: cs.String(),
		code:     int32(code),
		seenAt:   at,
		matched:  m,
	})
	full := len(d.rows) >= sightingBatchSize
	d.mu.Unlock()

	if full {
		if err := d.Flush(context.Background()); err != nil {
			log.Printf("clickhouse: flush sightings: %v", err)
		}
	}
}

// Flush writes the buffered rows as one batch.
func (d *ClickHouseDB) Flush(ctx context.Context) error {
	d.mu.Lock()
	rows := d.rows
	d.rows = nil
	d.mu.Unlock()

	if len(rows) == 0 {
		return nil
	}

	batch, err := d.conn.PrepareBatch(ctx, "INSERT INTO sightings (callsign, code, seen_at, matched)")
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}
	for _, r := range rows {
		if err := batch.Append(r.callsign, r.code, r.seenAt, r.matched); err != nil {
			return fmt.Errorf("append row: %w", err)
		}
	}
	return batch.Send()
}
