// Command siros_tracker monitors whether scheduled flights are operating
// on time.
//
// At startup it builds the day's RPL table from the SIROS schedule registry
// and codeshare publications, then subscribes to the live surveillance feed
// and matches every sighting against the table: first sight of a scheduled
// flight records its deviation from the scheduled departure, later sightings
// move its last-seen, and flights silent past their scheduled arrival are
// evicted. The table is rebuilt when the UTC calendar day changes.
//
// Usage:
//
//	siros_tracker [options]
//
// Options:
//
//	-config PATH       YAML configuration file (optional)
//	-feed-url URL      NATS server URL (default: nats://localhost:4222, env: FEED_URL)
//	-feed-subject SUBJ Feed subject (default: atc.tracks, env: FEED_SUBJECT)
//	-cache-dir DIR     Schedule download cache directory (default: ./registros)
//	-sqlite PATH       Local track-event log database (empty = disabled)
//
// Exit status 255 means the schedule source was unreachable or the registry
// was malformed; no tracking is meaningful without the day's schedule.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"siros_tracker/config"
	"siros_tracker/internal/feed"
	"siros_tracker/internal/schedule"
	"siros_tracker/internal/storage"
	"siros_tracker/internal/tracker"
)

// exitSchedule is the distinct status for fatal schedule-source conditions.
const exitSchedule = 255

func main() {
	cfgPath := flag.String("config", "", "YAML configuration file")
	feedURL := flag.String("feed-url", envOrDefault("FEED_URL", ""), "NATS server URL")
	feedSubject := flag.String("feed-subject", envOrDefault("FEED_SUBJECT", ""), "feed subject")
	cacheDir := flag.String("cache-dir", "", "schedule download cache directory")
	sqlitePath := flag.String("sqlite", "", "local track-event log database")
	flag.Parse()

	cfg := config.Default()
	if *cfgPath != "" {
		var err error
		cfg, err = config.Load(*cfgPath)
		if err != nil {
			log.Fatalf("load config %s: %v", *cfgPath, err)
		}
	}
	if *feedURL != "" {
		cfg.Feed.URL = *feedURL
	}
	if *feedSubject != "" {
		cfg.Feed.Subject = *feedSubject
	}
	if *cacheDir != "" {
		cfg.Schedule.CacheDir = *cacheDir
	}
	if *sqlitePath != "" {
		cfg.Storage.SQLitePath = *sqlitePath
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	src := schedule.NewHTTPSource(cfg.Schedule.CacheDir)
	if cfg.Schedule.RegistersURL != "" {
		src.RegistersURL = cfg.Schedule.RegistersURL
	}
	if cfg.Schedule.CodesharesURL != "" {
		src.CodesharesURL = cfg.Schedule.CodesharesURL
	}

	today := time.Now().UTC()
	table, err := schedule.Build(ctx, src, today)
	if err != nil {
		log.Printf("schedule source unavailable: %v. Aborting.", err)
		os.Exit(exitSchedule)
	}

	engine := tracker.New(table)
	engine.SetStaleAfter(cfg.Tracker.StaleAfter)

	stores, err := storage.Open(ctx, storage.Config{
		SQLitePath: cfg.Storage.SQLitePath,
		ClickHouse: storage.ClickHouseConfig(cfg.Storage.ClickHouse),
		Postgres:   storage.PostgresConfig(cfg.Storage.Postgres),
	})
	if err != nil {
		log.Fatalf("open storage: %v", err)
	}
	defer stores.Close()

	if stores.SQL != nil {
		engine.AddSink(stores.SQL)
	}
	if stores.PG != nil {
		engine.AddSink(stores.PG)
	}
	if stores.CH != nil {
		engine.SetArchiver(stores.CH)
	}

	conn, err := feed.Dial(cfg.Feed.URL, cfg.Feed.Subject)
	if err != nil {
		log.Fatalf("connect feed: %v", err)
	}
	defer conn.Close()

	log.Println("RUNNING....")
	run(ctx, engine, conn, src, cfg.Tracker.SweepInterval, today)
}

// run is the single ingestion loop: feed frames, periodic eviction sweeps
// and the daily RPL rebuild all happen here.
func run(ctx context.Context, engine *tracker.Engine, conn *feed.Conn,
	src schedule.Source, sweepEvery time.Duration, day time.Time) {

	sweep := time.NewTicker(sweepEvery)
	defer sweep.Stop()
	rollover := time.NewTicker(time.Minute)
	defer rollover.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("shutting down")
			return

		case frame, ok := <-conn.Frames():
			if !ok {
				// Terminal: the feed was closed by the remote side or by a
				// transport error. In-memory state stays as-is.
				log.Printf("feed %s; stopped consuming", conn.State())
				return
			}
			engine.ProcessFrame(frame)

		case now := <-sweep.C:
			engine.Sweep(now.UTC())

		case now := <-rollover.C:
			today := now.UTC()
			if sameDay(today, day) {
				continue
			}
			// A stale table must never be consulted: rebuild completely,
			// then publish.
			table, err := schedule.Build(ctx, src, today)
			if err != nil {
				log.Printf("schedule source unavailable: %v. Aborting.", err)
				os.Exit(exitSchedule)
			}
			engine.SetRPL(table)
			day = today
		}
	}
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
