// Package tracker implements the live-matching state machine: sightings
// resolved against the day's RPL table, first/last-seen bookkeeping,
// schedule deviation and staleness eviction.
package tracker

import (
	"log"
	"sync"
	"sync/atomic"
	"time"

	"siros_tracker/internal/callsign"
	"siros_tracker/internal/schedule"
	"siros_tracker/internal/sighting"
)

// DefaultStaleAfter is the silence window after which a flight that has
// already passed its scheduled arrival is considered gone.
const DefaultStaleAfter = 20 * time.Minute

// Track is the live state for one scheduled flight that has been sighted.
// Deviation is computed once, at first sight, against the scheduled
// departure and never recomputed; only LastSeen moves afterwards.
type Track struct {
	Callsign  callsign.Callsign
	Code      int // transponder code, sighting.NoCode when never reported
	FirstSeen time.Time
	LastSeen  time.Time
	Deviation time.Duration // negative = early, positive = late
	Arrival   time.Time     // scheduled arrival, fixed at creation
}

// Sink receives track lifecycle events. Implementations must be
// best-effort: a sink failure never disturbs tracking.
type Sink interface {
	FirstSight(t *Track)
	Evicted(t *Track, at time.Time)
}

// Archiver receives every resolved sighting, matched against the RPL table
// or not. Used for the optional raw sighting archive.
type Archiver interface {
	Sighted(cs callsign.Callsign, code int, at time.Time, matched bool)
}

// Engine owns the tracks table. The RPL table is read through an atomic
// pointer so the daily rebuild can swap in a fully-built replacement while
// ingestion is running; the tracks map is guarded by one mutex because the
// feed delivers frames on the transport's goroutines and first-sight
// creation is a check-then-act sequence.
type Engine struct {
	mu         sync.Mutex
	tracks     map[callsign.Callsign]*Track
	rpl        atomic.Pointer[schedule.Table]
	staleAfter time.Duration
	sinks      []Sink
	archiver   Archiver
}

// New creates an engine matching against the given RPL table.
func New(table schedule.Table) *Engine {
	e := &Engine{
		tracks:     make(map[callsign.Callsign]*Track),
		staleAfter: DefaultStaleAfter,
	}
	e.rpl.Store(&table)
	return e
}

// SetStaleAfter overrides the eviction silence window.
func (e *Engine) SetStaleAfter(d time.Duration) { e.staleAfter = d }

// AddSink registers a lifecycle sink.
func (e *Engine) AddSink(s Sink) { e.sinks = append(e.sinks, s) }

// SetArchiver registers the raw sighting archiver.
func (e *Engine) SetArchiver(a Archiver) { e.archiver = a }

// SetRPL publishes a freshly built RPL table. The old table is never
// mutated; lookups in flight keep reading whichever table they loaded.
func (e *Engine) SetRPL(table schedule.Table) {
	e.rpl.Store(&table)
}

// RPL returns the currently published RPL table.
func (e *Engine) RPL() schedule.Table {
	return *e.rpl.Load()
}

// ProcessFrame decodes one feed frame and runs every sighting in it
// through the engine. A frame that fails to decode is skipped with a
// warning; it is feed noise, not a reason to stop consuming.
func (e *Engine) ProcessFrame(frame []byte) {
	sightings, err := sighting.Decode(frame)
	if err != nil {
		log.Printf("skipping frame: %v", err)
		return
	}
	for _, s := range sightings {
		cs, code, ok := sighting.Resolve(s)
		if !ok {
			continue
		}
		at := time.UnixMilli(s.Time).UTC()
		matched := e.Observe(cs, code, at)
		if e.archiver != nil {
			e.archiver.Sighted(cs, code, at, matched)
		}
	}
}

// Observe runs one resolved sighting through the state machine. It reports
// whether the callsign matched the RPL table; sightings of non-scheduled
// traffic are ignored and never create a track, so the tracks table is
// bounded by the RPL table.
func (e *Engine) Observe(cs callsign.Callsign, code int, at time.Time) bool {
	entry, ok := e.RPL()[cs]
	if !ok {
		return false
	}

	e.mu.Lock()
	tr, seen := e.tracks[cs]
	if !seen {
		tr = &Track{
			Callsign:  cs,
			Code:      code,
			FirstSeen: at,
			LastSeen:  at,
			Deviation: at.Sub(entry.Departure),
			Arrival:   entry.Arrival,
		}
		e.tracks[cs] = tr
	} else {
		// Last-write-wins: the feed timestamp is the server's idea of the
		// most recent position update, not a per-aircraft sequence, so an
		// older timestamp still overwrites.
		tr.LastSeen = at
	}
	e.mu.Unlock()

	if !seen {
		log.Printf("first sight of %s: code=%d first=%s deviation=%s",
			cs, code, at.Format(time.RFC3339), tr.Deviation)
		for _, s := range e.sinks {
			s.FirstSight(tr)
		}
	}
	return true
}

// Sweep evicts flights that have gone silent: no sighting for longer than
// the staleness window, and last seen after the scheduled arrival. A
// flight silent past the window but still before its scheduled arrival is
// left alone; it is plausibly airborne and merely delayed, not overdue.
// Returns the number of tracks removed.
func (e *Engine) Sweep(now time.Time) int {
	var evicted []*Track

	e.mu.Lock()
	for cs, tr := range e.tracks {
		if now.Sub(tr.LastSeen) > e.staleAfter && tr.LastSeen.After(tr.Arrival) {
			delete(e.tracks, cs)
			evicted = append(evicted, tr)
		}
	}
	e.mu.Unlock()

	for _, tr := range evicted {
		log.Printf("evicting %s: code=%d first=%s last=%s final deviation=%s",
			tr.Callsign, tr.Code, tr.FirstSeen.Format(time.RFC3339),
			tr.LastSeen.Format(time.RFC3339), tr.Deviation)
		for _, s := range e.sinks {
			s.Evicted(tr, now)
		}
	}
	return len(evicted)
}

// Get returns a copy of the track for a callsign, if one exists.
func (e *Engine) Get(cs callsign.Callsign) (Track, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	tr, ok := e.tracks[cs]
	if !ok {
		return Track{}, false
	}
	return *tr, true
}

// Len returns the number of live tracks.
func (e *Engine) Len() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.tracks)
}
