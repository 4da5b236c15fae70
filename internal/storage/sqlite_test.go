package storage

import (
	"path/filepath"
	"testing"
	"time"

	"siros_tracker/internal/callsign"
	"siros_tracker/internal/tracker"
)

func TestSQLiteEventLog(t *testing.T) {
	db, err := OpenSQLite(filepath.Join(t.TempDir(), "events.db"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	defer db.Close()

	tr := &tracker.Track{
		Callsign:  callsign.Parse("GLO", "1093"),
		Code:      1839,
		FirstSeen: time.Date(2025, 3, 5, 9, 12, 0, 0, time.UTC),
		LastSeen:  time.Date(2025, 3, 5, 10, 5, 0, 0, time.UTC),
		Deviation: 12 * time.Minute,
	}

	db.FirstSight(tr)
	db.Evicted(tr, tr.LastSeen.Add(25*time.Minute))

	sights, err := db.Events("first_sight")
	if err != nil {
		t.Fatalf("Events: %v", err)
	}
	if len(sights) != 1 || sights[0] != "GLO1093" {
		t.Errorf("first_sight events = %v, want [GLO1093]", sights)
	}

	evictions, err := db.Events("evicted")
	if err != nil {
		t.Fatalf("Events: %v", err)
	}
	if len(evictions) != 1 || evictions[0] != "GLO1093" {
		t.Errorf("evicted events = %v, want [GLO1093]", evictions)
	}
}

func TestOpenStores_AllDisabled(t *testing.T) {
	st, err := Open(t.Context(), Config{})
	if err != nil {
		t.Fatalf("Open with nothing configured: %v", err)
	}
	defer st.Close()
	if st.SQL != nil || st.CH != nil || st.PG != nil {
		t.Error("unconfigured backends should stay nil")
	}
}
