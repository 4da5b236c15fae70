package schedule

import (
	"reflect"
	"testing"
	"time"

	"siros_tracker/internal/callsign"
)

// 2025-03-05 is a Wednesday.
var wednesday = time.Date(2025, 3, 5, 0, 0, 0, 0, time.UTC)

// regRow builds a registry row with sane defaults: valid all year, flying
// every day of the week.
func regRow(airline, number, dep, arr string) []string {
	row := make([]string, 28)
	row[regFieldAirline] = airline
	row[regFieldNumber] = number
	for i := 0; i < 7; i++ {
		row[regFieldMaskStart+i] = "1"
	}
	row[regFieldValidFrom] = "2025-01-01"
	row[regFieldValidUntil] = "2025-12-31"
	row[19] = "SBGR"
	row[21] = "SBSV"
	row[regFieldDeparture] = dep
	row[regFieldArrival] = arr
	return row
}

func TestParseRegisters_Basic(t *testing.T) {
	rows := [][]string{
		{regHeaderSentinel, "header junk"},
		regRow("GLO", "1093", "09:30", "11:45"),
	}
	table, err := ParseRegisters(rows, wednesday)
	if err != nil {
		t.Fatalf("ParseRegisters: %v", err)
	}
	if len(table) != 1 {
		t.Fatalf("table has %d entries, want 1", len(table))
	}

	entry, ok := table[callsign.Parse("GLO", "1093")]
	if !ok {
		t.Fatal("GLO1093 not in table")
	}
	want := Entry{
		Departure: time.Date(2025, 3, 5, 9, 30, 0, 0, time.UTC),
		Arrival:   time.Date(2025, 3, 5, 11, 45, 0, 0, time.UTC),
	}
	if entry != want {
		t.Errorf("entry = %+v, want %+v", entry, want)
	}
	if entry.Departure.After(entry.Arrival) {
		t.Error("departure after arrival")
	}
}

func TestParseRegisters_OvernightRollover(t *testing.T) {
	rows := [][]string{regRow("GLO", "1", "23:50", "00:20")}
	table, err := ParseRegisters(rows, wednesday)
	if err != nil {
		t.Fatalf("ParseRegisters: %v", err)
	}
	entry := table[callsign.Parse("GLO", "1")]
	if got := entry.Arrival.Sub(entry.Departure); got != 30*time.Minute {
		t.Errorf("arrival - departure = %s, want 30m", got)
	}
	if entry.Arrival.Day() != 6 {
		t.Errorf("arrival day = %d, want next calendar day (6)", entry.Arrival.Day())
	}
}

func TestParseRegisters_ValidityWindow(t *testing.T) {
	expired := regRow("GLO", "2", "09:00", "10:00")
	expired[regFieldValidUntil] = "2025-03-04"
	notYet := regRow("GLO", "3", "09:00", "10:00")
	notYet[regFieldValidFrom] = "2025-03-06"
	boundary := regRow("GLO", "4", "09:00", "10:00")
	boundary[regFieldValidFrom] = "2025-03-05"
	boundary[regFieldValidUntil] = "2025-03-05"

	table, err := ParseRegisters([][]string{expired, notYet, boundary}, wednesday)
	if err != nil {
		t.Fatalf("ParseRegisters: %v", err)
	}
	if len(table) != 1 {
		t.Fatalf("table has %d entries, want only the boundary row", len(table))
	}
	if _, ok := table[callsign.Parse("GLO", "4")]; !ok {
		t.Error("inclusive window boundaries should admit the row")
	}
}

func TestParseRegisters_WeekdayMask(t *testing.T) {
	row := regRow("GLO", "5", "09:00", "10:00")
	row[regFieldMaskStart+2] = "0" // Wednesday bit, Monday-first ordering

	table, err := ParseRegisters([][]string{row}, wednesday)
	if err != nil {
		t.Fatalf("ParseRegisters: %v", err)
	}
	if len(table) != 0 {
		t.Error("row not operating today should be skipped")
	}
}

func TestParseRegisters_DuplicateFirstWins(t *testing.T) {
	first := regRow("GLO", "6", "08:00", "09:00")
	second := regRow("GLO", "6", "20:00", "21:00")

	table, err := ParseRegisters([][]string{first, second}, wednesday)
	if err != nil {
		t.Fatalf("ParseRegisters: %v", err)
	}
	entry := table[callsign.Parse("GLO", "6")]
	if entry.Departure.Hour() != 8 {
		t.Errorf("departure hour = %d, want 8 (first occurrence wins)", entry.Departure.Hour())
	}
}

func TestParseRegisters_Idempotent(t *testing.T) {
	rows := [][]string{
		regRow("GLO", "1093", "09:30", "11:45"),
		regRow("AZU", "4500", "12:00", "13:30"),
	}
	once, err := ParseRegisters(rows, wednesday)
	if err != nil {
		t.Fatalf("ParseRegisters: %v", err)
	}
	twice, err := ParseRegisters(append(append([][]string{}, rows...), rows...), wednesday)
	if err != nil {
		t.Fatalf("ParseRegisters: %v", err)
	}
	if !reflect.DeepEqual(once, twice) {
		t.Error("feeding the rows twice changed the table content")
	}
}

func TestParseRegisters_MalformedDateIsFatal(t *testing.T) {
	row := regRow("GLO", "7", "09:00", "10:00")
	row[regFieldValidFrom] = "05/03/2025"

	if _, err := ParseRegisters([][]string{row}, wednesday); err == nil {
		t.Error("malformed validity date should fail the whole file")
	}
}

func TestParseRegisters_MalformedClockIsFatal(t *testing.T) {
	row := regRow("GLO", "8", "9h30", "10:00")

	if _, err := ParseRegisters([][]string{row}, wednesday); err == nil {
		t.Error("malformed clock time should fail the whole file")
	}
}

func TestParseRegisters_ShortRowsSkipped(t *testing.T) {
	table, err := ParseRegisters([][]string{{""}, {}}, wednesday)
	if err != nil {
		t.Fatalf("ParseRegisters: %v", err)
	}
	if len(table) != 0 {
		t.Error("short rows should be skipped, not parsed")
	}
}

func TestParseRegisters_InlineCodeshare(t *testing.T) {
	row := regRow("GLO", "1093", "09:30", "11:45")
	row[regFieldCodeshares] = "AAL7660 01/01/2025 31/12/2025, KLM9257 ... 04/03/2025"

	table, err := ParseRegisters([][]string{row}, wednesday)
	if err != nil {
		t.Fatalf("ParseRegisters: %v", err)
	}

	operating := table[callsign.Parse("GLO", "1093")]
	if entry, ok := table[callsign.Parse("AAL", "7660")]; !ok || entry != operating {
		t.Errorf("AAL7660 = %+v, want the operating entry %+v", entry, operating)
	}
	// KLM9257's window ended yesterday.
	if _, ok := table[callsign.Parse("KLM", "9257")]; ok {
		t.Error("expired inline codeshare should not be bound")
	}
}
