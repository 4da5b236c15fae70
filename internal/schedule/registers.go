package schedule

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"siros_tracker/internal/callsign"
)

// Registry row layout (0-indexed, semicolon-delimited).
const (
	regFieldAirline    = 0
	regFieldNumber     = 2
	regFieldMaskStart  = 4 // 7 weekday fields, Monday first
	regFieldValidFrom  = 15
	regFieldValidUntil = 16
	regFieldDeparture  = 23
	regFieldArrival    = 24
	regFieldCodeshares = 27 // optional inline codeshare string
)

// regHeaderSentinel marks the registry header row.
const regHeaderSentinel = "Cód. Empresa"

// ParseRegisters turns registry rows into the operating-flights portion of
// the RPL table (no separate-file codeshare resolution; inline per-row
// codeshares are resolved here since their windows are row-scoped).
//
// Rows whose validity window does not cover today, or whose weekly mask bit
// for today's weekday is unset, are skipped. The first row seen for a
// callsign wins; later duplicates are ignored, which makes a repeated parse
// of the same rows idempotent. A malformed date or clock-time field is a
// parse error for the whole file: the registry's integrity is suspect and
// partial schedule data must not be served.
func ParseRegisters(rows [][]string, today time.Time) (Table, error) {
	table := make(Table, len(rows))
	weekday := mondayIndex(today)

	for i, row := range rows {
		if len(row) < 2 || row[0] == regHeaderSentinel {
			continue
		}
		if len(row) <= regFieldArrival {
			return nil, fmt.Errorf("registry row %d: %d fields, want at least %d", i, len(row), regFieldArrival+1)
		}

		from, err := time.Parse("2006-01-02", row[regFieldValidFrom])
		if err != nil {
			return nil, fmt.Errorf("registry row %d: validity start: %w", i, err)
		}
		until, err := time.Parse("2006-01-02", row[regFieldValidUntil])
		if err != nil {
			return nil, fmt.Errorf("registry row %d: validity end: %w", i, err)
		}
		if dayBefore(today, from) || dayBefore(until, today) {
			continue
		}

		operating, err := weekdayBit(row[regFieldMaskStart:regFieldMaskStart+7], weekday)
		if err != nil {
			return nil, fmt.Errorf("registry row %d: weekday mask: %w", i, err)
		}
		if !operating {
			continue
		}

		cs := callsign.Parse(row[regFieldAirline], row[regFieldNumber])
		if _, seen := table[cs]; seen {
			continue
		}

		dep, err := parseClock(row[regFieldDeparture])
		if err != nil {
			return nil, fmt.Errorf("registry row %d: departure time: %w", i, err)
		}
		arr, err := parseClock(row[regFieldArrival])
		if err != nil {
			return nil, fmt.Errorf("registry row %d: arrival time: %w", i, err)
		}
		entry := entryFor(today, dep, arr)
		table[cs] = entry

		// Inline codeshares share this row's entry. Their validity windows
		// are checked per token, independently of the row's own window.
		if len(row) > regFieldCodeshares && row[regFieldCodeshares] != "" {
			for _, marketing := range parseInlineCodeshares(row[regFieldCodeshares], today) {
				if _, seen := table[marketing]; !seen {
					table[marketing] = entry
				}
			}
		}
	}
	return table, nil
}

// mondayIndex maps a date's weekday onto the registry's Monday-first mask
// ordering (Monday = 0 .. Sunday = 6).
func mondayIndex(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

// dayBefore reports whether a falls on an earlier calendar day than b.
func dayBefore(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	if ay != by {
		return ay < by
	}
	if am != bm {
		return am < bm
	}
	return ad < bd
}

func weekdayBit(mask []string, weekday int) (bool, error) {
	bit, err := strconv.Atoi(strings.TrimSpace(mask[weekday]))
	if err != nil {
		return false, err
	}
	return bit != 0, nil
}

func parseClock(s string) (clockTime, error) {
	hh, mm, ok := strings.Cut(s, ":")
	if !ok {
		return clockTime{}, fmt.Errorf("malformed clock time %q", s)
	}
	hour, err := strconv.Atoi(hh)
	if err != nil || hour < 0 || hour > 23 {
		return clockTime{}, fmt.Errorf("malformed clock time %q", s)
	}
	min, err := strconv.Atoi(mm)
	if err != nil || min < 0 || min > 59 {
		return clockTime{}, fmt.Errorf("malformed clock time %q", s)
	}
	return clockTime{hour: hour, min: min}, nil
}
