package schedule

import (
	"log"
	"regexp"
	"strconv"
	"strings"
	"time"

	"siros_tracker/internal/callsign"
)

// Codeshare row layout (0-indexed, semicolon-delimited).
const (
	csFieldOperAirline = 0
	csFieldOperNumber  = 1
	csFieldMktAirline  = 2
	csFieldMktNumber   = 3
	csFieldValidUntil  = 6 // DD/MM/YYYY
)

// csHeaderSentinel marks the codeshare header row.
const csHeaderSentinel = "Operadora"

// ParseCodeshares turns codeshare rows into a mapping from an operating
// callsign to the ordered set of marketing callsigns that share its
// schedule entry. Rows whose validity end-date has passed are skipped.
// A marketing designator is recorded at most once per operating key.
//
// Unlike the registry, a malformed codeshare row only loses that row:
// partial codeshare data for the day is acceptable.
func ParseCodeshares(rows [][]string, today time.Time) map[callsign.Callsign][]callsign.Callsign {
	shares := make(map[callsign.Callsign][]callsign.Callsign)

	for i, row := range rows {
		if len(row) < 2 || row[0] == csHeaderSentinel {
			continue
		}
		if len(row) <= csFieldValidUntil {
			log.Printf("codeshare row %d: %d fields, want at least %d; skipping", i, len(row), csFieldValidUntil+1)
			continue
		}

		until, err := time.Parse("02/01/2006", row[csFieldValidUntil])
		if err != nil {
			log.Printf("codeshare row %d: validity end %q: %v; skipping", i, row[csFieldValidUntil], err)
			continue
		}
		if dayBefore(until, today) {
			continue
		}

		operating := callsign.Parse(row[csFieldOperAirline], row[csFieldOperNumber])
		marketing := callsign.Parse(row[csFieldMktAirline], row[csFieldMktNumber])

		if containsCallsign(shares[operating], marketing) {
			continue
		}
		shares[operating] = append(shares[operating], marketing)
	}
	return shares
}

func containsCallsign(list []callsign.Callsign, c callsign.Callsign) bool {
	for _, have := range list {
		if have == c {
			return true
		}
	}
	return false
}

// Inline codeshare tokens on a registry row look like
//
//	"AAL7660 01/03/2025 25/10/2025, KLM9257 ... 25/10/2025"
//
// comma separated, each naming a marketing designator and its own validity
// window. A "..." start marker means the window has no lower bound. Windows
// are checked per token, independently of the operating row's own window.
var (
	// Flight designator: a 3-letter or 2-character airline code, an optional
	// space, then 1-4 digits.
	inlineDesignatorRe = regexp.MustCompile(`^([A-Z]{3}|[A-Z][A-Z\d]|[A-Z\d][A-Z])\s?(\d{1,4})`)

	// Date: dd/mm/yyyy with ".", "-" or "/" separators and an optionally
	// abbreviated year.
	inlineDateRe = regexp.MustCompile(`(0?[1-9]|[12][0-9]|3[01])[./-](0?[1-9]|1[0-2])[./-]((?:19|20)?[0-9]{2})`)
)

// parseInlineCodeshares extracts the marketing callsigns valid today from a
// registry row's inline codeshare field. Unparsable tokens are skipped with
// a warning.
func parseInlineCodeshares(raw string, today time.Time) []callsign.Callsign {
	var out []callsign.Callsign
	for _, token := range strings.Split(raw, ",") {
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}
		m := inlineDesignatorRe.FindStringSubmatch(token)
		if m == nil {
			log.Printf("inline codeshare token %q: no flight designator; skipping", token)
			continue
		}

		dates := inlineDateRe.FindAllStringSubmatch(token, 2)
		if !inlineWindowCovers(dates, today) {
			continue
		}

		cs := callsign.Parse(m[1], m[2])
		if !containsCallsign(out, cs) {
			out = append(out, cs)
		}
	}
	return out
}

// inlineWindowCovers checks today against the dates found in one token.
// Two dates form a [start, end] window; a single date is the end of an
// open-start window; no dates at all means always valid.
func inlineWindowCovers(dates [][]string, today time.Time) bool {
	switch len(dates) {
	case 0:
		return true
	case 1:
		return !dayBefore(inlineDate(dates[0]), today)
	default:
		return !dayBefore(today, inlineDate(dates[0])) && !dayBefore(inlineDate(dates[1]), today)
	}
}

// inlineDate builds a date from the regex submatch groups, widening
// two-digit years into the 2000s.
func inlineDate(m []string) time.Time {
	day, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	year, _ := strconv.Atoi(m[3])
	if year < 100 {
		year += 2000
	}
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
}
