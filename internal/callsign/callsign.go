// Package callsign provides the canonical flight designator value used as
// the key for both the schedule (RPL) table and the live tracks table.
package callsign

import (
	"fmt"
	"strconv"
)

// Callsign is an immutable flight designator: an airline code plus a flight
// number. Flight numbers appear inconsistently across sources as zero-padded
// digit strings ("0128") or digits with an operational suffix ("123A").
// Pure-digit numbers are normalized to an integer once, at construction, so
// "0128" and "128" compare equal regardless of which source produced them.
// Anything else is kept verbatim as an opaque string.
//
// The zero value is not a valid callsign. Callsign is comparable and safe to
// use as a map key.
type Callsign struct {
	Airline string
	Number  int64
	Text    string // non-numeric flight number form, e.g. "123A"
	Numeric bool
}

// Parse builds a Callsign from an airline code and a raw flight number
// field. Any string is accepted: a field that is not purely decimal digits
// is treated as an alphanumeric suffix form, never an error.
func Parse(airline, rawNumber string) Callsign {
	if isDecimal(rawNumber) {
		n, _ := strconv.ParseInt(rawNumber, 10, 64)
		return Callsign{Airline: airline, Number: n, Numeric: true}
	}
	return Callsign{Airline: airline, Text: rawNumber}
}

// String renders the designator in the usual airline+number form.
func (c Callsign) String() string {
	if c.Numeric {
		return fmt.Sprintf("%s%d", c.Airline, c.Number)
	}
	return c.Airline + c.Text
}

// isDecimal reports whether s is non-empty and consists only of ASCII
// decimal digits.
func isDecimal(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
