// Package sighting decodes live surveillance feed frames and resolves
// sightings to flight designators.
package sighting

import (
	"bytes"
	"encoding/json"
	"fmt"

	"siros_tracker/internal/callsign"
)

// Sighting is one surveillance update for an aircraft. Time is a
// server-assigned epoch-millisecond UTC timestamp of the most recent
// position update; it is not guaranteed to be strictly increasing per
// aircraft. The SSR block, and the identifier inside it, are optional.
type Sighting struct {
	Time int64 `json:"time"`
	SSR  *SSR  `json:"ssr,omitempty"`
}

// SSR carries secondary-surveillance data for a sighting.
type SSR struct {
	Registration string       `json:"registration"`
	Transponder  *Transponder `json:"transponder,omitempty"`
}

// Transponder carries the assigned SSR code.
type Transponder struct {
	Code int `json:"code"`
}

// Envelope is the decoded payload of one feed frame.
type Envelope struct {
	NewPaths []Sighting `json:"newPaths"`
}

// Decode parses a raw feed frame into its sightings. Frames arrive with a
// transport header before the JSON body and may carry trailing framing
// bytes; everything up to the first '{' is stripped, as are trailing NULs.
func Decode(frame []byte) ([]Sighting, error) {
	start := bytes.IndexByte(frame, '{')
	if start < 0 {
		return nil, fmt.Errorf("frame has no JSON body")
	}
	body := bytes.TrimRight(frame[start:], "\x00\r\n ")

	var env Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("decode frame: %w", err)
	}
	return env.NewPaths, nil
}

// NoCode is the transponder code recorded when a sighting carries none.
const NoCode = -1

// airlinePrefixLen is the fixed length of the airline-code prefix in a
// feed registration/identifier string.
const airlinePrefixLen = 3

// Resolve extracts the flight designator and transponder code from one
// sighting. A sighting without an SSR block, or without a non-empty
// identifier, yields no callsign; that is expected feed noise, not an
// error. The identifier splits into a 3-character airline prefix and a
// flight-number suffix, normalized exactly like a schedule designator so
// the two sources compare equal.
func Resolve(s Sighting) (cs callsign.Callsign, code int, ok bool) {
	if s.SSR == nil || s.SSR.Registration == "" {
		return callsign.Callsign{}, NoCode, false
	}
	reg := s.SSR.Registration
	if len(reg) < airlinePrefixLen {
		return callsign.Callsign{}, NoCode, false
	}

	code = NoCode
	if s.SSR.Transponder != nil {
		code = s.SSR.Transponder.Code
	}
	return callsign.Parse(reg[:airlinePrefixLen], reg[airlinePrefixLen:]), code, true
}
