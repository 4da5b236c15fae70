package schedule

import (
	"context"
	"fmt"
	"log"
	"time"
)

// Source supplies the day's raw registry and codeshare rows, already split
// into fields. Implementations own retrieval and caching; a failure here is
// fatal for the whole run, since no meaningful tracking is possible without
// the day's schedule.
type Source interface {
	Registers(ctx context.Context, today time.Time) ([][]string, error)
	Codeshares(ctx context.Context, today time.Time) ([][]string, error)
}

// Build produces the RPL table for today: operating flights from the
// registry, plus every marketing callsign from the codeshare publication
// bound to its operating flight's entry. A codeshare group whose operating
// flight is not in today's registry is logged and skipped; the rest of the
// build proceeds.
//
// Build must run once per operating day, and the result must replace any
// previous day's table wholesale before being consulted for matching.
func Build(ctx context.Context, src Source, today time.Time) (Table, error) {
	csRows, err := src.Codeshares(ctx, today)
	if err != nil {
		return nil, fmt.Errorf("fetch codeshares: %w", err)
	}
	shares := ParseCodeshares(csRows, today)

	regRows, err := src.Registers(ctx, today)
	if err != nil {
		return nil, fmt.Errorf("fetch registers: %w", err)
	}
	table, err := ParseRegisters(regRows, today)
	if err != nil {
		return nil, fmt.Errorf("parse registers: %w", err)
	}

	for operating, marketing := range shares {
		entry, ok := table[operating]
		if !ok {
			log.Printf("codeshare %s not found in RPL's", operating)
			continue
		}
		for _, mkt := range marketing {
			table[mkt] = entry
		}
	}

	log.Printf("RPL table built for %s: %d flights", today.Format("2006-01-02"), len(table))
	return table, nil
}
