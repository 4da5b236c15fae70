// Command rpl_dump fetches the day's SIROS schedule and prints the
// resulting RPL table, one flight per line. Useful for checking what the
// tracker would be matching against.
//
// Usage:
//
//	rpl_dump [-date YYYY-MM-DD] [-cache-dir DIR]
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"sort"
	"time"

	"siros_tracker/internal/schedule"
)

func main() {
	date := flag.String("date", "", "operating day (YYYY-MM-DD, default: today UTC)")
	cacheDir := flag.String("cache-dir", "./registros", "schedule download cache directory")
	flag.Parse()

	today := time.Now().UTC()
	if *date != "" {
		var err error
		today, err = time.Parse("2006-01-02", *date)
		if err != nil {
			log.Fatalf("bad -date %q: %v", *date, err)
		}
	}

	src := schedule.NewHTTPSource(*cacheDir)
	table, err := schedule.Build(context.Background(), src, today)
	if err != nil {
		log.Printf("schedule source unavailable: %v. Aborting.", err)
		os.Exit(255)
	}

	lines := make([]string, 0, len(table))
	for cs, entry := range table {
		lines = append(lines, fmt.Sprintf("%-8s dep %s arr %s",
			cs, entry.Departure.Format("15:04"), entry.Arrival.Format("2006-01-02 15:04")))
	}
	sort.Strings(lines)
	for _, l := range lines {
		fmt.Println(l)
	}
	fmt.Printf("%d flights\n", len(lines))
}
