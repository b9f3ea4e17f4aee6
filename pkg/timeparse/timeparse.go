// Package timeparse resolves date strings into absolute instants.
//
// Inputs can be absolute timestamps ("2024-01-01T00:00:00+00:00") or
// human-readable expressions ("2 days ago UTC"). Resolution reports whether
// the input pinned its own UTC offset, so callers can refuse ambiguous
// wall-clock strings instead of guessing a timezone for them.
package timeparse

import (
	"fmt"
	"time"

	"github.com/markusmobius/go-dateparser"
)

// probeZone is a deliberately odd offset. A string that carries its own
// timezone resolves to the same instant no matter which default zone the
// parser assumes; a zone-less wall-clock string shifts by the difference
// between UTC and this zone, which is how we detect the missing offset.
var probeZone = time.FixedZone("probe", 5*3600+1800)

// Resolve parses s into an absolute instant. The second return value is
// false when s is a wall-clock string with no resolvable UTC offset.
func Resolve(s string) (time.Time, bool, error) {
	return ResolveAt(s, time.Now())
}

// ResolveAt is Resolve with a fixed reference time for relative
// expressions such as "2 days ago".
func ResolveAt(s string, now time.Time) (time.Time, bool, error) {
	parsed, err := parseIn(s, now, time.UTC)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("unable to parse %q: %w", s, err)
	}

	probe, err := parseIn(s, now, probeZone)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("unable to parse %q: %w", s, err)
	}

	return parsed, parsed.Equal(probe), nil
}

func parseIn(s string, now time.Time, loc *time.Location) (time.Time, error) {
	cfg := &dateparser.Configuration{
		CurrentTime:     now,
		DefaultTimezone: loc,
	}
	dt, err := dateparser.Parse(cfg, s)
	if err != nil {
		return time.Time{}, err
	}
	return dt.Time, nil
}
