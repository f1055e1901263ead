package stats

import (
	"fmt"
	"time"

	"github.com/shadowlingo/shadow/internal/domain"
)

// LocalDateBoundary returns the calendar date of instant as observed in the
// IANA timezone tz, formatted "YYYY-MM-DD". time.Time.Format emits ASCII
// digits regardless of host locale, which is what the daily partition key
// requires. Unknown or empty zone names return domain.ErrInvalidTimezone —
// never a silent default.
func LocalDateBoundary(tz string, instant time.Time) (string, error) {
	loc, err := lookupZone(tz)
	if err != nil {
		return "", err
	}
	return instant.In(loc).Format("2006-01-02"), nil
}

// lookupZone resolves an IANA zone name, mapping failures to the domain
// sentinel. An empty name is rejected: time.LoadLocation("") means UTC,
// which would silently default a caller bug.
func lookupZone(tz string) (*time.Location, error) {
	if tz == "" {
		return nil, fmt.Errorf("%w: empty name", domain.ErrInvalidTimezone)
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidTimezone, tz)
	}
	return loc, nil
}

// daysBetween returns whole calendar days from a to b as observed in loc.
// Comparing dates (not 24h spans) keeps DST transition days counting as one.
func daysBetween(loc *time.Location, a, b time.Time) int {
	ay, am, ad := a.In(loc).Date()
	by, bm, bd := b.In(loc).Date()
	au := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	bu := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)
	return int(bu.Sub(au).Hours() / 24)
}
