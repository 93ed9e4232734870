// internal/daily/daily.go
//
// Puzzle day resolution for the daily challenge.
// Responsibilities:
//   - Map a wall-clock instant to the 1-based puzzle day counted from a fixed UTC epoch.
//   - Apply testing overrides (?day=N, ?tmr) ahead of the time-based computation.
//   - Compute the time left until the next daily boundary and format it for display.
//
// Every function here is pure: callers pass the current time in (see Clock).
package daily

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// DefaultEpoch is the instant at which day 1 begins (10PM ET on 2025-10-25).
var DefaultEpoch = time.Date(2025, time.October, 26, 2, 0, 0, 0, time.UTC)

// RefreshSentinel is shown instead of a countdown once the boundary has passed.
const RefreshSentinel = "REFRESH FOR UPDATE"

const dayLength = 24 * time.Hour

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the real wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// FixedClock always reports the same instant. Useful in tests and previews.
type FixedClock time.Time

func (c FixedClock) Now() time.Time { return time.Time(c) }

// Overrides force a particular day. A positive Day wins over everything else;
// Tomorrow shifts the computed day forward by one.
type Overrides struct {
	Day      int
	Tomorrow bool
}

// OverridesFromQuery reads the `day` and `tmr` query parameters.
// A `day` value that is not a positive integer is ignored.
func OverridesFromQuery(q url.Values) Overrides {
	var o Overrides
	if v := strings.TrimSpace(q.Get("day")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			o.Day = n
		}
	}
	_, o.Tomorrow = q["tmr"]
	return o
}

// Resolver bundles an epoch and a clock.
type Resolver struct {
	Epoch time.Time
	Clock Clock
}

// NewResolver returns a Resolver; a zero epoch selects DefaultEpoch and a nil
// clock selects SystemClock.
func NewResolver(epoch time.Time, clock Clock) *Resolver {
	if epoch.IsZero() {
		epoch = DefaultEpoch
	}
	if clock == nil {
		clock = SystemClock{}
	}
	return &Resolver{Epoch: epoch.UTC(), Clock: clock}
}

// Today returns the current puzzle day with overrides applied.
func (r *Resolver) Today(o Overrides) int {
	return CurrentDay(r.Epoch, r.Clock.Now(), o)
}

// UntilNext returns the time remaining before the next puzzle unlocks.
func (r *Resolver) UntilNext() time.Duration {
	return TimeUntilNext(r.Epoch, r.Clock.Now())
}

// CurrentDay computes floor((now - epoch) / 24h) + 1.
//
// The division floors toward negative infinity, so the instant epoch is day 1,
// epoch+25h is day 2 and epoch-1h is day 0.
func CurrentDay(epoch, now time.Time, o Overrides) int {
	if o.Day > 0 {
		return o.Day
	}
	day := floorDiv(now.Sub(epoch), dayLength) + 1
	if o.Tomorrow {
		day++
	}
	return day
}

func floorDiv(d, unit time.Duration) int {
	q := d / unit
	if d%unit != 0 && d < 0 {
		q--
	}
	return int(q)
}

// TimeUntilNext returns the duration until the epoch's UTC time of day next
// occurs strictly after now. Exactly on the boundary the answer is a full day.
func TimeUntilNext(epoch, now time.Time) time.Duration {
	now = now.UTC()
	e := epoch.UTC()
	boundary := time.Date(now.Year(), now.Month(), now.Day(), e.Hour(), e.Minute(), e.Second(), e.Nanosecond(), time.UTC)
	if !now.Before(boundary) {
		boundary = boundary.Add(dayLength)
	}
	return boundary.Sub(now)
}

// FormatRemaining renders d as zero-padded HH:MM:SS, or RefreshSentinel when
// d is not positive.
func FormatRemaining(d time.Duration) string {
	if d <= 0 {
		return RefreshSentinel
	}
	total := int(d / time.Second)
	return fmt.Sprintf("%02d:%02d:%02d", total/3600, (total%3600)/60, total%60)
}
