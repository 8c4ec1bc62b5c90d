// Package dateutil holds the calendar helpers used by the schedule parser.
// All functions are pure: they take and return time.Time values and keep no
// scratch state between calls.
package dateutil

import (
	"errors"
	"fmt"
	"time"
	_ "time/tzdata" // schedules must resolve their zone on hosts without zoneinfo
)

// DefaultTimezone is the reference zone schedules are expressed in.
const DefaultTimezone = "Europe/Paris"

const dateLayout = "2006-01-02"

var (
	ErrClockFormat = errors.New("time must be in HH:MM format")
	ErrClockRange  = errors.New("time out of range")
)

// Clock is an hours/minutes pair decoded from an "HH:MM" string. It is used
// both as a time of day and as a duration.
type Clock struct {
	Hours   int
	Minutes int
}

// Duration returns c as an elapsed duration.
func (c Clock) Duration() time.Duration {
	return time.Duration(c.Hours)*time.Hour + time.Duration(c.Minutes)*time.Minute
}

func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hours, c.Minutes)
}

// DefaultLocation loads DefaultTimezone. The embedded tzdata makes this
// infallible in practice; UTC is returned if it ever fails.
func DefaultLocation() *time.Location {
	loc, err := time.LoadLocation(DefaultTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// ParseDate parses a "YYYY-MM-DD" string as midnight in loc.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	return time.ParseInLocation(dateLayout, s, loc)
}

// ParseClock decodes a strict five-character "HH:MM" string by digit
// position. Minutes must be below 60; hours are not bounded here so the same
// decoder serves durations.
func ParseClock(s string) (Clock, error) {
	if len(s) != 5 || s[2] != ':' {
		return Clock{}, fmt.Errorf("%w: %q", ErrClockFormat, s)
	}
	var digits [4]int
	for i, pos := range [4]int{0, 1, 3, 4} {
		ch := s[pos]
		if ch < '0' || ch > '9' {
			return Clock{}, fmt.Errorf("%w: %q", ErrClockFormat, s)
		}
		digits[i] = int(ch - '0')
	}
	c := Clock{
		Hours:   digits[0]*10 + digits[1],
		Minutes: digits[2]*10 + digits[3],
	}
	if c.Minutes > 59 {
		return Clock{}, fmt.Errorf("%w: %q", ErrClockRange, s)
	}
	return c, nil
}

// ParseTimeOfDay is ParseClock restricted to hours 00-23.
func ParseTimeOfDay(s string) (Clock, error) {
	c, err := ParseClock(s)
	if err != nil {
		return Clock{}, err
	}
	if c.Hours > 23 {
		return Clock{}, fmt.Errorf("%w: %q", ErrClockRange, s)
	}
	return c, nil
}

// At returns the instant on day's calendar date at the wall-clock time c, in
// loc. Seconds and nanoseconds are zero.
func At(day time.Time, c Clock, loc *time.Location) time.Time {
	if loc == nil {
		loc = day.Location()
	}
	d := day.In(loc)
	return time.Date(d.Year(), d.Month(), d.Day(), c.Hours, c.Minutes, 0, 0, loc)
}

// Add returns t advanced by the hours and minutes of c. The addition is done
// on the absolute instant, so day and month boundaries roll over naturally.
func Add(t time.Time, c Clock) time.Time {
	return t.Add(c.Duration())
}
