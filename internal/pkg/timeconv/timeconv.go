// Package timeconv centralizes every local/UTC conversion in the letter
// scheduler. Delivery instants are accepted as RFC3339, stored as UTC, and
// rendered for display in a single configurable fixed-offset zone. Nothing
// else in the codebase is allowed to do timezone arithmetic.
package timeconv

import (
	"fmt"
	"strings"
	"time"
)

// DisplayFormat is the wall-clock layout used in user-facing email bodies.
const DisplayFormat = "2006-01-02 15:04:05"

// DefaultZone is Indian Standard Time (UTC+5:30), the display zone of the
// original deployment.
var DefaultZone = NewZone("IST", 330)

// Zone is a fixed-offset display timezone. It is applied only at render
// time; persisted instants are always UTC.
type Zone struct {
	name string
	loc  *time.Location
}

// NewZone creates a display zone with the given name and offset east of UTC
// in minutes (IST is +330).
func NewZone(name string, offsetMinutes int) *Zone {
	return &Zone{
		name: name,
		loc:  time.FixedZone(name, offsetMinutes*60),
	}
}

// Name returns the zone's display abbreviation.
func (z *Zone) Name() string { return z.name }

// ToDisplay converts a stored UTC instant to the display zone's wall clock.
func (z *Zone) ToDisplay(t time.Time) time.Time {
	return t.In(z.loc)
}

// Format renders a stored instant for user-facing text, e.g.
// "2030-01-01 05:30:00 IST".
func (z *Zone) Format(t time.Time) string {
	return z.ToDisplay(t).Format(DisplayFormat) + " " + z.name
}

// ParseDeliveryAt parses a client-supplied delivery instant. The contract is
// RFC3339 (e.g. "2030-01-01T00:00:00Z" or "2030-01-01T05:30:00+05:30"); the
// result is normalized to UTC. Any other shape is rejected so that the
// ambiguity bugs of hand-rolled local-time parsing cannot reappear.
func ParseDeliveryAt(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("delivery time is empty")
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("delivery time %q is not RFC3339: %w", s, err)
	}
	return ToUTC(t), nil
}

// ToUTC normalizes an instant to UTC for storage.
func ToUTC(t time.Time) time.Time {
	return t.UTC()
}
