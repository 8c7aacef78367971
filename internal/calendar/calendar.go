// Package calendar maps calendar days to display labels and record keys.
//
// A record key is the canonical "YYYY-MM-DD" identifier of a day. Keys are
// always built from the year, month and day of the time value in its own
// location, so two instants on the same local calendar day share a key no
// matter the time of day.
package calendar

import (
	"fmt"
	"time"
)

// KeyLayout is the layout of a record key.
const KeyLayout = "2006-01-02"

const labelLayout = "Monday, January 2, 2006"

// FormatLabel renders t as "Monday, January 2, 2006".
func FormatLabel(t time.Time) string {
	return t.Format(labelLayout)
}

// RecordKey returns the YYYY-MM-DD key of t's calendar day in t's location.
func RecordKey(t time.Time) string {
	y, m, d := t.Date()
	return fmt.Sprintf("%04d-%02d-%02d", y, int(m), d)
}

// ParseRecordKey parses a record key into midnight of that day in loc.
func ParseRecordKey(key string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	if len(key) != len(KeyLayout) {
		return time.Time{}, fmt.Errorf("invalid record key %q", key)
	}
	t, err := time.ParseInLocation(KeyLayout, key, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid record key %q: %w", key, err)
	}
	return t, nil
}

// ValidKey reports whether key is a well-formed record key.
func ValidKey(key string) bool {
	_, err := ParseRecordKey(key, time.UTC)
	return err == nil
}

// Today returns midnight of now's calendar day in loc.
func Today(now time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	y, m, d := now.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

// DaysBack returns the calendar day i days before day.
// time.Date normalizes the day overflow, so month and DST boundaries are safe.
func DaysBack(day time.Time, i int) time.Time {
	y, m, d := day.Date()
	return time.Date(y, m, d-i, 0, 0, 0, 0, day.Location())
}

// Window returns the trailing window of days ending at today, today first.
func Window(today time.Time, days int) []time.Time {
	if days <= 0 {
		return nil
	}
	out := make([]time.Time, days)
	for i := 0; i < days; i++ {
		out[i] = DaysBack(today, i)
	}
	return out
}

// WindowKeys is Window mapped through RecordKey.
func WindowKeys(today time.Time, days int) []string {
	window := Window(today, days)
	keys := make([]string, len(window))
	for i, d := range window {
		keys[i] = RecordKey(d)
	}
	return keys
}

// LoadLocation resolves a time zone name. Empty and "Local" mean time.Local.
func LoadLocation(name string) (*time.Location, error) {
	if name == "" || name == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("failed to load time zone %q: %w", name, err)
	}
	return loc, nil
}
