// Package parse holds the lenient cell parsers used when reading the store CSV exports.
package parse

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// timestampLayouts are tried in order; the exports carry "2023-01-22 12:09:39.388884 UTC".
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999 MST",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
}

// naiveLayouts parse wall-clock strings without any zone information.
var naiveLayouts = []string{
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04",
	"2006-01-02T15:04",
	"2006-01-02",
}

var clockLayouts = []string{
	"15:04:05.999999999",
	"15:04",
}

// Timestamp parses an instant. Strings without a zone are read as UTC.
func Timestamp(raw string) (time.Time, error) {
	s := strings.TrimSpace(raw)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unable to parse timestamp: %q", raw)
}

// LocalDateTime is a naive wall-clock reading, with or without a calendar date.
type LocalDateTime struct {
	Year    int
	Month   time.Month
	Day     int
	HasDate bool
	Hour    int
	Minute  int
	Second  int
	Nano    int
}

// In attaches loc to the wall-clock reading. When the reading has no date,
// the calendar date of day is used.
func (l LocalDateTime) In(day time.Time, loc *time.Location) time.Time {
	y, m, d := l.Year, l.Month, l.Day
	if !l.HasDate {
		y, m, d = day.Date()
	}
	return time.Date(y, m, d, l.Hour, l.Minute, l.Second, l.Nano, loc)
}

// Local parses a naive date-time such as "2023-01-25 09:30:00" or a bare
// time-of-day such as "09:30:00".
func Local(raw string) (LocalDateTime, error) {
	s := strings.TrimSpace(raw)
	for _, layout := range naiveLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return fromTime(t, true), nil
		}
	}
	for _, layout := range clockLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return fromTime(t, false), nil
		}
	}
	return LocalDateTime{}, fmt.Errorf("unable to parse local time: %q", raw)
}

func fromTime(t time.Time, hasDate bool) LocalDateTime {
	return LocalDateTime{
		Year:    t.Year(),
		Month:   t.Month(),
		Day:     t.Day(),
		HasDate: hasDate,
		Hour:    t.Hour(),
		Minute:  t.Minute(),
		Second:  t.Second(),
		Nano:    t.Nanosecond(),
	}
}

// Status normalizes a poll status cell to "active" or "inactive".
func Status(raw string) (string, error) {
	switch s := strings.ToLower(strings.TrimSpace(raw)); s {
	case "active", "inactive":
		return s, nil
	default:
		return "", fmt.Errorf("unknown status: %q", raw)
	}
}

// StoreID parses a store identifier. Exports sometimes render ids as floats ("123.0").
func StoreID(raw string) (int64, error) {
	s := strings.TrimSpace(raw)
	s = strings.TrimSuffix(s, ".0")
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid store id %q: %w", raw, err)
	}
	return id, nil
}

// DayOfWeek parses a weekday index, 0 (Monday) through 6 (Sunday).
func DayOfWeek(raw string) (int, error) {
	d, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("invalid day of week %q: %w", raw, err)
	}
	if d < 0 || d > 6 {
		return 0, fmt.Errorf("day of week out of range: %d", d)
	}
	return d, nil
}
