package uptime

import "time"

// FilterByTimeOfDay keeps the observations whose UTC clock time lies within
// [start, end], both inclusive. Only the time-of-day of start and end is
// used, so an interval whose UTC end wraps past midnight matches nothing in
// between.
func FilterByTimeOfDay(observations []Observation, start, end time.Time) []Observation {
	lo, hi := clockOf(start), clockOf(end)
	var out []Observation
	for _, o := range observations {
		c := clockOf(o.Timestamp)
		if c >= lo && c <= hi {
			out = append(out, o)
		}
	}
	return out
}

// clockOf returns the UTC time elapsed since midnight.
func clockOf(t time.Time) time.Duration {
	t = t.UTC()
	h, m, s := t.Clock()
	return time.Duration(h)*time.Hour + time.Duration(m)*time.Minute +
		time.Duration(s)*time.Second + time.Duration(t.Nanosecond())
}
