package uptime

import "time"

// windows holds one running total per trailing window.
type windows struct {
	hour, day, week time.Duration
}

// add credits the elapsed time of each window, clamped to its capacity.
func (w *windows) add(hour, day, week time.Duration) {
	w.hour = min(w.hour+hour, HourCapacity)
	w.day = min(w.day+day, DayCapacity)
	w.week = min(w.week+week, WeekCapacity)
}

// Accumulator credits each observation with the time elapsed since the start
// of its last-hour, calendar-day and calendar-week windows, in the bucket of
// its status. Observations sharing a window are each credited in full, so the
// totals overlap; the clamps keep them within capacity.
type Accumulator struct {
	up   windows
	down windows
}

// Add credits one observation.
func (a *Accumulator) Add(o Observation) {
	hourStart, dayStart, weekStart := WindowStarts(o.Timestamp)
	t := o.Timestamp.UTC()

	target := &a.down
	if o.Status == StatusActive {
		target = &a.up
	}
	target.add(t.Sub(hourStart), t.Sub(dayStart), t.Sub(weekStart))
}

// Row reconciles the totals and produces the report row. Only the uptime
// totals survive: downtime is what remains of each window's capacity.
func (a *Accumulator) Row(storeID int64) Row {
	up := a.up
	up.day = min(up.day, up.week)
	return newRow(storeID, up.hour, up.day, up.week)
}

// Downtime returns the reconciled downtime totals as accumulated from
// inactive observations. They are not part of the report row.
func (a *Accumulator) Downtime() (hour, day, week time.Duration) {
	return a.down.hour, min(a.down.day, a.down.week), a.down.week
}

// WindowStarts anchors the three windows at t: one hour before t, UTC
// midnight of t's day, and UTC midnight of the Monday of t's week.
func WindowStarts(t time.Time) (hourStart, dayStart, weekStart time.Time) {
	t = t.UTC()
	hourStart = t.Add(-time.Hour)
	y, m, d := t.Date()
	dayStart = time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	weekStart = dayStart.AddDate(0, 0, -isoWeekday(t))
	return hourStart, dayStart, weekStart
}

// isoWeekday numbers weekdays from Monday=0 to Sunday=6.
func isoWeekday(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

// FullUptimeRow is the row of an always-open store with at least one observation.
func FullUptimeRow(storeID int64) Row {
	return newRow(storeID, HourCapacity, DayCapacity, WeekCapacity)
}

// NoDataRow is the row of an always-open store that was never observed.
func NoDataRow(storeID int64) Row {
	return newRow(storeID, 0, 0, 0)
}
