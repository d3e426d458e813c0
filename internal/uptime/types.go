// Package uptime estimates store uptime and downtime over the last hour, day
// and week from sparse active/inactive poll observations, restricted to each
// store's business hours.
package uptime

import "time"

// DefaultTimezone is used for stores without a timezone record.
const DefaultTimezone = "America/Chicago"

// Window capacities.
const (
	HourCapacity = time.Hour
	DayCapacity  = 24 * time.Hour
	WeekCapacity = 7 * 24 * time.Hour
)

// Status is the result of a single poll.
type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

// Observation is one timestamped poll result for a store.
type Observation struct {
	StoreID   int64
	Timestamp time.Time // UTC
	Status    Status
}

// HoursInterval is one local business-hours interval of a store.
type HoursInterval struct {
	StoreID   int64
	DayOfWeek int
	StartTime string // local "HH:MM:SS"
	EndTime   string // local "HH:MM:SS"
}

// Row is one line of the uptime report. Uptime and downtime always add up to
// the capacity of their window.
type Row struct {
	StoreID          int64
	UptimeLastHour   time.Duration
	UptimeLastDay    time.Duration
	UptimeLastWeek   time.Duration
	DowntimeLastHour time.Duration
	DowntimeLastDay  time.Duration
	DowntimeLastWeek time.Duration
}

// newRow derives every downtime field from its uptime.
func newRow(storeID int64, hour, day, week time.Duration) Row {
	return Row{
		StoreID:          storeID,
		UptimeLastHour:   hour,
		UptimeLastDay:    day,
		UptimeLastWeek:   week,
		DowntimeLastHour: HourCapacity - hour,
		DowntimeLastDay:  DayCapacity - day,
		DowntimeLastWeek: WeekCapacity - week,
	}
}

// Report is the full uptime table, one row per store.
type Report struct {
	GeneratedAt time.Time
	Rows        []Row
}
