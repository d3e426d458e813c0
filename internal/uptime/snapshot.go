package uptime

// Snapshot is an immutable, per-store indexed copy of the three input tables.
type Snapshot struct {
	order     []int64
	status    map[int64][]Observation
	hours     map[int64][]HoursInterval
	timezones map[int64]string
}

// NewSnapshot indexes the input tables. Observations keep their storage order
// and stores are listed in the order they are first seen among observations.
func NewSnapshot(observations []Observation, hours []HoursInterval, timezones map[int64]string) *Snapshot {
	s := &Snapshot{
		status:    make(map[int64][]Observation),
		hours:     make(map[int64][]HoursInterval),
		timezones: make(map[int64]string, len(timezones)),
	}
	for _, o := range observations {
		if _, seen := s.status[o.StoreID]; !seen {
			s.order = append(s.order, o.StoreID)
		}
		s.status[o.StoreID] = append(s.status[o.StoreID], o)
	}
	for _, h := range hours {
		s.hours[h.StoreID] = append(s.hours[h.StoreID], h)
	}
	for id, tz := range timezones {
		s.timezones[id] = tz
	}
	return s
}

// StoreIDs returns the distinct stores in encounter order.
func (s *Snapshot) StoreIDs() []int64 {
	return s.order
}

// ObservationsFor returns the store's observations in storage order.
func (s *Snapshot) ObservationsFor(storeID int64) []Observation {
	return s.status[storeID]
}

// HoursFor returns the store's business-hours intervals. An empty result
// means the store is open around the clock.
func (s *Snapshot) HoursFor(storeID int64) []HoursInterval {
	return s.hours[storeID]
}

// TimezoneFor returns the store's timezone name, or def when the store has no
// timezone record. A record with a blank name is returned as is.
func (s *Snapshot) TimezoneFor(storeID int64, def string) string {
	if tz, ok := s.timezones[storeID]; ok {
		return tz
	}
	return def
}
