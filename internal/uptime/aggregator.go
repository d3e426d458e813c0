package uptime

import (
	"context"
	"fmt"
	"log"
	"time"
)

// SnapshotLoader reads the current input tables.
type SnapshotLoader interface {
	LoadSnapshot(ctx context.Context) (*Snapshot, error)
}

// Aggregator builds the uptime report for every observed store.
type Aggregator struct {
	loader          SnapshotLoader
	defaultTimezone string
	now             func() time.Time
}

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithDefaultTimezone overrides the zone used for stores without a timezone record.
func WithDefaultTimezone(tz string) Option {
	return func(a *Aggregator) {
		if tz != "" {
			a.defaultTimezone = tz
		}
	}
}

// WithClock overrides the clock. Business-hours times of day are placed on
// the clock's current date before conversion to UTC.
func WithClock(now func() time.Time) Option {
	return func(a *Aggregator) {
		a.now = now
	}
}

// NewAggregator creates an Aggregator reading its input from loader.
func NewAggregator(loader SnapshotLoader, opts ...Option) *Aggregator {
	a := &Aggregator{
		loader:          loader,
		defaultTimezone: DefaultTimezone,
		now:             time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Generate loads a fresh snapshot and computes the report from it.
func (a *Aggregator) Generate(ctx context.Context) (*Report, error) {
	snap, err := a.loader.LoadSnapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load input tables: %w", err)
	}
	return a.Compute(ctx, snap)
}

// Compute produces one row per store, in the order the stores first appear
// among the observations.
func (a *Aggregator) Compute(ctx context.Context, snap *Snapshot) (*Report, error) {
	now := a.now()
	report := &Report{
		GeneratedAt: now.UTC(),
		Rows:        make([]Row, 0, len(snap.StoreIDs())),
	}
	for _, storeID := range snap.StoreIDs() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		report.Rows = append(report.Rows, a.storeRow(snap, storeID, now))
	}
	return report, nil
}

func (a *Aggregator) storeRow(snap *Snapshot, storeID int64, now time.Time) Row {
	observations := snap.ObservationsFor(storeID)
	hours := snap.HoursFor(storeID)

	// No business hours: open around the clock.
	if len(hours) == 0 {
		if len(observations) > 0 {
			return FullUptimeRow(storeID)
		}
		return NoDataRow(storeID)
	}

	timezone := snap.TimezoneFor(storeID, a.defaultTimezone)
	var acc Accumulator
	for _, h := range hours {
		start, err := ConvertToUTCErr(h.StartTime, timezone, now)
		if err != nil {
			log.Printf("Skipping business hours of store %d (day %d): start: %v", storeID, h.DayOfWeek, err)
			continue
		}
		end, err := ConvertToUTCErr(h.EndTime, timezone, now)
		if err != nil {
			log.Printf("Skipping business hours of store %d (day %d): end: %v", storeID, h.DayOfWeek, err)
			continue
		}
		for _, o := range FilterByTimeOfDay(observations, start, end) {
			acc.Add(o)
		}
	}
	return acc.Row(storeID)
}
