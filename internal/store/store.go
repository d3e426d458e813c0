package store

import (
	"context"
	"fmt"
	"log"

	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"store-monitor-backend/internal/model"
	"store-monitor-backend/internal/uptime"
)

const defaultBatchSize = 1000

// Store defines the interface for all database operations.
type Store interface {
	LoadSnapshot(ctx context.Context) (*uptime.Snapshot, error)
	ReplaceStatuses(ctx context.Context, rows []model.StoreStatus) error
	ReplaceHours(ctx context.Context, rows []model.StoreHours) error
	ReplaceTimezones(ctx context.Context, rows []model.StoreTimezone) error
	CountRows(ctx context.Context, table Table) (int64, error)
	SaveSubscription(ctx context.Context, sub *model.ReportSubscription) error
	DeleteSubscription(ctx context.Context, reportID, endpoint string) error
	DB() *gorm.DB
}

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db        *gorm.DB
	batchSize int
}

// NewGormStore creates a new GORM-backed store. Bulk inserts are split into
// batches of batchSize rows.
func NewGormStore(db *gorm.DB, batchSize int) Store {
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	return &gormStore{db: db, batchSize: batchSize}
}

func (s *gormStore) DB() *gorm.DB {
	return s.db
}

// LoadSnapshot reads the three source tables concurrently. Each table is read
// by a single query in insertion order.
func (s *gormStore) LoadSnapshot(ctx context.Context) (*uptime.Snapshot, error) {
	var (
		statuses  []model.StoreStatus
		hours     []model.StoreHours
		timezones []model.StoreTimezone
	)

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := s.db.WithContext(gCtx).Order("id").Find(&statuses).Error; err != nil {
			return fmt.Errorf("failed to read store statuses: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		if err := s.db.WithContext(gCtx).Order("id").Find(&hours).Error; err != nil {
			return fmt.Errorf("failed to read store hours: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		if err := s.db.WithContext(gCtx).Find(&timezones).Error; err != nil {
			return fmt.Errorf("failed to read store timezones: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	observations := make([]uptime.Observation, 0, len(statuses))
	for _, st := range statuses {
		observations = append(observations, uptime.Observation{
			StoreID:   st.StoreID,
			Timestamp: st.TimestampUTC.UTC(),
			Status:    uptime.Status(st.Status),
		})
	}

	intervals := make([]uptime.HoursInterval, 0, len(hours))
	for _, h := range hours {
		intervals = append(intervals, uptime.HoursInterval{
			StoreID:   h.StoreID,
			DayOfWeek: h.DayOfWeek,
			StartTime: h.StartTimeLocal,
			EndTime:   h.EndTimeLocal,
		})
	}

	zones := make(map[int64]string, len(timezones))
	for _, tz := range timezones {
		zones[tz.StoreID] = tz.TimezoneStr
	}

	log.Printf("Loaded snapshot: %d observations, %d business-hours intervals, %d timezones",
		len(observations), len(intervals), len(zones))
	return uptime.NewSnapshot(observations, intervals, zones), nil
}

// ReplaceStatuses swaps the whole store_statuses table for rows.
func (s *gormStore) ReplaceStatuses(ctx context.Context, rows []model.StoreStatus) error {
	return replaceAll(ctx, s.db, &model.StoreStatus{}, rows, s.batchSize)
}

// ReplaceHours swaps the whole store_hours table for rows.
func (s *gormStore) ReplaceHours(ctx context.Context, rows []model.StoreHours) error {
	return replaceAll(ctx, s.db, &model.StoreHours{}, rows, s.batchSize)
}

// ReplaceTimezones swaps the whole store_timezones table for rows.
func (s *gormStore) ReplaceTimezones(ctx context.Context, rows []model.StoreTimezone) error {
	return replaceAll(ctx, s.db, &model.StoreTimezone{}, rows, s.batchSize)
}

// replaceAll deletes every row of the model's table and inserts rows, in one transaction.
func replaceAll[T any](ctx context.Context, db *gorm.DB, m any, rows []T, batchSize int) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(m).Error; err != nil {
			return fmt.Errorf("failed to clear table: %w", err)
		}
		if len(rows) == 0 {
			return nil
		}
		if err := tx.CreateInBatches(rows, batchSize).Error; err != nil {
			return fmt.Errorf("failed to insert %d rows: %w", len(rows), err)
		}
		return nil
	})
}

// CountRows returns the number of rows in a source table.
func (s *gormStore) CountRows(ctx context.Context, table Table) (int64, error) {
	m, ok := table.model()
	if !ok {
		return 0, fmt.Errorf("unknown table %q", table)
	}
	var n int64
	if err := s.db.WithContext(ctx).Model(m).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", table, err)
	}
	return n, nil
}

// SaveSubscription creates or refreshes a push subscription for a report.
func (s *gormStore) SaveSubscription(ctx context.Context, sub *model.ReportSubscription) error {
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "report_id"}, {Name: "endpoint"}},
		DoUpdates: clause.AssignmentColumns([]string{"p256dh", "auth"}),
	}).Create(sub).Error
}

// DeleteSubscription removes one push subscription of a report.
func (s *gormStore) DeleteSubscription(ctx context.Context, reportID, endpoint string) error {
	return s.db.WithContext(ctx).
		Where("report_id = ? AND endpoint = ?", reportID, endpoint).
		Delete(&model.ReportSubscription{}).Error
}
