package store

import "store-monitor-backend/internal/model"

// Table names one of the ingested source tables.
type Table string

const (
	TableStatus    Table = "store_statuses"
	TableHours     Table = "store_hours"
	TableTimezones Table = "store_timezones"
)

// Tables lists the source tables in load order.
var Tables = []Table{TableStatus, TableHours, TableTimezones}

// model returns the gorm model backing the table.
func (t Table) model() (any, bool) {
	switch t {
	case TableStatus:
		return &model.StoreStatus{}, true
	case TableHours:
		return &model.StoreHours{}, true
	case TableTimezones:
		return &model.StoreTimezone{}, true
	}
	return nil, false
}
