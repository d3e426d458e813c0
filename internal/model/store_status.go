package model

import "time"

// Poll status values as they appear in the source data.
const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)

// StoreStatus is one poll sample of a store's online state.
type StoreStatus struct {
	ID           int64     `gorm:"primaryKey;autoIncrement"`
	StoreID      int64     `gorm:"index;not null"`
	TimestampUTC time.Time `gorm:"column:timestamp_utc;not null"`
	Status       string    `gorm:"size:16;not null"`
}
