package model

import "time"

// ReportSubscription holds a browser push subscription waiting for a report to complete.
type ReportSubscription struct {
	ReportID  string    `gorm:"primaryKey;size:64"`
	Endpoint  string    `gorm:"primaryKey"`
	P256DH    string    `gorm:"column:p256dh;not null"`
	Auth      string    `gorm:"not null"`
	CreatedAt time.Time `gorm:"not null"`
}
