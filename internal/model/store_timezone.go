package model

// StoreTimezone maps a store to its IANA timezone name.
type StoreTimezone struct {
	StoreID     int64  `gorm:"primaryKey;autoIncrement:false"`
	TimezoneStr string `gorm:"column:timezone_str;size:64;not null"`
}
