package model

// StoreHours is one local business-hours interval of a store on a given weekday.
// Times are kept as the raw "HH:MM:SS" strings of the source data.
type StoreHours struct {
	ID             int64  `gorm:"primaryKey;autoIncrement"`
	StoreID        int64  `gorm:"index;not null"`
	DayOfWeek      int    `gorm:"not null"` // 0=Monday, 6=Sunday
	StartTimeLocal string `gorm:"size:16;not null"`
	EndTimeLocal   string `gorm:"size:16;not null"`
}

// TableName keeps the table name singular-plural agnostic ("store_hours").
func (StoreHours) TableName() string {
	return "store_hours"
}
