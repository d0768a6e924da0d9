package model

import "time"

// Activity is a single time entry inside one day bucket. The bucket is
// keyed by (UserID, Date); Date is the calendar day as YYYY-MM-DD.
type Activity struct {
	ID         string `gorm:"primaryKey"`
	UserID     uint   `gorm:"index:idx_user_date"`
	Date       string `gorm:"index:idx_user_date"`
	Name       string
	CategoryID string `gorm:"index"`
	Duration   int // minutes
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
