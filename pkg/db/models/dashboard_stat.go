package models

import "time"

// DashboardStat is one card on the admin dashboard.
type DashboardStat struct {
	ID        int64  `gorm:"primaryKey"`
	Title     string `gorm:"type:text;not null"`
	Value     string `gorm:"type:text;not null"`
	Trend     string `gorm:"type:text;not null"`
	Color     string `gorm:"type:text;not null"`
	Position  int    `gorm:"not null;default:0"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (DashboardStat) TableName() string {
	return "dashboard_stats"
}
