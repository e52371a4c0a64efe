package model

import "time"

// MaintenanceBlock takes a resource out of service over [StartAt, EndAt).
type MaintenanceBlock struct {
	ID          int64     `gorm:"primaryKey" json:"id"`
	ResourceID  int64     `gorm:"index:idx_maintenance_window,priority:1;not null" json:"resourceId"`
	StartAt     time.Time `gorm:"index:idx_maintenance_window,priority:2;not null" json:"startAt"`
	EndAt       time.Time `gorm:"not null" json:"endAt"`
	Description string    `gorm:"size:512" json:"description"`
	CreatedBy   string    `gorm:"size:128" json:"createdBy"`
	CreatedAt   time.Time `gorm:"not null" json:"createdAt"`
}
