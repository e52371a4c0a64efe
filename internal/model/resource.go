package model

import "time"

// Resource represents a crane that can be booked in time slots.
type Resource struct {
	ID        int64     `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"uniqueIndex;size:128;not null" json:"name"`
	Capacity  float64   `gorm:"not null" json:"capacity"` // Max load in tons
	MaxWidth  *float64  `json:"maxWidth,omitempty"`       // Meters; nil means unconstrained
	Active    bool      `gorm:"not null;default:true" json:"active"`
	CreatedAt time.Time `gorm:"not null" json:"createdAt"`
	UpdatedAt time.Time `gorm:"not null" json:"updatedAt"`
}
