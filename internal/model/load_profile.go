package model

import "time"

// LoadSnapshot describes the vessel a crane is booked to lift.
type LoadSnapshot struct {
	VesselType string  `gorm:"size:64" json:"vesselType"`
	Length     float64 `json:"length"`
	Width      float64 `json:"width"`
	Draft      float64 `json:"draft"`
	Weight     float64 `json:"weight"`
}

// LoadProfile is a saved vessel a requester can reuse across bookings.
type LoadProfile struct {
	ID        int64        `gorm:"primaryKey" json:"id"`
	OwnerID   string       `gorm:"index;size:128;not null" json:"ownerId"`
	Name      string       `gorm:"size:128;not null" json:"name"`
	Load      LoadSnapshot `gorm:"embedded" json:"load"`
	CreatedAt time.Time    `gorm:"not null" json:"createdAt"`
}
