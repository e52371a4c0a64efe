package model

import "time"

// ReservationStatus is a state of the reservation lifecycle.
type ReservationStatus string

const (
	StatusPending   ReservationStatus = "pending"
	StatusApproved  ReservationStatus = "approved"
	StatusRejected  ReservationStatus = "rejected"
	StatusCancelled ReservationStatus = "cancelled"
	StatusCompleted ReservationStatus = "completed"
)

// ActiveStatuses hold their interval on the resource.
var ActiveStatuses = []ReservationStatus{StatusPending, StatusApproved}

// Terminal reports whether no further transition is allowed from s.
func (s ReservationStatus) Terminal() bool {
	return s == StatusRejected || s == StatusCancelled || s == StatusCompleted
}

// Active reports whether a reservation in s blocks its interval.
func (s ReservationStatus) Active() bool {
	return s == StatusPending || s == StatusApproved
}

// Valid reports whether s is a known status.
func (s ReservationStatus) Valid() bool {
	return s.Active() || s.Terminal()
}

// Reservation is a booking of one resource over [StartAt, EndAt).
type Reservation struct {
	ID            int64             `gorm:"primaryKey" json:"id"`
	ResourceID    int64             `gorm:"index:idx_reservation_window,priority:1;not null" json:"resourceId"`
	RequesterID   string            `gorm:"index;size:128;not null" json:"requesterId"`
	StartAt       time.Time         `gorm:"index:idx_reservation_window,priority:2;not null" json:"startAt"`
	EndAt         time.Time         `gorm:"not null" json:"endAt"`
	Status        ReservationStatus `gorm:"index;size:16;not null" json:"status"`
	Load          LoadSnapshot      `gorm:"embedded;embeddedPrefix:load_" json:"load"`
	LoadProfileID *int64            `json:"loadProfileId,omitempty"`
	Purpose       string            `gorm:"size:512" json:"purpose"`
	AdminNote     *string           `gorm:"size:512" json:"adminNote,omitempty"`
	CancelReason  *string           `gorm:"size:512" json:"cancelReason,omitempty"`
	IsMaintenance bool              `gorm:"not null" json:"isMaintenance"`
	CreatedAt     time.Time         `gorm:"not null" json:"createdAt"`
	UpdatedAt     time.Time         `gorm:"not null" json:"updatedAt"`
}
