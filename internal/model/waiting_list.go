package model

import "time"

// NotifyStatus tracks whether a waiting requester has been told about an opening.
type NotifyStatus string

const (
	NotifyNone    NotifyStatus = "none"
	NotifyPending NotifyStatus = "pending"
	NotifySent    NotifyStatus = "sent"
)

// WaitingListEntry records demand for a resource on a day with no free slot.
type WaitingListEntry struct {
	ID              int64        `gorm:"primaryKey" json:"id"`
	ResourceID      int64        `gorm:"index:idx_waiting_resource_date,priority:1;not null" json:"resourceId"`
	RequesterID     string       `gorm:"index;size:128;not null" json:"requesterId"`
	RequestedDate   string       `gorm:"index:idx_waiting_resource_date,priority:2;size:10;not null" json:"requestedDate"` // YYYY-MM-DD on the requester's clock
	TZOffsetMinutes int          `gorm:"not null" json:"tzOffsetMinutes"`
	SlotCount       int          `gorm:"not null" json:"slotCount"`
	Load            LoadSnapshot `gorm:"embedded;embeddedPrefix:load_" json:"load"`
	Purpose         string       `gorm:"size:512" json:"purpose"`
	NotifyStatus    NotifyStatus `gorm:"size:16;not null" json:"notifyStatus"`
	Consumed        bool         `gorm:"not null" json:"consumed"`
	ReservationID   *int64       `json:"reservationId,omitempty"`
	CreatedAt       time.Time    `gorm:"not null" json:"createdAt"`
	UpdatedAt       time.Time    `gorm:"not null" json:"updatedAt"`
}
