package models

import "time"

// Service request status values.
const (
	RequestPending   = "Pending"
	RequestCompleted = "Completed"
)

// ServiceRequest is a housekeeping job raised from a guest message.
type ServiceRequest struct {
	ID          uint   `gorm:"primaryKey;autoIncrement"`
	RoomNumber  int    `gorm:"not null;index"`
	RequestType string `gorm:"size:64;not null"`
	Status      string `gorm:"size:16;default:Pending;index"`
	CreatedAt   time.Time
	CompletedAt *time.Time
}
