package models

import "time"

// Order status values.
const (
	OrderPending   = "Pending"
	OrderConfirmed = "Confirmed"
	OrderServed    = "Served"
)

// Order is a committed restaurant order. Items and Quantity are the
// human-readable summaries produced when the dialogue completes
// (e.g. "Dosa x2, Idli x1" and "2; 1").
type Order struct {
	ID          uint    `gorm:"primaryKey;autoIncrement"`
	RoomNumber  int     `gorm:"not null;index"`
	Items       string  `gorm:"size:1024"`
	Quantity    string  `gorm:"size:256"`
	TotalAmount float64 `gorm:"not null"`
	Status      string  `gorm:"size:16;default:Pending;index"`
	CreatedAt   time.Time
	ServedAt    *time.Time
}
