package models

// MenuItem is one orderable catalog entry. Only Available items are offered
// to guests.
type MenuItem struct {
	ID          uint    `gorm:"primaryKey;autoIncrement"`
	ItemName    string  `gorm:"size:128;uniqueIndex;not null"`
	Description string  `gorm:"size:512"`
	Price       float64 `gorm:"not null"`
	Available   bool    `gorm:"not null;index"`
}
