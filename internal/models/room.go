package models

// Room is a guest room. RoomNumber is unique; IsAvailable is false while
// the room is occupied.
type Room struct {
	ID          uint `gorm:"primaryKey;autoIncrement"`
	RoomNumber  int  `gorm:"uniqueIndex;not null"`
	IsAvailable bool `gorm:"not null;index"`
}
