// Package store is the relational persistence layer behind the concierge:
// catalog and room lookups, committed orders, service requests, and the
// read-mostly queries used by the operations dashboard and staff digests.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/zulandar/concierge/internal/models"
	"gorm.io/gorm"
)

// ErrNotFound is returned when a looked-up row does not exist.
var ErrNotFound = errors.New("store: not found")

// Store wraps a GORM connection.
type Store struct {
	db *gorm.DB
}

// New creates a Store.
func New(db *gorm.DB) (*Store, error) {
	if db == nil {
		return nil, fmt.Errorf("store: db is required")
	}
	return &Store{db: db}, nil
}

// DB exposes the underlying connection for migrations and seeding.
func (s *Store) DB() *gorm.DB {
	return s.db
}

// AvailableMenuItems returns orderable catalog items in insertion order.
func (s *Store) AvailableMenuItems(ctx context.Context) ([]models.MenuItem, error) {
	var items []models.MenuItem
	if err := s.db.WithContext(ctx).Where("available = ?", true).
		Order("id ASC").Find(&items).Error; err != nil {
		return nil, fmt.Errorf("store: available menu items: %w", err)
	}
	return items, nil
}

// MenuItems returns the whole catalog, including unavailable items.
func (s *Store) MenuItems(ctx context.Context) ([]models.MenuItem, error) {
	var items []models.MenuItem
	if err := s.db.WithContext(ctx).Order("id ASC").Find(&items).Error; err != nil {
		return nil, fmt.Errorf("store: menu items: %w", err)
	}
	return items, nil
}

// RoomByNumber looks up a room. It returns ErrNotFound when no such room exists.
func (s *Store) RoomByNumber(ctx context.Context, number int) (*models.Room, error) {
	var room models.Room
	err := s.db.WithContext(ctx).Where("room_number = ?", number).First(&room).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: room %d: %w", number, err)
	}
	return &room, nil
}

// AvailableRooms returns unoccupied rooms ordered by number.
func (s *Store) AvailableRooms(ctx context.Context) ([]models.Room, error) {
	var rooms []models.Room
	if err := s.db.WithContext(ctx).Where("is_available = ?", true).
		Order("room_number ASC").Find(&rooms).Error; err != nil {
		return nil, fmt.Errorf("store: available rooms: %w", err)
	}
	return rooms, nil
}

// Rooms returns every room ordered by number.
func (s *Store) Rooms(ctx context.Context) ([]models.Room, error) {
	var rooms []models.Room
	if err := s.db.WithContext(ctx).Order("room_number ASC").Find(&rooms).Error; err != nil {
		return nil, fmt.Errorf("store: rooms: %w", err)
	}
	return rooms, nil
}

// SetRoomAvailability marks a room available or occupied.
func (s *Store) SetRoomAvailability(ctx context.Context, number int, available bool) error {
	result := s.db.WithContext(ctx).Model(&models.Room{}).
		Where("room_number = ?", number).
		Update("is_available", available)
	if result.Error != nil {
		return fmt.Errorf("store: set room %d availability: %w", number, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
