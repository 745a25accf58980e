package store

import (
	"context"
	"fmt"
	"time"

	"github.com/zulandar/concierge/internal/models"
	"gorm.io/gorm"
)

// CreateOrder persists a committed order in its own transaction. The order's
// ID and CreatedAt are populated on success.
func (s *Store) CreateOrder(ctx context.Context, order *models.Order) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(order).Error
	})
	if err != nil {
		return fmt.Errorf("store: create order for room %d: %w", order.RoomNumber, err)
	}
	return nil
}

// Orders returns the most recent orders, newest first. A limit <= 0 returns all.
func (s *Store) Orders(ctx context.Context, limit int) ([]models.Order, error) {
	q := s.db.WithContext(ctx).Order("created_at DESC, id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var orders []models.Order
	if err := q.Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("store: orders: %w", err)
	}
	return orders, nil
}

// OrdersAfter returns orders with an ID greater than afterID, oldest first.
func (s *Store) OrdersAfter(ctx context.Context, afterID uint) ([]models.Order, error) {
	var orders []models.Order
	if err := s.db.WithContext(ctx).Where("id > ?", afterID).
		Order("id ASC").Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("store: orders after %d: %w", afterID, err)
	}
	return orders, nil
}

// MarkOrderServed sets an order's status to Served.
func (s *Store) MarkOrderServed(ctx context.Context, id uint) error {
	now := time.Now()
	result := s.db.WithContext(ctx).Model(&models.Order{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"status": models.OrderServed, "served_at": &now})
	if result.Error != nil {
		return fmt.Errorf("store: mark order %d served: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
