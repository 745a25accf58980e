package store

import (
	"context"
	"fmt"
	"time"

	"github.com/zulandar/concierge/internal/models"
)

// Summary holds activity metrics for a time range.
type Summary struct {
	PeriodStart     time.Time
	PeriodEnd       time.Time
	Orders          int
	Revenue         float64
	OrdersServed    int
	Requests        int
	PendingRequests int
	OccupiedRooms   int
	RequestsByType  []TypeCount
}

// TypeCount is a service request count for one request type.
type TypeCount struct {
	RequestType string
	Count       int
}

// Summarize computes activity metrics for orders and requests created in
// [since, until). PendingRequests and OccupiedRooms are current totals.
func (s *Store) Summarize(ctx context.Context, since, until time.Time) (*Summary, error) {
	sum := &Summary{PeriodStart: since, PeriodEnd: until}
	db := s.db.WithContext(ctx)

	var orderAgg struct {
		Count   int
		Revenue float64
	}
	if err := db.Model(&models.Order{}).
		Select("count(*) as count, coalesce(sum(total_amount), 0) as revenue").
		Where("created_at >= ? AND created_at < ?", since, until).
		Scan(&orderAgg).Error; err != nil {
		return nil, fmt.Errorf("store: summarize orders: %w", err)
	}
	sum.Orders = orderAgg.Count
	sum.Revenue = orderAgg.Revenue

	var served int64
	if err := db.Model(&models.Order{}).
		Where("status = ? AND created_at >= ? AND created_at < ?", models.OrderServed, since, until).
		Count(&served).Error; err != nil {
		return nil, fmt.Errorf("store: summarize served orders: %w", err)
	}
	sum.OrdersServed = int(served)

	var byType []TypeCount
	if err := db.Model(&models.ServiceRequest{}).
		Select("request_type, count(*) as count").
		Where("created_at >= ? AND created_at < ?", since, until).
		Group("request_type").
		Order("count DESC, request_type ASC").
		Scan(&byType).Error; err != nil {
		return nil, fmt.Errorf("store: summarize requests: %w", err)
	}
	sum.RequestsByType = byType
	for _, tc := range byType {
		sum.Requests += tc.Count
	}

	var pending int64
	if err := db.Model(&models.ServiceRequest{}).
		Where("status = ?", models.RequestPending).
		Count(&pending).Error; err != nil {
		return nil, fmt.Errorf("store: count pending requests: %w", err)
	}
	sum.PendingRequests = int(pending)

	var occupied int64
	if err := db.Model(&models.Room{}).
		Where("is_available = ?", false).
		Count(&occupied).Error; err != nil {
		return nil, fmt.Errorf("store: count occupied rooms: %w", err)
	}
	sum.OccupiedRooms = int(occupied)

	return sum, nil
}
