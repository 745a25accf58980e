package store

import (
	"context"
	"fmt"
	"time"

	"github.com/zulandar/concierge/internal/models"
)

// CreateServiceRequest persists a housekeeping request.
func (s *Store) CreateServiceRequest(ctx context.Context, req *models.ServiceRequest) error {
	if req.Status == "" {
		req.Status = models.RequestPending
	}
	if err := s.db.WithContext(ctx).Create(req).Error; err != nil {
		return fmt.Errorf("store: create service request for room %d: %w", req.RoomNumber, err)
	}
	return nil
}

// ServiceRequests returns the most recent requests, newest first. A limit
// <= 0 returns all.
func (s *Store) ServiceRequests(ctx context.Context, limit int) ([]models.ServiceRequest, error) {
	q := s.db.WithContext(ctx).Order("created_at DESC, id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var reqs []models.ServiceRequest
	if err := q.Find(&reqs).Error; err != nil {
		return nil, fmt.Errorf("store: service requests: %w", err)
	}
	return reqs, nil
}

// ServiceRequestsAfter returns requests with an ID greater than afterID,
// oldest first.
func (s *Store) ServiceRequestsAfter(ctx context.Context, afterID uint) ([]models.ServiceRequest, error) {
	var reqs []models.ServiceRequest
	if err := s.db.WithContext(ctx).Where("id > ?", afterID).
		Order("id ASC").Find(&reqs).Error; err != nil {
		return nil, fmt.Errorf("store: service requests after %d: %w", afterID, err)
	}
	return reqs, nil
}

// CompleteServiceRequest sets a request's status to Completed.
func (s *Store) CompleteServiceRequest(ctx context.Context, id uint) error {
	now := time.Now()
	result := s.db.WithContext(ctx).Model(&models.ServiceRequest{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"status": models.RequestCompleted, "completed_at": &now})
	if result.Error != nil {
		return fmt.Errorf("store: complete service request %d: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
