package store

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"eden/internal/models"
)

type Applications struct {
	db *gorm.DB
}

func NewApplications(db *gorm.DB) *Applications {
	return &Applications{db: db}
}

func (s *Applications) Create(ctx context.Context, a *models.Application) error {
	if err := s.db.WithContext(ctx).Create(a).Error; err != nil {
		return fmt.Errorf("create application: %w", err)
	}
	return nil
}

func (s *Applications) Get(ctx context.Context, id uint) (*models.Application, error) {
	var a models.Application
	if err := s.db.WithContext(ctx).First(&a, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "store.GetApplication", "application %d not found", id)
	}
	return &a, nil
}

// ListByRequest returns the applications sent to a job listing, newest first.
func (s *Applications) ListByRequest(ctx context.Context, requestID uint) ([]models.Application, error) {
	var items []models.Application
	err := s.db.WithContext(ctx).
		Where("request_id = ?", requestID).
		Order("submitted_at desc, id desc").
		Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("list applications of %d: %w", requestID, err)
	}
	return items, nil
}

// UpdateStatus moves an application from one status to another; false means it was not in from.
func (s *Applications) UpdateStatus(ctx context.Context, id uint, from, to models.ApplicationStatus) (bool, error) {
	res := s.db.WithContext(ctx).Model(&models.Application{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	if res.Error != nil {
		return false, fmt.Errorf("update application %d status: %w", id, res.Error)
	}
	return res.RowsAffected == 1, nil
}
