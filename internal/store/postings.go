package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"eden/internal/models"
)

// Postings is the gorm-backed posting table.
type Postings struct {
	db *gorm.DB
}

func NewPostings(db *gorm.DB) *Postings {
	return &Postings{db: db}
}

func (s *Postings) Create(ctx context.Context, p *models.Posting) error {
	if err := s.db.WithContext(ctx).Create(p).Error; err != nil {
		return fmt.Errorf("create posting: %w", err)
	}
	return nil
}

// Get returns the posting with the given id, deleted or not.
func (s *Postings) Get(ctx context.Context, id uint) (*models.Posting, error) {
	var p models.Posting
	if err := s.db.WithContext(ctx).First(&p, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "store.GetPosting", "posting %d not found", id)
	}
	return &p, nil
}

// FindByIDs returns the postings among ids that exist, in no particular order.
func (s *Postings) FindByIDs(ctx context.Context, ids []uint) ([]models.Posting, error) {
	var items []models.Posting
	if len(ids) == 0 {
		return items, nil
	}
	if err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&items).Error; err != nil {
		return nil, fmt.Errorf("find postings: %w", err)
	}
	return items, nil
}

// ListByOwner returns the owner's postings that are not deleted.
func (s *Postings) ListByOwner(ctx context.Context, ownerID uint) ([]models.Posting, error) {
	var items []models.Posting
	err := s.db.WithContext(ctx).
		Where("owner_id = ? AND status <> ?", ownerID, models.StatusDeleted).
		Order(newestFirst).
		Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("list postings of owner %d: %w", ownerID, err)
	}
	return items, nil
}

// ListByStatus returns every posting in status across owners.
func (s *Postings) ListByStatus(ctx context.Context, status models.Status) ([]models.Posting, error) {
	var items []models.Posting
	err := s.db.WithContext(ctx).
		Where("status = ? AND removed_at IS NULL", status).
		Order(newestFirst).
		Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("list %s postings: %w", status, err)
	}
	return items, nil
}

// ListApproved returns approved postings of kind matching filter.
func (s *Postings) ListApproved(ctx context.Context, kind models.Kind, filter models.PostingFilter) ([]models.Posting, error) {
	q := s.db.WithContext(ctx).
		Where("kind = ? AND status = ? AND removed_at IS NULL", kind, models.StatusApproved)
	if filter.Subcategory != "" {
		q = q.Where("subcategory = ?", filter.Subcategory)
	}
	if term := strings.TrimSpace(filter.Search); term != "" {
		like := containsPattern(term)
		q = q.Where(`(LOWER(title) LIKE ? ESCAPE '\' OR LOWER(description) LIKE ? ESCAPE '\')`, like, like)
	}

	var items []models.Posting
	if err := q.Order(newestFirst).Find(&items).Error; err != nil {
		return nil, fmt.Errorf("list approved %s postings: %w", kind, err)
	}
	return items, nil
}

// UpdateStatus moves the posting from one status to another. It reports false
// when the row was not in status from, so a lost race never overwrites.
func (s *Postings) UpdateStatus(ctx context.Context, id uint, from, to models.Status) (bool, error) {
	res := s.db.WithContext(ctx).Model(&models.Posting{}).
		Where("id = ? AND status = ? AND removed_at IS NULL", id, from).
		Update("status", to)
	if res.Error != nil {
		return false, fmt.Errorf("update posting %d status: %w", id, res.Error)
	}
	return res.RowsAffected == 1, nil
}

// MarkDeleted soft-deletes the posting. The row and its image stay in place.
func (s *Postings) MarkDeleted(ctx context.Context, id uint, at time.Time) (bool, error) {
	res := s.db.WithContext(ctx).Model(&models.Posting{}).
		Where("id = ? AND status <> ? AND removed_at IS NULL", id, models.StatusDeleted).
		Updates(map[string]any{"status": models.StatusDeleted, "removed_at": at})
	if res.Error != nil {
		return false, fmt.Errorf("delete posting %d: %w", id, res.Error)
	}
	return res.RowsAffected == 1, nil
}

// UpdatePending rewrites the editable columns of a posting that is still pending.
func (s *Postings) UpdatePending(ctx context.Context, p *models.Posting) (bool, error) {
	res := s.db.WithContext(ctx).Model(p).
		Where("status = ?", models.StatusPending).
		Select("title", "description", "hourly_rate", "price_centavos", "subcategory", "parent_job_id", "image_path").
		Updates(p)
	if res.Error != nil {
		return false, fmt.Errorf("update posting %d: %w", p.ID, res.Error)
	}
	return res.RowsAffected == 1, nil
}
